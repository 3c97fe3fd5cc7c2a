// Package config holds the shell's YAML configuration and loader.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all shell configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
	LogLevel   string `yaml:"log_level"`

	Runtime   RuntimeConfig   `yaml:"runtime"`
	Privacy   PrivacyConfig   `yaml:"privacy"`
	Tabs      TabsConfig      `yaml:"tabs"`
	Tor       TorConfig       `yaml:"tor"`
	Stability StabilityConfig `yaml:"stability"`
	Retention RetentionConfig `yaml:"retention"`
}

// RuntimeConfig sizes the tab snapshot tiers.
type RuntimeConfig struct {
	MaxHotEntries   int   `yaml:"max_hot_entries"`
	ColdBudgetBytes int64 `yaml:"cold_budget_bytes"`
}

// PrivacyConfig sets the mode tabs start in.
type PrivacyConfig struct {
	DefaultMode string `yaml:"default_mode"`
}

// TabsConfig controls tab lifecycle behaviour.
type TabsConfig struct {
	MaxCrashCount int `yaml:"max_crash_count"`
}

// TorConfig controls the TOR supervisor.
type TorConfig struct {
	Binary           string        `yaml:"binary"`
	BootstrapTimeout time.Duration `yaml:"bootstrap_timeout"`
}

// StabilityConfig controls the memory watchdog.
type StabilityConfig struct {
	CheckInterval   time.Duration `yaml:"check_interval"`
	LowRAMThreshold float64       `yaml:"low_ram_threshold"`
}

// RetentionConfig controls event log cleanup.
type RetentionConfig struct {
	EventDays int  `yaml:"event_days"`
	Vacuum    bool `yaml:"vacuum"`
}

func (c *Config) defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:7490"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Runtime.MaxHotEntries <= 0 {
		c.Runtime.MaxHotEntries = 5
	}
	if c.Runtime.ColdBudgetBytes <= 0 {
		c.Runtime.ColdBudgetBytes = 50_000_000
	}
	if c.Privacy.DefaultMode == "" {
		c.Privacy.DefaultMode = "normal"
	}
	if c.Tabs.MaxCrashCount <= 0 {
		c.Tabs.MaxCrashCount = 3
	}
	if c.Tor.Binary == "" {
		c.Tor.Binary = "tor"
	}
	if c.Tor.BootstrapTimeout <= 0 {
		c.Tor.BootstrapTimeout = 90 * time.Second
	}
	if c.Stability.CheckInterval <= 0 {
		c.Stability.CheckInterval = 30 * time.Second
	}
	if c.Stability.LowRAMThreshold <= 0 {
		c.Stability.LowRAMThreshold = 0.85
	}
	if c.Retention.EventDays <= 0 {
		c.Retention.EventDays = 30
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// Load reads a YAML config file and applies defaults for unset fields.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
