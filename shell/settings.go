package shell

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/omnibrowser/redix/store"
)

// Settings are the user-facing shell preferences, persisted in the
// settings table. Privacy gating does not apply here: changing a
// preference is an explicit user action, not browsing data.
type Settings struct {
	Language        string `json:"language"`
	DefaultAppMode  string `json:"default_app_mode"`
	StartupBehavior string `json:"startup_behavior"` // "restore" or "fresh"
	Telemetry       bool   `json:"telemetry"`
	LowRAMMode      bool   `json:"low_ram_mode"`
}

func defaultSettings() Settings {
	return Settings{
		Language:        "en",
		DefaultAppMode:  "browser",
		StartupBehavior: "restore",
	}
}

// SettingsState caches the settings and writes changes through to the
// store.
type SettingsState struct {
	store *store.Store

	mu      sync.RWMutex
	current Settings
}

func newSettingsState(st *store.Store) *SettingsState {
	return &SettingsState{store: st, current: defaultSettings()}
}

// Settings returns the current settings snapshot.
func (s *Shell) Settings() Settings {
	s.settings.mu.RLock()
	defer s.settings.mu.RUnlock()
	return s.settings.current
}

// ReloadSettings re-reads the settings table. Wired to the store watcher
// so edits from other connections are picked up, and applies the low-RAM
// flag to the memory guard.
func (s *Shell) ReloadSettings(ctx context.Context) error {
	all, err := s.settings.store.AllSettings(ctx)
	if err != nil {
		return fmt.Errorf("shell: reload settings: %w", err)
	}

	cur := defaultSettings()
	if v, ok := all["language"]; ok {
		cur.Language = v
	}
	if v, ok := all["default_app_mode"]; ok {
		cur.DefaultAppMode = v
	}
	if v, ok := all["startup_behavior"]; ok {
		cur.StartupBehavior = v
	}
	if v, ok := all["telemetry"]; ok {
		cur.Telemetry, _ = strconv.ParseBool(v)
	}
	if v, ok := all["low_ram_mode"]; ok {
		cur.LowRAMMode, _ = strconv.ParseBool(v)
	}

	s.settings.mu.Lock()
	s.settings.current = cur
	s.settings.mu.Unlock()

	s.guard.SetLowRAMMode(cur.LowRAMMode)
	return nil
}

// UpdateSettings persists the given settings and applies them.
func (s *Shell) UpdateSettings(ctx context.Context, next Settings) error {
	pairs := map[string]string{
		"language":         next.Language,
		"default_app_mode": next.DefaultAppMode,
		"startup_behavior": next.StartupBehavior,
		"telemetry":        strconv.FormatBool(next.Telemetry),
		"low_ram_mode":     strconv.FormatBool(next.LowRAMMode),
	}
	for key, value := range pairs {
		if err := s.settings.store.SetSetting(ctx, key, value); err != nil {
			return fmt.Errorf("shell: save setting %s: %w", key, err)
		}
	}

	s.settings.mu.Lock()
	s.settings.current = next
	s.settings.mu.Unlock()

	s.guard.SetLowRAMMode(next.LowRAMMode)
	return nil
}
