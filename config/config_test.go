package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Fatalf("got %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redix.yaml")
	content := `
listen_addr: "0.0.0.0:9000"
runtime:
  max_hot_entries: 3
privacy:
  default_mode: private
tor:
  bootstrap_timeout: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Runtime.MaxHotEntries != 3 {
		t.Errorf("MaxHotEntries = %d", cfg.Runtime.MaxHotEntries)
	}
	if cfg.Runtime.ColdBudgetBytes != 50_000_000 {
		t.Errorf("ColdBudgetBytes default not applied: %d", cfg.Runtime.ColdBudgetBytes)
	}
	if cfg.Privacy.DefaultMode != "private" {
		t.Errorf("DefaultMode = %q", cfg.Privacy.DefaultMode)
	}
	if cfg.Tor.BootstrapTimeout != 30*time.Second {
		t.Errorf("BootstrapTimeout = %v", cfg.Tor.BootstrapTimeout)
	}
	if cfg.Tabs.MaxCrashCount != 3 {
		t.Errorf("MaxCrashCount default not applied: %d", cfg.Tabs.MaxCrashCount)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
