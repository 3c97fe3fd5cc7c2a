package privacy

import (
	"errors"
	"testing"
)

func TestDerivationTable(t *testing.T) {
	tests := []struct {
		mode Mode
		want Policy
	}{
		{ModeNormal, Policy{
			Mode:            ModeNormal,
			AllowDiskWrites: true,
			AllowHistory:    true,
			AllowCache:      true,
			AllowCookies:    true,
		}},
		{ModePrivate, Policy{
			Mode:                 ModePrivate,
			AllowDiskWrites:      true,
			FingerprintHardening: true,
		}},
		{ModeGhost, Policy{
			Mode:                 ModeGhost,
			UseTor:               true,
			FingerprintHardening: true,
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := PolicyFor(tt.mode); got != tt.want {
				t.Errorf("PolicyFor(%s):\n got %+v\nwant %+v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestPolicyIsPureFunctionOfMode(t *testing.T) {
	e := NewEnforcer(ModeNormal)
	first := e.SetMode(ModePrivate)
	second := e.SetMode(ModePrivate) // idempotent
	if first != second {
		t.Errorf("repeated SetMode diverged: %+v vs %+v", first, second)
	}
	if got := e.Policy(); got != second {
		t.Errorf("Policy() != SetMode result: %+v vs %+v", got, second)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"normal", "private", "ghost"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "incognito", "Normal", "GHOST"} {
		if _, err := ParseMode(invalid); err == nil {
			t.Errorf("ParseMode(%q): expected error", invalid)
		}
	}
}

func TestGhostBlocksDiskWrites(t *testing.T) {
	e := NewEnforcer(ModeNormal)

	e.SetMode(ModeGhost)
	if err := e.EnforceDiskWrite(); !errors.Is(err, ErrDiskWriteBlocked) {
		t.Errorf("ghost EnforceDiskWrite: got %v, want ErrDiskWriteBlocked", err)
	}

	e.SetMode(ModeNormal)
	if err := e.EnforceDiskWrite(); err != nil {
		t.Errorf("normal EnforceDiskWrite: got %v, want nil", err)
	}
}

func TestEnforcementMatchesPredicates(t *testing.T) {
	type check struct {
		name    string
		allowed func(*Enforcer) bool
		enforce func(*Enforcer) error
		wantErr error
	}
	checks := []check{
		{"disk_write", (*Enforcer).CanWriteToDisk, (*Enforcer).EnforceDiskWrite, ErrDiskWriteBlocked},
		{"history", (*Enforcer).CanSaveHistory, (*Enforcer).EnforceHistorySave, ErrHistoryBlocked},
		{"cache", (*Enforcer).CanUseCache, (*Enforcer).EnforceCache, ErrCacheBlocked},
		{"cookies", (*Enforcer).CanStoreCookies, (*Enforcer).EnforceCookies, ErrCookiesBlocked},
		{"clipboard", (*Enforcer).CanPersistClipboard, (*Enforcer).EnforceClipboardPersistence, ErrClipboardBlocked},
		{"screenshot", (*Enforcer).CanTakeScreenshot, (*Enforcer).EnforceScreenshot, ErrScreenshotBlocked},
		{"crash_report", (*Enforcer).CanSendCrashReports, (*Enforcer).EnforceCrashReport, ErrCrashReportBlocked},
		{"dns_cache", (*Enforcer).CanCacheDNS, (*Enforcer).EnforceDNSCache, ErrDNSCacheBlocked},
	}

	for _, mode := range []Mode{ModeNormal, ModePrivate, ModeGhost} {
		e := NewEnforcer(mode)
		for _, c := range checks {
			err := c.enforce(e)
			if c.allowed(e) {
				if err != nil {
					t.Errorf("%s/%s: predicate true but enforce returned %v", mode, c.name, err)
				}
			} else if !errors.Is(err, c.wantErr) {
				t.Errorf("%s/%s: predicate false, enforce returned %v, want %v", mode, c.name, err, c.wantErr)
			}
		}
	}
}

func TestGhostOnlyDenials(t *testing.T) {
	for _, mode := range []Mode{ModeNormal, ModePrivate} {
		e := NewEnforcer(mode)
		if !e.CanPersistClipboard() || !e.CanTakeScreenshot() || !e.CanSendCrashReports() || !e.CanCacheDNS() {
			t.Errorf("%s: ghost-only denials applied outside ghost", mode)
		}
	}
	e := NewEnforcer(ModeGhost)
	if e.CanPersistClipboard() || e.CanTakeScreenshot() || e.CanSendCrashReports() || e.CanCacheDNS() {
		t.Error("ghost: expected clipboard/screenshot/crash-report/dns-cache all denied")
	}
}

func TestViolationAutoRevertsGhost(t *testing.T) {
	e := NewEnforcer(ModeGhost)

	action := e.HandleViolation(DiskWriteAttempted)
	if action != ActionModeDisabled {
		t.Errorf("ghost violation: got %q, want %q", action, ActionModeDisabled)
	}
	if got := e.Mode(); got != ModeNormal {
		t.Errorf("mode after ghost violation: got %q, want %q", got, ModeNormal)
	}

	// A second violation in Normal mode only warns and leaves the mode alone.
	action = e.HandleViolation(DiskWriteAttempted)
	if action != ActionWarn {
		t.Errorf("normal violation: got %q, want %q", action, ActionWarn)
	}
	if got := e.Mode(); got != ModeNormal {
		t.Errorf("mode after normal violation: got %q, want %q", got, ModeNormal)
	}
}

func TestViolationInPrivateWarns(t *testing.T) {
	e := NewEnforcer(ModePrivate)
	if action := e.HandleViolation(HistorySaveAttempted); action != ActionWarn {
		t.Errorf("private violation: got %q, want %q", action, ActionWarn)
	}
	if got := e.Mode(); got != ModePrivate {
		t.Errorf("mode after private violation: got %q, want %q", got, ModePrivate)
	}
}
