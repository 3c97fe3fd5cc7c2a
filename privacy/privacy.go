// Package privacy derives side-effect capabilities from the shell's privacy
// mode and enforces them. The derivation table is fixed: the UI can request
// a mode but can never override what a mode permits.
//
// Callers consult the enforcer before every externally observable side
// effect (disk writes, history, cache, cookies, clipboard, screenshots,
// crash reports, DNS caching) and report violations back through
// HandleViolation. In Ghost mode a violation is critical and disables
// Ghost, reverting to Normal.
package privacy

import (
	"fmt"
	"log/slog"
	"sync"
)

// Mode is the discrete privacy mode selected by the user.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModePrivate Mode = "private"
	ModeGhost   Mode = "ghost"
)

// ParseMode validates a mode tag. Unknown tags are a caller error.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModePrivate, ModeGhost:
		return Mode(s), nil
	}
	return "", fmt.Errorf("privacy: unknown mode %q", s)
}

// Policy is the capability record derived from a mode. Policies are plain
// values: reads copy them, and a policy never changes after derivation.
type Policy struct {
	Mode                 Mode `json:"mode"`
	AllowDiskWrites      bool `json:"allow_disk_writes"`
	AllowHistory         bool `json:"allow_history"`
	AllowCache           bool `json:"allow_cache"`
	AllowCookies         bool `json:"allow_cookies"`
	UseTor               bool `json:"use_tor"`
	FingerprintHardening bool `json:"fingerprint_hardening"`
}

// PolicyFor derives the policy for a mode. Identical modes always yield
// identical policies.
func PolicyFor(mode Mode) Policy {
	switch mode {
	case ModePrivate:
		return Policy{
			Mode:                 ModePrivate,
			AllowDiskWrites:      true, // session-only writes stay allowed
			AllowHistory:         false,
			AllowCache:           false,
			AllowCookies:         false,
			UseTor:               false,
			FingerprintHardening: true,
		}
	case ModeGhost:
		return Policy{
			Mode:                 ModeGhost,
			AllowDiskWrites:      false,
			AllowHistory:         false,
			AllowCache:           false,
			AllowCookies:         false,
			UseTor:               true,
			FingerprintHardening: true,
		}
	default:
		return Policy{
			Mode:                 ModeNormal,
			AllowDiskWrites:      true,
			AllowHistory:         true,
			AllowCache:           true,
			AllowCookies:         true,
			UseTor:               false,
			FingerprintHardening: false,
		}
	}
}

// Enforcer holds the current policy. Safe for concurrent use; reads copy
// the small policy value rather than handing out references.
type Enforcer struct {
	mu     sync.RWMutex
	policy Policy
	logger *slog.Logger
}

// Option customises an Enforcer.
type Option func(*Enforcer)

// WithLogger sets the logger used for violation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) { e.logger = l }
}

// NewEnforcer creates an Enforcer starting in the given mode.
func NewEnforcer(initial Mode, opts ...Option) *Enforcer {
	e := &Enforcer{
		policy: PolicyFor(initial),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetMode atomically replaces the current policy with the derivation of
// mode and returns the new policy.
func (e *Enforcer) SetMode(mode Mode) Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = PolicyFor(mode)
	return e.policy
}

// Policy returns the current policy by value.
func (e *Enforcer) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// Mode returns the current mode.
func (e *Enforcer) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy.Mode
}

// Capability predicates. The four Ghost-only denials (clipboard,
// screenshots, crash reports, DNS cache) are computed from the mode and
// never stored as independent knobs.

func (e *Enforcer) CanWriteToDisk() bool      { return e.Policy().AllowDiskWrites }
func (e *Enforcer) CanSaveHistory() bool      { return e.Policy().AllowHistory }
func (e *Enforcer) CanUseCache() bool         { return e.Policy().AllowCache }
func (e *Enforcer) CanStoreCookies() bool     { return e.Policy().AllowCookies }
func (e *Enforcer) ShouldUseTor() bool        { return e.Policy().UseTor }
func (e *Enforcer) FingerprintHardened() bool { return e.Policy().FingerprintHardening }

func (e *Enforcer) CanPersistClipboard() bool { return e.Mode() != ModeGhost }
func (e *Enforcer) CanTakeScreenshot() bool   { return e.Mode() != ModeGhost }
func (e *Enforcer) CanSendCrashReports() bool { return e.Mode() != ModeGhost }
func (e *Enforcer) CanCacheDNS() bool         { return e.Mode() != ModeGhost }

// EnforceDiskWrite must be called before any disk write.
func (e *Enforcer) EnforceDiskWrite() error {
	if !e.CanWriteToDisk() {
		return ErrDiskWriteBlocked
	}
	return nil
}

// EnforceHistorySave must be called before recording history.
func (e *Enforcer) EnforceHistorySave() error {
	if !e.CanSaveHistory() {
		return ErrHistoryBlocked
	}
	return nil
}

// EnforceCache must be called before writing to any persistent cache.
func (e *Enforcer) EnforceCache() error {
	if !e.CanUseCache() {
		return ErrCacheBlocked
	}
	return nil
}

// EnforceCookies must be called before persisting cookies.
func (e *Enforcer) EnforceCookies() error {
	if !e.CanStoreCookies() {
		return ErrCookiesBlocked
	}
	return nil
}

// EnforceClipboardPersistence must be called before persisting clipboard
// contents.
func (e *Enforcer) EnforceClipboardPersistence() error {
	if !e.CanPersistClipboard() {
		return ErrClipboardBlocked
	}
	return nil
}

// EnforceScreenshot must be called before capturing the page.
func (e *Enforcer) EnforceScreenshot() error {
	if !e.CanTakeScreenshot() {
		return ErrScreenshotBlocked
	}
	return nil
}

// EnforceCrashReport must be called before any crash-report egress.
func (e *Enforcer) EnforceCrashReport() error {
	if !e.CanSendCrashReports() {
		return ErrCrashReportBlocked
	}
	return nil
}

// EnforceDNSCache must be called before persisting DNS lookups.
func (e *Enforcer) EnforceDNSCache() error {
	if !e.CanCacheDNS() {
		return ErrDNSCacheBlocked
	}
	return nil
}

// Violation identifies a side effect that happened despite the policy.
type Violation string

const (
	DiskWriteAttempted        Violation = "disk_write_attempted"
	HistorySaveAttempted      Violation = "history_save_attempted"
	CacheWriteAttempted       Violation = "cache_write_attempted"
	CookieSaveAttempted       Violation = "cookie_save_attempted"
	ClipboardPersistAttempted Violation = "clipboard_persist_attempted"
	ScreenshotAttempted       Violation = "screenshot_attempted"
	CrashReportAttempted      Violation = "crash_report_attempted"
	DNSCacheAttempted         Violation = "dns_cache_attempted"
)

// Action is the enforcer's response to a reported violation.
type Action string

const (
	// ActionWarn: the violation is logged; the mode is unchanged.
	ActionWarn Action = "warn"
	// ActionModeDisabled: Ghost mode was disabled and the shell reverted
	// to Normal.
	ActionModeDisabled Action = "mode_disabled"
)

// ParseViolation validates a wire-format violation name.
func ParseViolation(s string) (Violation, error) {
	switch v := Violation(s); v {
	case DiskWriteAttempted, HistorySaveAttempted, CacheWriteAttempted, CookieSaveAttempted,
		ClipboardPersistAttempted, ScreenshotAttempted, CrashReportAttempted, DNSCacheAttempted:
		return v, nil
	}
	return "", fmt.Errorf("privacy: unknown violation %q", s)
}

// HandleViolation reports that a side effect occurred in violation of the
// current policy. In Ghost mode violations are critical: Ghost is disabled
// and the mode auto-reverts to Normal. The UI surfaces the mode change to
// the user.
func (e *Enforcer) HandleViolation(v Violation) Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Warn("privacy violation detected", "violation", string(v), "mode", string(e.policy.Mode))

	if e.policy.Mode == ModeGhost {
		e.policy = PolicyFor(ModeNormal)
		return ActionModeDisabled
	}
	return ActionWarn
}
