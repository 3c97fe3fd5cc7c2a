// Package shell ties the browser backend together: tab lifecycle, tiered
// snapshots, privacy enforcement, persistence, TOR routing, and the event
// log. It is the single entry point both transports (HTTP and MCP) call
// into.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omnibrowser/redix/config"
	"github.com/omnibrowser/redix/observability"
	"github.com/omnibrowser/redix/privacy"
	"github.com/omnibrowser/redix/runtime"
	"github.com/omnibrowser/redix/stability"
	"github.com/omnibrowser/redix/store"
	"github.com/omnibrowser/redix/tabs"
	"github.com/omnibrowser/redix/tor"
)

// Shell owns the backend state. All methods are safe for concurrent use;
// each component carries its own lock.
type Shell struct {
	logger    *slog.Logger
	tabs      *tabs.Manager
	snapshots *runtime.Store
	enforcer  *privacy.Enforcer
	store     *store.Store
	tor       *tor.Supervisor
	events    *observability.EventLogger
	guard     *stability.MemoryGuard

	settings *SettingsState
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithTorSupervisor overrides the TOR supervisor (tests inject one with a
// fake binary).
func WithTorSupervisor(sup *tor.Supervisor) Option {
	return func(s *Shell) { s.tor = sup }
}

// WithMemoryGuard overrides the memory guard.
func WithMemoryGuard(g *stability.MemoryGuard) Option {
	return func(s *Shell) { s.guard = g }
}

// WithEventLogger overrides the event logger.
func WithEventLogger(l *observability.EventLogger) Option {
	return func(s *Shell) { s.events = l }
}

// New assembles a Shell from configuration and an open store.
func New(cfg *config.Config, st *store.Store, opts ...Option) (*Shell, error) {
	mode, err := privacy.ParseMode(cfg.Privacy.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("shell: default privacy mode: %w", err)
	}

	s := &Shell{
		logger:    slog.Default(),
		tabs:      tabs.NewManager(cfg.Tabs.MaxCrashCount),
		snapshots: runtime.New(cfg.Runtime.MaxHotEntries, cfg.Runtime.ColdBudgetBytes),
		store:     st,
	}
	for _, o := range opts {
		o(s)
	}
	s.enforcer = privacy.NewEnforcer(mode, privacy.WithLogger(s.logger))
	if s.tor == nil {
		s.tor = tor.NewSupervisor(cfg.DataDir, tor.WithBinary(cfg.Tor.Binary), tor.WithLogger(s.logger))
	}
	if s.guard == nil {
		s.guard = stability.NewMemoryGuard(10*time.Minute, 2_000_000_000)
	}
	if s.events == nil {
		s.events = observability.NewEventLogger(st.DB)
	}
	s.settings = newSettingsState(st)
	return s, nil
}

// Store exposes the persistence layer for transports that need raw reads.
func (s *Shell) Store() *store.Store { return s.store }

// Guard exposes the memory guard so the watchdog can be wired to it.
func (s *Shell) Guard() *stability.MemoryGuard { return s.guard }

// ---- Snapshots ----

// CaptureSnapshot decodes and stores a snapshot for a tab.
func (s *Shell) CaptureSnapshot(ctx context.Context, tabID string, raw json.RawMessage) (runtime.CaptureResult, error) {
	p, err := runtime.DecodePayload(raw)
	if err != nil {
		return runtime.CaptureResult{}, err
	}
	res, err := s.snapshots.Capture(tabID, p)
	if err != nil {
		return runtime.CaptureResult{}, err
	}
	if res.Evicted != "" {
		s.events.Log(ctx, observability.Event{
			Type:   observability.EventSnapshotDemoted,
			TabID:  res.Evicted,
			Detail: fmt.Sprintf(`{"coldBytes":%d}`, res.ColdBytes),
		})
	}
	return res, nil
}

// RestoreSnapshot returns the stored snapshot for a tab, or nil when none
// exists.
func (s *Shell) RestoreSnapshot(tabID string) *runtime.RestoreResult {
	return s.snapshots.Restore(tabID)
}

// SnapshotStats reports tier occupancy and counters.
func (s *Shell) SnapshotStats() runtime.Stats {
	return s.snapshots.Stats()
}

// ClearSnapshots drops all snapshots and context entries.
func (s *Shell) ClearSnapshots() {
	s.snapshots.Clear()
}

// SaveTabContext stores an opaque context value under a key.
func (s *Shell) SaveTabContext(key string, value json.RawMessage) error {
	return s.snapshots.SaveContext(key, value)
}

// TabContext fetches a context entry, or nil when the key is unknown.
func (s *Shell) TabContext(key string) *runtime.ContextRecord {
	return s.snapshots.FetchContext(key)
}

// ---- Tabs ----

// ErrTabLimit is returned when the guard's tab limit is reached.
var ErrTabLimit = errors.New("shell: tab limit reached")

// CreateTab opens a tab in the current privacy mode. Under Ghost a
// dedicated TOR instance is started for the tab.
func (s *Shell) CreateTab(ctx context.Context, url, appMode string) (*tabs.Tab, error) {
	if s.tabs.Count() >= s.guard.MaxTabs() {
		return nil, ErrTabLimit
	}
	mode := s.enforcer.Mode()
	tab := s.tabs.Create(url, mode, appMode)

	if s.enforcer.ShouldUseTor() {
		if _, err := s.tor.StartForTab(ctx, tab.ID); err != nil {
			s.logger.Warn("tor start failed for tab", "tab_id", tab.ID, "error", err)
		} else {
			s.events.Log(ctx, observability.Event{Type: observability.EventTorStarted, TabID: tab.ID})
		}
	}
	return tab, nil
}

// GetTab returns one tab.
func (s *Shell) GetTab(id string) (*tabs.Tab, error) { return s.tabs.Get(id) }

// ListTabs returns all tabs in stable order.
func (s *Shell) ListTabs() []*tabs.Tab { return s.tabs.List() }

// ActivateTab switches the active tab.
func (s *Shell) ActivateTab(id string) error { return s.tabs.SetActive(id) }

// UpdateTab applies a partial mutation.
func (s *Shell) UpdateTab(id string, u tabs.Update) (*tabs.Tab, error) {
	return s.tabs.Apply(id, u)
}

// CloseTab removes a tab, stops its TOR instance if any, and hands the
// active slot to the next tab.
func (s *Shell) CloseTab(ctx context.Context, id string) error {
	if _, err := s.tabs.Close(id); err != nil {
		return err
	}
	if err := s.tor.StopForTab(id); err == nil {
		s.events.Log(ctx, observability.Event{Type: observability.EventTorStopped, TabID: id})
	}
	return nil
}

// RecordTabCrash counts a renderer crash. Crossing the threshold flips the
// tab into safe mode.
func (s *Shell) RecordTabCrash(ctx context.Context, id string) (safeMode bool, err error) {
	safeMode, err = s.tabs.RecordCrash(id)
	if err != nil {
		return false, err
	}
	s.events.Log(ctx, observability.Event{
		Type:   observability.EventTabCrashed,
		TabID:  id,
		Detail: fmt.Sprintf(`{"safeMode":%t}`, safeMode),
	})
	return safeMode, nil
}

// SleepTab captures the tab's state into the snapshot store and marks it
// sleeping. The renderer can then be torn down.
func (s *Shell) SleepTab(ctx context.Context, id string, state json.RawMessage) (runtime.CaptureResult, error) {
	tab, err := s.tabs.Get(id)
	if err != nil {
		return runtime.CaptureResult{}, err
	}
	res, err := s.snapshots.Capture(id, runtime.Payload{
		State: state,
		Meta: &runtime.Meta{
			Title:   tab.Title,
			URL:     tab.URL,
			AppMode: tab.AppMode,
		},
	})
	if err != nil {
		return runtime.CaptureResult{}, err
	}
	sleeping := true
	if _, err := s.tabs.Apply(id, tabs.Update{Sleeping: &sleeping}); err != nil {
		return runtime.CaptureResult{}, err
	}
	s.events.Log(ctx, observability.Event{Type: observability.EventTabSlept, TabID: id})
	return res, nil
}

// WakeTab marks a sleeping tab awake and returns its snapshot so the
// renderer can be rebuilt. The snapshot may be nil if it was dropped under
// cold-tier pressure; the caller reloads from URL in that case.
func (s *Shell) WakeTab(ctx context.Context, id string) (*runtime.RestoreResult, error) {
	sleeping := false
	if _, err := s.tabs.Apply(id, tabs.Update{Sleeping: &sleeping}); err != nil {
		return nil, err
	}
	return s.snapshots.Restore(id), nil
}

// SleepIdleTabs puts the best sleep candidate to sleep. Wired to the
// stability watchdog's pressure callback; state capture is skipped because
// the renderer is queried asynchronously by the UI layer.
func (s *Shell) SleepIdleTabs(ctx context.Context) int {
	slept := 0
	if tab := s.tabs.SleepCandidate(); tab != nil {
		sleeping := true
		if _, err := s.tabs.Apply(tab.ID, tabs.Update{Sleeping: &sleeping}); err == nil {
			s.events.Log(ctx, observability.Event{Type: observability.EventTabSlept, TabID: tab.ID})
			slept++
		}
	}
	return slept
}

// ---- Privacy ----

// PrivacyPolicy returns the active policy.
func (s *Shell) PrivacyPolicy() privacy.Policy { return s.enforcer.Policy() }

// Enforcer exposes the policy engine to transports and stores.
func (s *Shell) Enforcer() *privacy.Enforcer { return s.enforcer }

// SetPrivacyMode switches the global mode. Entering a TOR-routed mode
// starts an instance per open tab; leaving one stops them all.
func (s *Shell) SetPrivacyMode(ctx context.Context, raw string) (privacy.Policy, error) {
	mode, err := privacy.ParseMode(raw)
	if err != nil {
		return privacy.Policy{}, err
	}
	wasTor := s.enforcer.ShouldUseTor()
	policy := s.enforcer.SetMode(mode)

	switch {
	case policy.UseTor && !wasTor:
		for _, tab := range s.tabs.List() {
			if _, err := s.tor.StartForTab(ctx, tab.ID); err != nil {
				s.logger.Warn("tor start failed for tab", "tab_id", tab.ID, "error", err)
				continue
			}
			s.events.Log(ctx, observability.Event{Type: observability.EventTorStarted, TabID: tab.ID})
		}
	case !policy.UseTor && wasTor:
		s.tor.StopAll()
		s.events.Log(ctx, observability.Event{Type: observability.EventTorStopped})
	}

	s.events.Log(ctx, observability.Event{
		Type:   observability.EventModeChanged,
		Detail: fmt.Sprintf(`{"mode":%q}`, mode),
	})
	return policy, nil
}

// ReportViolation records that a side effect slipped past the policy.
// Under Ghost the mode is disabled and TOR instances are torn down.
func (s *Shell) ReportViolation(ctx context.Context, v privacy.Violation) privacy.Action {
	action := s.enforcer.HandleViolation(v)
	s.events.Log(ctx, observability.Event{
		Type:   observability.EventPrivacyViolation,
		Detail: fmt.Sprintf(`{"violation":%q,"action":%q}`, v, action),
	})
	if action == privacy.ActionModeDisabled {
		s.tor.StopAll()
		s.events.Log(ctx, observability.Event{Type: observability.EventTorStopped})
	}
	return action
}

// TorStatus reports the TOR instance state for a tab.
func (s *Shell) TorStatus(tabID string) (tor.Status, bool) {
	return s.tor.Status(tabID)
}

// Shutdown stops background processes. Safe to call once at exit.
func (s *Shell) Shutdown() {
	s.tor.StopAll()
}

// RecentEvents returns the latest entries from the event log.
func (s *Shell) RecentEvents(ctx context.Context, limit int) ([]observability.StoredEvent, error) {
	return s.events.Recent(ctx, limit)
}
