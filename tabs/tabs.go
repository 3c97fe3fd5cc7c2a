// Package tabs owns the in-memory tab table for the browser shell. The UI
// renders tabs; this side owns their state: creation, activation, updates,
// the sleeping flag used by memory pressure handling, and the crash counter
// that trips safe mode.
package tabs

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/omnibrowser/redix/idgen"
	"github.com/omnibrowser/redix/privacy"
)

// ErrNotFound is returned when a tab id is unknown.
var ErrNotFound = errors.New("tabs: tab not found")

// Tab is the shell-side view of one tab. PrivacyMode and AppMode are kept
// as wire strings: the UI round-trips them verbatim.
type Tab struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Favicon      string `json:"favicon,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	LastActiveAt int64  `json:"lastActiveAt"`
	Active       bool   `json:"active"`
	Pinned       bool   `json:"pinned"`
	Sleeping     bool   `json:"sleeping"`
	PrivacyMode  string `json:"privacyMode"`
	AppMode      string `json:"appMode"`

	crashCount int // internal, never serialized
}

// Update carries partial tab mutations; nil fields are left unchanged.
type Update struct {
	URL      *string
	Title    *string
	Favicon  *string
	Pinned   *bool
	Sleeping *bool
}

// Manager is the mutex-guarded tab table.
type Manager struct {
	mu            sync.Mutex
	tabs          map[string]*Tab
	activeID      string
	maxCrashCount int
	newID         idgen.Generator
	now           func() int64
}

// Option customises a Manager.
type Option func(*Manager)

// WithIDGenerator overrides the tab ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithClock overrides the unix-milliseconds clock.
func WithClock(now func() int64) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. maxCrashCount is the per-tab crash threshold
// beyond which RecordCrash reports that the tab should enter safe mode.
func NewManager(maxCrashCount int, opts ...Option) *Manager {
	m := &Manager{
		tabs:          make(map[string]*Tab),
		maxCrashCount: maxCrashCount,
		newID:         idgen.Prefixed("tab_", idgen.Default),
		now:           func() int64 { return time.Now().UnixMilli() },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create adds a tab and makes it the active one.
func (m *Manager) Create(url string, mode privacy.Mode, appMode string) *Tab {
	now := m.now()
	tab := &Tab{
		ID:           m.newID(),
		URL:          url,
		Title:        "New Tab",
		CreatedAt:    now,
		LastActiveAt: now,
		Active:       true,
		PrivacyMode:  string(mode),
		AppMode:      appMode,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tabs {
		t.Active = false
	}
	m.tabs[tab.ID] = tab
	m.activeID = tab.ID

	cp := *tab
	return &cp
}

// Get returns a copy of the tab, or ErrNotFound.
func (m *Manager) Get(id string) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// List returns copies of all tabs ordered by creation time.
func (m *Manager) List() []*Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveID returns the id of the active tab, or "" if none.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// SetActive activates the given tab, deactivating all others, and refreshes
// its last-active timestamp.
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.tabs[id]
	if !ok {
		return ErrNotFound
	}
	for _, t := range m.tabs {
		t.Active = false
	}
	target.Active = true
	target.LastActiveAt = m.now()
	m.activeID = id
	return nil
}

// Apply mutates a tab in place with the non-nil fields of u.
func (m *Manager) Apply(id string, u Update) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.URL != nil {
		t.URL = *u.URL
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Favicon != nil {
		t.Favicon = *u.Favicon
	}
	if u.Pinned != nil {
		t.Pinned = *u.Pinned
	}
	if u.Sleeping != nil {
		t.Sleeping = *u.Sleeping
	}
	cp := *t
	return &cp, nil
}

// Close removes a tab. Reports whether the closed tab was the active one;
// when it was, the most recently active remaining tab becomes active.
func (m *Manager) Close(id string) (wasActive bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return false, ErrNotFound
	}
	wasActive = t.Active
	delete(m.tabs, id)

	if m.activeID == id {
		m.activeID = ""
		var next *Tab
		for _, c := range m.tabs {
			if next == nil || c.LastActiveAt > next.LastActiveAt {
				next = c
			}
		}
		if next != nil {
			next.Active = true
			next.LastActiveAt = m.now()
			m.activeID = next.ID
		}
	}
	return wasActive, nil
}

// RecordCrash increments the tab's crash counter. Reports true when the
// counter reaches the safe-mode threshold.
func (m *Manager) RecordCrash(id string) (safeMode bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return false, ErrNotFound
	}
	t.crashCount++
	return t.crashCount >= m.maxCrashCount, nil
}

// SleepCandidate returns the least recently active tab that is neither
// pinned, active, nor already sleeping, i.e. the one memory pressure
// handling should put to sleep next. Returns nil when no tab qualifies.
func (m *Manager) SleepCandidate() *Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidate *Tab
	for _, t := range m.tabs {
		if t.Pinned || t.Active || t.Sleeping {
			continue
		}
		if candidate == nil || t.LastActiveAt < candidate.LastActiveAt {
			candidate = t
		}
	}
	if candidate == nil {
		return nil
	}
	cp := *candidate
	return &cp
}

// Count returns the number of open tabs.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs)
}
