// Package runtime holds the per-tab snapshot cache for the browser shell.
//
// Snapshots live in two tiers: a hot tier bounded by entry count with LRU
// ordering, and a cold tier bounded by a byte budget with FIFO ordering.
// Overflowing the hot tier demotes the least-recently-used snapshot to the
// cold tier; overflowing the cold budget drops the oldest cold snapshots.
// A flat context map (no eviction) shares the store's lifecycle.
//
// The store is process-local and volatile: nothing here touches disk.
// All operations are safe for concurrent use behind a single mutex.
package runtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidPayload is returned when an inbound payload fails to parse into
// the expected shape. The IPC layers map it to the "invalid_payload" code.
var ErrInvalidPayload = errors.New("runtime: invalid payload")

// coldBudgetFloor is the minimum cold-tier byte budget. Budgets below it are
// clamped up to avoid eviction-every-insert behavior on tiny budgets.
const coldBudgetFloor = 1_000_000

// Restore source tags.
const (
	SourceHot                 = "hot"
	SourceColdPromoted        = "cold.promoted"
	SourceColdPromotedEvicted = "cold.promoted-with-eviction"
)

// Meta carries optional descriptive fields attached to a snapshot.
// The store copies it verbatim and never interprets it.
type Meta struct {
	Title          string  `json:"title,omitempty"`
	URL            string  `json:"url,omitempty"`
	AppMode        string  `json:"app_mode,omitempty"`
	ContainerID    string  `json:"container_id,omitempty"`
	ApproxMemoryMB float64 `json:"approx_memory_mb,omitempty"`
}

// Payload is the input to Capture: an opaque JSON state plus optional meta.
type Payload struct {
	State json.RawMessage `json:"state"`
	Meta  *Meta           `json:"meta,omitempty"`
}

// DecodePayload parses a raw JSON capture payload. A missing or null state
// is rejected with ErrInvalidPayload.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(p.State) == 0 || bytes.Equal(p.State, []byte("null")) {
		return Payload{}, fmt.Errorf("%w: missing state", ErrInvalidPayload)
	}
	return p, nil
}

// record is a captured snapshot. approxSizeBytes is computed once at capture
// time and never recomputed; hits only grows, and survives tier moves.
type record struct {
	tabID           string
	capturedAt      int64
	approxSizeBytes int64
	hits            int64
	state           json.RawMessage
	meta            *Meta
}

// CaptureResult describes where a captured snapshot landed.
type CaptureResult struct {
	TabID       string `json:"tabId"`
	StoredIn    string `json:"storedIn"`
	Evicted     string `json:"evicted,omitempty"`
	HotEntries  int    `json:"hotEntries"`
	ColdEntries int    `json:"coldEntries"`
	ColdBytes   int64  `json:"coldBytes"`
}

// RestoreResult is a restored snapshot. State and Meta are copies; mutating
// them does not affect the stored record.
type RestoreResult struct {
	TabID  string          `json:"tabId"`
	State  json.RawMessage `json:"state"`
	Meta   *Meta           `json:"meta,omitempty"`
	Source string          `json:"source"`
}

// Stats is a read-only view of the store's counters. EvictionCount counts
// hot-to-cold demotions only; cold-tier budget drops are not counted.
type Stats struct {
	HotEntries      int   `json:"hotEntries"`
	ColdEntries     int   `json:"coldEntries"`
	ColdBytes       int64 `json:"coldBytes"`
	MaxHotEntries   int   `json:"maxHotEntries"`
	ColdBudgetBytes int64 `json:"coldBudgetBytes"`
	EvictionCount   int64 `json:"evictionCount"`
}

// Store is the two-tier snapshot cache. Create with New.
type Store struct {
	maxHot     int
	coldBudget int64
	now        func() int64

	mu        sync.Mutex
	hot       map[string]*record
	order     []string // LRU: front = least recent, back = most recent
	cold      []*record
	coldBytes int64
	contexts  map[string]ContextRecord
	evictions int64
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the wall-clock millisecond source. Timestamps are only
// reported, never compared, so any monotonic-ish source will do.
func WithClock(now func() int64) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store. maxHotEntries below 1 is coerced to 1;
// coldBudgetBytes below 1 MB is coerced to 1 MB.
func New(maxHotEntries int, coldBudgetBytes int64, opts ...Option) *Store {
	if maxHotEntries < 1 {
		maxHotEntries = 1
	}
	if coldBudgetBytes < coldBudgetFloor {
		coldBudgetBytes = coldBudgetFloor
	}
	s := &Store{
		maxHot:     maxHotEntries,
		coldBudget: coldBudgetBytes,
		now:        func() int64 { return time.Now().UnixMilli() },
		hot:        make(map[string]*record),
		contexts:   make(map[string]ContextRecord),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Capture stores a snapshot for tabID in the hot tier, replacing any
// previous snapshot under the same key in either tier. Budget pressure is
// resolved by eviction, never by rejecting the capture.
func (s *Store) Capture(tabID string, p Payload) (CaptureResult, error) {
	if tabID == "" {
		return CaptureResult{}, fmt.Errorf("%w: empty tab id", ErrInvalidPayload)
	}
	if len(p.State) == 0 {
		return CaptureResult{}, fmt.Errorf("%w: missing state", ErrInvalidPayload)
	}

	rec := &record{
		tabID:           tabID,
		capturedAt:      s.now(),
		approxSizeBytes: approximateSize(p.State),
		state:           append(json.RawMessage(nil), p.State...),
	}
	if p.Meta != nil {
		m := *p.Meta
		rec.meta = &m
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A fresh capture overrides any stale cold entry for the same tab.
	s.removeCold(tabID)

	s.hot[tabID] = rec
	s.touch(tabID)

	var evicted string
	if len(s.hot) > s.maxHot {
		evicted = s.demoteOldest()
	}

	return CaptureResult{
		TabID:       tabID,
		StoredIn:    "hot",
		Evicted:     evicted,
		HotEntries:  len(s.hot),
		ColdEntries: len(s.cold),
		ColdBytes:   s.coldBytes,
	}, nil
}

// Restore returns the snapshot for tabID, or nil if it is unknown. A hot hit
// bumps the hit counter and refreshes LRU position; a cold hit promotes the
// record back to the hot tier, preserving its hit counter.
func (s *Store) Restore(tabID string) *RestoreResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.hot[tabID]; ok {
		rec.hits++
		s.touch(tabID)
		return &RestoreResult{
			TabID:  tabID,
			State:  append(json.RawMessage(nil), rec.state...),
			Meta:   cloneMeta(rec.meta),
			Source: SourceHot,
		}
	}

	rec := s.removeCold(tabID)
	if rec == nil {
		return nil
	}

	// Promotion carries the hit counter across tiers unchanged; only hot
	// hits increment it.
	s.hot[tabID] = rec
	s.touch(tabID)

	source := SourceColdPromoted
	if len(s.hot) > s.maxHot {
		if s.demoteOldest() != "" {
			source = SourceColdPromotedEvicted
		}
	}

	return &RestoreResult{
		TabID:  tabID,
		State:  append(json.RawMessage(nil), rec.state...),
		Meta:   cloneMeta(rec.meta),
		Source: source,
	}
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		HotEntries:      len(s.hot),
		ColdEntries:     len(s.cold),
		ColdBytes:       s.coldBytes,
		MaxHotEntries:   s.maxHot,
		ColdBudgetBytes: s.coldBudget,
		EvictionCount:   s.evictions,
	}
}

// Clear empties both tiers, the LRU order, the context map, and resets the
// eviction counter. The configured limits are preserved.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hot = make(map[string]*record)
	s.order = s.order[:0]
	s.cold = nil
	s.coldBytes = 0
	s.contexts = make(map[string]ContextRecord)
	s.evictions = 0
}

// touch moves tabID to the most-recently-used end of the LRU order,
// appending it if absent. Linear scan: the hot tier holds a handful of entries.
func (s *Store) touch(tabID string) {
	for i, id := range s.order {
		if id == tabID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, tabID)
}

// demoteOldest moves the least-recently-used hot record to the back of the
// cold tier, then trims the cold tier to its byte budget. Returns the
// demoted tab id, or "" if the hot tier was empty. Only the demotion
// increments the eviction counter; budget drops do not.
func (s *Store) demoteOldest() string {
	if len(s.order) == 0 {
		return ""
	}
	oldest := s.order[0]
	s.order = s.order[1:]

	rec, ok := s.hot[oldest]
	if !ok {
		return ""
	}
	delete(s.hot, oldest)

	s.cold = append(s.cold, rec)
	s.coldBytes += rec.approxSizeBytes
	s.evictions++

	for s.coldBytes > s.coldBudget && len(s.cold) > 0 {
		dropped := s.cold[0]
		s.cold = s.cold[1:]
		s.coldBytes -= dropped.approxSizeBytes
	}
	return oldest
}

// removeCold removes and returns the cold record for tabID, if any.
func (s *Store) removeCold(tabID string) *record {
	for i, rec := range s.cold {
		if rec.tabID == tabID {
			s.cold = append(s.cold[:i], s.cold[i+1:]...)
			s.coldBytes -= rec.approxSizeBytes
			return rec
		}
	}
	return nil
}

func cloneMeta(m *Meta) *Meta {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// approximateSize is the byte length of the compact JSON serialization of
// state. The size is advisory; if state is not valid JSON the size is zero
// and the capture proceeds.
func approximateSize(state json.RawMessage) int64 {
	var buf bytes.Buffer
	if err := json.Compact(&buf, state); err != nil {
		return 0
	}
	return int64(buf.Len())
}
