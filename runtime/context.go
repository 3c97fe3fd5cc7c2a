package runtime

import (
	"encoding/json"
	"fmt"
)

// ContextRecord is a last-writer-wins entry in the context map. The map has
// no eviction and no size limit: callers that write unbounded key sets are
// expected to Clear periodically. An eviction policy can be added later
// without changing this shape.
type ContextRecord struct {
	Key       string          `json:"key"`
	UpdatedAt int64           `json:"updated_at"`
	Value     json.RawMessage `json:"value"`
}

// SaveContext stores value under key, overwriting any previous value.
func (s *Store) SaveContext(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("%w: empty context key", ErrInvalidPayload)
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: context value is not valid JSON", ErrInvalidPayload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[key] = ContextRecord{
		Key:       key,
		UpdatedAt: s.now(),
		Value:     append(json.RawMessage(nil), value...),
	}
	return nil
}

// FetchContext returns the record for key, or nil on miss.
func (s *Store) FetchContext(key string) *ContextRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.contexts[key]
	if !ok {
		return nil
	}
	rec.Value = append(json.RawMessage(nil), rec.Value...)
	return &rec
}
