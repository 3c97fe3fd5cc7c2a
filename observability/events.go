// Package observability records shell lifecycle events into a local SQLite
// log: privacy violations and mode changes, snapshot demotions, tab
// crashes, TOR lifecycle. The log is diagnostics only; nothing in the
// shell reads it back on the hot path.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/omnibrowser/redix/idgen"
)

// Schema creates the event log tables.
const Schema = `
CREATE TABLE IF NOT EXISTS shell_events (
	event_id   TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	tab_id     TEXT,
	detail     TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shell_events_created ON shell_events(created_at);
`

// Event types recorded by the shell.
const (
	EventPrivacyViolation = "privacy_violation"
	EventModeChanged      = "privacy_mode_changed"
	EventSnapshotDemoted  = "snapshot_demoted"
	EventTabCrashed       = "tab_crashed"
	EventTabSlept         = "tab_slept"
	EventTorStarted       = "tor_started"
	EventTorStopped       = "tor_stopped"
	EventMemoryPressure   = "memory_pressure"
)

// Event is one shell lifecycle event. Detail is optional JSON.
type Event struct {
	Type   string
	TabID  string
	Detail string
}

// EventLogger writes shell events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures an EventLogger.
type Option func(*EventLogger)

// WithIDGenerator sets a custom ID generator for event IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database. The caller
// applies Schema (usually via dbopen.WithSchema).
func NewEventLogger(db *sql.DB, opts ...Option) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Log records an event. Non-blocking: errors are logged via slog but do not
// propagate, so a failing event store never blocks the shell.
func (l *EventLogger) Log(ctx context.Context, e Event) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO shell_events (event_id, event_type, tab_id, detail, created_at)
		VALUES (?,?,?,?,?)`,
		l.newID(), e.Type, nullable(e.TabID), nullable(e.Detail), time.Now().UnixMilli())
	if err != nil {
		slog.Error("shell event log failed", "error", err, "event_type", e.Type)
	}
}

// Recent returns the latest events, newest first. For diagnostics surfaces.
func (l *EventLogger) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, event_type, tab_id, detail, created_at
		FROM shell_events ORDER BY created_at DESC, event_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var tabID, detail sql.NullString
		if err := rows.Scan(&e.EventID, &e.Type, &tabID, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TabID = tabID.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// StoredEvent is an event row read back from the log.
type StoredEvent struct {
	EventID   string `json:"event_id"`
	Type      string `json:"event_type"`
	TabID     string `json:"tab_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Cleanup deletes events older than the retention window. Zero days means
// no cleanup. Set vacuum to reclaim file space afterwards.
func Cleanup(ctx context.Context, db *sql.DB, days int, vacuum bool) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	if _, err := db.ExecContext(ctx, `DELETE FROM shell_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup shell_events: %w", err)
	}
	if vacuum {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
