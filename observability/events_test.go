package observability

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/omnibrowser/redix/dbopen"
)

func TestLogAndRecent(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)
	ctx := context.Background()

	l.Log(ctx, Event{Type: EventModeChanged, Detail: `{"mode":"ghost"}`})
	l.Log(ctx, Event{Type: EventPrivacyViolation, TabID: "tab_1", Detail: `{"violation":"disk_write_attempted"}`})

	events, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.EventID == "" || e.CreatedAt == 0 {
			t.Errorf("event missing id or timestamp: %+v", e)
		}
	}
}

func TestLogSwallowsErrors(t *testing.T) {
	// No schema applied: the insert fails, but Log must not panic or block.
	db := dbopen.OpenMemory(t)
	l := NewEventLogger(db)
	l.Log(context.Background(), Event{Type: EventTabCrashed, TabID: "tab_x"})
}

func TestCleanup(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	// One old row, one fresh row.
	if _, err := db.ExecContext(ctx, `
		INSERT INTO shell_events (event_id, event_type, created_at)
		VALUES ('evt_old','tab_crashed',1), ('evt_new','tab_crashed',
			(CAST(strftime('%s','now') AS INTEGER) * 1000))`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Cleanup(ctx, db, 7, false); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shell_events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d rows after cleanup, want 1", n)
	}
}

func TestCleanupZeroDaysIsNoop(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO shell_events (event_id, event_type, created_at)
		VALUES ('evt_old','tab_crashed',1)`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Cleanup(ctx, db, 0, false); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shell_events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("row deleted by zero-day cleanup")
	}
}
