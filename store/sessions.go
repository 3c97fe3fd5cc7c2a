package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session is the single persisted tab-session snapshot used by the
// "restore on startup" behavior. The tabs payload is opaque UI JSON.
type Session struct {
	ActiveTabID string `json:"active_tab_id,omitempty"`
	TabsJSON    string `json:"tabs_json"`
	SavedAt     int64  `json:"saved_at"`
}

// SaveSession overwrites the current session snapshot.
func (s *Store) SaveSession(ctx context.Context, activeTabID, tabsJSON string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, active_tab_id, tabs_json, saved_at)
		VALUES ('current', ?, ?, ?)`,
		nullable(activeTabID), tabsJSON, time.Now().UnixMilli())
	return err
}

// LoadSession returns the current session snapshot, or nil if none saved.
func (s *Store) LoadSession(ctx context.Context) (*Session, error) {
	sess := &Session{}
	var active sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT active_tab_id, tabs_json, saved_at
		FROM sessions WHERE id = 'current'`).Scan(&active, &sess.TabsJSON, &sess.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.ActiveTabID = active.String
	return sess, nil
}

// ClearSession drops the persisted session snapshot.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = 'current'`)
	return err
}
