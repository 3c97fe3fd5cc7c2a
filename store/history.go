package store

import (
	"context"
	"time"
)

// HistoryEntry is one visited URL with its visit counter.
type HistoryEntry struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	VisitedAt  int64  `json:"visited_at"`
	VisitCount int64  `json:"visit_count"`
}

// AddHistory records a visit. Revisiting a URL refreshes its title and
// timestamp and increments the visit counter instead of adding a row.
func (s *Store) AddHistory(ctx context.Context, url, title string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO history (id, url, title, visited_at, visit_count)
		VALUES (?,?,?,?,1)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			visited_at = excluded.visited_at,
			visit_count = visit_count + 1`,
		s.newID(), url, title, time.Now().UnixMilli())
	return err
}

// ListHistory returns entries most recent first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryHistory(ctx, `
		SELECT id, url, title, visited_at, visit_count
		FROM history ORDER BY visited_at DESC LIMIT ?`, limit)
}

// SearchHistory matches query against url and title, most recent first.
func (s *Store) SearchHistory(ctx context.Context, query string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + query + "%"
	return s.queryHistory(ctx, `
		SELECT id, url, title, visited_at, visit_count
		FROM history
		WHERE url LIKE ? OR title LIKE ?
		ORDER BY visited_at DESC LIMIT ?`, like, like, limit)
}

// DeleteHistoryURL removes all history for one URL.
func (s *Store) DeleteHistoryURL(ctx context.Context, url string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM history WHERE url = ?`, url)
	return err
}

// ClearHistory removes all history.
func (s *Store) ClearHistory(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM history`)
	return err
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]*HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.VisitedAt, &e.VisitCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
