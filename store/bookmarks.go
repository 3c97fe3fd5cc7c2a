package store

import (
	"context"
	"database/sql"
	"time"
)

// Bookmark is a saved URL with optional folder, tags, and description.
type Bookmark struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Folder      string `json:"folder,omitempty"`
	Tags        string `json:"tags,omitempty"` // comma-separated, UI-owned format
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// SaveBookmark inserts or replaces the bookmark for b.URL.
func (s *Store) SaveBookmark(ctx context.Context, b *Bookmark) error {
	if b.ID == "" {
		b.ID = s.newID()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bookmarks (id, url, title, folder, tags, description, created_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			folder = excluded.folder,
			tags = excluded.tags,
			description = excluded.description`,
		b.ID, b.URL, b.Title, nullable(b.Folder), nullable(b.Tags), nullable(b.Description), b.CreatedAt)
	return err
}

// ListBookmarks returns all bookmarks, newest first.
func (s *Store) ListBookmarks(ctx context.Context) ([]*Bookmark, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, url, title, folder, tags, description, created_at
		FROM bookmarks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Bookmark
	for rows.Next() {
		b := &Bookmark{}
		var folder, tags, description sql.NullString
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &folder, &tags, &description, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Folder = folder.String
		b.Tags = tags.String
		b.Description = description.String
		items = append(items, b)
	}
	return items, rows.Err()
}

// DeleteBookmark removes a bookmark by id.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	return err
}
