package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Page is a cached page: extracted text plus optional raw HTML.
type Page struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	HTML     string `json:"html,omitempty"`
	Language string `json:"language,omitempty"`
	CachedAt int64  `json:"cached_at"`
}

// SavePage inserts or replaces the cache entry for the page's URL.
func (s *Store) SavePage(ctx context.Context, p *Page) error {
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.CachedAt == 0 {
		p.CachedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pages (id, url, title, content, html, language, cached_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			html = excluded.html,
			language = excluded.language,
			cached_at = excluded.cached_at`,
		p.ID, p.URL, p.Title, p.Content, nullable(p.HTML), nullable(p.Language), p.CachedAt)
	return err
}

// GetPage retrieves a cached page by URL. Returns nil on miss.
func (s *Store) GetPage(ctx context.Context, url string) (*Page, error) {
	p := &Page{}
	var html, language sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, url, title, content, html, language, cached_at
		FROM pages WHERE url = ?`, url).Scan(
		&p.ID, &p.URL, &p.Title, &p.Content, &html, &language, &p.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.HTML = html.String
	p.Language = language.String
	return p, nil
}

// SearchPages matches query against url, title, and content.
func (s *Store) SearchPages(ctx context.Context, query string, limit int) ([]*Page, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, url, title, content, html, language, cached_at
		FROM pages
		WHERE url LIKE ? OR title LIKE ? OR content LIKE ?
		ORDER BY cached_at DESC LIMIT ?`, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		p := &Page{}
		var html, language sql.NullString
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Content, &html, &language, &p.CachedAt); err != nil {
			return nil, err
		}
		p.HTML = html.String
		p.Language = language.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// DeletePage removes the cache entry for a URL.
func (s *Store) DeletePage(ctx context.Context, url string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM pages WHERE url = ?`, url)
	return err
}

// ClearPages empties the page cache.
func (s *Store) ClearPages(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM pages`)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
