package store

import (
	"context"
	"database/sql"
	"time"
)

// Download statuses as stored in the status column.
const (
	DownloadPending   = "pending"
	DownloadActive    = "active"
	DownloadCompleted = "completed"
	DownloadFailed    = "failed"
	DownloadCancelled = "cancelled"
)

// Download tracks one download's lifecycle.
type Download struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	Filename      string  `json:"filename,omitempty"`
	Path          string  `json:"path,omitempty"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	ReceivedBytes int64   `json:"received_bytes"`
	TotalBytes    *int64  `json:"total_bytes,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	CompletedAt   *int64  `json:"completed_at,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// SaveDownload inserts or replaces a download row.
func (s *Store) SaveDownload(ctx context.Context, d *Download) error {
	if d.ID == "" {
		d.ID = "dl_" + s.newID()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
	}
	if d.Status == "" {
		d.Status = DownloadPending
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO downloads
			(id, url, filename, path, status, progress, received_bytes,
			 total_bytes, created_at, completed_at, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.URL, nullable(d.Filename), nullable(d.Path), d.Status, d.Progress,
		d.ReceivedBytes, d.TotalBytes, d.CreatedAt, d.CompletedAt, nullable(d.Error))
	return err
}

// GetDownload retrieves a download by id. Returns nil on miss.
func (s *Store) GetDownload(ctx context.Context, id string) (*Download, error) {
	rows, err := s.queryDownloads(ctx, `
		SELECT id, url, filename, path, status, progress, received_bytes,
		       total_bytes, created_at, completed_at, error
		FROM downloads WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListDownloads returns downloads newest first.
func (s *Store) ListDownloads(ctx context.Context, limit int) ([]*Download, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryDownloads(ctx, `
		SELECT id, url, filename, path, status, progress, received_bytes,
		       total_bytes, created_at, completed_at, error
		FROM downloads ORDER BY created_at DESC LIMIT ?`, limit)
}

// DeleteDownload removes a download row (not the file on disk).
func (s *Store) DeleteDownload(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id)
	return err
}

func (s *Store) queryDownloads(ctx context.Context, query string, args ...any) ([]*Download, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Download
	for rows.Next() {
		d := &Download{}
		var filename, path, errMsg sql.NullString
		var totalBytes, completedAt sql.NullInt64
		if err := rows.Scan(&d.ID, &d.URL, &filename, &path, &d.Status, &d.Progress,
			&d.ReceivedBytes, &totalBytes, &d.CreatedAt, &completedAt, &errMsg); err != nil {
			return nil, err
		}
		d.Filename = filename.String
		d.Path = path.String
		d.Error = errMsg.String
		if totalBytes.Valid {
			d.TotalBytes = &totalBytes.Int64
		}
		if completedAt.Valid {
			d.CompletedAt = &completedAt.Int64
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
