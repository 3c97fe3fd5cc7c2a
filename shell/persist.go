package shell

import (
	"context"

	"github.com/omnibrowser/redix/store"
)

// Persistence wrappers. Every write path passes the policy engine first;
// reads are never gated. A blocked write returns the capability's
// sentinel error so transports can map it to a stable error code.

// CachePage stores a rendered page in the local cache.
func (s *Shell) CachePage(ctx context.Context, p *store.Page) error {
	if err := s.enforcer.EnforceCache(); err != nil {
		return err
	}
	return s.store.SavePage(ctx, p)
}

// CachedPage returns a cached page, or nil when absent.
func (s *Shell) CachedPage(ctx context.Context, url string) (*store.Page, error) {
	return s.store.GetPage(ctx, url)
}

// SearchPages searches the page cache.
func (s *Shell) SearchPages(ctx context.Context, query string, limit int) ([]*store.Page, error) {
	return s.store.SearchPages(ctx, query, limit)
}

// ClearPageCache drops all cached pages.
func (s *Shell) ClearPageCache(ctx context.Context) error {
	return s.store.ClearPages(ctx)
}

// RecordVisit appends a navigation to history. Revisits bump the visit
// count instead of duplicating the row.
func (s *Shell) RecordVisit(ctx context.Context, url, title string) error {
	if err := s.enforcer.EnforceHistorySave(); err != nil {
		return err
	}
	return s.store.AddHistory(ctx, url, title)
}

// History lists the most recent visits.
func (s *Shell) History(ctx context.Context, limit int) ([]*store.HistoryEntry, error) {
	return s.store.ListHistory(ctx, limit)
}

// SearchHistory searches visits by URL or title.
func (s *Shell) SearchHistory(ctx context.Context, query string, limit int) ([]*store.HistoryEntry, error) {
	return s.store.SearchHistory(ctx, query, limit)
}

// DeleteHistoryURL removes one URL from history. Deletion is always
// allowed: removing traces is the point of the privacy modes.
func (s *Shell) DeleteHistoryURL(ctx context.Context, url string) error {
	return s.store.DeleteHistoryURL(ctx, url)
}

// ClearHistory wipes the history table.
func (s *Shell) ClearHistory(ctx context.Context) error {
	return s.store.ClearHistory(ctx)
}

// SaveBookmark creates or updates a bookmark.
func (s *Shell) SaveBookmark(ctx context.Context, b *store.Bookmark) error {
	if err := s.enforcer.EnforceDiskWrite(); err != nil {
		return err
	}
	return s.store.SaveBookmark(ctx, b)
}

// Bookmarks lists all bookmarks.
func (s *Shell) Bookmarks(ctx context.Context) ([]*store.Bookmark, error) {
	return s.store.ListBookmarks(ctx)
}

// DeleteBookmark removes a bookmark.
func (s *Shell) DeleteBookmark(ctx context.Context, id string) error {
	return s.store.DeleteBookmark(ctx, id)
}

// SaveDownload records a download and its progress.
func (s *Shell) SaveDownload(ctx context.Context, d *store.Download) error {
	if err := s.enforcer.EnforceDiskWrite(); err != nil {
		return err
	}
	return s.store.SaveDownload(ctx, d)
}

// Download returns one download record.
func (s *Shell) Download(ctx context.Context, id string) (*store.Download, error) {
	return s.store.GetDownload(ctx, id)
}

// Downloads lists recent downloads.
func (s *Shell) Downloads(ctx context.Context, limit int) ([]*store.Download, error) {
	return s.store.ListDownloads(ctx, limit)
}

// SaveSession persists the current tab set for startup restore.
func (s *Shell) SaveSession(ctx context.Context, activeTabID, tabsJSON string) error {
	if err := s.enforcer.EnforceDiskWrite(); err != nil {
		return err
	}
	return s.store.SaveSession(ctx, activeTabID, tabsJSON)
}

// LoadSession returns the saved session, or nil when none exists.
func (s *Shell) LoadSession(ctx context.Context) (*store.Session, error) {
	return s.store.LoadSession(ctx)
}

// ClearSession drops the saved session.
func (s *Shell) ClearSession(ctx context.Context) error {
	return s.store.ClearSession(ctx)
}
