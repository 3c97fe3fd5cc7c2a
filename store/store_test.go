package store

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/omnibrowser/redix/dbopen"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return New(db)
}

func TestPageCacheRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &Page{
		URL:     "https://example.com/article",
		Title:   "Example Article",
		Content: "body text for searching",
		HTML:    "<p>body text</p>",
	}
	if err := s.SavePage(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.ID == "" || p.CachedAt == 0 {
		t.Errorf("save did not fill defaults: %+v", p)
	}

	got, err := s.GetPage(ctx, p.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Title != "Example Article" || got.HTML != "<p>body text</p>" {
		t.Errorf("round trip: %+v", got)
	}

	// Re-saving the same URL replaces, not duplicates.
	p2 := &Page{URL: p.URL, Title: "Updated", Content: "new body"}
	if err := s.SavePage(ctx, p2); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	got, _ = s.GetPage(ctx, p.URL)
	if got.Title != "Updated" {
		t.Errorf("Title after re-save: got %q, want %q", got.Title, "Updated")
	}

	results, err := s.SearchPages(ctx, "new body", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("search: got %d results, want 1", len(results))
	}

	if err := s.DeletePage(ctx, p.URL); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetPage(ctx, p.URL); got != nil {
		t.Error("get after delete: expected nil")
	}
}

func TestHistoryVisitCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddHistory(ctx, "https://example.com", "Example"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddHistory(ctx, "https://example.com", "Example Updated"); err != nil {
		t.Fatalf("add again: %v", err)
	}
	if err := s.AddHistory(ctx, "https://other.example", "Other"); err != nil {
		t.Fatalf("add other: %v", err)
	}

	entries, err := s.ListHistory(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("list: got %d entries, want 2 (revisit must not duplicate)", len(entries))
	}

	var example *HistoryEntry
	for _, e := range entries {
		if e.URL == "https://example.com" {
			example = e
		}
	}
	if example == nil {
		t.Fatal("example.com missing from history")
	}
	if example.VisitCount != 2 {
		t.Errorf("VisitCount: got %d, want 2", example.VisitCount)
	}
	if example.Title != "Example Updated" {
		t.Errorf("Title: got %q, want refreshed title", example.Title)
	}

	found, err := s.SearchHistory(ctx, "other", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].URL != "https://other.example" {
		t.Errorf("search: got %+v", found)
	}

	if err := s.DeleteHistoryURL(ctx, "https://example.com"); err != nil {
		t.Fatalf("delete url: %v", err)
	}
	entries, _ = s.ListHistory(ctx, 10)
	if len(entries) != 1 {
		t.Errorf("after delete url: got %d entries, want 1", len(entries))
	}

	if err := s.ClearHistory(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ = s.ListHistory(ctx, 10)
	if len(entries) != 0 {
		t.Errorf("after clear: got %d entries, want 0", len(entries))
	}
}

func TestBookmarkCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b := &Bookmark{
		URL:    "https://example.com",
		Title:  "Example",
		Folder: "reading",
		Tags:   "go,testing",
	}
	if err := s.SaveBookmark(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Same URL: update in place.
	b2 := &Bookmark{URL: "https://example.com", Title: "Example v2"}
	if err := s.SaveBookmark(ctx, b2); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	items, err := s.ListBookmarks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("list: got %d, want 1", len(items))
	}
	if items[0].Title != "Example v2" {
		t.Errorf("Title: got %q, want %q", items[0].Title, "Example v2")
	}
	if items[0].ID != b.ID {
		t.Errorf("ID changed on upsert: %q -> %q", b.ID, items[0].ID)
	}

	if err := s.DeleteBookmark(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ = s.ListBookmarks(ctx)
	if len(items) != 0 {
		t.Errorf("after delete: got %d, want 0", len(items))
	}
}

func TestDownloadLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	d := &Download{URL: "https://example.com/file.zip", Filename: "file.zip"}
	if err := s.SaveDownload(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	if d.Status != DownloadPending {
		t.Errorf("default status: got %q, want %q", d.Status, DownloadPending)
	}

	total := int64(1 << 20)
	completed := int64(1700000000000)
	d.Status = DownloadCompleted
	d.Progress = 1.0
	d.ReceivedBytes = total
	d.TotalBytes = &total
	d.CompletedAt = &completed
	if err := s.SaveDownload(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetDownload(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Status != DownloadCompleted || got.TotalBytes == nil || *got.TotalBytes != total {
		t.Errorf("round trip: %+v", got)
	}
	if got.CompletedAt == nil || *got.CompletedAt != completed {
		t.Errorf("CompletedAt: %+v", got.CompletedAt)
	}

	list, err := s.ListDownloads(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list: got %d, want 1", len(list))
	}

	if err := s.DeleteDownload(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetDownload(ctx, d.ID); got != nil {
		t.Error("get after delete: expected nil")
	}
}

func TestSessionSnapshot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if sess, err := s.LoadSession(ctx); err != nil || sess != nil {
		t.Fatalf("load empty: got %+v, %v", sess, err)
	}

	if err := s.SaveSession(ctx, "tab_1", `[{"id":"tab_1"}]`); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSession(ctx, "tab_2", `[{"id":"tab_1"},{"id":"tab_2"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	sess, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.ActiveTabID != "tab_2" {
		t.Errorf("ActiveTabID: got %q, want %q", sess.ActiveTabID, "tab_2")
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if sess, _ := s.LoadSession(ctx); sess != nil {
		t.Error("load after clear: expected nil")
	}
}

func TestSettings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if v, err := s.GetSetting(ctx, "language"); err != nil || v != "" {
		t.Fatalf("unset: got %q, %v", v, err)
	}

	if err := s.SetSetting(ctx, "language", "en"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "language", "hi"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "low_ram_mode", "true"); err != nil {
		t.Fatal(err)
	}

	v, err := s.GetSetting(ctx, "language")
	if err != nil {
		t.Fatal(err)
	}
	if v != "hi" {
		t.Errorf("language: got %q, want %q", v, "hi")
	}

	all, err := s.AllSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["low_ram_mode"] != "true" {
		t.Errorf("AllSettings: %+v", all)
	}
}
