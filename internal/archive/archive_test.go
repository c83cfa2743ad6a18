package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"newsdive/internal/core"
)

func record(title, url string) core.EnrichedArticle {
	return core.EnrichedArticle{
		ID:         "id-" + title,
		SourceName: "Test Dive",
		Title:      title,
		URL:        url,
		Summary:    "summary of " + title,
		Sentiment:  core.SentimentNeutral,
		Entities:   core.EntityMap{},
	}
}

func readFile(t *testing.T, path string) []core.EnrichedArticle {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read archive file: %v", err)
	}
	var records []core.EnrichedArticle
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Archive file is not a JSON array: %v", err)
	}
	return records
}

func TestAppend_CreatesDatedFile(t *testing.T) {
	store := New(t.TempDir())
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	if err := store.Append(now, []core.EnrichedArticle{record("a", "https://example.com/a")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	path := store.FilePath(now)
	if filepath.Base(path) != "news_2026-03-10.json" {
		t.Errorf("Unexpected archive file name: %s", filepath.Base(path))
	}
	records := readFile(t, path)
	if len(records) != 1 || records[0].URL != "https://example.com/a" {
		t.Errorf("Unexpected archive content: %+v", records)
	}
	if records[0].ID != "id-a" {
		t.Errorf("Record ID should survive the round-trip, got %q", records[0].ID)
	}
}

func TestAppend_EasternDateRollsBack(t *testing.T) {
	store := New(t.TempDir())
	// 03:00 UTC on March 11 is still March 10 in Eastern time.
	now := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)

	if err := store.Append(now, []core.EnrichedArticle{record("a", "https://example.com/a")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if filepath.Base(store.FilePath(now)) != "news_2026-03-10.json" {
		t.Errorf("Expected Eastern calendar date, got %s", filepath.Base(store.FilePath(now)))
	}
}

func TestAppend_SameDayMergesByURL(t *testing.T) {
	store := New(t.TempDir())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first := record("original title", "https://example.com/a")
	if err := store.Append(now, []core.EnrichedArticle{first, record("b", "https://example.com/b")}); err != nil {
		t.Fatalf("First append failed: %v", err)
	}

	// Re-run on the same day: one duplicate URL with changed content, one new.
	rerun := record("rewritten title", "https://example.com/a")
	if err := store.Append(now.Add(2*time.Hour), []core.EnrichedArticle{rerun, record("c", "https://example.com/c")}); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	records := readFile(t, store.FilePath(now))
	if len(records) != 3 {
		t.Fatalf("Expected 3 records after merge, got %d", len(records))
	}
	if records[0].Title != "original title" {
		t.Errorf("Existing record should win the merge, got title %q", records[0].Title)
	}
	if records[2].URL != "https://example.com/c" {
		t.Errorf("New record should be appended last, got %s", records[2].URL)
	}
}

func TestAppend_EmptyInputWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := store.Append(time.Now(), nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files for empty input, found %d", len(entries))
	}
}

func TestLoadRange(t *testing.T) {
	store := New(t.TempDir())
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	for i, url := range []string{"https://example.com/old", "https://example.com/mid", "https://example.com/new"} {
		day := now.AddDate(0, 0, -(2 - i))
		if err := store.Append(day, []core.EnrichedArticle{record("t", url)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records := store.LoadRange(now, 2)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records in a 2-day range, got %d", len(records))
	}
	// Oldest day first.
	if records[0].URL != "https://example.com/mid" || records[1].URL != "https://example.com/new" {
		t.Errorf("Unexpected range order: %s, %s", records[0].URL, records[1].URL)
	}
}

func TestLoadRange_SkipsMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	if err := store.Append(now, []core.EnrichedArticle{record("a", "https://example.com/a")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	corrupt := store.FilePath(now.AddDate(0, 0, -1))
	if err := os.WriteFile(corrupt, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	records := store.LoadRange(now, 7)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, missing and corrupt days skipped, got %d", len(records))
	}
}

func TestEvict_RemovesOnlyFilesBeyondHorizon(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	write := func(name string, mtime time.Time) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
		return path
	}

	fresh := write("news_2026-03-09.json", now.AddDate(0, 0, -1))
	atHorizon := write("news_2025-02-04.json", now.AddDate(0, 0, -400))
	stale := write("news_2025-02-03.json", now.AddDate(0, 0, -401))

	store.Evict(now, 400)

	if _, err := os.Stat(fresh); err != nil {
		t.Error("Fresh file should survive eviction")
	}
	if _, err := os.Stat(atHorizon); err != nil {
		t.Error("File exactly at the horizon should be kept")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("File older than the horizon should be deleted")
	}
}

func TestEvict_MissingDirIsNoop(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))
	store.Evict(time.Now(), 400) // must not panic
}
