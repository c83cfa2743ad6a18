// Package archive persists enriched articles as one JSON array file per
// Eastern calendar day and serves the date-range reads the weekly and
// deep-dive runs depend on.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsdive/internal/core"
	"newsdive/internal/logger"
)

// DefaultEvictionDays is how long archive files are retained before the
// mtime-based sweep removes them.
const DefaultEvictionDays = 400

const fileNameFormat = "news_2006-01-02.json"

// Store reads and writes the per-day archive files under a single directory.
type Store struct {
	dir      string
	location *time.Location
}

// New creates a store rooted at dir. Archive file names use Eastern calendar
// dates; when the zoneinfo lookup fails the store falls back to UTC.
func New(dir string) *Store {
	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.Warn("Failed to load Eastern timezone, archive dates fall back to UTC", "error", err)
		location = time.UTC
	}
	return &Store{dir: dir, location: location}
}

// FilePath returns the archive file path for the calendar day of now.
func (s *Store) FilePath(now time.Time) string {
	return filepath.Join(s.dir, now.In(s.location).Format(fileNameFormat))
}

// Append writes records into the archive file for the calendar day of now.
// A same-day re-run merges with the existing file by URL, the already archived
// record winning; records carrying a URL not yet present are appended in input
// order.
func (s *Store) Append(now time.Time, records []core.EnrichedArticle) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := s.FilePath(now)
	existing := s.loadFile(path)

	archived := make(map[string]struct{}, len(existing))
	for _, record := range existing {
		archived[record.URL] = struct{}{}
	}

	merged := existing
	for _, record := range records {
		if _, ok := archived[record.URL]; ok {
			continue
		}
		archived[record.URL] = struct{}{}
		merged = append(merged, record)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive records: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}

	logger.Info("Archived enriched articles", "file", path, "total", len(merged), "added", len(merged)-len(existing))
	return nil
}

// LoadRange returns the records of the last daysBack calendar days up to and
// including today. Missing or corrupt files are skipped silently; analysis
// over a partial archive is still useful.
func (s *Store) LoadRange(now time.Time, daysBack int) []core.EnrichedArticle {
	var records []core.EnrichedArticle
	today := now.In(s.location)
	for i := daysBack - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		records = append(records, s.loadFile(s.FilePath(day))...)
	}
	return records
}

// Evict removes archive files whose modification time is more than
// olderThanDays before now. A file exactly at the horizon is kept. A failed
// delete is logged and the sweep continues.
func (s *Store) Evict(now time.Time, olderThanDays int) {
	cutoff := now.AddDate(0, 0, -olderThanDays)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to scan archive directory for eviction", "dir", s.dir, "error", err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("Failed to stat archive file", "file", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to delete old archive file", "file", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("Evicted old archive files", "removed", removed, "older_than_days", olderThanDays)
	}
}

// loadFile reads one archive file, returning nil for a missing or unreadable
// file and logging corrupt content without failing.
func (s *Store) loadFile(path string) []core.EnrichedArticle {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var records []core.EnrichedArticle
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("Skipping corrupt archive file", "file", path, "error", err)
		return nil
	}
	return records
}
