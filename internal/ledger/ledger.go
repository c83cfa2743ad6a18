// Package ledger tracks which article URLs have already been processed so that
// re-runs skip them. Entries carry the UTC timestamp of successful enrichment
// and are purged once they fall outside the retention window.
package ledger

import (
	"encoding/json"
	"os"
	"time"

	"newsdive/internal/logger"
)

// Entries maps an article URL to the time it was successfully enriched.
type Entries map[string]time.Time

// Ledger persists processed-URL entries as a single JSON object mapping
// URL string to ISO-8601 timestamp string.
type Ledger struct {
	path string
}

// New creates a ledger backed by the given file path.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load reads the ledger from disk. A missing or corrupt file yields an empty
// mapping rather than failing the run.
func (l *Ledger) Load() Entries {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Could not read ledger file, starting empty", "path", l.path, "error", err.Error())
		}
		return Entries{}
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("Ledger file is corrupt, starting empty", "path", l.path, "error", err.Error())
		return Entries{}
	}

	entries := make(Entries, len(raw))
	for url, stamp := range raw {
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			logger.Warn("Dropping ledger entry with unparseable timestamp", "url", url, "timestamp", stamp)
			continue
		}
		entries[url] = t.UTC()
	}
	return entries
}

// Purge returns a new mapping with every entry whose timestamp is older than
// now minus the retention window removed. It is pure: the input is not
// modified, and the same input and now always produce the same output.
func Purge(entries Entries, now time.Time, retentionDays int) Entries {
	cutoff := now.Add(-time.Duration(retentionDays) * 24 * time.Hour)
	kept := make(Entries, len(entries))
	for url, stamp := range entries {
		if stamp.Before(cutoff) {
			continue
		}
		kept[url] = stamp
	}
	return kept
}

// Save writes the mapping back to disk.
func (l *Ledger) Save(entries Entries) error {
	raw := make(map[string]string, len(entries))
	for url, stamp := range entries {
		raw[url] = stamp.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

// URLSet returns the set of URLs currently in the mapping, for skip decisions
// in the feed fetcher.
func (e Entries) URLSet() map[string]struct{} {
	set := make(map[string]struct{}, len(e))
	for url := range e {
		set[url] = struct{}{}
	}
	return set
}
