// Package ledger persists which source identifiers the pipeline has already
// fetched and durably stored, so repeated runs only download what is new.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Ledger is the monotonic set of fetched-and-persisted source identifiers.
// Entries are only ever added; a failed fetch leaves no trace so the next
// run retries it.
type Ledger struct {
	mu      sync.RWMutex
	path    string
	entries map[string]struct{}
	logger  *slog.Logger
}

// Load reads the ledger file at path. A missing file yields an empty
// ledger. A corrupt file also yields an empty ledger with a warning:
// re-fetching already-merged archives is idempotent downstream, so starting
// over is safe while refusing to run is not.
func Load(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Ledger{
		path:    path,
		entries: make(map[string]struct{}),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Ledger read failed, starting with empty set",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return l
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warn("Ledger parse failed, starting with empty set",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return l
	}

	for _, id := range ids {
		l.entries[id] = struct{}{}
	}

	return l
}

// Contains reports whether the identifier was already fetched and persisted
func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[id]
	return ok
}

// AddAll records the identifiers as fetched and persisted, returning how
// many of them were new. Existing entries are never removed.
func (l *Ledger) AddAll(ids []string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, id := range ids {
		if _, ok := l.entries[id]; !ok {
			l.entries[id] = struct{}{}
			added++
		}
	}
	return added
}

// Len returns the number of ledgered identifiers
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Identifiers returns a sorted snapshot of the ledgered identifiers
func (l *Ledger) Identifiers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save rewrites the full sorted set as an indented JSON array. The rewrite
// goes through a freshly-named temp file in the same directory followed by
// a rename, so the on-disk ledger is always a complete valid document even
// if a run dies mid-write.
func (l *Ledger) Save() error {
	ids := l.Identifiers()

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}

	l.logger.Debug("Ledger saved",
		slog.String("path", l.path),
		slog.Int("entries", len(ids)))

	return nil
}

// writeFileAtomic writes data via a uuid-named temp file in the target's
// directory and renames it over the target.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp", uuid.New().String()))
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}
