package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "ftdcli/internal/errors"
	"ftdcli/pkg/contracts/domain"
)

// StoreKind selects a store family's ordering and header rules.
type StoreKind int

const (
	// KindTicker orders by parsed settlement date, no header
	KindTicker StoreKind = iota
	// KindUniverse orders by first field, no header
	KindUniverse
	// KindMaster orders by first field and carries the fixed header
	KindMaster
)

// tickerDateSentinel orders unparsable legacy lines before real data
var tickerDateSentinel = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// MergeWriter grows store files by set-union without ever duplicating a
// line. Destinations are independently locked, so concurrent merges into
// different files proceed in parallel while merges into the same file
// serialize.
type MergeWriter struct {
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMergeWriter creates a merge writer.
func NewMergeWriter(logger *slog.Logger) *MergeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeWriter{
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// MergeAppend merges newLines into the store at destPath and returns how
// many lines were actually new. The destination is read into a line set,
// unioned with the input, sorted by the kind's ordering, and atomically
// rewritten via a temp file and rename. Re-merging the same lines is a
// no-op that leaves the file untouched, and an empty union never creates
// a file.
func (w *MergeWriter) MergeAppend(destPath string, kind StoreKind, newLines []string) (int, error) {
	lock := w.lockFor(destPath)
	lock.Lock()
	defer lock.Unlock()

	existing, err := readStoreLines(destPath, kind)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(existing)+len(newLines))
	merged := make([]string, 0, len(existing)+len(newLines))
	for _, line := range existing {
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			merged = append(merged, line)
		}
	}

	added := 0
	for _, line := range newLines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			merged = append(merged, line)
			added++
		}
	}

	if len(merged) == 0 {
		return 0, nil
	}
	if added == 0 && len(merged) == len(existing) {
		// Nothing new and nothing to re-deduplicate
		return 0, nil
	}

	sortStoreLines(kind, merged)

	if err := w.writeStore(destPath, kind, merged); err != nil {
		return 0, err
	}

	w.logger.Debug("Store merged",
		slog.String("path", destPath),
		slog.Int("added", added),
		slog.Int("total", len(merged)))

	return added, nil
}

// lockFor returns the mutex guarding one destination path
func (w *MergeWriter) lockFor(destPath string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.locks[destPath]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[destPath] = lock
	}
	return lock
}

// writeStore rewrites the full store through a uuid-named temp file in the
// destination's directory so a crash mid-write leaves the previous content
// readable.
func (w *MergeWriter) writeStore(destPath string, kind StoreKind, lines []string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create store directory %s", dir), err)
	}

	var b strings.Builder
	if kind == KindMaster {
		b.WriteString(domain.MasterHeader)
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp", uuid.New().String()))
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write store temp file", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move store into %s", destPath), err)
	}

	return nil
}

// sortStoreLines orders lines for a deterministic on-disk form. Ties on
// the primary key fall back to the whole line so repeated merges are
// byte-identical.
func sortStoreLines(kind StoreKind, lines []string) {
	switch kind {
	case KindTicker:
		sort.SliceStable(lines, func(i, j int) bool {
			di, dj := tickerLineDate(lines[i]), tickerLineDate(lines[j])
			if di.Equal(dj) {
				return lines[i] < lines[j]
			}
			return di.Before(dj)
		})
	default:
		sort.SliceStable(lines, func(i, j int) bool {
			fi, fj := firstField(lines[i]), firstField(lines[j])
			if fi == fj {
				return lines[i] < lines[j]
			}
			return fi < fj
		})
	}
}

// tickerLineDate parses the settlement field of a ticker line, falling
// back to the sentinel so odd legacy lines sort ahead of real data instead
// of failing the merge.
func tickerLineDate(line string) time.Time {
	t, err := domain.ParseSettlementDate(firstField(line))
	if err != nil {
		return tickerDateSentinel
	}
	return t
}

// firstField returns the text before the first comma. Settlement dates are
// never quoted, so this is safe for every store family.
func firstField(line string) string {
	if i := strings.IndexByte(line, ','); i >= 0 {
		return line[:i]
	}
	return line
}
