package dataprocessing

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// NormalizeTicker cleans a raw symbol into the form used to key per-ticker
// stores. Names flagged defunct are cut back to the live symbol before the
// suffix. Punctuation that separates share classes maps to a dot; anything
// else non-alphanumeric is dropped.
func NormalizeTicker(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.Contains(strings.ToLower(s), "defunct") {
		if i := strings.IndexAny(s, "-_"); i >= 0 {
			s = s[:i]
		}
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		case r == '.' || r == '/' || r == '-' || r == '_':
			b.WriteRune('.')
		}
	}

	return strings.Trim(b.String(), ".")
}

// SymbolFilter optionally restricts per-ticker stores to an allow-list.
// A nil or empty filter allows everything.
type SymbolFilter struct {
	allowed map[string]struct{}
}

// LoadSymbolFilter reads the allow-list from the CSV file stems in dir.
// An empty dir path, a missing directory, or a directory without CSV files
// all yield the allow-everything filter.
func LoadSymbolFilter(dir string, logger *slog.Logger) *SymbolFilter {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return &SymbolFilter{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Map file directory unreadable, allowing all symbols",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
		return &SymbolFilter{}
	}

	allowed := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if symbol := NormalizeTicker(stem); symbol != "" {
			allowed[symbol] = struct{}{}
		}
	}

	if len(allowed) == 0 {
		return &SymbolFilter{}
	}

	logger.Info("Symbol allow-list active",
		slog.String("dir", dir),
		slog.Int("symbols", len(allowed)))

	return &SymbolFilter{allowed: allowed}
}

// Allows reports whether per-ticker output should be written for symbol.
func (f *SymbolFilter) Allows(symbol string) bool {
	if f == nil || len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[symbol]
	return ok
}
