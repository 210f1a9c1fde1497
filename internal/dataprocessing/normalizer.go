package dataprocessing

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"ftdcli/internal/config"
	"ftdcli/pkg/contracts/domain"
)

// recordWidth is the fixed slot count of the normalized schema
const recordWidth = 6

// Normalizer repairs drifted column layouts and parses disclosure rows.
type Normalizer struct {
	delimiter string
	logger    *slog.Logger
}

// NewNormalizer creates a normalizer for the configured delimiter.
func NewNormalizer(cfg config.ProcessingConfig, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}

	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = "|"
	}

	return &Normalizer{
		delimiter: delimiter,
		logger:    logger,
	}
}

// NormalizeStatistics reports what happened to the rows of one source.
type NormalizeStatistics struct {
	TotalLines    int
	Kept          int
	Blank         int
	MissingCUSIP  int
	ParseFailures int
	Repaired      int
}

// NormalizeReader parses every line of one source member. Row-level
// problems drop the row and are counted; they are never fatal. Header and
// trailer lines fall out naturally as parse failures.
func (n *Normalizer) NormalizeReader(r io.Reader) ([]domain.FailRecord, NormalizeStatistics) {
	var records []domain.FailRecord
	var stats NormalizeStatistics

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		stats.TotalLines++

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			stats.Blank++
			continue
		}

		record, outcome := n.normalizeLine(line)
		switch outcome {
		case rowKept:
			records = append(records, record)
			stats.Kept++
		case rowRepairedKept:
			records = append(records, record)
			stats.Kept++
			stats.Repaired++
		case rowMissingCUSIP:
			stats.MissingCUSIP++
		case rowParseFailure:
			stats.ParseFailures++
		}
	}

	if err := scanner.Err(); err != nil {
		// A truncated tail behaves like any other bad row: what parsed
		// before it is kept.
		n.logger.Warn("Source read stopped early",
			slog.String("error", err.Error()),
			slog.Int("lines_read", stats.TotalLines))
		stats.ParseFailures++
	}

	return records, stats
}

type rowOutcome int

const (
	rowKept rowOutcome = iota
	rowRepairedKept
	rowMissingCUSIP
	rowParseFailure
)

// normalizeLine maps one raw line onto the fixed 6-slot schema and parses it.
func (n *Normalizer) normalizeLine(line string) (domain.FailRecord, rowOutcome) {
	slots := strings.Split(line, n.delimiter)
	slots, repaired := repairSlots(slots, n.delimiter)

	// Slot 2 is the CUSIP position; without it the row references nothing.
	if strings.TrimSpace(slots[1]) == "" {
		return domain.FailRecord{}, rowMissingCUSIP
	}

	record, err := domain.ParseFailRecordRow(slots)
	if err != nil {
		return domain.FailRecord{}, rowParseFailure
	}
	if record.Quantity <= 0 {
		return domain.FailRecord{}, rowParseFailure
	}

	record.Symbol = NormalizeTicker(record.Symbol)
	if record.Symbol == "" {
		return domain.FailRecord{}, rowParseFailure
	}

	outcome := rowKept
	if repaired {
		outcome = rowRepairedKept
	}
	return record, outcome
}

// repairSlots fixes one observed era of source-format drift: a delimiter
// inside the description shifts the price into a 7th slot. When slot 7 is
// non-empty, the description becomes slots 5 and 6 rejoined (outer
// delimiters stripped, interior ones kept) and slot 7 becomes the price.
// Anything past the repaired width is dropped; short rows pad with empty
// trailing slots. The rule is a compatibility shim for that one drift
// pattern, not a general parser, so it deliberately folds exactly once.
func repairSlots(slots []string, delimiter string) ([]string, bool) {
	repaired := false

	if len(slots) > recordWidth {
		if c7 := strings.TrimSpace(slots[recordWidth]); c7 != "" {
			slots[4] = strings.Trim(slots[4]+delimiter+slots[5], delimiter)
			slots[5] = slots[recordWidth]
			repaired = true
		}
		slots = slots[:recordWidth]
	}

	for len(slots) < recordWidth {
		slots = append(slots, "")
	}

	return slots, repaired
}
