package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	apperrors "ftdcli/internal/errors"
	"ftdcli/pkg/contracts/domain"
)

// EncodeStoreLine renders one record as its persisted store line. Quoting
// follows CSV rules, so descriptions may contain commas or quotes; the
// settlement date field never needs quoting, which keeps first-field sorts
// stable.
func EncodeStoreLine(record domain.FailRecord) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// Write on an in-memory builder cannot fail
	_ = w.Write(record.CSVRow())
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// EncodeStoreLines renders records as persisted store lines.
func EncodeStoreLines(records []domain.FailRecord) []string {
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, EncodeStoreLine(record))
	}
	return lines
}

// readStoreLines loads a store file as raw lines. A missing file is an
// empty store. The master header is formatting, not content, and is
// stripped here so it never enters the dedup set.
func readStoreLines(path string, kind StoreKind) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read store %s", path), err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		// A data line always starts with a date, so it can never equal
		// the header.
		if kind == KindMaster && line == domain.MasterHeader {
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// ReadStoreRecords loads and parses a store file into records. Lines that
// no longer parse are skipped with a warning rather than poisoning the
// whole read.
func ReadStoreRecords(path string, kind StoreKind, logger *slog.Logger) ([]domain.FailRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lines, err := readStoreLines(path, kind)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FailRecord, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		record, err := parseStoreLine(line)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if skipped > 0 {
		logger.Warn("Skipped unparsable store lines",
			slog.String("path", path),
			slog.Int("skipped", skipped))
	}

	return records, nil
}

// parseStoreLine parses one persisted line back into a record
func parseStoreLine(line string) (domain.FailRecord, error) {
	r := csv.NewReader(strings.NewReader(line))
	fields, err := r.Read()
	if err != nil {
		return domain.FailRecord{}, err
	}
	return domain.ParseFailRecordRow(fields)
}
