package periods

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "ftdcli/internal/errors"
	"ftdcli/pkg/contracts/domain"
)

// Aggregate output headers
var (
	fullHeader   = []string{"scheme", "period", "period_start", "period_end", "release_date_est", "rows", "sum_qty", "mean_price", "sum_weight"}
	totalsHeader = []string{"period", "period_start", "period_end", "sum_weight"}
)

// WriteAggregates writes the full per-period roll-up and the weight totals
// file. Both files are complete rewrites through a temp file and rename;
// running twice on the same input produces byte-identical output.
func WriteAggregates(fullPath, totalsPath string, periods []domain.AggregatedPeriod) error {
	fullRows := make([][]string, 0, len(periods))
	totalRows := make([][]string, 0, len(periods))

	for _, p := range periods {
		release := ""
		if p.HasReleaseEst() {
			release = p.ReleaseEst.Format(domain.SettlementDateLayout)
		}

		fullRows = append(fullRows, []string{
			string(p.Scheme),
			p.Label,
			p.Start.Format(domain.SettlementDateLayout),
			p.End.Format(domain.SettlementDateLayout),
			release,
			strconv.Itoa(p.Rows),
			strconv.FormatInt(p.SumQty, 10),
			fmt.Sprintf("%.6f", p.MeanPrice),
			fmt.Sprintf("%.6f", p.SumWeight),
		})

		totalRows = append(totalRows, []string{
			p.Label,
			p.Start.Format(domain.SettlementDateLayout),
			p.End.Format(domain.SettlementDateLayout),
			fmt.Sprintf("%.6f", p.SumWeight),
		})
	}

	if err := writeCSVAtomic(fullPath, fullHeader, fullRows); err != nil {
		return err
	}
	return writeCSVAtomic(totalsPath, totalsHeader, totalRows)
}

// writeCSVAtomic renders header+rows and renames the finished temp file
// over path.
func writeCSVAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		return apperrors.NewStorageError("failed to render aggregate header", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return apperrors.NewStorageError("failed to render aggregate rows", err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp", uuid.New().String()))
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write aggregate temp file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move aggregate into %s", path), err)
	}

	return nil
}
