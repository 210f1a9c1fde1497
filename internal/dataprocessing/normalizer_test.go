package dataprocessing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftdcli/internal/config"
	"ftdcli/pkg/contracts/domain"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(config.ProcessingConfig{Delimiter: "|"}, nil)
}

func TestRepairSlots(t *testing.T) {
	tests := []struct {
		name         string
		slots        []string
		want         []string
		wantRepaired bool
	}{
		{
			name:         "seventh slot folds description and shifts price",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "DESC", "EXTRA", "c7val"},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "DESC|EXTRA", "c7val"},
			wantRepaired: true,
		},
		{
			name:         "outer delimiters stripped from folded description",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "", "EXTRA", "1.25"},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "EXTRA", "1.25"},
			wantRepaired: true,
		},
		{
			name:         "empty seventh slot truncates without folding",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "DESC", "1.25", "  "},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "DESC", "1.25"},
			wantRepaired: false,
		},
		{
			name:         "slots past the seventh are dropped",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "DESC", "EXTRA", "1.25", "junk"},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "DESC|EXTRA", "1.25"},
			wantRepaired: true,
		},
		{
			name:         "short rows pad with empty trailing slots",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "ACME CORP"},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "ACME CORP", ""},
			wantRepaired: false,
		},
		{
			name:         "exact width passes through",
			slots:        []string{"20240101", "CUSIP1", "SYM", "100", "ACME CORP", "1.25"},
			want:         []string{"20240101", "CUSIP1", "SYM", "100", "ACME CORP", "1.25"},
			wantRepaired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired := repairSlots(tt.slots, "|")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRepaired, repaired)
		})
	}
}

func TestNormalizeReader(t *testing.T) {
	input := strings.Join([]string{
		"SETTLEMENT DATE|CUSIP|SYMBOL|QUANTITY (FAILS)|DESCRIPTION|PRICE",
		"20240102|36467W109|GME|1,250|GAMESTOP CORP|15.870000",
		"20240102|00165C104|AMC|300|AMC ENTMT HLDGS|4.250000",
		"",
		"20240102||NOCUSIP|100|MISSING REFERENCE|1.000000",
		"20240102|12345X101|ZERO|0|ZERO QUANTITY|1.000000",
		"20240102|88160R101|TSLA|75|TESLA|INC|251.500000",
	}, "\n")

	n := testNormalizer()
	records, stats := n.NormalizeReader(strings.NewReader(input))

	require.Len(t, records, 3)

	assert.Equal(t, 7, stats.TotalLines)
	assert.Equal(t, 3, stats.Kept)
	assert.Equal(t, 1, stats.Blank)
	assert.Equal(t, 1, stats.MissingCUSIP)
	assert.Equal(t, 2, stats.ParseFailures, "header and zero-quantity rows are parse failures")
	assert.Equal(t, 1, stats.Repaired)

	gme := records[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), gme.SettlementDate)
	assert.Equal(t, "36467W109", gme.CUSIP)
	assert.Equal(t, "GME", gme.Symbol)
	assert.Equal(t, int64(1250), gme.Quantity, "thousands separators are stripped")
	assert.InDelta(t, 15.87, gme.Price, 1e-9)

	tsla := records[2]
	assert.Equal(t, "TESLA|INC", tsla.Description, "drifted description keeps its interior delimiter")
	assert.InDelta(t, 251.5, tsla.Price, 1e-9)
}

func TestNormalizeReaderMissingPriceDefaultsToZero(t *testing.T) {
	n := testNormalizer()
	records, stats := n.NormalizeReader(strings.NewReader("20240102|36467W109|GME|50|GAMESTOP CORP"))

	require.Equal(t, 1, stats.Kept)
	assert.Zero(t, records[0].Price)
	assert.Equal(t, "GAMESTOP CORP", records[0].Description)
}

func TestNormalizeReaderNormalizesSymbols(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantSymbol string
		wantKept   int
	}{
		{"share class separator", "20240102|084670702|brk/b|10|BERKSHIRE HATHAWAY|410.000000", "BRK.B", 1},
		{"defunct suffix cut", "20240102|12345X101|ABC-DEFUNCT|10|GONE CORP|0.010000", "ABC", 1},
		{"symbol empty after cleanup", "20240102|12345X101|---|10|NO SYMBOL|1.000000", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := testNormalizer()
			records, stats := n.NormalizeReader(strings.NewReader(tt.line))

			assert.Equal(t, tt.wantKept, stats.Kept)
			if tt.wantKept > 0 {
				require.Len(t, records, 1)
				assert.Equal(t, tt.wantSymbol, records[0].Symbol)
			}
		})
	}
}

func TestNormalizeReaderEmptySource(t *testing.T) {
	n := testNormalizer()
	records, stats := n.NormalizeReader(strings.NewReader(""))

	assert.Empty(t, records)
	assert.Zero(t, stats.Kept)
	assert.Zero(t, stats.TotalLines)
}

func TestNormalizeReaderWrongDelimiterYieldsNothing(t *testing.T) {
	// A comma-delimited file under the pipe delimiter collapses each line
	// into one slot, so every row fails validity checks instead of
	// producing garbage records.
	input := "20240102,36467W109,GME,100,GAMESTOP CORP,15.87\n20240103,36467W109,GME,90,GAMESTOP CORP,16.02"

	n := testNormalizer()
	records, stats := n.NormalizeReader(strings.NewReader(input))

	assert.Empty(t, records)
	assert.Equal(t, 2, stats.MissingCUSIP)
}

func TestNormalizeReaderCRLFInput(t *testing.T) {
	n := testNormalizer()
	records, _ := n.NormalizeReader(strings.NewReader("20240102|36467W109|GME|50|GAMESTOP CORP|15.870000\r\n"))

	require.Len(t, records, 1)
	assert.InDelta(t, 15.87, records[0].Price, 1e-9, "carriage returns must not corrupt the price slot")
}

func TestNormalizedRecordRoundTripsThroughStoreRow(t *testing.T) {
	n := testNormalizer()
	records, _ := n.NormalizeReader(strings.NewReader("20240102|36467W109|GME|1,250|GAMESTOP CORP|15.87"))
	require.Len(t, records, 1)

	row := records[0].CSVRow()
	assert.Equal(t, []string{"2024-01-02", "36467W109", "GME", "1250", "GAMESTOP CORP", "15.870000"}, row)

	back, err := domain.ParseFailRecordRow(row)
	require.NoError(t, err)
	assert.Equal(t, records[0], back)
}
