package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailRecord_CSVRow(t *testing.T) {
	record := FailRecord{
		SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
		CUSIP:          "037833100",
		Symbol:         "AAPL",
		Quantity:       1250,
		Description:    "APPLE INC",
		Price:          185.5,
	}

	assert.Equal(t,
		[]string{"2024-01-02", "037833100", "AAPL", "1250", "APPLE INC", "185.500000"},
		record.CSVRow())
}

func TestFailRecord_Weight(t *testing.T) {
	record := FailRecord{Quantity: 100, Price: 2.5}
	assert.Equal(t, 250.0, record.Weight())

	// Missing reference price contributes nothing
	record = FailRecord{Quantity: 100, Price: 0}
	assert.Equal(t, 0.0, record.Weight())
}

func TestParseFailRecordRow(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    FailRecord
		wantErr bool
	}{
		{
			name:   "canonical row",
			fields: []string{"2024-01-02", "037833100", "AAPL", "1250", "APPLE INC", "185.500000"},
			want: FailRecord{
				SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				CUSIP:          "037833100",
				Symbol:         "AAPL",
				Quantity:       1250,
				Description:    "APPLE INC",
				Price:          185.5,
			},
		},
		{
			name:   "compact settlement date",
			fields: []string{"20240102", "037833100", "AAPL", "1250", "APPLE INC", "185.5"},
			want: FailRecord{
				SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				CUSIP:          "037833100",
				Symbol:         "AAPL",
				Quantity:       1250,
				Description:    "APPLE INC",
				Price:          185.5,
			},
		},
		{
			name:   "empty price defaults to zero",
			fields: []string{"2024-01-02", "037833100", "AAPL", "1250", "APPLE INC", ""},
			want: FailRecord{
				SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				CUSIP:          "037833100",
				Symbol:         "AAPL",
				Quantity:       1250,
				Description:    "APPLE INC",
			},
		},
		{
			name:   "thousands separators in quantity and price",
			fields: []string{"2024-01-02", "037833100", "AAPL", "1,250", "APPLE INC", "1,185.50"},
			want: FailRecord{
				SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				CUSIP:          "037833100",
				Symbol:         "AAPL",
				Quantity:       1250,
				Description:    "APPLE INC",
				Price:          1185.5,
			},
		},
		{
			name:    "wrong field count",
			fields:  []string{"2024-01-02", "037833100", "AAPL"},
			wantErr: true,
		},
		{
			name:    "unparsable date",
			fields:  []string{"01/02/2024", "037833100", "AAPL", "1250", "APPLE INC", "185.5"},
			wantErr: true,
		},
		{
			name:    "unparsable quantity",
			fields:  []string{"2024-01-02", "037833100", "AAPL", "many", "APPLE INC", "185.5"},
			wantErr: true,
		},
		{
			name:   "unparsable price defaults to zero",
			fields: []string{"2024-01-02", "037833100", "AAPL", "1250", "APPLE INC", "n/a"},
			want: FailRecord{
				SettlementDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				CUSIP:          "037833100",
				Symbol:         "AAPL",
				Quantity:       1250,
				Description:    "APPLE INC",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFailRecordRow(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFailRecord_RowRoundTrip(t *testing.T) {
	record := FailRecord{
		SettlementDate: time.Date(2009, time.June, 30, 0, 0, 0, 0, time.UTC),
		CUSIP:          "36467W109",
		Symbol:         "GME",
		Quantity:       980543,
		Description:    "GAMESTOP CORP",
		Price:          24.12,
	}

	parsed, err := ParseFailRecordRow(record.CSVRow())
	require.NoError(t, err)
	assert.Equal(t, record, parsed)
}

func TestParseSettlementDate(t *testing.T) {
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	got, err := ParseSettlementDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseSettlementDate("20240315")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseSettlementDate("15.03.2024")
	assert.Error(t, err)
}
