package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts used by the persisted stores and the raw disclosure files
const (
	// SettlementDateLayout is the canonical on-disk date form
	SettlementDateLayout = "2006-01-02"
	// CompactDateLayout is the raw publisher form (and universe file stem form)
	CompactDateLayout = "20060102"
)

// MasterHeader is the fixed header row of the master store
const MasterHeader = "SETTLEMENT DATE,CUSIP,SYMBOL,QUANTITY (FAILS),DESCRIPTION,PRICE"

// FailRecord represents one normalized fails-to-deliver disclosure row
type FailRecord struct {
	SettlementDate time.Time `json:"settlement_date"`
	CUSIP          string    `json:"cusip" validate:"required"`
	Symbol         string    `json:"symbol" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"required,min=1"`
	Description    string    `json:"description,omitempty"`
	Price          float64   `json:"price" validate:"min=0"`
}

// Weight returns the record's position value, quantity times reference price
func (r FailRecord) Weight() float64 {
	return float64(r.Quantity) * r.Price
}

// CSVRow returns the persisted 6-field store form of the record
func (r FailRecord) CSVRow() []string {
	return []string{
		r.SettlementDate.Format(SettlementDateLayout),
		r.CUSIP,
		r.Symbol,
		strconv.FormatInt(r.Quantity, 10),
		r.Description,
		fmt.Sprintf("%.6f", r.Price),
	}
}

// ParseFailRecordRow parses a persisted store row back into a FailRecord.
// Settlement dates are accepted in both the canonical and the compact layout
// so stores written across eras remain readable.
func ParseFailRecordRow(fields []string) (FailRecord, error) {
	if len(fields) != 6 {
		return FailRecord{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}

	settlement, err := ParseSettlementDate(fields[0])
	if err != nil {
		return FailRecord{}, fmt.Errorf("settlement date %q: %w", fields[0], err)
	}

	quantity, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(fields[3]), ",", ""), 10, 64)
	if err != nil {
		return FailRecord{}, fmt.Errorf("quantity %q: %w", fields[3], err)
	}

	// A price that does not parse behaves like an absent one: the row is
	// still a usable fail, just without a reference price.
	price := 0.0
	if priceStr := strings.ReplaceAll(strings.TrimSpace(fields[5]), ",", ""); priceStr != "" {
		if v, err := strconv.ParseFloat(priceStr, 64); err == nil {
			price = v
		}
	}

	return FailRecord{
		SettlementDate: settlement,
		CUSIP:          strings.TrimSpace(fields[1]),
		Symbol:         strings.TrimSpace(fields[2]),
		Quantity:       quantity,
		Description:    fields[4],
		Price:          price,
	}, nil
}

// ParseSettlementDate parses a date in either store layout
func ParseSettlementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(SettlementDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(CompactDateLayout, s)
}
