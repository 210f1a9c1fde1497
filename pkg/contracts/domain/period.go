package domain

import "time"

// PeriodScheme tells which reporting cadence a settlement date falls under
type PeriodScheme string

const (
	// SchemeMonthly applies to settlements before the semi-monthly cutover
	SchemeMonthly PeriodScheme = "monthly"
	// SchemeSemiMonthly applies to settlements on or after the cutover
	SchemeSemiMonthly PeriodScheme = "semi-monthly"
)

// SemiMonthlyCutover is the first settlement date published under the
// semi-monthly cadence.
var SemiMonthlyCutover = time.Date(2009, time.July, 1, 0, 0, 0, 0, time.UTC)

// AggregatedPeriod is one reporting period's roll-up over the master store
type AggregatedPeriod struct {
	Scheme PeriodScheme `json:"scheme"`
	// Label is YYYY-MM for monthly periods, YYYY-MM-H1 / YYYY-MM-H2 for
	// semi-monthly ones.
	Label string    `json:"period"`
	Start time.Time `json:"period_start"`
	End   time.Time `json:"period_end"`
	// ReleaseEst estimates when the publisher releases the period's data.
	// It is zero for monthly periods, which predate release scheduling.
	ReleaseEst time.Time `json:"release_date_est,omitempty"`

	Rows      int     `json:"rows"`
	SumQty    int64   `json:"sum_qty"`
	MeanPrice float64 `json:"mean_price"`
	SumWeight float64 `json:"sum_weight"`
}

// HasReleaseEst reports whether the period carries a release estimate
func (p AggregatedPeriod) HasReleaseEst() bool {
	return !p.ReleaseEst.IsZero()
}
