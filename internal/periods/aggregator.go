// Package periods rolls the master store up into calendar reporting
// periods matching the publisher's cadence history.
package periods

import (
	"log/slog"
	"sort"
	"time"

	"ftdcli/pkg/contracts/domain"
)

// AssignPeriod returns the reporting period containing the settlement
// date, with the counters zeroed. Dates before the cutover fall into
// whole-month periods. From the cutover on, the publisher splits each
// month at the 15th and releases each half's data about half a month
// after the half closes.
func AssignPeriod(settlement time.Time) domain.AggregatedPeriod {
	year, month, day := settlement.Date()

	if settlement.Before(domain.SemiMonthlyCutover) {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return domain.AggregatedPeriod{
			Scheme: domain.SchemeMonthly,
			Label:  start.Format("2006-01"),
			Start:  start,
			End:    endOfMonth(year, month),
		}
	}

	if day <= 15 {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return domain.AggregatedPeriod{
			Scheme:     domain.SchemeSemiMonthly,
			Label:      start.Format("2006-01") + "-H1",
			Start:      start,
			End:        time.Date(year, month, 15, 0, 0, 0, 0, time.UTC),
			ReleaseEst: endOfMonth(year, month),
		}
	}

	// time.Date normalizes month 13, so a December second half gets its
	// release estimate in January of the next year.
	start := time.Date(year, month, 16, 0, 0, 0, 0, time.UTC)
	return domain.AggregatedPeriod{
		Scheme:     domain.SchemeSemiMonthly,
		Label:      start.Format("2006-01") + "-H2",
		Start:      start,
		End:        endOfMonth(year, month),
		ReleaseEst: time.Date(year, month+1, 15, 0, 0, 0, 0, time.UTC),
	}
}

// endOfMonth returns the month's last calendar day
func endOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Aggregator computes period roll-ups from master store records.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate groups records into reporting periods and computes each
// period's row count, quantity sum, unweighted mean price, and position
// weight sum. The result is sorted by period start. The pass is a full
// recomputation every run: pure, deterministic, and immune to partial
// state from earlier runs.
func (a *Aggregator) Aggregate(records []domain.FailRecord) []domain.AggregatedPeriod {
	type accumulator struct {
		period   domain.AggregatedPeriod
		priceSum float64
	}

	buckets := make(map[string]*accumulator)
	for _, record := range records {
		period := AssignPeriod(record.SettlementDate)

		acc, ok := buckets[period.Label]
		if !ok {
			acc = &accumulator{period: period}
			buckets[period.Label] = acc
		}

		acc.period.Rows++
		acc.period.SumQty += record.Quantity
		acc.period.SumWeight += record.Weight()
		acc.priceSum += record.Price
	}

	result := make([]domain.AggregatedPeriod, 0, len(buckets))
	for _, acc := range buckets {
		if acc.period.Rows > 0 {
			acc.period.MeanPrice = acc.priceSum / float64(acc.period.Rows)
		}
		result = append(result, acc.period)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Start.Equal(result[j].Start) {
			return result[i].Label < result[j].Label
		}
		return result[i].Start.Before(result[j].Start)
	})

	a.logger.Debug("Aggregation complete",
		slog.Int("records", len(records)),
		slog.Int("periods", len(result)))

	return result
}
