package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DistributionHalf identifies which half of the month an archive covers
type DistributionHalf string

const (
	// HalfFirst covers settlement days 1-15 (file suffix "a")
	HalfFirst DistributionHalf = "a"
	// HalfSecond covers settlement day 16 through month end (file suffix "b")
	HalfSecond DistributionHalf = "b"
)

// Distribution identifies one published disclosure archive by its
// year/month/half key, derived from file names like cnsfails202401a.
type Distribution struct {
	Year  int              `json:"year" validate:"required,min=1990"`
	Month time.Month       `json:"month" validate:"required,min=1,max=12"`
	Half  DistributionHalf `json:"half" validate:"required,oneof=a b"`
}

// distributionPrefix is the publisher's archive file name prefix
const distributionPrefix = "cnsfails"

// ParseDistributionKey derives a Distribution from an archive file stem.
// Unrecognized names return ok=false; they are still fetchable, they just
// carry no distribution metadata.
func ParseDistributionKey(fileStem string) (Distribution, bool) {
	name := strings.ToLower(strings.TrimSpace(fileStem))
	if !strings.HasPrefix(name, distributionPrefix) {
		return Distribution{}, false
	}

	token := name[len(distributionPrefix):]
	if len(token) < 7 {
		return Distribution{}, false
	}

	year, err := strconv.Atoi(token[0:4])
	if err != nil {
		return Distribution{}, false
	}
	month, err := strconv.Atoi(token[4:6])
	if err != nil || month < 1 || month > 12 {
		return Distribution{}, false
	}

	half := DistributionHalf(token[6])
	if half != HalfFirst && half != HalfSecond {
		return Distribution{}, false
	}

	return Distribution{Year: year, Month: time.Month(month), Half: half}, true
}

// Key returns the archive file stem for the distribution
func (d Distribution) Key() string {
	return fmt.Sprintf("%s%04d%02d%s", distributionPrefix, d.Year, int(d.Month), d.Half)
}

// Title returns the human-readable distribution name, e.g.
// "January 2024, first half".
func (d Distribution) Title() string {
	half := "first"
	if d.Half == HalfSecond {
		half = "second"
	}
	return fmt.Sprintf("%s %d, %s half", d.Month.String(), d.Year, half)
}

// ProcessDate returns the date the publisher finalizes the distribution:
// the last day of the month for the first half, the 15th of the following
// month for the second half. December's second half rolls into January of
// the next year.
func (d Distribution) ProcessDate() time.Time {
	monthStart := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	if d.Half == HalfFirst {
		return nextMonth.AddDate(0, 0, -1)
	}
	return time.Date(nextMonth.Year(), nextMonth.Month(), 15, 0, 0, 0, 0, time.UTC)
}
