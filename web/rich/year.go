package rich

import (
	"errors"
	"time"
)

// Year bounds. The ledger went live in 2012.
const (
	MinValidYear            = 2012
	MaxAllowedYearsInFuture = 10
)

var ErrYearOutOfRange = errors.New("year out of valid range")

// Year filters metric history by the calendar year of the run; the zero
// value disables the filter
type Year uint64

// ValidYears returns the inclusive range of filterable years as of now
func ValidYears(now time.Time) (lo, hi uint64) {
	return MinValidYear, uint64(now.Year()) + MaxAllowedYearsInFuture
}

// ParseYear validates year against ValidYears; zero is passed through
func ParseYear(year uint64) (Year, error) {
	if year == 0 {
		return 0, nil
	}
	if lo, hi := ValidYears(time.Now()); year < lo || year > hi {
		return 0, ErrYearOutOfRange
	}
	return Year(year), nil
}

// IsSet reports whether the filter is active
func (y Year) IsSet() bool { return y != 0 }

func (y Year) Uint64() uint64 { return uint64(y) }
