// Package coverage measures which calendar months of the globally observed
// date range lack data for a pair.
package coverage

import (
	"slices"

	"fxpipe/internal/fx"
	"fxpipe/internal/services"
)

// Range is an inclusive span of calendar months. It is a value and is safe
// to share between goroutines.
type Range struct {
	First fx.Month
	Last  fx.Month
}

// RangeOf returns the months of the earliest and latest dates. It fails with
// services.ErrEmptyDateSet when dates is empty.
func RangeOf(dates []fx.Date) (Range, error) {
	if len(dates) == 0 {
		return Range{}, services.Wrap(services.ErrEmptyDateSet, "coverage", "range", "no dates observed", nil)
	}
	minDate, maxDate := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(minDate) {
			minDate = d
		}
		if maxDate.Before(d) {
			maxDate = d
		}
	}
	return Range{First: minDate.CalendarMonth(), Last: maxDate.CalendarMonth()}, nil
}

// Months lists the range in ascending order, both ends included.
func (r Range) Months() []fx.Month {
	return fx.MonthRange(r.First, r.Last)
}

// Contains reports whether m falls inside the range.
func (r Range) Contains(m fx.Month) bool {
	return m.Compare(r.First) >= 0 && m.Compare(r.Last) <= 0
}

func (r Range) String() string {
	return r.First.String() + ".." + r.Last.String()
}

// Missing returns the expected months absent from observed, in the order of
// expected. Observed months outside expected are ignored.
func Missing(pair fx.Pair, expected, observed []fx.Month) []fx.MissingMonth {
	seen := make(map[fx.Month]struct{}, len(observed))
	for _, m := range observed {
		seen[m] = struct{}{}
	}
	var missing []fx.MissingMonth
	for _, m := range expected {
		if _, ok := seen[m]; ok {
			continue
		}
		missing = append(missing, fx.MissingMonth{Pair: pair, Month: m})
	}
	return missing
}

// ObservedMonths extracts the distinct months of stats for pair, ascending.
func ObservedMonths(pair fx.Pair, stats []fx.MonthlyStat) []fx.Month {
	var months []fx.Month
	for _, s := range stats {
		if s.Pair != pair || slices.Contains(months, s.Month) {
			continue
		}
		months = append(months, s.Month)
	}
	slices.SortFunc(months, fx.Month.Compare)
	return months
}
