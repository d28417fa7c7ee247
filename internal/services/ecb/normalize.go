package ecb

import (
	"fmt"
	"sort"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/services"
)

// Columns of the ECB csvdata format read by Normalize.
const (
	ColumnCurrency      = "CURRENCY"
	ColumnCurrencyDenom = "CURRENCY_DENOM"
	ColumnTimePeriod    = "TIME_PERIOD"
	ColumnObsValue      = "OBS_VALUE"
)

// Normalize turns a downloaded ECB table into price records for want, sorted
// by date. Rows belonging to another pair, unparsable dates and non-positive
// or missing values are malformed records; nothing is silently dropped.
// An empty download yields no records.
func Normalize(table artifact.Table, want fx.Pair) ([]fx.PriceRecord, error) {
	if len(table.Header) == 0 && table.Len() == 0 {
		return nil, nil
	}
	cols := make(map[string]int, 4)
	for _, name := range []string{ColumnCurrency, ColumnCurrencyDenom, ColumnTimePeriod, ColumnObsValue} {
		idx := table.Column(name)
		if idx < 0 {
			return nil, services.Wrap(services.ErrMalformedRecord, "normalize", want.String(), fmt.Sprintf("column %s not found", name), nil)
		}
		cols[name] = idx
	}

	records := make([]fx.PriceRecord, 0, table.Len())
	for i, row := range table.Rows {
		line := i + 2
		pair, err := fx.NewPair(row[cols[ColumnCurrencyDenom]], row[cols[ColumnCurrency]])
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedRecord, "normalize", want.String(), fmt.Sprintf("line %d", line), err)
		}
		if pair != want {
			return nil, services.Wrap(services.ErrMalformedRecord, "normalize", want.String(), fmt.Sprintf("line %d: series is for %s", line, pair), nil)
		}
		date, err := fx.ParseDate(row[cols[ColumnTimePeriod]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := fx.ParsePrice(row[cols[ColumnObsValue]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, fx.PriceRecord{Pair: pair, Date: date, Price: price})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}
