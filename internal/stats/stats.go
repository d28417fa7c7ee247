// Package stats computes per-month price statistics for a currency pair.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"fxpipe/internal/fx"
)

type accumulator struct {
	high  decimal.Decimal
	low   decimal.Decimal
	sum   decimal.Decimal
	count int64
}

// Monthly groups records by (pair, calendar month) and returns one statistic
// per group in ascending (pair, month) order. Months without observations
// produce no statistic. Averages are rounded once, half away from zero, to
// fx.AveragePlaces.
func Monthly(records []fx.PriceRecord) []fx.MonthlyStat {
	type key struct {
		pair  fx.Pair
		month fx.Month
	}
	groups := make(map[key]*accumulator)
	for _, rec := range records {
		k := key{pair: rec.Pair, month: rec.Date.CalendarMonth()}
		acc, ok := groups[k]
		if !ok {
			groups[k] = &accumulator{high: rec.Price, low: rec.Price, sum: rec.Price, count: 1}
			continue
		}
		if rec.Price.GreaterThan(acc.high) {
			acc.high = rec.Price
		}
		if rec.Price.LessThan(acc.low) {
			acc.low = rec.Price
		}
		acc.sum = acc.sum.Add(rec.Price)
		acc.count++
	}

	out := make([]fx.MonthlyStat, 0, len(groups))
	for k, acc := range groups {
		out = append(out, fx.MonthlyStat{
			Pair:    k.pair,
			Month:   k.month,
			High:    acc.high,
			Low:     acc.low,
			Average: acc.sum.DivRound(decimal.NewFromInt(acc.count), fx.AveragePlaces),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair != out[j].Pair {
			return out[i].Pair.String() < out[j].Pair.String()
		}
		return out[i].Month.Compare(out[j].Month) < 0
	})
	return out
}
