package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fxpipe/internal/artifact"
	"fxpipe/internal/services"
)

// Column names of the pipeline artifacts. Order is part of the contract.
const (
	ColumnPair    = "currency_pair"
	ColumnDate    = "date"
	ColumnRate    = "rate"
	ColumnMonth   = "month"
	ColumnHigh    = "high"
	ColumnLow     = "low"
	ColumnAverage = "average"
)

// AveragePlaces is the number of decimal places kept for monthly averages.
const AveragePlaces = 6

var (
	PriceHeader        = []string{ColumnPair, ColumnDate, ColumnRate}
	PairHeader         = []string{ColumnPair}
	DateHeader         = []string{ColumnDate}
	MonthlyStatHeader  = []string{ColumnPair, ColumnMonth, ColumnHigh, ColumnLow, ColumnAverage}
	MissingMonthHeader = []string{ColumnPair, ColumnMonth}
)

// PriceRecord is one daily observation.
type PriceRecord struct {
	Pair  Pair
	Date  Date
	Price decimal.Decimal
}

// MonthlyStat summarizes the observations of one pair in one month.
type MonthlyStat struct {
	Pair    Pair
	Month   Month
	High    decimal.Decimal
	Low     decimal.Decimal
	Average decimal.Decimal
}

// MissingMonth marks a month in the expected range without observations.
type MissingMonth struct {
	Pair  Pair
	Month Month
}

// PricesTable encodes records as a price artifact.
func PricesTable(records []PriceRecord) artifact.Table {
	table := artifact.NewTable(PriceHeader...)
	for _, rec := range records {
		table.Append(rec.Pair.String(), rec.Date.String(), rec.Price.String())
	}
	return table
}

// DecodePrices parses a price artifact.
func DecodePrices(table artifact.Table) ([]PriceRecord, error) {
	if err := requireHeader(table, PriceHeader); err != nil {
		return nil, err
	}
	records := make([]PriceRecord, 0, table.Len())
	for i, row := range table.Rows {
		pair, err := ParsePair(row[0])
		if err != nil {
			return nil, rowError(i, err)
		}
		date, err := ParseDate(row[1])
		if err != nil {
			return nil, rowError(i, err)
		}
		price, err := ParsePrice(row[2])
		if err != nil {
			return nil, rowError(i, err)
		}
		records = append(records, PriceRecord{Pair: pair, Date: date, Price: price})
	}
	return records, nil
}

// ParsePrice parses a decimal rate. Rates must be positive.
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, services.Wrap(services.ErrMalformedRecord, "fx", "parse price", fmt.Sprintf("invalid rate %q", text), err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, services.Wrap(services.ErrMalformedRecord, "fx", "parse price", fmt.Sprintf("rate %q is not positive", text), nil)
	}
	return price, nil
}

// PairsTable encodes a pair list artifact in the given order.
func PairsTable(pairs []Pair) artifact.Table {
	table := artifact.NewTable(PairHeader...)
	for _, p := range pairs {
		table.Append(p.String())
	}
	return table
}

// DecodePairs parses a pair list artifact, preserving row order.
func DecodePairs(table artifact.Table) ([]Pair, error) {
	if err := requireHeader(table, PairHeader); err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, table.Len())
	for i, row := range table.Rows {
		p, err := ParsePair(row[0])
		if err != nil {
			return nil, rowError(i, services.Wrap(services.ErrMalformedRecord, "fx", "decode pairs", "", err))
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// DatesTable encodes a date list artifact in the given order.
func DatesTable(dates []Date) artifact.Table {
	table := artifact.NewTable(DateHeader...)
	for _, d := range dates {
		table.Append(d.String())
	}
	return table
}

// DecodeDates parses a date list artifact, preserving row order.
func DecodeDates(table artifact.Table) ([]Date, error) {
	if err := requireHeader(table, DateHeader); err != nil {
		return nil, err
	}
	dates := make([]Date, 0, table.Len())
	for i, row := range table.Rows {
		d, err := ParseDate(row[0])
		if err != nil {
			return nil, rowError(i, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// MonthlyStatsTable encodes monthly statistics.
func MonthlyStatsTable(stats []MonthlyStat) artifact.Table {
	table := artifact.NewTable(MonthlyStatHeader...)
	for _, s := range stats {
		table.Append(s.Pair.String(), s.Month.String(), s.High.String(), s.Low.String(), s.Average.Round(AveragePlaces).String())
	}
	return table
}

// DecodeMonthlyStats parses a monthly statistics artifact.
func DecodeMonthlyStats(table artifact.Table) ([]MonthlyStat, error) {
	if err := requireHeader(table, MonthlyStatHeader); err != nil {
		return nil, err
	}
	stats := make([]MonthlyStat, 0, table.Len())
	for i, row := range table.Rows {
		p, err := ParsePair(row[0])
		if err != nil {
			return nil, rowError(i, services.Wrap(services.ErrMalformedRecord, "fx", "decode monthly stats", "", err))
		}
		m, err := ParseMonth(row[1])
		if err != nil {
			return nil, rowError(i, err)
		}
		values := make([]decimal.Decimal, 3)
		for j := range values {
			v, err := decimal.NewFromString(row[2+j])
			if err != nil {
				return nil, rowError(i, services.Wrap(services.ErrMalformedRecord, "fx", "decode monthly stats", fmt.Sprintf("invalid %s %q", MonthlyStatHeader[2+j], row[2+j]), err))
			}
			values[j] = v
		}
		stats = append(stats, MonthlyStat{Pair: p, Month: m, High: values[0], Low: values[1], Average: values[2]})
	}
	return stats, nil
}

// MissingMonthsTable encodes missing-month markers in the given order.
func MissingMonthsTable(missing []MissingMonth) artifact.Table {
	table := artifact.NewTable(MissingMonthHeader...)
	for _, m := range missing {
		table.Append(m.Pair.String(), m.Month.String())
	}
	return table
}

// DecodeMissingMonths parses a missing-month artifact, preserving row order.
func DecodeMissingMonths(table artifact.Table) ([]MissingMonth, error) {
	if err := requireHeader(table, MissingMonthHeader); err != nil {
		return nil, err
	}
	missing := make([]MissingMonth, 0, table.Len())
	for i, row := range table.Rows {
		p, err := ParsePair(row[0])
		if err != nil {
			return nil, rowError(i, services.Wrap(services.ErrMalformedRecord, "fx", "decode missing months", "", err))
		}
		m, err := ParseMonth(row[1])
		if err != nil {
			return nil, rowError(i, err)
		}
		missing = append(missing, MissingMonth{Pair: p, Month: m})
	}
	return missing, nil
}

func requireHeader(table artifact.Table, want []string) error {
	if !table.HasHeader(want...) {
		return services.Wrap(services.ErrMalformedRecord, "fx", "header", fmt.Sprintf("got columns %v, want %v", table.Header, want), nil)
	}
	for i, row := range table.Rows {
		if len(row) != len(want) {
			return rowError(i, services.Wrap(services.ErrMalformedRecord, "fx", "row", fmt.Sprintf("got %d fields, want %d", len(row), len(want)), nil))
		}
	}
	return nil
}

// rowError numbers rows from 2 so the position matches the CSV line.
func rowError(index int, err error) error {
	return fmt.Errorf("line %d: %w", index+2, err)
}
