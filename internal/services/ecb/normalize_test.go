package ecb

import (
	"errors"
	"testing"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/services"
)

func decode(t *testing.T, data string) artifact.Table {
	t.Helper()
	table, err := artifact.DecodeTable([]byte(data))
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	return table
}

func TestNormalizeKeepsRequiredColumns(t *testing.T) {
	records, err := Normalize(decode(t, sampleCSV), fx.MustParsePair("EUR_USD"))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Pair.String() != "EUR_USD" || records[0].Date.String() != "2024-01-05" || records[0].Price.String() != "1.0921" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestNormalizeSortsByDate(t *testing.T) {
	data := "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\nSEK,EUR,2024-02-01,11.2\nSEK,EUR,2024-01-31,11.1\n"
	records, err := Normalize(decode(t, data), fx.MustParsePair("EUR_SEK"))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if records[0].Date.String() != "2024-01-31" {
		t.Fatalf("expected ascending dates, got %s first", records[0].Date)
	}
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing column", "CURRENCY,CURRENCY_DENOM,TIME_PERIOD\nUSD,EUR,2024-01-05\n"},
		{"empty value", "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\nUSD,EUR,2024-01-05,\n"},
		{"bad date", "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\nUSD,EUR,2024-13-05,1.09\n"},
		{"other pair", "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\nSEK,EUR,2024-01-05,11.2\n"},
		{"inverted pair", "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\nEUR,USD,2024-01-05,0.91\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(decode(t, tt.data), fx.MustParsePair("EUR_USD"))
			if !errors.Is(err, services.ErrMalformedRecord) {
				t.Fatalf("expected malformed record, got %v", err)
			}
		})
	}
}

func TestNormalizeEmptySeries(t *testing.T) {
	records, err := Normalize(decode(t, "CURRENCY,CURRENCY_DENOM,TIME_PERIOD,OBS_VALUE\n"), fx.MustParsePair("EUR_USD"))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestNormalizeEmptyDownload(t *testing.T) {
	records, err := Normalize(decode(t, ""), fx.MustParsePair("EUR_USD"))
	if err != nil || len(records) != 0 {
		t.Fatalf("Normalize(empty) = %v, %v; want no records", records, err)
	}
}
