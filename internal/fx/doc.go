// Package fx defines the exchange-rate domain values shared by every stage:
// currency pairs, calendar dates and months, daily price records, monthly
// statistics, and missing-month markers, together with their tabular codecs.
//
// Pairs are validated against ISO 4217 and keep their direction, so EUR_USD and
// USD_EUR are distinct identities. Prices are carried as decimals end to end.
package fx
