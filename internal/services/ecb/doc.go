// Package ecb downloads daily reference rates from the European Central Bank
// data API and normalizes them into price records.
//
// # Endpoint
//
// One request per pair: <base_url>/D.<QUOTE>.<BASE>.SP00.A?format=csvdata.
// The CSV body is stored verbatim as the download artifact; Normalize reads
// the CURRENCY, CURRENCY_DENOM, TIME_PERIOD and OBS_VALUE columns from it.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff, honouring Retry-After. Requests are throttled with a
// token bucket so parallel fetch tasks stay within requests_per_second.
// Context cancellation aborts retries immediately. Every failure wraps
// services.ErrFetch.
package ecb
