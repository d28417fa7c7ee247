// Package export loads the monthly statistics and missing-month reports of
// an artifact store into a SQLite database for ad-hoc querying.
//
// Each Load replaces the previous contents in a single transaction, so the
// database always mirrors one consistent snapshot of the artifacts.
package export
