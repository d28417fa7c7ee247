// Package pipeline assembles the fxpipe task graph: one download and
// normalization branch per configured currency pair, per-source extraction of
// pairs and dates with fan-in reductions, monthly aggregation, and a coverage
// reconciliation spawn point whose instances are joined into the global
// missing-data report.
//
// Every artifact key used by the graph is built by the helpers in keys.go so
// the CLI, the exporter and the tests agree on names.
package pipeline
