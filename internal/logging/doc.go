// Package logging assembles structured slog loggers and formatting helpers used
// across fxpipe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so task code automatically tags
// log lines with run IDs, stages, and task identities. The console handler
// renders the task identity as a bracketed prefix so interleaved output from
// concurrent workers stays readable.
package logging
