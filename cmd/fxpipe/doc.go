// Package main hosts the fxpipe CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the pipeline once per invocation, reports
// readiness and the plan of the next run, renders the missing-data report,
// exports results to SQLite, and scaffolds configuration. It centralizes
// configuration resolution and structured logging setup so subcommands only
// deal with presentation.
//
// Keep this package lean: behavior belongs in internal/workflow and the
// packages below it; commands here translate flags into options and results
// into terminal output.
package main
