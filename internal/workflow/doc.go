// Package workflow runs the fxpipe task graph for a loaded configuration.
//
// The Manager turns the source registry into a pipeline graph, takes the
// single-writer lock on the artifact root, stamps a run id on every log line,
// executes the graph, and records the outcome in the run summary log and the
// optional Prometheus textfile. Status reuses the same graph in dry-run mode
// to report which tasks a run would execute without touching any artifact.
package workflow
