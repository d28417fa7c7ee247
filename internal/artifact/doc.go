// Package artifact stores pipeline artifacts as CSV tables on the local
// filesystem. Each key maps to <root>/<key>.csv; modification times are the
// only metadata the pipeline keeps between runs.
//
// Writes are atomic: a reader never observes a partially written table. Tasks
// write through a Stage, which only accepts the keys the task declared and
// publishes them together on Commit.
package artifact
