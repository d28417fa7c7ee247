// Package taskgraph runs an incremental task graph over an artifact store.
//
// A graph holds static tasks and spawn points. A spawn point expands into task
// instances once its dependencies have completed, so the number of downstream
// tasks can depend on artifact content discovered earlier in the same run. A
// task that depends on a spawn point is a join: it starts only after every
// instance of that spawn has completed.
//
// The executor runs a task only when the staleness oracle reports it stale or
// when one of its dependencies ran during the current invocation. Each task
// writes through an artifact.Stage limited to its declared outputs, and the
// outputs are published only when the task succeeds. Nothing besides the
// artifacts themselves is persisted, so an interrupted run resumes on the next
// invocation from modification times alone.
package taskgraph
