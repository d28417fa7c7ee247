package taskgraph

// State is the outcome of a node within one invocation.
type State string

const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateRan        State = "ran"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
	StateBlocked    State = "blocked"
	StateNotStarted State = "not_started"
	// StatePlanned and StateDeferred only occur in dry runs. A deferred spawn
	// point cannot list its instances because its inputs would be rebuilt first.
	StatePlanned  State = "planned"
	StateDeferred State = "deferred"
)

// IsTerminal reports whether s is final for this invocation.
func IsTerminal(s State) bool {
	switch s {
	case StatePending, StateRunning:
		return false
	default:
		return true
	}
}

// IsSuccessful reports whether s satisfies dependents.
func IsSuccessful(s State) bool {
	switch s {
	case StateRan, StateSkipped, StatePlanned, StateDeferred:
		return true
	default:
		return false
	}
}

// producedOutput reports whether s rewrote (or would rewrite) artifacts, which
// forces dependents to run regardless of timestamps.
func producedOutput(s State) bool {
	switch s {
	case StateRan, StatePlanned, StateDeferred:
		return true
	default:
		return false
	}
}
