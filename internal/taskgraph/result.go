package taskgraph

import (
	"context"
	"errors"
	"time"

	"fxpipe/internal/services"
)

// Kind distinguishes the node shapes of a run.
type Kind string

const (
	KindTask     Kind = "task"
	KindSpawn    Kind = "spawn"
	KindInstance Kind = "instance"
)

// Outcome is the final record of one node.
type Outcome struct {
	ID    string
	Kind  Kind
	Stage string
	// Spawn is the spawn point an instance belongs to.
	Spawn    string
	State    State
	Reason   string
	Err      error
	Outputs  []string
	Duration time.Duration
}

// Result lists every node outcome of an invocation: static nodes in
// registration order, each spawn point followed by its instances in the order
// they were expanded.
type Result struct {
	Outcomes  []Outcome
	DryRun    bool
	Cancelled bool
	cause     error
}

// Outcome returns the outcome recorded for id.
func (r *Result) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// IDs returns the identifiers whose final state is s, in result order.
func (r *Result) IDs(s State) []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.State == s {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Counts tallies outcomes per state.
func (r *Result) Counts() map[State]int {
	counts := make(map[State]int)
	for _, o := range r.Outcomes {
		counts[o.State]++
	}
	return counts
}

// Err returns nil when every node ran or was skipped, and a *RunError
// otherwise.
func (r *Result) Err() error {
	runErr := &RunError{
		Failed:     r.IDs(StateFailed),
		Blocked:    r.IDs(StateBlocked),
		NotStarted: r.IDs(StateNotStarted),
	}
	if len(runErr.Failed) == 0 && len(runErr.Blocked) == 0 && len(runErr.NotStarted) == 0 {
		return nil
	}
	for _, o := range r.Outcomes {
		if o.State == StateFailed && o.Err != nil {
			runErr.errs = append(runErr.errs, o.Err)
		}
	}
	if len(runErr.Blocked) > 0 {
		runErr.errs = append(runErr.errs, services.ErrBlocked)
	}
	if r.cause != nil {
		runErr.errs = append(runErr.errs, r.cause)
	} else if r.Cancelled {
		runErr.errs = append(runErr.errs, context.Canceled)
	}
	return runErr
}

// AsRunError extracts a *RunError from err.
func AsRunError(err error) (*RunError, bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr, true
	}
	return nil, false
}
