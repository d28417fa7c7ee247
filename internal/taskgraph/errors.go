package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph  = errors.New("invalid task graph")
	ErrCycle         = errors.New("cycle detected")
	ErrOutputMissing = errors.New("declared output not written")
)

// GraphError describes a structural problem found while building or
// expanding a graph.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: ErrCycle, Msg: msg}
}

// SpawnError reports the instances that kept a spawn point from completing.
type SpawnError struct {
	Spawn   string
	Failed  []string
	Blocked []string
}

func (e *SpawnError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Failed) > 0 {
		parts = append(parts, "failed instances "+strings.Join(e.Failed, ", "))
	}
	if len(e.Blocked) > 0 {
		parts = append(parts, "blocked instances "+strings.Join(e.Blocked, ", "))
	}
	return fmt.Sprintf("spawn %s incomplete: %s", e.Spawn, strings.Join(parts, "; "))
}

// RunError summarizes an invocation in which some task did not complete.
type RunError struct {
	Failed     []string
	Blocked    []string
	NotStarted []string
	errs       []error
}

func (e *RunError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Failed) > 0 {
		parts = append(parts, "failed: "+strings.Join(e.Failed, ", "))
	}
	if len(e.Blocked) > 0 {
		parts = append(parts, "blocked: "+strings.Join(e.Blocked, ", "))
	}
	if len(e.NotStarted) > 0 {
		parts = append(parts, "not started: "+strings.Join(e.NotStarted, ", "))
	}
	return "pipeline run incomplete: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying task errors for errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	return e.errs
}
