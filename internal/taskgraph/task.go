package taskgraph

import (
	"context"
	"log/slog"
	"time"

	"fxpipe/internal/artifact"
)

// Env is handed to a running task.
type Env struct {
	TaskID string
	// Inputs lists the declared inputs plus, for a join, the outputs of every
	// instance of the spawn points it depends on.
	Inputs []string
	Store  *artifact.Store
	Out    *artifact.Stage
	Logger *slog.Logger
}

// ComputeFunc produces a task's outputs. It must write every declared output
// through env.Out.
type ComputeFunc func(ctx context.Context, env *Env) error

// Task is a unit of work with declared artifact inputs and outputs.
type Task struct {
	ID      string
	Stage   string
	Inputs  []string
	Outputs []string
	// Deps names tasks or spawn points that must complete first.
	Deps []string
	// MaxAge re-runs the task once its oldest output is older than this.
	MaxAge time.Duration
	// Verify is consulted when the timestamps say the outputs are fresh. A
	// non-empty reason makes the task run anyway; reducers use it to notice
	// that their input set changed without any input getting newer.
	Verify VerifyFunc
	Run    ComputeFunc
}

// VerifyFunc checks that a task's existing outputs still match inputs. It
// returns the reason the outputs are out of date, or "" when they are current.
type VerifyFunc func(store *artifact.Store, inputs []string) (string, error)

// ExpandFunc lists the instances of a spawn point. It runs after the spawn
// point's dependencies have completed and may read their outputs.
type ExpandFunc func(ctx context.Context) ([]Task, error)

// Spawn is a fan-out point whose instances are known only at run time.
type Spawn struct {
	ID     string
	Stage  string
	Deps   []string
	Expand ExpandFunc
}
