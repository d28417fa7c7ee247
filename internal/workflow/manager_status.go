package workflow

import (
	"context"

	"fxpipe/internal/logging"
	"fxpipe/internal/preflight"
	"fxpipe/internal/services"
)

// StatusOptions selects what Status inspects.
type StatusOptions struct {
	// CheckSource probes the ECB endpoint once.
	CheckSource bool
	RunOptions
}

// StatusSummary combines readiness checks with the plan of the next run.
type StatusSummary struct {
	Preflight []preflight.Result
	Plan      *Summary
	// PlanErr is set when the plan could not be computed, e.g. because the
	// artifact directory is unusable.
	PlanErr error
}

// Status runs the preflight checks and plans the next run without executing
// any task, writing any artifact, or taking the run lock.
func (m *Manager) Status(ctx context.Context, opts StatusOptions) StatusSummary {
	summary := StatusSummary{
		Preflight: preflight.RunAll(ctx, m.cfg, preflight.Options{Source: opts.CheckSource}),
	}
	summary.Plan, summary.PlanErr = m.Plan(ctx, opts.RunOptions)
	return summary
}

// Plan evaluates staleness for every task and expands spawn points whose
// inputs are already fresh. No task runs.
func (m *Manager) Plan(ctx context.Context, opts RunOptions) (*Summary, error) {
	if m.cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "plan", "configuration is required", nil)
	}
	runID := m.newRunID()
	ctx = services.WithRunID(ctx, runID)
	summary, err := m.execute(ctx, runID, opts, true)
	if err != nil {
		return nil, err
	}
	m.runLogger(ctx).Debug("pipeline plan computed", logging.Args(countAttrs(summary)...)...)
	return summary, nil
}
