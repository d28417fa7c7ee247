package workflow

import (
	"context"
	"log/slog"
	"time"

	"fxpipe/internal/artifact"
	"fxpipe/internal/logging"
	"fxpipe/internal/pipeline"
	"fxpipe/internal/services"
	"fxpipe/internal/taskgraph"
)

// RunOptions tunes a single invocation.
type RunOptions struct {
	// Force re-executes every task regardless of staleness.
	Force bool
	// Offline skips downloads; existing ECB_<PAIR> artifacts are used as sources.
	Offline bool
}

// Summary describes one invocation.
type Summary struct {
	RunID    string
	DryRun   bool
	Started  time.Time
	Duration time.Duration
	Result   *taskgraph.Result
}

// Err returns nil when every task ran or was skipped.
func (s *Summary) Err() error {
	if s == nil || s.Result == nil {
		return nil
	}
	return s.Result.Err()
}

// Run executes the pipeline once. It fails fast with ErrRunInProgress when
// another invocation holds the artifact lock. Task failures are returned as a
// *taskgraph.RunError alongside the summary.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if m.cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run", "configuration is required", nil)
	}
	if err := m.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run", "prepare directories", err)
	}
	lock, err := acquireLock(m.cfg.LockPath())
	if err != nil {
		return nil, err
	}

	runID := m.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, m.logger)
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if err := m.runPreflightChecks(logger); err != nil {
		return nil, err
	}

	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Strings("pairs", m.cfg.Pairs()),
		logging.Int("workers", m.cfg.Workflow.Workers),
		logging.Bool("force", opts.Force),
		logging.Bool("offline", opts.Offline),
	)
	summary, err := m.execute(ctx, runID, opts, false)
	if err != nil {
		logging.ErrorWithContext(logger, "pipeline run aborted", "run_aborted",
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldErrorHint, failureHint(err)),
		)
		return nil, err
	}
	m.logSummary(logger, summary)
	m.writeMetrics(logger, summary)
	return summary, summary.Err()
}

func (m *Manager) execute(ctx context.Context, runID string, opts RunOptions, dryRun bool) (*Summary, error) {
	store, err := artifact.Open(m.cfg.Paths.ArtifactDir)
	if err != nil {
		return nil, err
	}
	pairs, err := m.pairs()
	if err != nil {
		return nil, err
	}
	buildOpts := pipeline.Options{Pairs: pairs, RefreshAge: m.cfg.RefreshAge()}
	if !opts.Offline {
		buildOpts.Fetcher = m.fetcher
	}
	graph, err := pipeline.Build(store, buildOpts)
	if err != nil {
		return nil, err
	}

	started := m.clock()
	exec := taskgraph.NewExecutor(graph, store, taskgraph.Options{
		Workers: m.cfg.Workflow.Workers,
		DryRun:  dryRun,
		Force:   opts.Force,
		Logger:  m.base,
		Clock:   m.clock,
	})
	result, err := exec.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		RunID:    runID,
		DryRun:   dryRun,
		Started:  started,
		Duration: m.clock().Sub(started),
		Result:   result,
	}, nil
}

func (m *Manager) runLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, m.logger)
}
