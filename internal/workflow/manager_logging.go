package workflow

import (
	"log/slog"

	"fxpipe/internal/logging"
	"fxpipe/internal/taskgraph"
)

// logSummary emits the run_complete event with per-state counts and, for
// incomplete runs, the failed and blocked task ids.
func (m *Manager) logSummary(logger *slog.Logger, s *Summary) {
	attrs := append([]logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("duration", s.Duration),
	}, countAttrs(s)...)

	err := s.Err()
	if err == nil {
		logger.Info("pipeline run complete", logging.Args(attrs...)...)
		return
	}
	if runErr, ok := taskgraph.AsRunError(err); ok {
		attrs = append(attrs,
			logging.Strings("failed_tasks", runErr.Failed),
			logging.Strings("blocked_tasks", runErr.Blocked),
		)
		if len(runErr.NotStarted) > 0 {
			attrs = append(attrs, logging.Strings("not_started_tasks", runErr.NotStarted))
		}
	}
	attrs = append(attrs,
		logging.Error(err),
		logging.ErrorKind(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
	logging.ErrorWithContext(logger, "pipeline run incomplete", "run_complete", attrs...)
}

func countAttrs(s *Summary) []logging.Attr {
	counts := s.Result.Counts()
	return []logging.Attr{
		logging.Int("ran", counts[taskgraph.StateRan]),
		logging.Int("skipped", counts[taskgraph.StateSkipped]),
		logging.Int("planned", counts[taskgraph.StatePlanned]),
		logging.Int("failed", counts[taskgraph.StateFailed]),
		logging.Int("blocked", counts[taskgraph.StateBlocked]),
		logging.Int("not_started", counts[taskgraph.StateNotStarted]),
		logging.Bool("dry_run", s.DryRun),
	}
}
