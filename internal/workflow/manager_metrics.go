package workflow

import (
	"log/slog"
	"strings"

	"fxpipe/internal/logging"
	"fxpipe/internal/metrics"
)

// writeMetrics records the run in the configured Prometheus textfile.
func (m *Manager) writeMetrics(logger *slog.Logger, s *Summary) {
	path := strings.TrimSpace(m.cfg.Metrics.Textfile)
	if path == "" || s == nil || s.DryRun {
		return
	}
	recorder := metrics.NewRecorder()
	recorder.Observe(s.Result, s.Duration, s.Started.Add(s.Duration))
	if err := recorder.WriteTextfile(path); err != nil {
		logging.WarnWithContext(logger, "failed to write metrics textfile", "metrics_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "check metrics.textfile permissions"),
		)
	}
}
