package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"fxpipe/internal/logging"
	"fxpipe/internal/preflight"
	"fxpipe/internal/services"
)

// runPreflightChecks validates the artifact root and the source registry
// before a run. Returns nil when all checks pass, or an error describing all
// failures.
func (m *Manager) runPreflightChecks(logger *slog.Logger) error {
	results := []preflight.Result{
		preflight.CheckDirectoryAccess("Artifact directory", m.cfg.Paths.ArtifactDir),
		preflight.CheckRegistry(m.cfg),
	}

	var failures []string
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported issue and rerun"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}

	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "workflow", "preflight", strings.Join(failures, "; "), nil)
	}
	return nil
}
