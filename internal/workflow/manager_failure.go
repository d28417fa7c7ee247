package workflow

import (
	"context"
	"errors"

	"fxpipe/internal/services"
)

// failureHint suggests the operator's next step for the dominant error class.
func failureHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRunInProgress):
		return "wait for the other run to finish"
	case errors.Is(err, context.Canceled):
		return "rerun to resume; completed tasks are kept"
	case errors.Is(err, services.ErrFetch):
		return "check network access to the ECB data API and rerun; completed pairs are kept"
	case errors.Is(err, services.ErrMalformedRecord):
		return "inspect the artifact named in the error; the task is retried on the next run"
	case errors.Is(err, services.ErrEmptyDateSet):
		return "no source contained observations; check source.currencies"
	case errors.Is(err, services.ErrConfiguration):
		return "fix the configuration and rerun"
	default:
		return "check logs for details"
	}
}
