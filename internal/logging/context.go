package logging

import (
	"context"
	"log/slog"

	"fxpipe/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldTask is the standardized structured logging key for task identities.
	FieldTask = "task"
	// FieldEventType classifies log lines for filtering (task_start, task_failure, ...).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for an operator reading a warning or error.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the classified error marker (fetch, malformed_record, ...).
	FieldErrorKind = "error_kind"
	// FieldArtifact is the standardized structured logging key for artifact keys.
	FieldArtifact = "artifact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if task, ok := services.TaskFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTask, task))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
