package logging

import (
	"context"
	"log/slog"

	"triage/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags records with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldSourceID is the standardized key for feedback item identifiers.
	FieldSourceID = "source_id"
	// FieldRunID is the standardized key for run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized key for pipeline stage names.
	FieldStage = "stage"
	// FieldAttempt is the standardized key for the 1-based retry attempt.
	FieldAttempt = "attempt"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldErrorHint suggests the operator's next step after a failure.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.SourceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSourceID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
