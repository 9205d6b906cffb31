package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for the packaging run identifier.
	FieldRunID = "run_id"
	// FieldStep is the standardized structured logging key for pipeline step names.
	FieldStep = "step"
	// FieldAddon is the standardized structured logging key for the addon name.
	FieldAddon = "addon"
	// FieldEventType classifies warnings and errors for log filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries a next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stepKey  contextKey = "step"
)

// WithRunID annotates context with the packaging run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the pipeline step name.
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(stepKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if step, ok := StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
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
	return logger.With(attrsToArgs(fields)...)
}
