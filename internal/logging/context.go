package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID identifies one invocation of the batch pipeline.
	FieldBatchID = "batch_id"
	// FieldRun is the run label derived from the sensor log file name.
	FieldRun = "run"
	// FieldStage is the pipeline stage currently executing.
	FieldStage = "stage"
	// FieldEventType classifies a log line for filtering (stage_start, run_skipped, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	batchIDKey contextKey = iota
	runKey
	stageKey
)

// WithBatchID stores the batch identifier on ctx.
func WithBatchID(ctx context.Context, id string) context.Context {
	return withValue(ctx, batchIDKey, id)
}

// WithRun stores the run label on ctx.
func WithRun(ctx context.Context, label string) context.Context {
	return withValue(ctx, runKey, label)
}

// WithStage stores the stage name on ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// RunFromContext returns the run label stored on ctx.
func RunFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runKey)
}

// StageFromContext returns the stage name stored on ctx.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// BatchIDFromContext returns the batch identifier stored on ctx.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, batchIDKey)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := BatchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if run, ok := RunFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRun, run))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
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
