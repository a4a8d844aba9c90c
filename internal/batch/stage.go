package batch

import (
	"context"
	"log/slog"
	"time"

	"dropsync/internal/faults"
	"dropsync/internal/logging"
)

// stageFunc runs one pipeline stage and returns attributes for the completion line.
type stageFunc func(ctx context.Context, logger *slog.Logger) ([]logging.Attr, error)

// runStage wraps fn with stage_start, stage_complete, and stage_failure log
// lines. Degenerate errors log a warning instead of a failure.
func runStage(ctx context.Context, logger *slog.Logger, name string, fn stageFunc) error {
	stageCtx := logging.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	attrs, err := fn(stageCtx, stageLogger)
	elapsed := time.Since(started)
	if err != nil {
		if faults.IsDegenerate(err) {
			logging.WarnWithContext(stageLogger, "stage skipped", "stage_skipped",
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining stages run without events"),
				logging.String(logging.FieldErrorHint, "check that the event index covers this sensor log"),
				logging.Duration("stage_duration", elapsed),
			)
			return err
		}
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("error_class", string(faults.Classify(err))),
			logging.Error(err),
			logging.Duration("stage_duration", elapsed),
		)
		return err
	}

	attrs = append(attrs,
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	stageLogger.Info("stage completed", logging.Args(attrs...)...)
	return nil
}
