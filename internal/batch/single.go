package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"dropsync/internal/config"
	"dropsync/internal/faults"
	"dropsync/internal/logging"
	"dropsync/internal/report"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// DetectResult is the outcome of segmenting a single sensor log.
type DetectResult struct {
	Summary   RunSummary
	Log       *series.Log
	Intervals []segment.Interval
	// Output is the interval summary file written.
	Output string
}

// AlignResult is the outcome of matching a single sensor log against the event index.
type AlignResult struct {
	Summary       RunSummary `json:"summary"`
	EventsDropped int        `json:"events_dropped"`
	Output        string     `json:"output"`
}

// Detect segments the sensor log at path and writes its interval summary.
func Detect(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (DetectResult, error) {
	r, ctx, sum, err := single(ctx, cfg, logger, "detect", path)
	if err != nil {
		return DetectResult{}, err
	}
	var st runState
	if err := r.steps(ctx, &st, &sum, r.pipeline(Run{Label: sum.Label, Path: path})[:2]); err != nil {
		return DetectResult{Summary: sum}, err
	}
	out := IntervalsFile(r.settings.OutputDir, sum.Label)
	if err := report.WriteCSV(out, report.Intervals(st.segmented.Intervals)); err != nil {
		return DetectResult{Summary: sum}, faults.Wrap(faults.ErrOutput, sum.Label, "detect", "write interval summary", err)
	}
	return DetectResult{Summary: sum, Log: st.log, Intervals: st.segmented.Intervals, Output: out}, nil
}

// Align matches the sensor log at path against the event index, assigns the
// matched events to intervals, and writes the event table. A degenerate window
// is returned as an error alongside the partial summary.
func Align(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (AlignResult, error) {
	r, ctx, sum, err := single(ctx, cfg, logger, "align", path)
	if err != nil {
		return AlignResult{}, err
	}
	pool, err := loadPool(ctx, r.logger, cfg.EventIndexPath(), r.settings)
	if err != nil {
		return AlignResult{Summary: sum}, err
	}
	r.pool = pool
	res := AlignResult{EventsDropped: pool.Dropped()}

	var st runState
	err = r.steps(ctx, &st, &sum, r.pipeline(Run{Label: sum.Label, Path: path})[:4])
	res.Summary = sum
	if err != nil {
		return res, err
	}
	res.Output = EventsFile(r.settings.OutputDir, sum.Label)
	cols := eventColumns(pool.Columns(), st.log)
	if err := report.WriteCSV(res.Output, report.Events(cols, st.assigned.Events)); err != nil {
		return res, faults.Wrap(faults.ErrOutput, sum.Label, "align", "write event table", err)
	}
	return res, nil
}

func single(ctx context.Context, cfg *config.Config, logger *slog.Logger, component, path string) (*runner, context.Context, RunSummary, error) {
	if cfg == nil {
		return nil, ctx, RunSummary{}, fmt.Errorf("%w: config is required", faults.ErrConfiguration)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, ctx, RunSummary{}, fmt.Errorf("%w: %w", faults.ErrOutput, err)
	}
	label := LabelFor(path)
	sum := RunSummary{Label: label, SourceLog: filepath.Base(path), Status: StatusOK}
	r := &runner{settings: SettingsFrom(cfg), logger: logging.NewComponentLogger(logger, component)}
	return r, logging.WithRun(ctx, label), sum, nil
}

// steps runs each stage in order and stops at the first error.
func (r *runner) steps(ctx context.Context, st *runState, sum *RunSummary, stages []namedStep) error {
	for _, s := range stages {
		if err := runStage(ctx, r.logger, s.name, s.fn(st, sum)); err != nil {
			if faults.IsDegenerate(err) {
				sum.Status = StatusSkipped
			} else {
				sum.Status = StatusFailed
			}
			sum.Message = err.Error()
			sum.Err = err
			return err
		}
	}
	return nil
}
