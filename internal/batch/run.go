package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"dropsync/internal/align"
	"dropsync/internal/assign"
	"dropsync/internal/catalog"
	"dropsync/internal/faults"
	"dropsync/internal/ingest"
	"dropsync/internal/logging"
	"dropsync/internal/report"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// Status is the outcome of one run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// RunSummary reports the counts and outcome of one run.
type RunSummary struct {
	Label          string        `json:"label"`
	SourceLog      string        `json:"source_log"`
	Status         Status        `json:"status"`
	Message        string        `json:"message,omitempty"`
	Samples        int           `json:"samples"`
	SamplesDropped int           `json:"samples_dropped"`
	Intervals      int           `json:"intervals"`
	EventsTotal    int           `json:"events_total"`
	Matched        int           `json:"matched"`
	Unmatched      int           `json:"unmatched"`
	Assigned       int           `json:"assigned"`
	Unassigned     int           `json:"unassigned"`
	Drops          []string      `json:"drops,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
	Err            error         `json:"-"`
}

// IntervalsFile returns the interval summary path for label.
func IntervalsFile(outputDir, label string) string {
	return filepath.Join(outputDir, "intervals_"+label+".csv")
}

// EventsFile returns the event table path for label.
func EventsFile(outputDir, label string) string {
	return filepath.Join(outputDir, "events_"+label+".csv")
}

// runner executes the per-run pipeline against a shared, read-only event pool.
type runner struct {
	settings Settings
	pool     *align.Pool
	store    *catalog.Store
	batchID  string
	logger   *slog.Logger
}

type runState struct {
	log       *series.Log
	segmented segment.Result
	matched   align.Result
	assigned  assign.Result
}

// step builds the stage function for one run from the shared run state.
type step func(*runState, *RunSummary) stageFunc

type namedStep struct {
	name string
	fn   step
}

// pipeline lists the stages of one run in execution order.
func (r *runner) pipeline(run Run) []namedStep {
	return []namedStep{
		{"ingest", r.ingestStage(run)},
		{"segment", r.segmentStage},
		{"align", r.alignStage},
		{"assign", r.assignStage},
		{"report", r.reportStage},
	}
}

func (r *runner) process(ctx context.Context, run Run) RunSummary {
	started := time.Now()
	sum := RunSummary{Label: run.Label, SourceLog: filepath.Base(run.Path), Status: StatusOK}
	ctx = logging.WithRun(ctx, run.Label)

	if err := ctx.Err(); err != nil {
		return r.finish(ctx, r.fail(sum, err), nil, started)
	}

	var st runState
	for _, stage := range r.pipeline(run) {
		err := runStage(ctx, r.logger, stage.name, stage.fn(&st, &sum))
		if err == nil {
			continue
		}
		if faults.IsDegenerate(err) {
			sum.Status = StatusSkipped
			sum.Message = err.Error()
			continue
		}
		return r.finish(ctx, r.fail(sum, err), &st, started)
	}
	return r.finish(ctx, sum, &st, started)
}

func (r *runner) fail(sum RunSummary, err error) RunSummary {
	sum.Status = StatusFailed
	sum.Message = strings.TrimSpace(err.Error())
	sum.Err = err
	return sum
}

// finish records the run in the catalog when one is open and logs the outcome.
func (r *runner) finish(ctx context.Context, sum RunSummary, st *runState, started time.Time) RunSummary {
	sum.Elapsed = time.Since(started)
	if r.store != nil {
		err := runStage(ctx, r.logger, "catalog", func(ctx context.Context, _ *slog.Logger) ([]logging.Attr, error) {
			return nil, r.store.ReplaceRun(ctx, r.record(sum), r.detail(st))
		})
		if err != nil && sum.Status != StatusFailed {
			sum = r.fail(sum, faults.Wrap(faults.ErrOutput, sum.Label, "catalog", "record run", err))
		}
	}

	logger := logging.WithContext(ctx, r.logger)
	attrs := []logging.Attr{
		logging.String("status", string(sum.Status)),
		logging.Int("intervals", sum.Intervals),
		logging.Int("events_total", sum.EventsTotal),
		logging.Int("matched", sum.Matched),
		logging.Int("assigned", sum.Assigned),
		logging.Duration("stage_duration", sum.Elapsed),
	}
	switch sum.Status {
	case StatusFailed:
		logging.ErrorWithContext(logger, "run failed", "run_failed", append(attrs, logging.Error(sum.Err))...)
	case StatusSkipped:
		logging.WarnWithContext(logger, "run skipped", "run_skipped", append(attrs, logging.String("reason", sum.Message))...)
	default:
		attrs = append(attrs, logging.String(logging.FieldEventType, "run_complete"))
		logger.Info("run completed", logging.Args(attrs...)...)
	}
	return sum
}

func (r *runner) ingestStage(run Run) func(*runState, *RunSummary) stageFunc {
	return func(st *runState, sum *RunSummary) stageFunc {
		return func(_ context.Context, logger *slog.Logger) ([]logging.Attr, error) {
			res, err := ingest.ReadSensorLog(run.Path, r.settings.Sensor)
			if err != nil {
				return nil, err
			}
			st.log = res.Log
			sum.Samples = res.Log.Len()
			sum.SamplesDropped = len(res.Errors)
			if len(res.Errors) > 0 {
				logging.WarnWithContext(logger, "sensor rows dropped", "rows_dropped",
					logging.Int("rows_dropped", len(res.Errors)),
					logging.String("first_problem", res.Errors[0].String()),
					logging.String(logging.FieldImpact, "rows excluded from segmentation and matching"),
					logging.String(logging.FieldErrorHint, "check sensor timestamp and metric columns"),
				)
			}
			attrs := []logging.Attr{
				logging.String("sensor_log", sum.SourceLog),
				logging.Int("samples", sum.Samples),
			}
			if start, end, ok := res.Log.Span(); ok {
				attrs = append(attrs,
					logging.String("log_start", report.FormatTime(start)),
					logging.String("log_end", report.FormatTime(end)),
				)
			}
			return attrs, nil
		}
	}
}

func (r *runner) segmentStage(st *runState, sum *RunSummary) stageFunc {
	return func(_ context.Context, logger *slog.Logger) ([]logging.Attr, error) {
		res, err := segment.Segment(st.log.Samples, r.settings.Segment)
		if err != nil {
			return nil, err
		}
		st.segmented = res
		sum.Intervals = len(res.Intervals)
		if len(res.Intervals) == 0 {
			logging.WarnWithContext(logger, "no intervals detected", "no_intervals",
				logging.Int("candidates", res.Candidates),
				logging.String(logging.FieldImpact, "all events remain unassigned"),
				logging.String(logging.FieldErrorHint, "lower segmentation.threshold or min_duration_s"),
			)
		}
		return []logging.Attr{
			logging.Int("intervals", len(res.Intervals)),
			logging.Int("candidates", res.Candidates),
		}, nil
	}
}

func (r *runner) alignStage(st *runState, sum *RunSummary) stageFunc {
	return func(_ context.Context, _ *slog.Logger) ([]logging.Attr, error) {
		res, err := align.MatchWindowed(r.pool, st.log.Samples, r.settings.Align)
		st.matched = res
		if err != nil {
			return nil, err
		}
		sum.EventsTotal = len(res.Events)
		sum.Matched = res.Matched
		sum.Unmatched = res.Unmatched
		return []logging.Attr{
			logging.Int("events_total", sum.EventsTotal),
			logging.Int("matched", res.Matched),
			logging.Int("unmatched", res.Unmatched),
		}, nil
	}
}

func (r *runner) assignStage(st *runState, sum *RunSummary) stageFunc {
	return func(_ context.Context, logger *slog.Logger) ([]logging.Attr, error) {
		if len(st.matched.Events) > 0 && st.matched.Matched == 0 {
			logging.WarnWithContext(logger, "no matched events to assign", "no_matches",
				logging.Int("unmatched", st.matched.Unmatched),
				logging.String(logging.FieldImpact, "every event stays unassigned"),
				logging.String(logging.FieldErrorHint, "raise alignment.tolerance_s or check clock offsets"),
			)
		}
		res, err := assign.Assign(st.segmented.Intervals, st.matched.Events, r.settings.Assign)
		if err != nil {
			return nil, err
		}
		st.assigned = res
		sum.Assigned = res.Assigned()
		sum.Unassigned = len(res.Unassigned)
		return []logging.Attr{
			logging.Int("assigned", sum.Assigned),
			logging.Int("unassigned", sum.Unassigned),
		}, nil
	}
}

func (r *runner) reportStage(st *runState, sum *RunSummary) stageFunc {
	return func(_ context.Context, _ *slog.Logger) ([]logging.Attr, error) {
		label := sum.Label
		if err := report.WriteCSV(IntervalsFile(r.settings.OutputDir, label), report.Intervals(st.segmented.Intervals)); err != nil {
			return nil, faults.Wrap(faults.ErrOutput, label, "report", "write interval summary", err)
		}
		cols := eventColumns(r.pool.Columns(), st.log)
		if err := report.WriteCSV(EventsFile(r.settings.OutputDir, label), report.Events(cols, st.assigned.Events)); err != nil {
			return nil, faults.Wrap(faults.ErrOutput, label, "report", "write event table", err)
		}
		drops, err := report.WriteDrops(report.DropSet{
			Root:       r.settings.DropRoot,
			Run:        label,
			SourceLog:  sum.SourceLog,
			Columns:    cols,
			PathColumn: r.settings.PathColumn,
			Manifests:  r.settings.Manifests,
		}, st.segmented.Intervals, st.assigned.Groups)
		sum.Drops = drops
		if err != nil {
			return nil, faults.Wrap(faults.ErrOutput, label, "report", "write drop folders", err)
		}
		return []logging.Attr{logging.Int("drops", len(drops))}, nil
	}
}

func (r *runner) record(sum RunSummary) catalog.RunRecord {
	rec := catalog.RunRecord{
		Label:          sum.Label,
		BatchID:        r.batchID,
		SourceLog:      sum.SourceLog,
		Status:         string(sum.Status),
		Message:        sum.Message,
		Samples:        sum.Samples,
		SamplesDropped: sum.SamplesDropped,
		EventsTotal:    sum.EventsTotal,
		Matched:        sum.Matched,
		Unmatched:      sum.Unmatched,
		Assigned:       sum.Assigned,
		Unassigned:     sum.Unassigned,
		Intervals:      sum.Intervals,
	}
	if r.pool != nil {
		rec.EventsDropped = r.pool.Dropped()
	}
	return rec
}

func (r *runner) detail(st *runState) catalog.RunData {
	data := catalog.RunData{PathIndex: pathIndex(r.pool.Columns(), r.settings.PathColumn)}
	if st == nil {
		return data
	}
	data.Intervals = st.segmented.Intervals
	data.Events = st.assigned.Events
	return data
}

func pathIndex(columns []string, name string) int {
	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}
