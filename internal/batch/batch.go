// Package batch runs the segmentation, matching, and assignment pipeline over
// every sensor log in a logs directory against one shared event index.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dropsync/internal/align"
	"dropsync/internal/catalog"
	"dropsync/internal/config"
	"dropsync/internal/faults"
	"dropsync/internal/ingest"
	"dropsync/internal/logging"
	"dropsync/internal/report"
)

// LockName is the lock file held in the output directory while a batch runs.
const LockName = ".dropsync.lock"

// ErrLocked reports that another batch holds the output directory.
var ErrLocked = errors.New("output directory is locked by another batch")

// Options selects which runs a batch processes.
type Options struct {
	// Labels restricts the batch to these run labels; empty means every log.
	Labels []string
	Logger *slog.Logger
}

// Summary is the outcome of one batch.
type Summary struct {
	BatchID       string        `json:"batch_id"`
	EventIndex    string        `json:"event_index"`
	EventsTotal   int           `json:"events_total"`
	EventsDropped int           `json:"events_dropped"`
	Catalog       string        `json:"catalog,omitempty"`
	Runs          []RunSummary  `json:"runs"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Count returns the number of runs with status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Runs {
		if r.Status == status {
			n++
		}
	}
	return n
}

// AllFailed reports whether the batch had runs and every one of them failed.
func (s Summary) AllFailed() bool {
	return len(s.Runs) > 0 && s.Count(StatusFailed) == len(s.Runs)
}

// Execute processes the runs selected by opts. Per-run failures are recorded
// in the summary; the returned error covers only problems that prevent the
// batch from starting.
func Execute(ctx context.Context, cfg *config.Config, opts Options) (Summary, error) {
	if cfg == nil {
		return Summary{}, fmt.Errorf("%w: config is required", faults.ErrConfiguration)
	}
	started := time.Now()
	summary := Summary{BatchID: uuid.NewString(), EventIndex: cfg.EventIndexPath()}
	ctx = logging.WithBatchID(ctx, summary.BatchID)
	logger := logging.NewComponentLogger(opts.Logger, "batch")

	if err := cfg.EnsureDirectories(); err != nil {
		return summary, fmt.Errorf("%w: %w", faults.ErrOutput, err)
	}
	lockPath := filepath.Join(cfg.Paths.OutputDir, LockName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return summary, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	runs, err := Discover(cfg.Paths.LogsDir, cfg.Paths.LogPattern, opts.Labels)
	if err != nil {
		return summary, err
	}
	if len(runs) == 0 {
		return summary, fmt.Errorf("%w: no sensor logs matching %s in %s",
			faults.ErrMissingInput, cfg.Paths.LogPattern, cfg.Paths.LogsDir)
	}

	settings := SettingsFrom(cfg)
	pool, err := loadPool(ctx, logger, summary.EventIndex, settings)
	if err != nil {
		return summary, err
	}
	summary.EventsTotal = pool.Len()
	summary.EventsDropped = pool.Dropped()

	var store *catalog.Store
	if cfg.Output.Catalog {
		store, err = catalog.Open(cfg.CatalogPath())
		if err != nil {
			return summary, fmt.Errorf("%w: open catalog: %w", faults.ErrOutput, err)
		}
		defer store.Close()
		summary.Catalog = store.Path()
	}

	batchLogger := logging.WithContext(ctx, logger)
	batchLogger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("runs", len(runs)),
		logging.Int("workers", cfg.Batch.Workers),
		logging.Int("events_total", summary.EventsTotal),
	)

	r := &runner{settings: settings, pool: pool, store: store, batchID: summary.BatchID, logger: logger}
	results := make([]RunSummary, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Batch.Workers, 1))
	for i, run := range runs {
		g.Go(func() error {
			results[i] = r.process(gctx, run)
			return nil
		})
	}
	_ = g.Wait()

	summary.Runs = results
	summary.Elapsed = time.Since(started)
	batchLogger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("ok", summary.Count(StatusOK)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Int("failed", summary.Count(StatusFailed)),
		logging.Duration("stage_duration", summary.Elapsed),
	)
	return summary, nil
}

func loadPool(ctx context.Context, logger *slog.Logger, path string, settings Settings) (*align.Pool, error) {
	var pool *align.Pool
	err := runStage(ctx, logger, "event_index", func(_ context.Context, stageLogger *slog.Logger) ([]logging.Attr, error) {
		index, err := ingest.ReadEventIndex(path, settings.Events)
		if err != nil {
			return nil, err
		}
		pool = align.NewPool(index.Columns, index.Events)
		if dropped := index.Dropped(); dropped > 0 {
			logging.WarnWithContext(stageLogger, "event rows dropped", "rows_dropped",
				logging.Int("events_dropped", dropped),
				logging.String("first_problem", index.Errors[0].String()),
				logging.String(logging.FieldImpact, "events without a usable timestamp are not matched"),
				logging.String(logging.FieldErrorHint, "check the event timestamp columns and format"),
			)
		}
		attrs := []logging.Attr{
			logging.String("event_index", path),
			logging.Int("events_total", pool.Len()),
			logging.Int("events_dropped", pool.Dropped()),
		}
		if start, end, ok := pool.Span(); ok {
			attrs = append(attrs,
				logging.String("events_start", report.FormatTime(start)),
				logging.String("events_end", report.FormatTime(end)),
			)
		}
		return attrs, nil
	})
	return pool, err
}
