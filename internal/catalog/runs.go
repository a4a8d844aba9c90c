package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dropsync/internal/align"
	"dropsync/internal/report"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// RunRecord is the per-run summary row.
type RunRecord struct {
	Label          string
	BatchID        string
	SourceLog      string
	Status         string
	Message        string
	Samples        int
	SamplesDropped int
	EventsTotal    int
	EventsDropped  int
	Matched        int
	Unmatched      int
	Assigned       int
	Unassigned     int
	Intervals      int
	ProcessedAt    time.Time
}

// RunData carries the detail rows stored alongside a RunRecord.
type RunData struct {
	Intervals []segment.Interval
	Events    []align.Event
	// PathIndex is the payload column stored as the event path, or -1.
	PathIndex int
}

const runColumns = `label, batch_id, source_log, status, message, samples, samples_dropped,
	events_total, events_dropped, matched, unmatched, assigned, unassigned, intervals, processed_at`

// ReplaceRun stores rec and its detail rows, replacing anything previously
// recorded under the same label. The replacement is a single transaction.
func (s *Store) ReplaceRun(ctx context.Context, rec RunRecord, data RunData) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(rec.Label) == "" {
		return errors.New("catalog: run label is required")
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		return s.replaceRunTx(ctx, rec, data)
	})
}

func (s *Store) replaceRunTx(ctx context.Context, rec RunRecord, data RunData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE label = ?", rec.Label); err != nil {
		return fmt.Errorf("delete run %s: %w", rec.Label, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.Label, rec.BatchID, rec.SourceLog, rec.Status, rec.Message,
		rec.Samples, rec.SamplesDropped, rec.EventsTotal, rec.EventsDropped,
		rec.Matched, rec.Unmatched, rec.Assigned, rec.Unassigned, rec.Intervals,
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.Label, err)
	}

	if err := insertIntervals(ctx, tx, rec.Label, data.Intervals); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, rec.Label, data); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", rec.Label, err)
	}
	return nil
}

func insertIntervals(ctx context.Context, tx *sql.Tx, label string, intervals []segment.Interval) error {
	if len(intervals) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO intervals
		(run_label, id, start_time, end_time, duration_s, start_index, end_index, max_metric, mean_metric, samples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare interval insert: %w", err)
	}
	defer stmt.Close()
	for _, iv := range intervals {
		if _, err := stmt.ExecContext(ctx,
			label, iv.ID, report.FormatTime(iv.Start), report.FormatTime(iv.End),
			series.Seconds(iv.Duration()), iv.StartIndex, iv.EndIndex,
			iv.MaxMetric, iv.MeanMetric, iv.Samples,
		); err != nil {
			return fmt.Errorf("insert interval %d: %w", iv.ID, err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, label string, data RunData) error {
	if len(data.Events) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events
		(run_label, row, event_time, matched_time, metric, delta_s, matched, interval_id, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()
	for _, ev := range data.Events {
		var matchedTime, path sql.NullString
		var metric sql.NullFloat64
		var intervalID sql.NullInt64
		if sample, ok := ev.Borrowed(); ok {
			matchedTime = sql.NullString{String: report.FormatTime(sample.Time), Valid: true}
			metric = sql.NullFloat64{Float64: sample.Metric, Valid: true}
		}
		if ev.Assigned() {
			intervalID = sql.NullInt64{Int64: int64(ev.IntervalID), Valid: true}
		}
		if data.PathIndex >= 0 && data.PathIndex < len(ev.Payload) {
			path = sql.NullString{String: ev.Payload[data.PathIndex], Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			label, ev.Row, report.FormatTime(ev.Time), matchedTime, metric,
			ev.DeltaSeconds(), ev.Matched, intervalID, path,
		); err != nil {
			return fmt.Errorf("insert event row %d: %w", ev.Row, err)
		}
	}
	return nil
}

// labelOrder sorts numeric labels by value ahead of the rest, which sort as text.
const labelOrder = "label = '' OR label GLOB '*[^0-9]*', CAST(label AS INTEGER), label"

// Runs returns every recorded run in label order.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY "+labelOrder)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Run returns the record stored under label.
func (s *Store) Run(ctx context.Context, label string) (RunRecord, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE label = ?", label)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, err
	}
	return rec, true, nil
}

// IntervalEventCounts returns the number of stored events per interval id for
// label. Unassigned events are not counted.
func (s *Store) IntervalEventCounts(ctx context.Context, label string) (map[int]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT interval_id, COUNT(1) FROM events
		WHERE run_label = ? AND interval_id IS NOT NULL GROUP BY interval_id`, label)
	if err != nil {
		return nil, fmt.Errorf("query interval counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan interval count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var processed string
	err := row.Scan(
		&rec.Label, &rec.BatchID, &rec.SourceLog, &rec.Status, &rec.Message,
		&rec.Samples, &rec.SamplesDropped, &rec.EventsTotal, &rec.EventsDropped,
		&rec.Matched, &rec.Unmatched, &rec.Assigned, &rec.Unassigned, &rec.Intervals,
		&processed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, processed); parseErr == nil {
		rec.ProcessedAt = ts
	}
	return rec, nil
}
