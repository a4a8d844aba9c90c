package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"dropsync/internal/align"
	"dropsync/internal/catalog"
	"dropsync/internal/segment"
	"dropsync/internal/testsupport"
)

func sampleData() catalog.RunData {
	samples := testsupport.Samples(0, 5, 6, 0)
	return catalog.RunData{
		Intervals: []segment.Interval{{
			ID: 1, Start: samples[1].Time, End: samples[2].Time,
			StartIndex: 1, EndIndex: 2, MaxMetric: 6, MeanMetric: 5.5, Samples: 2,
		}},
		Events: []align.Event{
			{Row: 1, Time: testsupport.At(1.2), Payload: []string{"IMG_1.JPG", "/images/IMG_1.JPG"},
				Nearest: samples[1], SampleIndex: 1, Delta: 200 * time.Millisecond, Matched: true, IntervalID: 1},
			{Row: 2, Time: testsupport.At(9), Payload: []string{"IMG_2.JPG", "/images/IMG_2.JPG"},
				Nearest: samples[3], SampleIndex: 3, Delta: 6 * time.Second},
		},
		PathIndex: 1,
	}
}

func TestReplaceRunRoundTrip(t *testing.T) {
	store := testsupport.MustOpenCatalog(t)
	ctx := context.Background()

	rec := catalog.RunRecord{
		Label: "7", BatchID: "b-1", SourceLog: "log7.csv", Status: "ok",
		Samples: 4, EventsTotal: 2, EventsDropped: 1, Matched: 1, Unmatched: 1, Assigned: 1, Unassigned: 1, Intervals: 1,
	}
	if err := store.ReplaceRun(ctx, rec, sampleData()); err != nil {
		t.Fatalf("ReplaceRun: %v", err)
	}

	got, ok, err := store.Run(ctx, "7")
	if err != nil || !ok {
		t.Fatalf("Run: ok=%v err=%v", ok, err)
	}
	if got.BatchID != "b-1" || got.Matched != 1 || got.Intervals != 1 || got.EventsDropped != 1 {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.ProcessedAt.IsZero() {
		t.Fatal("expected processed_at to be set")
	}

	counts, err := store.IntervalEventCounts(ctx, "7")
	if err != nil {
		t.Fatalf("IntervalEventCounts: %v", err)
	}
	if len(counts) != 1 || counts[1] != 1 {
		t.Fatalf("unexpected interval counts %v", counts)
	}
}

func TestReplaceRunOverwritesPreviousRows(t *testing.T) {
	store := testsupport.MustOpenCatalog(t)
	ctx := context.Background()

	if err := store.ReplaceRun(ctx, catalog.RunRecord{Label: "3", Status: "ok"}, sampleData()); err != nil {
		t.Fatalf("first ReplaceRun: %v", err)
	}
	if err := store.ReplaceRun(ctx, catalog.RunRecord{Label: "3", Status: "skipped", Message: "empty window"},
		catalog.RunData{PathIndex: -1}); err != nil {
		t.Fatalf("second ReplaceRun: %v", err)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "skipped" || runs[0].Message != "empty window" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	counts, err := store.IntervalEventCounts(ctx, "3")
	if err != nil {
		t.Fatalf("IntervalEventCounts: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected old events removed, got %v", counts)
	}
}

func TestRunsOrderLabelsNumerically(t *testing.T) {
	store := testsupport.MustOpenCatalog(t)
	ctx := context.Background()

	for _, label := range []string{"abc", "10", "2", "1b"} {
		if err := store.ReplaceRun(ctx, catalog.RunRecord{Label: label, Status: "ok"}, catalog.RunData{PathIndex: -1}); err != nil {
			t.Fatalf("ReplaceRun %s: %v", label, err)
		}
	}
	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	labels := make([]string, 0, len(runs))
	for _, r := range runs {
		labels = append(labels, r.Label)
	}
	if diff := cmp.Diff([]string{"2", "10", "1b", "abc"}, labels); diff != "" {
		t.Fatalf("run order mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMissingLabel(t *testing.T) {
	store := testsupport.MustOpenCatalog(t)
	if _, ok, err := store.Run(context.Background(), "nope"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%v err=%v", ok, err)
	}
	if err := store.ReplaceRun(context.Background(), catalog.RunRecord{Label: " "}, catalog.RunData{}); err == nil {
		t.Fatal("expected blank label to be rejected")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	store, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := catalog.Open(path); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
