package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dropsync/internal/align"
	"dropsync/internal/report"
	"dropsync/internal/segment"
	"dropsync/internal/series"
	"dropsync/internal/testsupport"
)

func sampleEvents() []align.Event {
	return []align.Event{
		{
			Row:         1,
			Time:        testsupport.At(10.5),
			Payload:     []string{"a.jpg", "/img/a.jpg", "12.0"},
			Nearest:     series.Sample{Time: testsupport.At(10), Metric: 7.25, Aux: map[string]float64{"Temp": 4}},
			Delta:       500 * time.Millisecond,
			Matched:     true,
			IntervalID:  1,
			SampleIndex: 3,
		},
		{
			Row:     2,
			Time:    testsupport.At(60),
			Payload: []string{"b.jpg", "/img/b.jpg"},
			Nearest: series.Sample{Time: testsupport.At(55), Metric: 1},
			Delta:   5 * time.Second,
		},
	}
}

func columns() report.EventColumns {
	return report.EventColumns{Payload: []string{"filename", "full_path", "Depth"}, Metric: "Depth", Aux: []string{"Temp"}}
}

func TestEventsTableNullsUnmatchedContext(t *testing.T) {
	table := report.Events(columns(), sampleEvents())
	wantHeader := []string{
		"filename", "full_path", "Depth", "event_time", "matched_time", "log_Depth", "Temp",
		"delta_s", "matched", "interval_id",
	}
	if diff := cmp.Diff(wantHeader, table.Header); diff != "" {
		t.Fatalf("header (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"a.jpg", "/img/a.jpg", "12.0", "2025-06-01 12:00:10.5", "2025-06-01 12:00:10", "7.25", "4", "0.5", "true", "1"},
		{"b.jpg", "/img/b.jpg", "", "2025-06-01 12:01:00", "", "", "", "5", "false", ""},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
}

func TestIntervalsTable(t *testing.T) {
	ivs := []segment.Interval{{
		ID: 1, Start: testsupport.At(2), End: testsupport.At(5), StartIndex: 2, EndIndex: 5,
		MaxMetric: 9, MeanMetric: 8.5, Samples: 4,
	}}
	table := report.Intervals(ivs)
	want := [][]string{{"1", "2025-06-01 12:00:02", "2025-06-01 12:00:05", "3", "2", "5", "9", "8.5", "4"}}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	path := filepath.Join(t.TempDir(), "intervals_1.csv")
	if err := report.WriteCSV(path, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got := testsupport.ReadFile(t, path)
	if !strings.HasPrefix(got, "id,start,end,duration_s,") || !strings.Contains(got, "\n1,2025-06-01 12:00:02,") {
		t.Fatalf("unexpected csv:\n%s", got)
	}
}

func TestWriteDropsOnlyForIntervalsWithEvents(t *testing.T) {
	root := t.TempDir()
	ivs := []segment.Interval{
		{ID: 1, Start: testsupport.At(0), End: testsupport.At(20), EndIndex: 20, MaxMetric: 9, Samples: 21},
		{ID: 2, Start: testsupport.At(40), End: testsupport.At(50)},
	}
	events := sampleEvents()[:1]
	set := report.DropSet{
		Root:       root,
		Run:        "53",
		SourceLog:  "data_53.csv",
		Columns:    columns(),
		PathColumn: "full_path",
		Manifests:  true,
	}
	dirs, err := report.WriteDrops(set, ivs, map[int][]align.Event{1: events})
	if err != nil {
		t.Fatalf("WriteDrops: %v", err)
	}
	wantDir := filepath.Join(root, "data_53", "Drop01")
	if diff := cmp.Diff([]string{wantDir}, dirs); diff != "" {
		t.Fatalf("dirs (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(root, "data_53", "Drop02")); !os.IsNotExist(err) {
		t.Fatal("interval without events should not get a folder")
	}
	if got := testsupport.ReadFile(t, filepath.Join(wantDir, "events_fullpath.txt")); got != "/img/a.jpg\n" {
		t.Fatalf("unexpected path list %q", got)
	}
	f, err := os.Open(filepath.Join(wantDir, "drop_metadata.yaml"))
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer f.Close()
	manifest, err := report.ReadManifest(f)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	want := report.DropManifest{
		DropID: 1, Run: "53", SourceLog: "data_53.csv",
		StartTime: "2025-06-01 12:00:00", EndTime: "2025-06-01 12:00:20",
		DurationS: 20, EndIndex: 20, MaxMetric: 9, Samples: 21, EventCount: 1,
	}
	if diff := cmp.Diff(want, manifest); diff != "" {
		t.Fatalf("manifest (-want +got):\n%s", diff)
	}
	csvText := testsupport.ReadFile(t, filepath.Join(wantDir, "Drop01_events.csv"))
	if strings.Count(csvText, "\n") != 2 {
		t.Fatalf("expected header plus one row:\n%s", csvText)
	}
}

func TestWriteDropsWithoutManifests(t *testing.T) {
	root := t.TempDir()
	ivs := []segment.Interval{{ID: 1, Start: testsupport.At(0), End: testsupport.At(20)}}
	set := report.DropSet{Root: root, Run: "1", Columns: columns(), PathColumn: "full_path"}
	if _, err := report.WriteDrops(set, ivs, map[int][]align.Event{1: sampleEvents()[:1]}); err != nil {
		t.Fatalf("WriteDrops: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "data_1", "Drop01"))
	if err != nil {
		t.Fatalf("read drop dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "Drop01_events.csv" {
		t.Fatalf("expected only the events table, got %v", entries)
	}
}
