package series_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dropsync/internal/faults"
	"dropsync/internal/series"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return epoch.Add(series.Duration(sec))
}

func TestCheckReportsOffendingSample(t *testing.T) {
	samples := []series.Sample{{Time: at(0)}, {Time: at(1)}, {Time: at(0.5)}, {Time: at(2)}}
	err := series.Check(samples)
	if !errors.Is(err, faults.ErrUnsorted) {
		t.Fatalf("expected ErrUnsorted, got %v", err)
	}
	if !strings.Contains(err.Error(), "sample 2") {
		t.Fatalf("expected offending index in %q", err)
	}
	if err := series.Check(samples[:2]); err != nil {
		t.Fatalf("sorted prefix reported unsorted: %v", err)
	}
	if err := series.Check([]series.Sample{{Time: at(1)}, {Time: at(1)}}); err != nil {
		t.Fatalf("equal timestamps should be accepted: %v", err)
	}
}

func TestSortIsStable(t *testing.T) {
	samples := []series.Sample{
		{Row: 1, Time: at(3)},
		{Row: 2, Time: at(1)},
		{Row: 3, Time: at(3)},
		{Row: 4, Time: at(2)},
	}
	series.Sort(samples)
	var rows []int
	for _, s := range samples {
		rows = append(rows, s.Row)
	}
	if diff := cmp.Diff([]int{2, 4, 1, 3}, rows); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestSpanAndMetrics(t *testing.T) {
	log := &series.Log{Samples: []series.Sample{{Time: at(1), Metric: 4}, {Time: at(9), Metric: 7}}}
	start, end, ok := log.Span()
	if !ok || !start.Equal(at(1)) || !end.Equal(at(9)) {
		t.Fatalf("unexpected span %v %v %v", start, end, ok)
	}
	if diff := cmp.Diff([]float64{4, 7}, series.Metrics(log.Samples)); diff != "" {
		t.Fatalf("metrics mismatch:\n%s", diff)
	}
	var empty *series.Log
	if _, _, ok := empty.Span(); ok {
		t.Fatal("nil log should have no span")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	if got := series.Duration(1.4); got != 1400*time.Millisecond {
		t.Fatalf("Duration(1.4) = %v", got)
	}
	if got := series.Duration(-0.25); got != -250*time.Millisecond {
		t.Fatalf("Duration(-0.25) = %v", got)
	}
	if got := series.Seconds(2500 * time.Millisecond); got != 2.5 {
		t.Fatalf("Seconds = %v", got)
	}
}

func TestDurationSaturates(t *testing.T) {
	if got := series.Duration(1e10); got != math.MaxInt64 {
		t.Fatalf("Duration(1e10) = %v, want max duration", got)
	}
	if got := series.Duration(-1e10); got != math.MinInt64 {
		t.Fatalf("Duration(-1e10) = %v, want min duration", got)
	}
	if got := series.Duration(9e9); got != 9e9*time.Second {
		t.Fatalf("Duration(9e9) = %v", got)
	}
}
