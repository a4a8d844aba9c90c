package align_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dropsync/internal/align"
	"dropsync/internal/faults"
	"dropsync/internal/testsupport"
)

func rows(events []align.RawEvent) []int {
	out := make([]int, len(events))
	for i, ev := range events {
		out[i] = ev.Row
	}
	return out
}

func TestNewPoolSortsAndDrops(t *testing.T) {
	raw := []align.RawEvent{
		{Row: 1, Time: testsupport.At(5)},
		{Row: 2},
		{Row: 3, Time: testsupport.At(1)},
		{Row: 4, Time: testsupport.At(5)},
	}
	pool := align.NewPool([]string{"filename"}, raw)
	if pool.Len() != 3 || pool.Dropped() != 1 {
		t.Fatalf("unexpected pool size %d dropped %d", pool.Len(), pool.Dropped())
	}
	if diff := cmp.Diff([]int{3, 1, 4}, rows(pool.Window(testsupport.At(0), testsupport.At(10)))); diff != "" {
		t.Fatalf("pool order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"filename"}, pool.Columns()); diff != "" {
		t.Fatalf("columns mismatch:\n%s", diff)
	}
	start, end, ok := pool.Span()
	if !ok || !start.Equal(testsupport.At(1)) || !end.Equal(testsupport.At(5)) {
		t.Fatalf("unexpected span %v %v", start, end)
	}
}

func TestPoolWindowIsInclusive(t *testing.T) {
	pool := align.NewPool(nil, rawAt(0, 10, 20, 30, 40))
	got := rows(pool.Window(testsupport.At(10), testsupport.At(30)))
	if diff := cmp.Diff([]int{2, 3, 4}, got); diff != "" {
		t.Fatalf("window (-want +got):\n%s", diff)
	}
	if w := pool.Window(testsupport.At(31), testsupport.At(39)); len(w) != 0 {
		t.Fatalf("expected empty window, got %v", rows(w))
	}
}

func TestMatchWindowedRestrictsPool(t *testing.T) {
	pool := align.NewPool(nil, rawAt(0, 95, 100, 150, 205, 400))
	samples := testsupport.SamplesAt(100, 150, 200)
	params := align.Params{Tolerance: 2 * time.Second, Buffer: 5 * time.Second}

	res, err := align.MatchWindowed(pool, samples, params)
	if err != nil {
		t.Fatalf("MatchWindowed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3, 4, 5}, eventRows(res.Events)); diff != "" {
		t.Fatalf("windowed events (-want +got):\n%s", diff)
	}
	if res.Matched != 2 || res.Unmatched != 2 {
		t.Fatalf("unexpected counts matched=%d unmatched=%d", res.Matched, res.Unmatched)
	}
	if pool.Len() != 6 {
		t.Fatal("pool must not be modified by windowed matching")
	}
}

func TestMatchWindowedEmptyWindow(t *testing.T) {
	pool := align.NewPool(nil, rawAt(0, 1))
	_, err := align.MatchWindowed(pool, testsupport.SamplesAt(1000, 1010), align.Params{Buffer: time.Minute})
	if !errors.Is(err, faults.ErrEmptyWindow) || !faults.IsDegenerate(err) {
		t.Fatalf("expected degenerate ErrEmptyWindow, got %v", err)
	}
	_, err = align.MatchWindowed(align.NewPool(nil, nil), testsupport.SamplesAt(1), align.Params{})
	if !errors.Is(err, faults.ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents for empty pool, got %v", err)
	}
}

func eventRows(events []align.Event) []int {
	out := make([]int, len(events))
	for i, ev := range events {
		out[i] = ev.Row
	}
	return out
}
