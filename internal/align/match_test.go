package align_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dropsync/internal/align"
	"dropsync/internal/faults"
	"dropsync/internal/series"
	"dropsync/internal/testsupport"
)

func rawAt(secs ...float64) []align.RawEvent {
	out := make([]align.RawEvent, len(secs))
	for i, s := range secs {
		out[i] = align.RawEvent{Row: i + 1, Time: testsupport.At(s), Payload: []string{"IMG"}}
	}
	return out
}

func tolerance(sec float64) align.Params {
	return align.Params{Tolerance: series.Duration(sec)}
}

func TestMatchPicksNearestSample(t *testing.T) {
	samples := testsupport.SamplesAt(99, 101.4)
	res, err := align.Match(rawAt(100), samples, tolerance(2))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	ev := res.Events[0]
	if ev.SampleIndex != 0 || !ev.Nearest.Time.Equal(testsupport.At(99)) {
		t.Fatalf("expected sample at 99s, got index %d", ev.SampleIndex)
	}
	if ev.Delta != time.Second || ev.DeltaSeconds() != 1 || !ev.Matched {
		t.Fatalf("unexpected match quality: delta=%v matched=%v", ev.Delta, ev.Matched)
	}
	if res.Matched != 1 || res.Unmatched != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
}

func TestMatchOutsideTolerance(t *testing.T) {
	samples := testsupport.SamplesAt(45, 55)
	res, err := align.Match(rawAt(50), samples, tolerance(2))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	ev := res.Events[0]
	if ev.Matched || ev.DeltaSeconds() != 5 {
		t.Fatalf("expected unmatched with delta 5s, got %+v", ev)
	}
	if _, ok := ev.Borrowed(); ok {
		t.Fatal("unmatched event must not expose borrowed sample")
	}
	if ev.Assigned() {
		t.Fatal("matcher must not assign intervals")
	}
}

func TestMatchToleranceIsInclusive(t *testing.T) {
	samples := testsupport.SamplesAt(0)
	res, err := align.Match(rawAt(2, 2.000001), samples, tolerance(2))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !res.Events[0].Matched {
		t.Fatal("delta == tolerance should match")
	}
	if res.Events[1].Matched {
		t.Fatal("delta just above tolerance should not match")
	}
}

func TestMatchTiePrefersEarlierSample(t *testing.T) {
	samples := testsupport.SamplesAt(9, 11)
	res, err := align.Match(rawAt(10), samples, tolerance(5))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got := res.Events[0].SampleIndex; got != 0 {
		t.Fatalf("tie should pick earlier sample, got index %d", got)
	}
	idx, delta := align.Nearest(samples, testsupport.At(10))
	if idx != 0 || delta != time.Second {
		t.Fatalf("Nearest tie: got %d %v", idx, delta)
	}
}

func TestMatchDuplicateSampleTimesPickFirst(t *testing.T) {
	samples := testsupport.SamplesAt(1, 5, 5, 5, 12)
	for _, sec := range []float64{5, 6, 4} {
		idx, _ := align.Nearest(samples, testsupport.At(sec))
		if idx != 1 {
			t.Fatalf("event at %vs: expected first duplicate index 1, got %d", sec, idx)
		}
	}
	idx, _ := align.Nearest(testsupport.SamplesAt(1, 3, 3), testsupport.At(9))
	if idx != 1 {
		t.Fatalf("trailing duplicates: expected index 1, got %d", idx)
	}
}

func TestMatchOutOfRangeEvents(t *testing.T) {
	samples := testsupport.SamplesAt(10, 20)
	res, err := align.Match(rawAt(0, 30), samples, tolerance(100))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	got := []int{res.Events[0].SampleIndex, res.Events[1].SampleIndex}
	if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
		t.Fatalf("edge matches (-want +got):\n%s", diff)
	}
	if res.Events[0].DeltaSeconds() != 10 || res.Events[1].DeltaSeconds() != 10 {
		t.Fatalf("unexpected deltas %v %v", res.Events[0].Delta, res.Events[1].Delta)
	}
}

func TestMatchDropsAndCountsInvalidEvents(t *testing.T) {
	events := append(rawAt(3, 1), align.RawEvent{Row: 3})
	res, err := align.Match(events, testsupport.SamplesAt(0, 2, 4), tolerance(1))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Dropped != 1 || len(res.Events) != 2 {
		t.Fatalf("expected 1 dropped and 2 matched events, got %+v", res)
	}
	if res.Events[0].Row != 2 || res.Events[1].Row != 1 {
		t.Fatal("events should be sorted by time")
	}

	res, err = align.Match([]align.RawEvent{{Row: 1}, {Row: 2}}, testsupport.SamplesAt(0), tolerance(1))
	if !errors.Is(err, faults.ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
	if res.Dropped != 2 {
		t.Fatalf("dropped count must be reported, got %d", res.Dropped)
	}
}

func TestMatchPreconditions(t *testing.T) {
	if _, err := align.Match(rawAt(1), nil, tolerance(1)); !errors.Is(err, faults.ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
	if _, err := align.Match(rawAt(1), testsupport.SamplesAt(2, 1), tolerance(1)); !errors.Is(err, faults.ErrUnsorted) {
		t.Fatalf("expected ErrUnsorted, got %v", err)
	}
	if _, err := align.Match(rawAt(1), testsupport.SamplesAt(1), tolerance(-1)); !errors.Is(err, faults.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestMergeWalkAgreesWithBinarySearch(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	secs := make([]float64, 0, 400)
	cur := 0.0
	for range 400 {
		cur += float64(rng.IntN(2000)) / 1000
		secs = append(secs, cur)
	}
	samples := testsupport.SamplesAt(secs...)

	eventSecs := make([]float64, 300)
	for i := range eventSecs {
		eventSecs[i] = float64(rng.IntN(int(cur*1000)+20000))/1000 - 10
	}
	res, err := align.Match(rawAt(eventSecs...), samples, tolerance(0.5))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for _, ev := range res.Events {
		idx, delta := align.Nearest(samples, ev.Time)
		if idx != ev.SampleIndex || delta != ev.Delta {
			t.Fatalf("event at %s: merge walk picked %d (%v), binary search %d (%v)",
				ev.Time, ev.SampleIndex, ev.Delta, idx, delta)
		}
		if ev.Matched != (ev.Delta <= 500*time.Millisecond) {
			t.Fatalf("matched flag inconsistent with delta %v", ev.Delta)
		}
	}
}

func TestNearestEmpty(t *testing.T) {
	if idx, _ := align.Nearest(nil, testsupport.At(0)); idx != -1 {
		t.Fatalf("expected -1, got %d", idx)
	}
}
