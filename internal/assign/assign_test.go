package assign_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dropsync/internal/align"
	"dropsync/internal/assign"
	"dropsync/internal/faults"
	"dropsync/internal/segment"
	"dropsync/internal/series"
	"dropsync/internal/testsupport"
)

func interval(id int, start, end float64) segment.Interval {
	return segment.Interval{ID: id, Start: testsupport.At(start), End: testsupport.At(end)}
}

// event builds an event at sec whose nearest sample sits at sampleSec.
func event(row int, sec, sampleSec float64, matched bool) align.Event {
	delta := testsupport.At(sec).Sub(testsupport.At(sampleSec))
	if delta < 0 {
		delta = -delta
	}
	return align.Event{
		Row:     row,
		Time:    testsupport.At(sec),
		Nearest: series.Sample{Time: testsupport.At(sampleSec)},
		Delta:   delta,
		Matched: matched,
	}
}

func ids(events []align.Event) []int {
	out := make([]int, len(events))
	for i, ev := range events {
		out[i] = ev.IntervalID
	}
	return out
}

func TestAssignGroupsMatchedEvents(t *testing.T) {
	intervals := []segment.Interval{interval(1, 10, 20), interval(2, 30, 40)}
	events := []align.Event{
		event(1, 5, 5, true),
		event(2, 12, 12, true),
		event(3, 19.5, 20, true),
		event(4, 25, 25, true),
		event(5, 35, 35.5, true),
		event(6, 50, 55, false),
	}
	res, err := assign.Assign(intervals, events, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 1, 0, 2, 0}, ids(res.Events)); diff != "" {
		t.Fatalf("interval ids (-want +got):\n%s", diff)
	}
	if len(res.Groups[1]) != 2 || len(res.Groups[2]) != 1 || len(res.Unassigned) != 3 {
		t.Fatalf("unexpected partition: groups=%v unassigned=%d", len(res.Groups), len(res.Unassigned))
	}
	if res.Assigned() != 3 {
		t.Fatalf("Assigned() = %d, want 3", res.Assigned())
	}
	if diff := cmp.Diff([]int{1, 2}, res.Order); diff != "" {
		t.Fatalf("order mismatch:\n%s", diff)
	}
	if ids(events)[1] != 0 {
		t.Fatal("input events must not be mutated")
	}
}

func TestAssignUnmatchedStaysUnassignedInsideInterval(t *testing.T) {
	intervals := []segment.Interval{interval(1, 40, 60)}
	res, err := assign.Assign(intervals, []align.Event{event(1, 50, 45, false)}, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Events[0].IntervalID != 0 || len(res.Unassigned) != 1 || len(res.Groups) != 0 {
		t.Fatalf("unmatched event must stay unassigned, got %+v", res.Events[0])
	}
}

func TestAssignUsesMatchedSampleTime(t *testing.T) {
	intervals := []segment.Interval{interval(1, 10, 20)}
	res, err := assign.Assign(intervals, []align.Event{event(1, 21, 20, true)}, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Events[0].IntervalID != 1 {
		t.Fatal("membership should follow the matched sample timestamp, not the event timestamp")
	}
}

func TestAssignBoundaryPolicy(t *testing.T) {
	intervals := []segment.Interval{interval(1, 10, 20)}
	events := []align.Event{event(1, 10, 10, true), event(2, 20, 20, true), event(3, 15, 15, true)}

	inclusive, err := assign.Assign(intervals, events, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if diff := cmp.Diff([]int{1, 1, 1}, ids(inclusive.Events)); diff != "" {
		t.Fatalf("inclusive (-want +got):\n%s", diff)
	}

	strict, err := assign.Assign(intervals, events, assign.Params{Inclusive: false})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if diff := cmp.Diff([]int{0, 0, 1}, ids(strict.Events)); diff != "" {
		t.Fatalf("strict (-want +got):\n%s", diff)
	}
}

func TestAssignPartitionLaw(t *testing.T) {
	samples := testsupport.Samples(0, 0, 7, 8, 9, 0, 0, 6, 6, 6, 0, 8, 8)
	seg, err := segment.Segment(samples, segment.Params{SmoothingWindow: 1, Threshold: 5, MinDuration: time.Second})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	raw := make([]align.RawEvent, 0, 40)
	for i := range 40 {
		raw = append(raw, align.RawEvent{Row: i + 1, Time: testsupport.At(float64(i)*0.37 - 1)})
	}
	matched, err := align.Match(raw, samples, align.Params{Tolerance: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	res, err := assign.Assign(seg.Intervals, matched.Events, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	seen := map[int]int{}
	for _, ev := range res.Unassigned {
		seen[ev.Row]++
		if ev.IntervalID != 0 {
			t.Fatalf("unassigned event %d carries interval %d", ev.Row, ev.IntervalID)
		}
	}
	for id, group := range res.Groups {
		iv := seg.Intervals[id-1]
		for _, ev := range group {
			seen[ev.Row]++
			if !ev.Matched || ev.IntervalID != id || !iv.Contains(ev.Nearest.Time, true) {
				t.Fatalf("event %d wrongly grouped under %d", ev.Row, id)
			}
		}
	}
	if len(seen) != len(matched.Events) {
		t.Fatalf("partition covers %d of %d events", len(seen), len(matched.Events))
	}
	for row, n := range seen {
		if n != 1 {
			t.Fatalf("event %d appears %d times", row, n)
		}
	}
}

func TestAssignNoIntervals(t *testing.T) {
	res, err := assign.Assign(nil, []align.Event{event(1, 1, 1, true)}, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(res.Unassigned) != 1 || len(res.Order) != 0 {
		t.Fatalf("expected everything unassigned, got %+v", res)
	}
}

func TestAssignRejectsBadIntervals(t *testing.T) {
	cases := []struct {
		name      string
		intervals []segment.Interval
		want      error
	}{
		{"overlap", []segment.Interval{interval(1, 0, 10), interval(2, 5, 15)}, faults.ErrOverlap},
		{"touching", []segment.Interval{interval(1, 0, 10), interval(2, 10, 15)}, faults.ErrOverlap},
		{"unsorted", []segment.Interval{interval(1, 20, 30), interval(2, 0, 10)}, faults.ErrUnsorted},
		{"inverted", []segment.Interval{interval(1, 10, 0)}, faults.ErrInvalidParameter},
		{"duplicate id", []segment.Interval{interval(1, 0, 1), interval(1, 5, 6)}, faults.ErrInvalidParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := assign.Assign(tc.intervals, nil, assign.Params{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAssignKeepsPreassignedEvents(t *testing.T) {
	intervals := []segment.Interval{interval(1, 0, 10), interval(2, 20, 30)}
	ev := event(1, 5, 5, true)
	ev.IntervalID = 2
	res, err := assign.Assign(intervals, []align.Event{ev}, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(res.Groups[2]) != 1 || res.Events[0].IntervalID != 2 {
		t.Fatalf("pre-assigned event should keep its interval, got %+v", res.Events[0])
	}
	ev.IntervalID = 9
	if _, err := assign.Assign(intervals, []align.Event{ev}, assign.Params{}); !errors.Is(err, faults.ErrInvalidParameter) {
		t.Fatalf("expected unknown interval error, got %v", err)
	}

	unmatched := event(2, 25, 0, false)
	unmatched.IntervalID = 2
	res, err = assign.Assign(intervals, []align.Event{unmatched}, assign.Params{Inclusive: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(res.Groups[2]) != 0 || len(res.Unassigned) != 1 || res.Events[0].IntervalID != 0 {
		t.Fatalf("unmatched event must stay unassigned, got groups=%v event=%+v", res.Groups, res.Events[0])
	}
	if unmatched.IntervalID != 2 {
		t.Fatal("input event must not be modified")
	}
}
