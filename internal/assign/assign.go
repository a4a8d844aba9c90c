// Package assign places matched events into detected intervals.
package assign

import (
	"fmt"
	"sort"
	"time"

	"dropsync/internal/align"
	"dropsync/internal/faults"
	"dropsync/internal/segment"
)

// Params configures membership tests.
type Params struct {
	// Inclusive selects [start, end] membership; false selects (start, end).
	Inclusive bool
}

// Result partitions the input events. Events holds every input event in input
// order with IntervalID set where assigned; Groups and Unassigned are views of
// the same events.
type Result struct {
	Events     []align.Event
	Groups     map[int][]align.Event
	Unassigned []align.Event
	// Order lists interval ids ascending, including ids with no events.
	Order []int
}

// Assigned returns the number of events placed in an interval.
func (r Result) Assigned() int {
	return len(r.Events) - len(r.Unassigned)
}

// Assign sets IntervalID on every matched, unassigned event whose matched
// sample time lies in an interval. Unmatched events are always unassigned,
// whatever IntervalID they carry. Intervals must be sorted by start and must
// not overlap. The input slice is not modified.
func Assign(intervals []segment.Interval, events []align.Event, p Params) (Result, error) {
	if err := checkIntervals(intervals); err != nil {
		return Result{}, err
	}

	res := Result{
		Events: make([]align.Event, len(events)),
		Groups: make(map[int][]align.Event, len(intervals)),
		Order:  make([]int, 0, len(intervals)),
	}
	known := make(map[int]struct{}, len(intervals))
	for _, iv := range intervals {
		res.Order = append(res.Order, iv.ID)
		known[iv.ID] = struct{}{}
	}
	copy(res.Events, events)

	for i := range res.Events {
		ev := &res.Events[i]
		if !ev.Matched {
			ev.IntervalID = 0
		}
		if ev.IntervalID == 0 && ev.Matched {
			if k := locate(intervals, ev.Nearest.Time, p.Inclusive); k >= 0 {
				ev.IntervalID = intervals[k].ID
			}
		}
		if ev.IntervalID == 0 {
			res.Unassigned = append(res.Unassigned, *ev)
			continue
		}
		if _, ok := known[ev.IntervalID]; !ok {
			return Result{}, fmt.Errorf("%w: event row %d references unknown interval %d",
				faults.ErrInvalidParameter, ev.Row, ev.IntervalID)
		}
		res.Groups[ev.IntervalID] = append(res.Groups[ev.IntervalID], *ev)
	}
	return res, nil
}

// locate returns the index of the interval containing t, or -1. It finds the
// last interval starting at or before t by binary search; disjointness means
// no earlier interval can contain t.
func locate(intervals []segment.Interval, t time.Time, inclusive bool) int {
	k := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].Start.After(t)
	}) - 1
	if k < 0 || !intervals[k].Contains(t, inclusive) {
		return -1
	}
	return k
}

func checkIntervals(intervals []segment.Interval) error {
	seen := make(map[int]struct{}, len(intervals))
	for i, iv := range intervals {
		if iv.ID <= 0 {
			return fmt.Errorf("%w: interval %d has non-positive id %d", faults.ErrInvalidParameter, i, iv.ID)
		}
		if _, dup := seen[iv.ID]; dup {
			return fmt.Errorf("%w: duplicate interval id %d", faults.ErrInvalidParameter, iv.ID)
		}
		seen[iv.ID] = struct{}{}
		if iv.End.Before(iv.Start) {
			return fmt.Errorf("%w: interval %d ends before it starts", faults.ErrInvalidParameter, iv.ID)
		}
		if i == 0 {
			continue
		}
		prev := intervals[i-1]
		if iv.Start.Before(prev.Start) {
			return fmt.Errorf("%w: interval %d starts before interval %d", faults.ErrUnsorted, iv.ID, prev.ID)
		}
		if !iv.Start.After(prev.End) {
			return fmt.Errorf("%w: interval %d starts at or before the end of interval %d", faults.ErrOverlap, iv.ID, prev.ID)
		}
	}
	return nil
}
