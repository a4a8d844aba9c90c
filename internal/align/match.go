package align

import (
	"fmt"
	"sort"
	"time"

	"dropsync/internal/faults"
	"dropsync/internal/series"
)

// Match joins every event with a usable timestamp to its nearest sample.
// Samples must be sorted by time; events are stable-sorted before the join.
// Events without a timestamp are counted in Result.Dropped. When no events
// remain the result is returned with an ErrNoEvents error.
func Match(events []RawEvent, samples []series.Sample, p Params) (Result, error) {
	if err := precheck(samples, p); err != nil {
		return Result{}, err
	}
	valid := make([]RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.Valid() {
			valid = append(valid, ev)
		}
	}
	dropped := len(events) - len(valid)
	if len(valid) == 0 {
		return Result{Dropped: dropped}, fmt.Errorf("%w: %d of %d events had unusable timestamps",
			faults.ErrNoEvents, dropped, len(events))
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Time.Before(valid[j].Time)
	})
	res := join(valid, samples, p.Tolerance)
	res.Dropped = dropped
	return res, nil
}

// MatchWindowed joins the pool events within [first sample - Buffer, last
// sample + Buffer] to samples. An empty window yields ErrEmptyWindow.
func MatchWindowed(pool *Pool, samples []series.Sample, p Params) (Result, error) {
	if err := precheck(samples, p); err != nil {
		return Result{}, err
	}
	if pool == nil || pool.Len() == 0 {
		return Result{}, fmt.Errorf("%w: event pool is empty", faults.ErrNoEvents)
	}
	from := samples[0].Time.Add(-p.Buffer)
	to := samples[len(samples)-1].Time.Add(p.Buffer)
	window := pool.Window(from, to)
	if len(window) == 0 {
		return Result{}, fmt.Errorf("%w: no events between %s and %s",
			faults.ErrEmptyWindow, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	}
	return join(window, samples, p.Tolerance), nil
}

// Nearest returns the index of the sample closest to t and the absolute
// difference. Ties resolve to the earlier sample. It returns -1 for an empty
// slice.
func Nearest(samples []series.Sample, t time.Time) (int, time.Duration) {
	if len(samples) == 0 {
		return -1, 0
	}
	idx := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Time.Before(t)
	})
	return pick(samples, idx, t)
}

func precheck(samples []series.Sample, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%w: sensor log has no samples", faults.ErrNoSamples)
	}
	return series.Check(samples)
}

// join walks sorted events and sorted samples together. idx tracks the first
// sample not before the current event and never moves backwards.
func join(events []RawEvent, samples []series.Sample, tolerance time.Duration) Result {
	res := Result{Events: make([]Event, 0, len(events))}
	idx := 0
	for _, ev := range events {
		for idx < len(samples) && samples[idx].Time.Before(ev.Time) {
			idx++
		}
		k, delta := pick(samples, idx, ev.Time)
		matched := delta <= tolerance
		if matched {
			res.Matched++
		} else {
			res.Unmatched++
		}
		res.Events = append(res.Events, Event{
			Row:         ev.Row,
			Time:        ev.Time,
			Payload:     ev.Payload,
			Nearest:     samples[k],
			SampleIndex: k,
			Delta:       delta,
			Matched:     matched,
		})
	}
	return res
}

// pick chooses between samples[idx-1] and samples[idx], where idx is the
// first sample with Time >= t.
func pick(samples []series.Sample, idx int, t time.Time) (int, time.Duration) {
	switch {
	case idx <= 0:
		return 0, samples[0].Time.Sub(t)
	case idx >= len(samples):
		k := earliestEqual(samples, len(samples)-1)
		return k, t.Sub(samples[k].Time)
	}
	before := t.Sub(samples[idx-1].Time)
	after := samples[idx].Time.Sub(t)
	if before <= after {
		return earliestEqual(samples, idx-1), before
	}
	return idx, after
}

// earliestEqual steps back over samples sharing the timestamp at k.
func earliestEqual(samples []series.Sample, k int) int {
	for k > 0 && samples[k-1].Time.Equal(samples[k].Time) {
		k--
	}
	return k
}
