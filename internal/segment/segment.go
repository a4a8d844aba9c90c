package segment

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dropsync/internal/series"
)

// Interval is one detected drop. Indices refer to positions in the sample
// slice passed to Segment and are inclusive.
type Interval struct {
	ID         int
	Start      time.Time
	End        time.Time
	StartIndex int
	EndIndex   int
	// MaxMetric and MeanMetric summarize the raw, unsmoothed metric.
	MaxMetric  float64
	MeanMetric float64
	Samples    int
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t lies within the interval. Inclusive includes both
// endpoints; otherwise both are excluded.
func (iv Interval) Contains(t time.Time, inclusive bool) bool {
	if inclusive {
		return !t.Before(iv.Start) && !t.After(iv.End)
	}
	return t.After(iv.Start) && t.Before(iv.End)
}

type state int

const (
	inactive state = iota
	active
)

// run is a maximal active stretch [first, last].
type run struct {
	first, last int
}

// Result carries the intervals and the smoothed series they were derived from.
type Result struct {
	Intervals []Interval
	Smoothed  []float64
	// Candidates counts active runs before the duration filter.
	Candidates int
}

// Segment detects intervals in samples. Samples must be sorted by time.
func Segment(samples []series.Sample, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := series.Check(samples); err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{Intervals: []Interval{}, Smoothed: []float64{}}, nil
	}

	raw := series.Metrics(samples)
	smoothed := MovingMedian(raw, p.SmoothingWindow)
	runs := activeRuns(smoothed, p.Threshold)

	intervals := make([]Interval, 0, len(runs))
	for _, r := range runs {
		start, end := samples[r.first].Time, samples[r.last].Time
		if end.Sub(start) < p.MinDuration {
			continue
		}
		window := raw[r.first : r.last+1]
		intervals = append(intervals, Interval{
			ID:         len(intervals) + 1,
			Start:      start,
			End:        end,
			StartIndex: r.first,
			EndIndex:   r.last,
			MaxMetric:  floats.Max(window),
			MeanMetric: stat.Mean(window, nil),
			Samples:    len(window),
		})
	}
	return Result{Intervals: intervals, Smoothed: smoothed, Candidates: len(runs)}, nil
}

// activeRuns walks the two-state machine and emits a run on every
// Active→Inactive transition and at the end of input while still Active.
func activeRuns(smoothed []float64, threshold float64) []run {
	var runs []run
	current := inactive
	first := 0
	for i, v := range smoothed {
		next := inactive
		if v >= threshold {
			next = active
		}
		switch {
		case current == inactive && next == active:
			first = i
		case current == active && next == inactive:
			runs = append(runs, run{first: first, last: i - 1})
		}
		current = next
	}
	if current == active {
		runs = append(runs, run{first: first, last: len(smoothed) - 1})
	}
	return runs
}
