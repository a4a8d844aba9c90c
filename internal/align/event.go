package align

import (
	"time"

	"dropsync/internal/series"
)

// RawEvent is one event-stream record before matching. A zero Time marks a
// record whose timestamp could not be parsed.
type RawEvent struct {
	// Row is the 1-based data row in the source index.
	Row     int
	Time    time.Time
	Payload []string
}

// Valid reports whether the event carries a usable timestamp.
func (r RawEvent) Valid() bool {
	return !r.Time.IsZero()
}

// Event is a RawEvent joined to its nearest sensor sample.
type Event struct {
	Row     int
	Time    time.Time
	Payload []string

	// Nearest is a copy of the closest sample; SampleIndex is its position in
	// the sample slice that was matched against.
	Nearest     series.Sample
	SampleIndex int
	Delta       time.Duration
	Matched     bool

	// IntervalID is 0 until an interval assigner places the event.
	IntervalID int
}

// DeltaSeconds returns the absolute event/sample time difference in seconds.
func (e Event) DeltaSeconds() float64 {
	return series.Seconds(e.Delta)
}

// Borrowed returns the matched sample, or false when the event did not match.
// Unmatched events carry no sensor context downstream.
func (e Event) Borrowed() (series.Sample, bool) {
	if !e.Matched {
		return series.Sample{}, false
	}
	return e.Nearest, true
}

// Assigned reports whether the event belongs to an interval.
func (e Event) Assigned() bool {
	return e.IntervalID != 0
}

// Result is the output of one matching pass.
type Result struct {
	Events []Event
	// Dropped counts events discarded for unusable timestamps.
	Dropped   int
	Matched   int
	Unmatched int
}
