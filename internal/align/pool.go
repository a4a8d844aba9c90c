package align

import (
	"sort"
	"time"
)

// Pool is a prepared, time-sorted event set shared read-only across runs.
type Pool struct {
	columns []string
	events  []RawEvent
	dropped int
}

// NewPool discards events without a usable timestamp and stable-sorts the rest
// by time. columns names the payload fields and is kept for writers.
func NewPool(columns []string, raw []RawEvent) *Pool {
	events := make([]RawEvent, 0, len(raw))
	for _, ev := range raw {
		if ev.Valid() {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return &Pool{
		columns: append([]string(nil), columns...),
		events:  events,
		dropped: len(raw) - len(events),
	}
}

// Columns returns the payload column names.
func (p *Pool) Columns() []string {
	return append([]string(nil), p.columns...)
}

// Len returns the number of usable events.
func (p *Pool) Len() int {
	return len(p.events)
}

// Dropped returns the number of events discarded when the pool was built.
func (p *Pool) Dropped() int {
	return p.dropped
}

// Span returns the first and last event times.
func (p *Pool) Span() (start, end time.Time, ok bool) {
	if len(p.events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return p.events[0].Time, p.events[len(p.events)-1].Time, true
}

// Window returns the events with from <= Time <= to. The returned slice
// aliases the pool and must not be modified.
func (p *Pool) Window(from, to time.Time) []RawEvent {
	lo := sort.Search(len(p.events), func(i int) bool {
		return !p.events[i].Time.Before(from)
	})
	hi := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Time.After(to)
	})
	if hi <= lo {
		return nil
	}
	return p.events[lo:hi:hi]
}
