// Package series holds the sensor-log data model shared by segmentation and
// matching.
//
// A Log is loaded once and treated as read-only afterwards. Samples are
// expected in ascending time order; Check reports the first element that
// breaks that order.
package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"dropsync/internal/faults"
)

// Sample is one sensor-log record.
type Sample struct {
	// Row is the 1-based data row in the source file, 0 when synthesized.
	Row    int
	Time   time.Time
	Metric float64
	// Aux holds auxiliary numeric fields; an absent key means no value.
	Aux map[string]float64
}

// Log is the ordered sample sequence of one sensor run.
type Log struct {
	Name         string
	MetricColumn string
	AuxColumns   []string
	Samples      []Sample
	// Dropped counts rows discarded while loading.
	Dropped int
}

// Len returns the number of samples.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Samples)
}

// Span returns the first and last sample timestamps.
func (l *Log) Span() (start, end time.Time, ok bool) {
	if l.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return l.Samples[0].Time, l.Samples[len(l.Samples)-1].Time, true
}

// Metrics returns the primary metric of every sample in order.
func Metrics(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Metric
	}
	return out
}

// Check returns an ErrUnsorted error naming the first sample whose timestamp
// precedes its predecessor.
func Check(samples []Sample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[i-1].Time) {
			return fmt.Errorf("%w: sample %d at %s precedes sample %d at %s",
				faults.ErrUnsorted, i, formatTime(samples[i].Time), i-1, formatTime(samples[i-1].Time))
		}
	}
	return nil
}

// Sort orders samples by time in place, keeping file order for equal timestamps.
func Sort(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
}

// Seconds converts a duration to fractional seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// Duration converts fractional seconds to a duration rounded to the nanosecond.
// Values beyond the time.Duration range saturate at its limits.
func Duration(seconds float64) time.Duration {
	ns := seconds*float64(time.Second) + copysignHalf(seconds)
	switch {
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(ns)
}

func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999999")
}
