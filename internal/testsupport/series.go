package testsupport

import (
	"time"

	"dropsync/internal/series"
)

// Epoch anchors synthetic time series.
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// At returns Epoch plus sec seconds.
func At(sec float64) time.Time {
	return Epoch.Add(series.Duration(sec))
}

// Samples builds samples one second apart starting at Epoch.
func Samples(metrics ...float64) []series.Sample {
	return SamplesEvery(time.Second, metrics...)
}

// SamplesEvery builds samples spaced by step starting at Epoch.
func SamplesEvery(step time.Duration, metrics ...float64) []series.Sample {
	out := make([]series.Sample, len(metrics))
	for i, m := range metrics {
		out[i] = series.Sample{Row: i + 1, Time: Epoch.Add(time.Duration(i) * step), Metric: m}
	}
	return out
}

// SamplesAt builds samples at the given offsets in seconds with zero metrics.
func SamplesAt(secs ...float64) []series.Sample {
	out := make([]series.Sample, len(secs))
	for i, s := range secs {
		out[i] = series.Sample{Row: i + 1, Time: At(s), Metric: float64(i)}
	}
	return out
}
