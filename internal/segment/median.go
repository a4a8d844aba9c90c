package segment

import "sort"

// MovingMedian returns the centered moving median of values. Near the ends the
// window holds only the samples that exist, so even-sized windows average
// their two middle values. A width of 1 or less returns a copy of values.
func MovingMedian(values []float64, width int) []float64 {
	out := make([]float64, len(values))
	if width <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	half := width / 2
	n := len(values)

	window := make([]float64, 0, width)
	hi := min(half, n-1)
	for i := 0; i <= hi; i++ {
		window = insertSorted(window, values[i])
	}
	out[0] = median(window)

	for i := 1; i < n; i++ {
		if leaving := i - half - 1; leaving >= 0 {
			window = removeSorted(window, values[leaving])
		}
		if entering := i + half; entering < n {
			window = insertSorted(window, values[entering])
		}
		out[i] = median(window)
	}
	return out
}

func insertSorted(window []float64, v float64) []float64 {
	idx := sort.SearchFloat64s(window, v)
	window = append(window, 0)
	copy(window[idx+1:], window[idx:])
	window[idx] = v
	return window
}

func removeSorted(window []float64, v float64) []float64 {
	idx := sort.SearchFloat64s(window, v)
	if idx >= len(window) || window[idx] != v {
		return window
	}
	return append(window[:idx], window[idx+1:]...)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
