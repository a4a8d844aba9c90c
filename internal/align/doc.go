// Package align joins an event stream (image capture times) to the nearest
// sensor sample.
//
// Match performs a nearest-neighbour as-of join over time-sorted events and
// samples with a single merge walk, O(len(events)+len(samples)). Nearest
// answers one lookup by binary search in O(log len(samples)). When two samples
// are equally far from an event the earlier one wins.
//
// MatchWindowed restricts a shared, read-only Pool to the buffered span of one
// sensor log before joining, so many logs can be matched against the same pool
// concurrently.
package align
