// Package segment detects deployment intervals ("drops") in a sensor log.
//
// The primary metric is smoothed with a centered moving median whose window
// shrinks at the edges, every sample is classified against a threshold, and a
// two-state machine emits one candidate per maximal active run. Candidates
// shorter than the minimum duration are discarded and the survivors are
// numbered from 1 in start order.
package segment
