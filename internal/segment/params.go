package segment

import (
	"fmt"
	"math"
	"time"

	"dropsync/internal/faults"
)

// Params configures one segmentation pass. It is built once per run and never
// mutated.
type Params struct {
	SmoothingWindow int
	Threshold       float64
	MinDuration     time.Duration
}

// Validate rejects windows that are not odd and positive and non-finite thresholds.
func (p Params) Validate() error {
	if p.SmoothingWindow < 1 {
		return fmt.Errorf("%w: smoothing window %d must be >= 1", faults.ErrInvalidParameter, p.SmoothingWindow)
	}
	if p.SmoothingWindow > 1 && p.SmoothingWindow%2 == 0 {
		return fmt.Errorf("%w: smoothing window %d must be odd", faults.ErrInvalidParameter, p.SmoothingWindow)
	}
	if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
		return fmt.Errorf("%w: threshold must be finite", faults.ErrInvalidParameter)
	}
	return nil
}
