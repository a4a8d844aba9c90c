package align

import (
	"fmt"
	"time"

	"dropsync/internal/faults"
)

// Params configures matching for one run.
type Params struct {
	// Tolerance is the largest delta still counted as a match (inclusive).
	Tolerance time.Duration
	// Buffer widens the event window around a sensor log in MatchWindowed.
	Buffer time.Duration
}

// Validate rejects negative tolerance and buffer values.
func (p Params) Validate() error {
	if p.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %s must be >= 0", faults.ErrInvalidParameter, p.Tolerance)
	}
	if p.Buffer < 0 {
		return fmt.Errorf("%w: buffer %s must be >= 0", faults.ErrInvalidParameter, p.Buffer)
	}
	return nil
}
