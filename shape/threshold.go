package shape

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// defaultThreshold is the process-scoped default, on the order of
// machine epsilon for float64 (~2.22e-16): tile norms below this are
// indistinguishable from rounding noise regardless of the concrete T.
const defaultThreshold = 2.220446049250313e-16

// thresholdCell holds the process-scoped threshold behind an
// atomic.Value so Threshold/SetThreshold never race. Kept as an explicit
// accessor pair rather than a bare package variable so every read/write
// goes through validation and happens-before is guaranteed by the atomic.
var thresholdCell atomic.Value // holds float64

func init() {
	thresholdCell.Store(float64(defaultThreshold))
}

// Threshold returns the current process-scoped hard-zero threshold.
func Threshold() float64 {
	return thresholdCell.Load().(float64)
}

// SetThreshold installs a new process-scoped hard-zero threshold. It
// returns ErrInvalidThreshold for any t <= 0.
func SetThreshold(t float64) error {
	if t <= 0 {
		return ErrInvalidThreshold
	}
	thresholdCell.Store(t)
	return nil
}

// belowThreshold reports whether v's magnitude is small enough to be
// hard-zeroed under the current process-scoped threshold.
func belowThreshold[T constraints.Float](v T) bool {
	return float64(v) < Threshold()
}
