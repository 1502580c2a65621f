package table

import (
	"fmt"
	"math"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

// TimeRange is an inclusive [Min, Max] interval on one time basis.
type TimeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate rejects NaN bounds and inverted ranges.
func (r TimeRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("%w: NaN bound in [%v, %v]", errs.ErrInvalidTimeRange, r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %v > max %v", errs.ErrInvalidTimeRange, r.Min, r.Max)
	}

	return nil
}

// Contains reports whether v lies in the range. NaN is never contained.
func (r TimeRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Window is the active time window of a Telemetry.
//
// An unbounded window filters nothing; Range then holds the recorded span on
// Basis, or the zero range when nothing was recorded.
type Window struct {
	Basis   format.TimeBasis
	Range   TimeRange
	Bounded bool
}

func (w Window) String() string {
	if !w.Bounded {
		return fmt.Sprintf("%s: all", w.Basis)
	}

	return fmt.Sprintf("%s: [%v, %v]", w.Basis, w.Range.Min, w.Range.Max)
}
