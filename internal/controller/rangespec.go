package controller

import (
	"fmt"
	"math"
)

// eps absorbs float error when comparing positions on a step grid.
const eps = 1e-9

// RangeSpec is an inclusive stepped range, like a slider's (min, max, step).
type RangeSpec struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
}

// Validate checks that the range is finite, ordered and has a positive
// step.
func (r RangeSpec) Validate() error {
	for _, v := range []float64{r.Min, r.Max, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("range %v contains a non-finite bound", r)
		}
	}
	if r.Step <= 0 {
		return fmt.Errorf("range step must be positive, got %v", r.Step)
	}
	if r.Max < r.Min {
		return fmt.Errorf("range max %v is below min %v", r.Max, r.Min)
	}
	return nil
}

// Len returns the number of positions in the range.
func (r RangeSpec) Len() int {
	return int(math.Floor((r.Max-r.Min)/r.Step+eps)) + 1
}

// at returns the i-th position. Computing from the index keeps repeated
// steps from accumulating error.
func (r RangeSpec) at(i int) float64 {
	return r.Min + float64(i)*r.Step
}

// Values enumerates every position from Min to Max.
func (r RangeSpec) Values() []float64 {
	n := r.Len()
	out := make([]float64, n)
	for i := range out {
		out[i] = r.at(i)
	}
	return out
}

// Snap clamps v into the range and moves it to the nearest step position.
// Ties round up. NaN is not a position; callers reject it first.
func (r RangeSpec) Snap(v float64) float64 {
	if v <= r.Min {
		return r.Min
	}
	last := r.Len() - 1
	// Clamp before converting; huge or infinite v overflows int.
	idx := math.Floor((v-r.Min)/r.Step + 0.5)
	if v >= r.Max || idx >= float64(last) {
		return r.at(last)
	}
	return r.at(int(idx))
}

// Contains reports whether v is exactly one of the range positions.
func (r RangeSpec) Contains(v float64) bool {
	if math.IsNaN(v) || v < r.Min-eps || v > r.Max+eps {
		return false
	}
	return math.Abs(r.Snap(v)-v) < eps
}

// Initial is the starting slider position: the midpoint of the range,
// snapped down to a step.
func (r RangeSpec) Initial() float64 {
	return r.at(int(math.Floor((r.Max-r.Min)/2/r.Step + eps)))
}
