package imaging

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrNoFinitePixels is returned when a plane has no finite value to compute
// statistics from.
var ErrNoFinitePixels = errors.New("no finite pixels to compute statistics")

// ClipOptions configures sigma clipping.
type ClipOptions struct {
	// SigmaLower is the number of standard deviations below the median
	// below which samples are rejected.
	SigmaLower float64 `json:"sigma_lower" yaml:"sigmaLower"`

	// SigmaUpper is the number of standard deviations above the median
	// above which samples are rejected.
	SigmaUpper float64 `json:"sigma_upper" yaml:"sigmaUpper"`

	// MaxIters bounds the number of clipping passes. Zero or negative means
	// iterate until the kept set stops changing.
	MaxIters int `json:"max_iters" yaml:"maxIters"`
}

// DefaultClipOptions returns the conventional 3-sigma, 5-iteration settings.
func DefaultClipOptions() ClipOptions {
	return ClipOptions{SigmaLower: 3, SigmaUpper: 3, MaxIters: 5}
}

// BackgroundStats holds robust background estimates of an image.
//
// Median and StdDev always come from the same clipped sample. Mean is kept
// for symmetry with the usual (mean, median, std) triple.
type BackgroundStats struct {
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	StdDev     float64 `json:"std"`
	Iterations int     `json:"iterations"`
	Kept       int     `json:"kept"`
	Total      int     `json:"total"`
}

// SigmaClippedStats estimates mean, median and standard deviation of p while
// iteratively rejecting outliers.
//
// Each pass computes the median and population standard deviation of the
// samples still kept, then rejects samples outside
// [median - SigmaLower*std, median + SigmaUpper*std]. Passes stop when nothing
// more is rejected or MaxIters is reached. Non-finite pixels are ignored.
//
// The samples are sorted once, so every kept set is a contiguous window of
// the sorted slice and each pass only narrows the window.
func SigmaClippedStats(p *Plane, opts ClipOptions) (*BackgroundStats, error) {
	sorted := make([]float64, 0, len(p.Data))
	for _, v := range p.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return nil, ErrNoFinitePixels
	}
	sort.Float64s(sorted)

	lo, hi := 0, len(sorted)
	iters := 0
	for opts.MaxIters <= 0 || iters < opts.MaxIters {
		window := sorted[lo:hi]
		med := sortedMedian(window)
		std := stat.PopStdDev(window, nil)

		lower := med - opts.SigmaLower*std
		upper := med + opts.SigmaUpper*std
		newLo := lo + sort.SearchFloat64s(window, lower)
		newHi := lo + sort.Search(len(window), func(i int) bool { return window[i] > upper })
		iters++

		if newLo >= newHi || (newLo == lo && newHi == hi) {
			break
		}
		lo, hi = newLo, newHi
	}

	window := sorted[lo:hi]
	mean, std := stat.PopMeanStdDev(window, nil)
	return &BackgroundStats{
		Mean:       mean,
		Median:     sortedMedian(window),
		StdDev:     std,
		Iterations: iters,
		Kept:       len(window),
		Total:      len(p.Data),
	}, nil
}

// sortedMedian returns the median of an ascending slice, averaging the two
// middle values for even lengths.
func sortedMedian(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
