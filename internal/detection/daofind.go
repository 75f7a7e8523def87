package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/starfinder-mcp/internal/imaging"
)

// DAOOptions configures DAOFind.
type DAOOptions struct {
	// Threshold is the absolute detection level in the units of the input
	// plane. It is scaled by the kernel's relative error before peaks are
	// compared against it.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// FWHM is the full width at half maximum of the Gaussian kernel, in
	// pixels.
	FWHM float64 `json:"fwhm" yaml:"fwhm"`

	// SigmaRadius is the truncation radius of the kernel in units of sigma.
	SigmaRadius float64 `json:"sigma_radius" yaml:"sigmaRadius"`

	// SharpLo and SharpHi bound the accepted sharpness.
	SharpLo float64 `json:"sharp_lo" yaml:"sharpLo"`
	SharpHi float64 `json:"sharp_hi" yaml:"sharpHi"`

	// RoundLo and RoundHi bound both roundness statistics.
	RoundLo float64 `json:"round_lo" yaml:"roundLo"`
	RoundHi float64 `json:"round_hi" yaml:"roundHi"`

	// ExcludeBorder drops peaks closer to the edge than the kernel half size.
	ExcludeBorder bool `json:"exclude_border" yaml:"excludeBorder"`

	// Brightest keeps only the N sources with the highest peak. Zero keeps
	// all.
	Brightest int `json:"brightest" yaml:"brightest"`

	// PeakMax rejects sources whose peak value is at or above it. Zero
	// disables the limit.
	PeakMax float64 `json:"peak_max" yaml:"peakMax"`
}

// DefaultDAOOptions returns the standard DAOFIND settings for the given
// threshold and FWHM.
func DefaultDAOOptions(threshold, fwhm float64) DAOOptions {
	return DAOOptions{
		Threshold:   threshold,
		FWHM:        fwhm,
		SigmaRadius: 1.5,
		SharpLo:     0.2,
		SharpHi:     1.0,
		RoundLo:     -1.0,
		RoundHi:     1.0,
	}
}

func (o DAOOptions) validate() error {
	if math.IsNaN(o.Threshold) || math.IsInf(o.Threshold, 0) || o.Threshold < 0 {
		return fmt.Errorf("threshold must be a non-negative finite number, got %v", o.Threshold)
	}
	if math.IsNaN(o.FWHM) || math.IsInf(o.FWHM, 0) || o.FWHM <= 0 {
		return fmt.Errorf("fwhm must be a positive finite number, got %v", o.FWHM)
	}
	if math.IsNaN(o.SigmaRadius) || o.SigmaRadius <= 0 {
		return fmt.Errorf("sigma radius must be positive, got %v", o.SigmaRadius)
	}
	if o.SharpLo > o.SharpHi {
		return fmt.Errorf("sharpness bounds inverted: %v > %v", o.SharpLo, o.SharpHi)
	}
	if o.RoundLo > o.RoundHi {
		return fmt.Errorf("roundness bounds inverted: %v > %v", o.RoundLo, o.RoundHi)
	}
	if o.Brightest < 0 {
		return fmt.Errorf("brightest must not be negative, got %d", o.Brightest)
	}
	return nil
}

// Source is a detected point-source candidate.
type Source struct {
	// ID numbers sources from 1 in raster order of their peaks.
	ID int `json:"id"`

	// XCentroid and YCentroid are the refined zero-based pixel position.
	XCentroid float64 `json:"xcentroid"`
	YCentroid float64 `json:"ycentroid"`

	// Sharpness compares the peak pixel with its masked neighbours,
	// normalized by the kernel response.
	Sharpness float64 `json:"sharpness"`

	// Roundness1 measures fourfold symmetry of the kernel response;
	// Roundness2 compares the fitted x and y marginal amplitudes. Both are
	// 0 for a circular source.
	Roundness1 float64 `json:"roundness1"`
	Roundness2 float64 `json:"roundness2"`

	// NPix is the number of pixels in the kernel footprint.
	NPix int `json:"npix"`

	// Peak is the input value at the peak pixel.
	Peak float64 `json:"peak"`

	// ConvPeak is the matched-filter response at the peak pixel.
	ConvPeak float64 `json:"conv_peak"`
}

// daoKernel is the truncated circular Gaussian used for matched filtering.
type daoKernel struct {
	sigma  float64
	radius int
	size   int

	// mask marks the footprint, gauss holds the unmasked Gaussian and data
	// the zero-mean normalized filter.
	mask  *imaging.Plane
	gauss *imaging.Plane
	data  *imaging.Plane

	npix   int
	relerr float64
}

func newDAOKernel(fwhm, sigmaRadius float64) (*daoKernel, error) {
	sigma := fwhm * imaging.FWHMToSigma
	a := 1 / (2 * sigma * sigma)
	f := sigmaRadius * sigmaRadius / 2

	radius := int(math.Sqrt(f / a))
	if radius < 2 {
		radius = 2
	}
	size := 2*radius + 1

	k := &daoKernel{
		sigma:  sigma,
		radius: radius,
		size:   size,
		mask:   imaging.NewPlane(size, size),
		gauss:  imaging.NewPlane(size, size),
		data:   imaging.NewPlane(size, size),
	}

	var sum, sum2 float64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x - radius)
			dy := float64(y - radius)
			r2 := dx*dx + dy*dy
			ell := a * r2
			g := math.Exp(-ell)
			k.gauss.Set(x, y, g)
			if ell <= f || math.Sqrt(r2) <= 2 {
				k.mask.Set(x, y, 1)
				k.npix++
				sum += g
				sum2 += g * g
			}
		}
	}

	// With this normalization the filter response to sky + h*g is h.
	denom := sum2 - sum*sum/float64(k.npix)
	if denom <= 0 {
		return nil, fmt.Errorf("degenerate kernel for fwhm %v", fwhm)
	}
	k.relerr = 1 / math.Sqrt(denom)

	mean := sum / float64(k.npix)
	for i, m := range k.mask.Data {
		if m != 0 {
			k.data.Data[i] = (k.gauss.Data[i] - mean) / denom
		}
	}
	return k, nil
}

type peak struct {
	x, y int
}

// DAOFind detects point sources in a background-subtracted plane.
//
// Non-finite input pixels are treated as zero. Sources are returned in
// raster order of their peak pixel, numbered from 1. An image with no peak
// above the threshold yields an empty, non-nil slice.
func DAOFind(residual *imaging.Plane, opts DAOOptions) ([]Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	k, err := newDAOKernel(opts.FWHM, opts.SigmaRadius)
	if err != nil {
		return nil, err
	}

	data := residual.Clone()
	for i, v := range data.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			data.Data[i] = 0
		}
	}

	conv, err := imaging.Convolve(data, k.data)
	if err != nil {
		return nil, fmt.Errorf("failed to filter image: %w", err)
	}

	peaks, err := findPeaks(conv, k, opts.Threshold*k.relerr, opts.ExcludeBorder)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(peaks))
	for _, p := range peaks {
		s, ok := measure(data, conv, k, p)
		if !ok {
			continue
		}
		if s.Sharpness < opts.SharpLo || s.Sharpness > opts.SharpHi {
			continue
		}
		if s.Roundness1 < opts.RoundLo || s.Roundness1 > opts.RoundHi {
			continue
		}
		if s.Roundness2 < opts.RoundLo || s.Roundness2 > opts.RoundHi {
			continue
		}
		if opts.PeakMax != 0 && s.Peak >= opts.PeakMax {
			continue
		}
		sources = append(sources, s)
	}

	if opts.Brightest > 0 && len(sources) > opts.Brightest {
		idx := make([]int, len(sources))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return sources[idx[a]].Peak > sources[idx[b]].Peak
		})
		idx = idx[:opts.Brightest]
		sort.Ints(idx)

		kept := make([]Source, 0, len(idx))
		for _, i := range idx {
			kept = append(kept, sources[i])
		}
		sources = kept
	}

	for i := range sources {
		sources[i].ID = i + 1
	}
	return sources, nil
}

// findPeaks returns the local maxima of conv over the kernel footprint that
// lie strictly above threshold, in raster order.
func findPeaks(conv *imaging.Plane, k *daoKernel, threshold float64, excludeBorder bool) ([]peak, error) {
	maxima, err := imaging.MaximumFilter(conv, k.mask)
	if err != nil {
		return nil, fmt.Errorf("failed to find local maxima: %w", err)
	}

	// Any local maximum inside the footprint of an accepted peak ties with it.
	claimed := make([]bool, len(conv.Data))

	var peaks []peak
	for y := 0; y < conv.Height; y++ {
		for x := 0; x < conv.Width; x++ {
			if excludeBorder && (x < k.radius || y < k.radius ||
				x >= conv.Width-k.radius || y >= conv.Height-k.radius) {
				continue
			}
			i := y*conv.Width + x
			v := conv.Data[i]
			if !(v > threshold) || v != maxima.Data[i] || claimed[i] {
				continue
			}
			peaks = append(peaks, peak{x: x, y: y})

			for fy := 0; fy < k.size; fy++ {
				for fx := 0; fx < k.size; fx++ {
					if k.mask.At(fx, fy) == 0 {
						continue
					}
					cx, cy := x+fx-k.radius, y+fy-k.radius
					if conv.In(cx, cy) {
						claimed[cy*conv.Width+cx] = true
					}
				}
			}
		}
	}
	return peaks, nil
}

// measure computes the shape statistics and centroid of one peak.
func measure(data, conv *imaging.Plane, k *daoKernel, p peak) (Source, bool) {
	x0, y0 := p.x-k.radius, p.y-k.radius
	cut := data.Cutout(x0, y0, k.size, k.size)
	convCut := conv.Cutout(x0, y0, k.size, k.size)

	c := k.radius
	dataPeak := cut.At(c, c)
	convPeak := convCut.At(c, c)
	if convPeak <= 0 {
		return Source{}, false
	}

	var masked float64
	for i, m := range k.mask.Data {
		if m != 0 {
			masked += cut.Data[i]
		}
	}
	neighbourMean := (masked - dataPeak) / float64(k.npix-1)
	sharpness := (dataPeak - neighbourMean) / convPeak

	roundness1, ok := symmetryRoundness(convCut, c)
	if !ok {
		return Source{}, false
	}

	dx, hx, ok := marginalFit(cut, k, true)
	if !ok {
		return Source{}, false
	}
	dy, hy, ok := marginalFit(cut, k, false)
	if !ok {
		return Source{}, false
	}

	return Source{
		XCentroid:  float64(p.x) + dx,
		YCentroid:  float64(p.y) + dy,
		Sharpness:  sharpness,
		Roundness1: roundness1,
		Roundness2: 2 * (hx - hy) / (hx + hy),
		NPix:       k.npix,
		Peak:       dataPeak,
		ConvPeak:   convPeak,
	}, true
}

// symmetryRoundness compares the kernel response in alternating quadrants
// around the centre pixel c.
func symmetryRoundness(convCut *imaging.Plane, c int) (float64, bool) {
	var sum2, sum4 float64
	for y := 0; y < convCut.Height; y++ {
		for x := 0; x < convCut.Width; x++ {
			if x == c && y == c {
				continue
			}
			v := convCut.At(x, y)
			sum4 += math.Abs(v)
			switch {
			case y <= c && x > c:
				sum2 -= v
			case y < c && x <= c:
				sum2 += v
			case y >= c && x < c:
				sum2 -= v
			case y > c && x >= c:
				sum2 += v
			}
		}
	}
	if sum4 == 0 {
		return 0, false
	}
	return 2 * sum2 / sum4, true
}

// marginalFit fits sky + h*g to the weighted marginal distribution of cut
// along x (alongX) or y, and returns the sub-pixel shift of the centre and
// the fitted amplitude h.
//
// Rows (or columns) are collapsed with triangular weights that peak at the
// centre and equal one at the edges. The shift comes from a first-order
// expansion of g around the centre pixel.
func marginalFit(cut *imaging.Plane, k *daoKernel, alongX bool) (float64, float64, bool) {
	n := k.size
	c := k.radius
	weight := func(i int) float64 {
		d := i - c
		if d < 0 {
			d = -d
		}
		return float64(c - d + 1)
	}

	m := make([]float64, n)
	g := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := weight(j)
			if alongX {
				m[i] += w * cut.At(i, j)
				g[i] += w * k.gauss.At(i, j)
			} else {
				m[i] += w * cut.At(j, i)
				g[i] += w * k.gauss.At(j, i)
			}
		}
	}

	var wSum, mSum, gSum, g2Sum, mgSum float64
	for i := 0; i < n; i++ {
		w := weight(i)
		wSum += w
		mSum += w * m[i]
		gSum += w * g[i]
		g2Sum += w * g[i] * g[i]
		mgSum += w * m[i] * g[i]
	}

	hNumer := mgSum - mSum*gSum/wSum
	hDenom := g2Sum - gSum*gSum/wSum
	if hNumer <= 0 || hDenom <= 0 {
		return 0, 0, false
	}
	h := hNumer / hDenom
	sky := (mSum - h*gSum) / wSum

	s2 := k.sigma * k.sigma
	var num, den float64
	for i := 0; i < n; i++ {
		w := weight(i)
		dg := float64(i-c) / s2 * g[i]
		r := m[i] - sky - h*g[i]
		num += w * r * dg
		den += w * dg * dg
	}
	if den <= 0 {
		return 0, 0, false
	}
	shift := num / (h * den)
	if math.IsNaN(shift) || math.Abs(shift) > float64(c) {
		return 0, 0, false
	}
	return shift, h, true
}
