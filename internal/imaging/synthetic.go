package imaging

import (
	"math"
	"math/rand"
)

// FWHMToSigma converts a Gaussian full width at half maximum to its standard
// deviation.
const FWHMToSigma = 1.0 / (2.0 * 1.1774100225154747) // 1 / (2*sqrt(2*ln2))

// Star describes a synthetic point source.
type Star struct {
	X         float64
	Y         float64
	Amplitude float64
	FWHM      float64
}

// FieldOptions describes a synthetic star field.
type FieldOptions struct {
	Width      int
	Height     int
	Background float64

	// Noise is the standard deviation of additive Gaussian noise. Zero gives a
	// noiseless field.
	Noise float64

	// Seed makes the noise reproducible.
	Seed int64

	Stars []Star
	Unit  string
}

// SyntheticField renders Gaussian point sources on a flat background.
//
// Each star contributes Amplitude * exp(-r^2 / (2 sigma^2)) where sigma comes
// from its FWHM. Contributions are evaluated out to 5 sigma.
func SyntheticField(opts FieldOptions) *Image {
	p := NewPlane(opts.Width, opts.Height)
	for i := range p.Data {
		p.Data[i] = opts.Background
	}

	for _, s := range opts.Stars {
		sigma := s.FWHM * FWHMToSigma
		if sigma <= 0 {
			continue
		}
		reach := int(math.Ceil(5 * sigma))
		cx, cy := int(math.Round(s.X)), int(math.Round(s.Y))
		for y := cy - reach; y <= cy+reach; y++ {
			for x := cx - reach; x <= cx+reach; x++ {
				if !p.In(x, y) {
					continue
				}
				dx := float64(x) - s.X
				dy := float64(y) - s.Y
				p.Data[y*p.Width+x] += s.Amplitude * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			}
		}
	}

	if opts.Noise > 0 {
		rng := rand.New(rand.NewSource(opts.Seed))
		for i := range p.Data {
			p.Data[i] += rng.NormFloat64() * opts.Noise
		}
	}

	return NewImage(p, opts.Unit)
}
