package imaging

import (
	"fmt"
	"math"
)

// PixelResult is the value of one pixel together with the image unit.
type PixelResult struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`

	// Finite is false for NaN or infinite (blank) pixels. Value is reported
	// as 0 in that case so the result stays JSON encodable.
	Finite bool `json:"finite"`
}

// SamplePixel reads the intensity at column x, row y.
//
// It returns an error if the coordinates are outside the image.
func SamplePixel(img *Image, x, y int) (*PixelResult, error) {
	if !img.In(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, img.Width, img.Height)
	}

	v := img.At(x, y)
	finite := !math.IsNaN(v) && !math.IsInf(v, 0)
	if !finite {
		v = 0
	}
	return &PixelResult{X: x, Y: y, Value: v, Unit: img.Unit, Finite: finite}, nil
}

// LabeledPoint is a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledPixelResult combines a pixel sample with its label.
type LabeledPixelResult struct {
	Label string `json:"label,omitempty"`
	PixelResult
}

// SamplePixels reads several pixels in one call, in input order.
//
// If any point is outside the image no partial result is returned.
func SamplePixels(img *Image, points []LabeledPoint) ([]LabeledPixelResult, error) {
	results := make([]LabeledPixelResult, 0, len(points))
	for _, p := range points {
		px, err := SamplePixel(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledPixelResult{Label: p.Label, PixelResult: *px})
	}
	return results, nil
}
