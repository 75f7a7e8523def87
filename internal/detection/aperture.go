package detection

import (
	"fmt"
	"math"
)

// Aperture is a circle in pixel coordinates.
type Aperture struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Bounds returns the bounding box of the circle as (x1, y1, x2, y2).
func (a Aperture) Bounds() (float64, float64, float64, float64) {
	return a.X - a.R, a.Y - a.R, a.X + a.R, a.Y + a.R
}

// ApertureSet is a collection of circles sharing one radius, one per source.
type ApertureSet struct {
	Radius    float64    `json:"radius"`
	Apertures []Aperture `json:"apertures"`
}

// NewApertureSet centres a circle of the given radius on every source
// centroid, in source order.
//
// Radius must be positive and finite. An empty source list gives an empty
// set.
func NewApertureSet(sources []Source, radius float64) (*ApertureSet, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("aperture radius must be a positive finite number, got %v", radius)
	}

	set := &ApertureSet{
		Radius:    radius,
		Apertures: make([]Aperture, 0, len(sources)),
	}
	for _, s := range sources {
		set.Apertures = append(set.Apertures, Aperture{X: s.XCentroid, Y: s.YCentroid, R: radius})
	}
	return set, nil
}

// Len returns the number of apertures in the set.
func (s *ApertureSet) Len() int {
	return len(s.Apertures)
}
