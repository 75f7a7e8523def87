package imaging

import (
	"fmt"
)

// Plane is a row-major 2D array of float64 intensities.
//
// Data[y*Width+x] holds the value of column x in row y.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// NewPlane allocates a zero-filled plane of the given size.
func NewPlane(width, height int) *Plane {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Plane{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// NewPlaneFromData wraps data as a width x height plane.
//
// The slice is used directly, not copied. It returns an error if the length of
// data does not match the dimensions.
func NewPlaneFromData(width, height int, data []float64) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane dimensions %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("plane data has %d values, want %d for %dx%d", len(data), width*height, width, height)
	}
	return &Plane{Width: width, Height: height, Data: data}, nil
}

// Len returns the number of pixels in the plane.
func (p *Plane) Len() int {
	return p.Width * p.Height
}

// In reports whether (x, y) lies inside the plane.
func (p *Plane) In(x, y int) bool {
	return x >= 0 && x < p.Width && y >= 0 && y < p.Height
}

// At returns the value at column x, row y. Coordinates outside the plane
// read as zero.
func (p *Plane) At(x, y int) float64 {
	if !p.In(x, y) {
		return 0
	}
	return p.Data[y*p.Width+x]
}

// Set stores v at column x, row y. Out of range writes are ignored.
func (p *Plane) Set(x, y int, v float64) {
	if !p.In(x, y) {
		return
	}
	p.Data[y*p.Width+x] = v
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	out := &Plane{Width: p.Width, Height: p.Height, Data: make([]float64, len(p.Data))}
	copy(out.Data, p.Data)
	return out
}

// Sub returns a new plane holding p - v element-wise. The receiver is not
// modified.
func (p *Plane) Sub(v float64) *Plane {
	out := &Plane{Width: p.Width, Height: p.Height, Data: make([]float64, len(p.Data))}
	for i, d := range p.Data {
		out.Data[i] = d - v
	}
	return out
}

// Cutout extracts the w x h window whose lower corner is (x0, y0).
//
// Unlike Crop, the window may extend past the plane edges; those pixels are
// filled with zero. This matches the constant-zero padding the detector uses
// for sources near the border.
func (p *Plane) Cutout(x0, y0, w, h int) *Plane {
	out := NewPlane(w, h)
	for y := 0; y < h; y++ {
		sy := y0 + y
		if sy < 0 || sy >= p.Height {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x0 + x
			if sx < 0 || sx >= p.Width {
				continue
			}
			out.Data[y*w+x] = p.Data[sy*p.Width+sx]
		}
	}
	return out
}

// Crop extracts the region (x1,y1)-(x2,y2) from the plane, exclusive at the
// upper edges. The region must lie within the plane.
func (p *Plane) Crop(x1, y1, x2, y2 int) (*Plane, error) {
	if x1 < 0 || y1 < 0 || x2 > p.Width || y2 > p.Height {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside plane bounds (0,0)-(%d,%d)",
			x1, y1, x2, y2, p.Width, p.Height)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return p.Cutout(x1, y1, x2-x1, y2-y1), nil
}

// Sum returns the sum of all values in the plane.
func (p *Plane) Sum() float64 {
	var s float64
	for _, v := range p.Data {
		s += v
	}
	return s
}
