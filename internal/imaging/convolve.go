package imaging

import (
	"fmt"
	"math"
)

// Convolve computes the 2D convolution of src with kernel.
//
// The kernel must have odd width and height; its centre pixel is aligned with
// each output pixel. Pixels outside src are treated as zero (constant-zero
// boundary), so sources near the border are attenuated rather than mirrored.
//
// The kernel is flipped as in a true convolution. For the symmetric kernels
// used by the detector this is the same as correlation.
func Convolve(src, kernel *Plane) (*Plane, error) {
	if kernel.Width%2 == 0 || kernel.Height%2 == 0 {
		return nil, fmt.Errorf("kernel dimensions must be odd, got %dx%d", kernel.Width, kernel.Height)
	}

	kcx := kernel.Width / 2
	kcy := kernel.Height / 2
	out := NewPlane(src.Width, src.Height)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			var sum float64
			for ky := 0; ky < kernel.Height; ky++ {
				sy := y + kcy - ky
				if sy < 0 || sy >= src.Height {
					continue
				}
				row := sy * src.Width
				krow := ky * kernel.Width
				for kx := 0; kx < kernel.Width; kx++ {
					sx := x + kcx - kx
					if sx < 0 || sx >= src.Width {
						continue
					}
					sum += src.Data[row+sx] * kernel.Data[krow+kx]
				}
			}
			out.Data[y*src.Width+x] = sum
		}
	}
	return out, nil
}

// MaximumFilter replaces every pixel with the maximum of its neighbourhood.
//
// The neighbourhood is the set of true cells in footprint, centred on the
// pixel; footprint must have odd dimensions. Pixels outside src read as zero,
// so a negative pixel near the border can never be a neighbourhood maximum.
func MaximumFilter(src *Plane, footprint *Plane) (*Plane, error) {
	if footprint.Width%2 == 0 || footprint.Height%2 == 0 {
		return nil, fmt.Errorf("footprint dimensions must be odd, got %dx%d", footprint.Width, footprint.Height)
	}

	fcx := footprint.Width / 2
	fcy := footprint.Height / 2
	out := NewPlane(src.Width, src.Height)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			max := math.Inf(-1)
			for fy := 0; fy < footprint.Height; fy++ {
				for fx := 0; fx < footprint.Width; fx++ {
					if footprint.Data[fy*footprint.Width+fx] == 0 {
						continue
					}
					// At reads zero outside the plane.
					if v := src.At(x+fx-fcx, y+fy-fcy); v > max {
						max = v
					}
				}
			}
			out.Data[y*src.Width+x] = max
		}
	}
	return out, nil
}
