// Package imaging provides the image data layer for the star finder.
//
// This package reads calibrated FITS images into memory and implements the
// numeric primitives the detection pipeline is built on: a row-major float64
// Plane, zero-padded cutouts, 2D convolution and sigma-clipped background
// statistics.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and follow the FITS
// storage order:
//   - X: column index (0 = first value of a FITS row)
//   - Y: row index (0 = first FITS row)
//
// When displayed with origin "lower", row 0 is drawn at the bottom of the
// figure. For regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Units
//
// Every Image carries a single intensity unit tag ("adu" by default) that is
// applied uniformly to all of its pixels. The unit is metadata only; no
// conversion is ever performed.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. A loaded Image is never
// mutated by this module, so it may be shared freely between goroutines.
// Operations that derive new data (Sub, Convolve, Cutout) always allocate a
// new Plane.
//
// # Error Handling
//
// Loading errors are reported as *FileFormatError, which wraps the underlying
// cause. Statistics on a plane without any finite pixel return
// ErrNoFinitePixels.
package imaging
