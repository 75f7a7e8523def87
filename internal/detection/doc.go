// Package detection finds point sources in astronomical images and builds the
// aperture overlays drawn around them.
//
// # Star Detection
//
// DAOFind implements the DAOPHOT "FIND" algorithm:
//
//  1. Matched filtering: the background-subtracted plane is convolved with a
//     zero-mean, normalized Gaussian kernel of the requested FWHM. The
//     response at a pixel is the amplitude of the best-fitting Gaussian
//     centred there.
//  2. Peak finding: pixels whose response is the maximum of the kernel
//     footprint and strictly above the effective threshold become
//     candidates. Equal-valued maxima inside one footprint are reported once.
//  3. Shape filtering: each candidate gets a sharpness and two roundness
//     statistics; candidates outside the configured bounds are rejected.
//     This removes hot pixels (too sharp) and extended or streaked features
//     (too soft or too elongated).
//  4. Centroiding: positions are refined by fitting 1D Gaussians to the
//     weighted marginal distributions of the candidate cutout.
//
// The threshold is expressed in the units of the input plane; callers
// usually pass a multiple of the background standard deviation.
//
// # Coordinate System
//
// Coordinates follow the FITS array order used by the imaging package:
//   - X is the column index, Y is the row index
//   - Row 0 is the first row stored in the file (bottom of the display)
//   - Centroids are zero-based and sub-pixel; pixel i spans [i-0.5, i+0.5)
//
// # Apertures
//
// ApertureSet places one circle of a common radius on every detected
// source. It carries geometry only; no flux is measured.
package detection
