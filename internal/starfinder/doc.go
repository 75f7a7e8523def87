// Package starfinder runs the detect-and-overlay pipeline behind the
// interactive star finder.
//
// A render takes an image and two tunable parameters, the aperture radius
// and the threshold multiplier, and:
//
//  1. estimates the background with sigma-clipped statistics
//  2. subtracts the clipped median from every pixel
//  3. runs DAOFind on the residual with threshold = multiplier * std
//  4. centres one aperture of the requested radius on every source
//  5. shows the raw image with the apertures on the render target
//
// Statistics are recomputed on every render. The image is only read.
package starfinder
