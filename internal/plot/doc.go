// Package plot draws star-finder figures: an intensity image shown through
// a colormap with circle overlays and a title.
//
// A Figure is a description of what to draw; Render turns it into an
// *image.NRGBA on a fixed square canvas. Targets receive finished figures,
// and each Show replaces whatever the target held before.
//
// # Display Conventions
//
//   - Values are clipped to [VMin, VMax] and mapped linearly onto the
//     colormap; NaN pixels are drawn with the colormap floor.
//   - "Greys" maps the floor to white and the ceiling to black; "gray" is
//     the reverse.
//   - With origin "lower" data row 0 is drawn at the bottom of the plot
//     area; with "upper" it is drawn at the top.
//   - Pixel i covers data coordinates [i-0.5, i+0.5], so a circle centred
//     on a centroid sits on the same spot as the source in the raster.
package plot
