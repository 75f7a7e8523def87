package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Display defaults for star fields.
const (
	DefaultVMin       = 100.0
	DefaultVMax       = 5000.0
	DefaultColormap   = "Greys"
	DefaultOrigin     = "lower"
	DefaultCanvasSize = 1080 // 15 in at 72 dpi
	DefaultTitle      = "Interactive Starfinder"

	// DefaultOverlayColor is matplotlib's "c" (cyan).
	DefaultOverlayColor = "#00bfbf"
)

// OverlayStyle controls how circles are stroked.
type OverlayStyle struct {
	// Color is a hex colour string such as "#00bfbf".
	Color string `json:"color" yaml:"color"`

	// LineWidth is the stroke width in canvas pixels.
	LineWidth float64 `json:"line_width" yaml:"lineWidth"`

	// Alpha is the stroke opacity in [0, 1].
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// DefaultOverlayStyle returns a fully opaque cyan one-pixel stroke.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{Color: DefaultOverlayColor, LineWidth: 1, Alpha: 1}
}

func (s OverlayStyle) validate() (colorful.Color, error) {
	c, err := colorful.Hex(s.Color)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid overlay color %q: %w", s.Color, err)
	}
	if s.LineWidth <= 0 || math.IsNaN(s.LineWidth) {
		return colorful.Color{}, fmt.Errorf("overlay line width must be positive, got %v", s.LineWidth)
	}
	if s.Alpha < 0 || s.Alpha > 1 || math.IsNaN(s.Alpha) {
		return colorful.Color{}, fmt.Errorf("overlay alpha must be within [0, 1], got %v", s.Alpha)
	}
	return c, nil
}

// DisplayOptions controls how an intensity plane is turned into colours.
type DisplayOptions struct {
	VMin       float64 `json:"vmin" yaml:"vmin"`
	VMax       float64 `json:"vmax" yaml:"vmax"`
	Colormap   string  `json:"colormap" yaml:"colormap"`
	Origin     string  `json:"origin" yaml:"origin"`
	CanvasSize int     `json:"canvas_size" yaml:"canvasSize"`
}

// DefaultDisplayOptions returns the star-field display settings: Greys,
// clipped to [100, 5000], origin lower, on a 1080 px canvas.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		VMin:       DefaultVMin,
		VMax:       DefaultVMax,
		Colormap:   DefaultColormap,
		Origin:     DefaultOrigin,
		CanvasSize: DefaultCanvasSize,
	}
}

// Validate checks that the options describe a drawable figure.
func (o DisplayOptions) Validate() error {
	if !(o.VMax > o.VMin) {
		return fmt.Errorf("vmax (%v) must be greater than vmin (%v)", o.VMax, o.VMin)
	}
	if _, ok := colormaps[o.Colormap]; !ok {
		return fmt.Errorf("unknown colormap %q", o.Colormap)
	}
	if o.Origin != "lower" && o.Origin != "upper" {
		return fmt.Errorf("origin must be \"lower\" or \"upper\", got %q", o.Origin)
	}
	if o.CanvasSize < 2*marginSide+titleBand {
		return fmt.Errorf("canvas size %d too small", o.CanvasSize)
	}
	return nil
}

// colormap endpoints: floor colour, ceiling colour.
var colormaps = map[string][2]colorful.Color{
	"Greys": {{R: 1, G: 1, B: 1}, {R: 0, G: 0, B: 0}},
	"gray":  {{R: 0, G: 0, B: 0}, {R: 1, G: 1, B: 1}},
}

// Normalize maps v onto [0, 1] using the display range, clipping values
// outside it. NaN maps to 0.
func (o DisplayOptions) Normalize(v float64) float64 {
	if math.IsNaN(v) || v <= o.VMin {
		return 0
	}
	if v >= o.VMax {
		return 1
	}
	return (v - o.VMin) / (o.VMax - o.VMin)
}

// Color returns the colormap colour for intensity v.
func (o DisplayOptions) Color(v float64) color.NRGBA {
	ends := colormaps[o.Colormap]
	c := ends[0].BlendRgb(ends[1], o.Normalize(v)).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
