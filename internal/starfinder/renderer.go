package starfinder

import (
	"fmt"
	"log"
	"math"

	"github.com/ironsheep/starfinder-mcp/internal/detection"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/plot"
)

// DefaultFWHM is the point-spread FWHM, in pixels, assumed for detection.
const DefaultFWHM = 3.0

// Options configures a Renderer.
type Options struct {
	Clip    imaging.ClipOptions  `yaml:"clip"`
	Detect  detection.DAOOptions `yaml:"detect"`
	Display plot.DisplayOptions  `yaml:"display"`
	Overlay plot.OverlayStyle    `yaml:"overlay"`
	Title   string               `yaml:"title"`

	// Debug logs a summary line for every render.
	Debug bool `yaml:"-"`
}

// DefaultOptions returns the star-finder pipeline settings: 3-sigma
// clipping, DAOFind at FWHM 3, Greys display clipped to [100, 5000] with
// origin lower, and cyan one-pixel apertures.
func DefaultOptions() Options {
	return Options{
		Clip:    imaging.DefaultClipOptions(),
		Detect:  detection.DefaultDAOOptions(0, DefaultFWHM),
		Display: plot.DefaultDisplayOptions(),
		Overlay: plot.DefaultOverlayStyle(),
		Title:   plot.DefaultTitle,
	}
}

// Detection is the outcome of the statistics and detection steps.
type Detection struct {
	Stats     *imaging.BackgroundStats `json:"background"`
	Threshold float64                  `json:"threshold"`
	Sources   []detection.Source       `json:"sources"`
}

// Result describes one completed render.
type Result struct {
	Detection
	Radius              float64                `json:"radius"`
	ThresholdMultiplier float64                `json:"threshold_multiplier"`
	Apertures           *detection.ApertureSet `json:"apertures"`
	Figure              *plot.Figure           `json:"-"`
}

// Renderer runs the pipeline with fixed options. It holds no per-render
// state and may be shared.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Options returns the renderer configuration.
func (r *Renderer) Options() Options {
	return r.opts
}

// ValidateRadius checks that radius is positive and finite.
func ValidateRadius(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return &RenderParameterError{Param: "radius", Value: radius, Want: "a positive finite number"}
	}
	return nil
}

// ValidateMultiplier checks that mul is non-negative and finite.
func ValidateMultiplier(mul float64) error {
	if math.IsNaN(mul) || math.IsInf(mul, 0) || mul < 0 {
		return &RenderParameterError{Param: "threshold multiplier", Value: mul, Want: "a non-negative finite number"}
	}
	return nil
}

// Detect estimates the background of img and finds sources above
// mul times the clipped standard deviation.
func (r *Renderer) Detect(img *imaging.Image, mul float64) (*Detection, error) {
	if err := ValidateMultiplier(mul); err != nil {
		return nil, err
	}

	stats, err := imaging.SigmaClippedStats(img.Plane, r.opts.Clip)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate background: %w", err)
	}

	residual := img.Sub(stats.Median)

	opts := r.opts.Detect
	opts.Threshold = mul * stats.StdDev
	sources, err := detection.DAOFind(residual, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect sources: %w", err)
	}

	return &Detection{Stats: stats, Threshold: opts.Threshold, Sources: sources}, nil
}

// Render detects sources in img and shows the raw image with an aperture
// of the given radius on every source.
//
// Out-of-domain parameters fail with *RenderParameterError before any
// work is done. Zero sources is not an error; the figure simply has no
// circles.
func (r *Renderer) Render(target plot.Target, img *imaging.Image, radius, mul float64) (*Result, error) {
	if err := ValidateRadius(radius); err != nil {
		return nil, err
	}
	if err := ValidateMultiplier(mul); err != nil {
		return nil, err
	}

	det, err := r.Detect(img, mul)
	if err != nil {
		return nil, err
	}

	apertures, err := detection.NewApertureSet(det.Sources, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to build apertures: %w", err)
	}

	fig := plot.NewFigure(r.opts.Title, r.opts.Display)
	fig.ImShow(img.Plane)
	fig.Overlay(apertures, r.opts.Overlay)

	if err := target.Show(fig); err != nil {
		return nil, fmt.Errorf("failed to show figure: %w", err)
	}

	if r.opts.Debug {
		log.Printf("Rendered %s: radius=%g mul=%g median=%.3f std=%.3f sources=%d",
			img.Path, radius, mul, det.Stats.Median, det.Stats.StdDev, len(det.Sources))
	}

	return &Result{
		Detection:           *det,
		Radius:              radius,
		ThresholdMultiplier: mul,
		Apertures:           apertures,
		Figure:              fig,
	}, nil
}
