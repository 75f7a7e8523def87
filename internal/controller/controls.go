package controller

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/plot"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

// Control names accepted by Set.
const (
	NameRadius              = "radius"
	NameThresholdMultiplier = "threshold_multiplier"
)

// ErrUnknownControl is returned by Set for a name that is not bound.
var ErrUnknownControl = errors.New("unknown control")

// Fixed is a parameter held constant across renders.
type Fixed[T any] struct {
	Value T
}

// Bindings declares how each render parameter is controlled.
type Bindings struct {
	Image               Fixed[*imaging.Image]
	Radius              RangeSpec
	ThresholdMultiplier RangeSpec
}

// DefaultBindings fixes img and exposes radius 1..20 step 1 and threshold
// multiplier 0.5..25 step 0.5.
func DefaultBindings(img *imaging.Image) Bindings {
	return Bindings{
		Image:               Fixed[*imaging.Image]{Value: img},
		Radius:              RangeSpec{Min: 1, Max: 20, Step: 1},
		ThresholdMultiplier: RangeSpec{Min: 0.5, Max: 25, Step: 0.5},
	}
}

// RenderFunc draws img with the given parameters.
type RenderFunc func(img *imaging.Image, radius, mul float64) (*starfinder.Result, error)

// RendererFunc adapts a renderer and a target into a RenderFunc.
func RendererFunc(r *starfinder.Renderer, target plot.Target) RenderFunc {
	return func(img *imaging.Image, radius, mul float64) (*starfinder.Result, error) {
		return r.Render(target, img, radius, mul)
	}
}

// Descriptor describes one slider for a user interface.
type Descriptor struct {
	Name   string    `json:"name"`
	Label  string    `json:"label"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Step   float64   `json:"step"`
	Value  float64   `json:"value"`
	Values []float64 `json:"values"`
}

// Controls is a live set of sliders attached to one image.
type Controls struct {
	mu       sync.Mutex
	bindings Bindings
	render   RenderFunc

	radius  float64
	mul     float64
	last    *starfinder.Result
	renders int
}

// Attach validates the bindings, positions both sliders at their initial
// values and renders once.
func Attach(b Bindings, render RenderFunc) (*Controls, error) {
	if b.Image.Value == nil {
		return nil, fmt.Errorf("no image bound")
	}
	if render == nil {
		return nil, fmt.Errorf("no render function")
	}
	if err := b.Radius.Validate(); err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	if err := b.ThresholdMultiplier.Validate(); err != nil {
		return nil, fmt.Errorf("threshold multiplier: %w", err)
	}

	c := &Controls{
		bindings: b,
		render:   render,
		radius:   b.Radius.Initial(),
		mul:      b.ThresholdMultiplier.Initial(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.renderLocked(b.Image.Value, c.radius, c.mul); err != nil {
		return nil, err
	}
	return c, nil
}

// renderLocked renders with the given image and values and records them on
// success. The previous image and values stay in place when the render
// fails.
func (c *Controls) renderLocked(img *imaging.Image, radius, mul float64) (*starfinder.Result, error) {
	res, err := c.render(img, radius, mul)
	if err != nil {
		return nil, err
	}
	c.bindings.Image.Value = img
	c.radius, c.mul = radius, mul
	c.last = res
	c.renders++
	return res, nil
}

// SetRadius moves the radius slider to v and re-renders.
func (c *Controls) SetRadius(v float64) (*starfinder.Result, error) {
	return c.Set(NameRadius, v)
}

// SetThresholdMultiplier moves the multiplier slider to v and re-renders.
func (c *Controls) SetThresholdMultiplier(v float64) (*starfinder.Result, error) {
	return c.Set(NameThresholdMultiplier, v)
}

// Set moves the named slider to v, clamped and snapped to its range, and
// re-renders before returning.
func (c *Controls) Set(name string, v float64) (*starfinder.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(name, v)
}

func (c *Controls) setLocked(name string, v float64) (*starfinder.Result, error) {
	if math.IsNaN(v) {
		return nil, fmt.Errorf("control %q: value is NaN", name)
	}

	radius, mul := c.radius, c.mul
	switch name {
	case NameRadius:
		radius = c.bindings.Radius.Snap(v)
	case NameThresholdMultiplier, "mul":
		mul = c.bindings.ThresholdMultiplier.Snap(v)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	return c.renderLocked(c.bindings.Image.Value, radius, mul)
}

// SetImage replaces the fixed image and re-renders it with the current
// slider values. The old image stays bound if the render fails.
func (c *Controls) SetImage(img *imaging.Image) (*starfinder.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setImageLocked(img)
}

func (c *Controls) setImageLocked(img *imaging.Image) (*starfinder.Result, error) {
	if img == nil {
		return nil, fmt.Errorf("no image bound")
	}
	return c.renderLocked(img, c.radius, c.mul)
}

// Values returns the current slider positions.
func (c *Controls) Values() (radius, mul float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius, c.mul
}

// Last returns the most recent successful render.
func (c *Controls) Last() *starfinder.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Renders returns the number of successful renders, including the one
// made by Attach.
func (c *Controls) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Image returns the fixed image.
func (c *Controls) Image() *imaging.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindings.Image.Value
}

// Descriptors describes both sliders with their current values.
func (c *Controls) Descriptors() []Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptorsLocked()
}

func (c *Controls) descriptorsLocked() []Descriptor {
	return []Descriptor{
		describe(NameRadius, "Aperture radius (px)", c.bindings.Radius, c.radius),
		describe(NameThresholdMultiplier, "Threshold (x std)", c.bindings.ThresholdMultiplier, c.mul),
	}
}

func describe(name, label string, r RangeSpec, value float64) Descriptor {
	return Descriptor{
		Name:   name,
		Label:  label,
		Min:    r.Min,
		Max:    r.Max,
		Step:   r.Step,
		Value:  value,
		Values: r.Values(),
	}
}
