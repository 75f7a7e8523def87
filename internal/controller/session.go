package controller

import (
	"image"

	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/plot"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

// Session is a set of controls rendering into an in-memory target, shared
// by the interactive surfaces.
type Session struct {
	*Controls
	Target *plot.BufferTarget
}

// Snapshot is the state of a session at one instant: the latest result,
// the frame it produced and the slider positions behind it.
type Snapshot struct {
	Result   *starfinder.Result
	Figure   *plot.Figure
	Frame    *image.NRGBA
	PNG      []byte
	Controls []Descriptor
	Renders  int
}

// NewSession attaches controls with the given bindings to a fresh buffer
// target. The initial frame is rendered before it returns.
func NewSession(b Bindings, r *starfinder.Renderer) (*Session, error) {
	target := plot.NewBufferTarget()
	c, err := Attach(b, RendererFunc(r, target))
	if err != nil {
		return nil, err
	}
	return &Session{Controls: c, Target: target}, nil
}

// Snapshot captures the current state. Renders hold the same lock, so the
// frame always belongs to the result.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Update moves one slider, re-renders and returns the state that render
// produced.
func (s *Session) Update(name string, v float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.setLocked(name, v); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

// Reload swaps the bound image, keeping the slider positions, and returns
// the state of the new render.
func (s *Session) Reload(img *imaging.Image) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.setImageLocked(img); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *Session) snapshotLocked() *Snapshot {
	fig, frame, png := s.Target.Current()
	return &Snapshot{
		Result:   s.last,
		Figure:   fig,
		Frame:    frame,
		PNG:      png,
		Controls: s.descriptorsLocked(),
		Renders:  s.renders,
	}
}
