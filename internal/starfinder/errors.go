package starfinder

import "fmt"

// RenderParameterError reports a radius or threshold multiplier outside the
// renderer's domain. It is returned before any work is done, so the render
// target keeps its previous figure.
type RenderParameterError struct {
	Param string
	Value float64
	Want  string
}

func (e *RenderParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: must be %s", e.Param, e.Value, e.Want)
}
