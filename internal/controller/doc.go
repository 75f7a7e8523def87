// Package controller binds the renderer's tunable parameters to stepped
// slider controls.
//
// Bindings are declared explicitly: the image is a fixed value and the
// radius and threshold multiplier are RangeSpecs. Every value change is
// clamped and snapped the way a slider would, then rendered synchronously
// while the controls lock is held, so renders from any number of event
// sources are strictly serialized.
package controller
