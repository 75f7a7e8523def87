// Package web serves a browser viewer for an interactive star-finder
// session.
//
// The page shows the latest frame and one range input per control. Slider
// moves travel over a websocket; every accepted move re-renders the
// session and the new frame is broadcast to all connected viewers. Plain
// HTTP endpoints expose the control state, the current PNG and Prometheus
// metrics.
package web
