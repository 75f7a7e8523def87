// Package server implements the MCP (Model Context Protocol) server for the
// star finder.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image access:
//   - starfinder_load: Load a FITS image and report its metadata
//   - starfinder_sample_pixel: Read one pixel intensity
//   - starfinder_sample_pixels: Read several pixels
//
// Pipeline:
//   - starfinder_background: Sigma-clipped background statistics
//   - starfinder_detect: DAOFind source detection
//   - starfinder_render: Render the image with source apertures as PNG
//   - starfinder_save_render: Same render written to a file
//
// Interactive controls:
//   - starfinder_attach_controls: Attach radius and threshold sliders
//   - starfinder_set_control: Move a slider and re-render
//
// # Sessions
//
// Attaching controls creates one session per image path. Sessions live for
// the lifetime of the server and are shared with the HTTP viewer, so a
// slider moved through either surface is seen by both.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
