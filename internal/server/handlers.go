package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/starfinder-mcp/internal/controller"
	"github.com/ironsheep/starfinder-mcp/internal/detection"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/plot"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "starfinder_load", "starfinder_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image access
	case "starfinder_load":
		return s.handleLoad(args)
	case "starfinder_sample_pixel":
		return s.handleSamplePixel(args)
	case "starfinder_sample_pixels":
		return s.handleSamplePixels(args)

	// Pipeline
	case "starfinder_background":
		return s.handleBackground(args)
	case "starfinder_detect":
		return s.handleDetect(args)
	case "starfinder_render":
		return s.handleRender(args)
	case "starfinder_save_render":
		return s.handleSaveRender(args)

	// Interactive controls
	case "starfinder_attach_controls":
		return s.handleAttachControls(args)
	case "starfinder_set_control":
		return s.handleSetControl(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Access Handlers ===

type loadArgs struct {
	Path   string `json:"path"`
	Unit   string `json:"unit"`
	Reload bool   `json:"reload"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		if err := s.reload(a.Path, a.Unit); err != nil {
			return nil, err
		}
	} else if a.Unit != "" {
		if _, err := s.cache.LoadWithUnit(a.Path, a.Unit); err != nil {
			return nil, err
		}
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type samplePixelArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleSamplePixel(args json.RawMessage) (interface{}, error) {
	var a samplePixelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SamplePixel(img, a.X, a.Y)
}

type samplePixelsArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label"`
	} `json:"points"`
}

func (s *Server) handleSamplePixels(args json.RawMessage) (interface{}, error) {
	var a samplePixelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SamplePixels(img, points)
}

// === Pipeline Handlers ===

type backgroundArgs struct {
	Path   string `json:"path"`
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
}

func (s *Server) handleBackground(args json.RawMessage) (interface{}, error) {
	var a backgroundArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	plane := img.Plane
	if a.Region != nil {
		plane, err = plane.Crop(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
		if err != nil {
			return nil, err
		}
	}
	return imaging.SigmaClippedStats(plane, s.renderer.Options().Clip)
}

type detectArgs struct {
	Path                string   `json:"path"`
	ThresholdMultiplier *float64 `json:"threshold_multiplier"`
	FWHM                float64  `json:"fwhm"`
}

// DetectResult is the outcome of a detection-only run.
type DetectResult struct {
	starfinder.Detection
	ThresholdMultiplier float64 `json:"threshold_multiplier"`
	FWHM                float64 `json:"fwhm"`
	Count               int     `json:"count"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mul := 3.0
	if a.ThresholdMultiplier != nil {
		mul = *a.ThresholdMultiplier
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	r := s.renderer
	if a.FWHM != 0 {
		opts := r.Options()
		opts.Detect.FWHM = a.FWHM
		r = starfinder.NewRenderer(opts)
	}

	det, err := r.Detect(img, mul)
	if err != nil {
		return nil, err
	}
	return &DetectResult{
		Detection:           *det,
		ThresholdMultiplier: mul,
		FWHM:                r.Options().Detect.FWHM,
		Count:               len(det.Sources),
	}, nil
}

type renderArgs struct {
	Path                string   `json:"path"`
	Radius              *float64 `json:"radius"`
	ThresholdMultiplier *float64 `json:"threshold_multiplier"`
}

// parameters applies the tool defaults of radius 5 and multiplier 3.
func (a renderArgs) parameters() (radius, mul float64) {
	radius, mul = 5, 3
	if a.Radius != nil {
		radius = *a.Radius
	}
	if a.ThresholdMultiplier != nil {
		mul = *a.ThresholdMultiplier
	}
	return radius, mul
}

// RenderResult is a rendered frame plus the detection behind it.
type RenderResult struct {
	Width               int                      `json:"width"`
	Height              int                      `json:"height"`
	ImageBase64         string                   `json:"image_base64"`
	MimeType            string                   `json:"mime_type"`
	Radius              float64                  `json:"radius"`
	ThresholdMultiplier float64                  `json:"threshold_multiplier"`
	SourceCount         int                      `json:"source_count"`
	Apertures           []detection.Aperture     `json:"apertures"`
	Background          *imaging.BackgroundStats `json:"background"`
	Threshold           float64                  `json:"threshold"`
}

// newRenderResult packages a rendered frame with the result behind it.
func newRenderResult(frame *image.NRGBA, png []byte, res *starfinder.Result) (*RenderResult, error) {
	if res == nil || frame == nil || png == nil {
		return nil, fmt.Errorf("no frame rendered")
	}
	return &RenderResult{
		Width:               frame.Bounds().Dx(),
		Height:              frame.Bounds().Dy(),
		ImageBase64:         base64.StdEncoding.EncodeToString(png),
		MimeType:            "image/png",
		Radius:              res.Radius,
		ThresholdMultiplier: res.ThresholdMultiplier,
		SourceCount:         len(res.Sources),
		Apertures:           res.Apertures.Apertures,
		Background:          res.Stats,
		Threshold:           res.Threshold,
	}, nil
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	radius, mul := a.parameters()

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	target := plot.NewBufferTarget()
	res, err := s.renderer.Render(target, img, radius, mul)
	if err != nil {
		return nil, err
	}
	_, frame, png := target.Current()
	return newRenderResult(frame, png, res)
}

type saveRenderArgs struct {
	renderArgs
	Output string `json:"output"`
}

// SaveRenderResult reports a frame written to disk.
type SaveRenderResult struct {
	Output      string  `json:"output"`
	Radius      float64 `json:"radius"`
	SourceCount int     `json:"source_count"`
	Threshold   float64 `json:"threshold"`
}

func (s *Server) handleSaveRender(args json.RawMessage) (interface{}, error) {
	var a saveRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	radius, mul := a.parameters()

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.renderer.Render(plot.FileTarget{Path: a.Output}, img, radius, mul)
	if err != nil {
		return nil, err
	}
	return &SaveRenderResult{
		Output:      a.Output,
		Radius:      radius,
		SourceCount: len(res.Sources),
		Threshold:   res.Threshold,
	}, nil
}

// === Interactive Control Handlers ===

// ControlsResult is the slider state of a session together with its
// latest frame.
type ControlsResult struct {
	Controls []controller.Descriptor `json:"controls"`
	Renders  int                     `json:"renders"`
	Frame    *RenderResult           `json:"frame"`
}

func sessionResult(snap *controller.Snapshot) (*ControlsResult, error) {
	frame, err := newRenderResult(snap.Frame, snap.PNG, snap.Result)
	if err != nil {
		return nil, err
	}
	return &ControlsResult{
		Controls: snap.Controls,
		Renders:  snap.Renders,
		Frame:    frame,
	}, nil
}

type attachControlsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleAttachControls(args json.RawMessage) (interface{}, error) {
	var a attachControlsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.Session(a.Path)
	if err != nil {
		return nil, err
	}
	return sessionResult(sess.Snapshot())
}

type setControlArgs struct {
	Path  string  `json:"path"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (s *Server) handleSetControl(args json.RawMessage) (interface{}, error) {
	var a setControlArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, ok := s.existingSession(a.Path)
	if !ok {
		return nil, fmt.Errorf("no controls attached to %s; call starfinder_attach_controls first", a.Path)
	}
	snap, err := sess.Update(a.Name, a.Value)
	if err != nil {
		return nil, err
	}
	return sessionResult(snap)
}
