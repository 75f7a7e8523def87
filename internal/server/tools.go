package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Access
		{
			Name:        "starfinder_load",
			Description: "Load a FITS image and return its dimensions, BITPIX and intensity unit. The image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"unit": map[string]interface{}{
						"type":        "string",
						"description": "Optional intensity unit tag. Defaults to the BUNIT header keyword, then the configured unit",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Read the file again even if it is cached. Drops any attached controls for the path",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "starfinder_sample_pixel",
			Description: "Read the intensity of a single pixel. Coordinates are 0-based column and row with row 0 at the bottom of the displayed image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Column (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Row (0-based)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "starfinder_sample_pixels",
			Description: "Read the intensity of several pixels in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Pixels to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path", "points"},
			},
		},

		// Pipeline
		{
			Name:        "starfinder_background",
			Description: "Estimate the sky background with sigma-clipped statistics. Returns mean, median and standard deviation of the clipped pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region (x1,y1)-(x2,y2), exclusive at x2 and y2. Defaults to the whole image",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "starfinder_detect",
			Description: "Detect point sources with the DAOFind algorithm on the median-subtracted image. The detection threshold is threshold_multiplier times the clipped standard deviation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"threshold_multiplier": map[string]interface{}{
						"type":        "number",
						"description": "Threshold in units of background standard deviation. Default 3",
						"default":     3.0,
					},
					"fwhm": map[string]interface{}{
						"type":        "number",
						"description": "Optional point-spread FWHM in pixels. Defaults to the configured value (3)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "starfinder_render",
			Description: "Detect sources and render the image with a circular aperture around every source. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Aperture radius in pixels. Default 5",
						"default":     5.0,
					},
					"threshold_multiplier": map[string]interface{}{
						"type":        "number",
						"description": "Threshold in units of background standard deviation. Default 3",
						"default":     3.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "starfinder_save_render",
			Description: "Render like starfinder_render but write the PNG to a file instead of returning it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the PNG file to write",
					},
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Aperture radius in pixels. Default 5",
						"default":     5.0,
					},
					"threshold_multiplier": map[string]interface{}{
						"type":        "number",
						"description": "Threshold in units of background standard deviation. Default 3",
						"default":     3.0,
					},
				},
				"required": []string{"path", "output"},
			},
		},

		// Interactive Controls
		{
			Name:        "starfinder_attach_controls",
			Description: "Attach the radius and threshold sliders to an image and render the initial frame. Calling it again returns the existing session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "starfinder_set_control",
			Description: "Move one slider of an attached session and re-render. Values are clamped and snapped to the slider grid (radius 1-20 step 1, threshold_multiplier 0.5-25 step 0.5).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS file",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Slider to move",
						"enum":        []string{"radius", "threshold_multiplier"},
					},
					"value": map[string]interface{}{
						"type":        "number",
						"description": "New slider value",
					},
				},
				"required": []string{"path", "name", "value"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
