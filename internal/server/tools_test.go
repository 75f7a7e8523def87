package server

import (
	"testing"
)

var expectedTools = []string{
	"starfinder_load",
	"starfinder_sample_pixel",
	"starfinder_sample_pixels",
	"starfinder_background",
	"starfinder_detect",
	"starfinder_render",
	"starfinder_save_render",
	"starfinder_attach_controls",
	"starfinder_set_control",
}

func toolsByName() map[string]Tool {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}
	return toolMap
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) != len(expectedTools) {
		t.Fatalf("GetToolDefinitions returned %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := toolsByName()
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be declared
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %q not in properties", r)
				}
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_SetControlNames(t *testing.T) {
	tool, ok := toolsByName()["starfinder_set_control"]
	if !ok {
		t.Fatal("starfinder_set_control tool not found")
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	nameProp, ok := props["name"].(map[string]interface{})
	if !ok {
		t.Fatal("name property should exist and be a map")
	}
	enum, ok := nameProp["enum"].([]string)
	if !ok {
		t.Fatal("name should have enum")
	}
	if len(enum) != 2 || enum[0] != "radius" || enum[1] != "threshold_multiplier" {
		t.Errorf("name enum: got %v", enum)
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]float64{
		"starfinder_detect":      {"threshold_multiplier": 3},
		"starfinder_render":      {"radius": 5, "threshold_multiplier": 3},
		"starfinder_save_render": {"radius": 5, "threshold_multiplier": 3},
	}

	toolMap := toolsByName()
	for toolName, expectedDefaults := range toolDefaults {
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})

		for paramName, expected := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}
			actual, ok := param["default"].(float64)
			if !ok || actual != expected {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, param["default"], expected)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expectedTools))
	}
}
