package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expected := []string{"shape_graphs", "pavement_cells", "compare_graphs", "graph_collection_info"}
	if len(tools) != len(expected) {
		t.Fatalf("got %d tools, want %d", len(tools), len(expected))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range expected {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema has no properties")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required property %s is not defined", r)
				}
			}
		})
	}
}
