package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func outputDirProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional directory for tables and graph files. Nothing is written when omitted.",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "shape_graphs",
			Description: "Build a visibility graph for every object in one or more binary images and report " +
				"complexity, area, perimeter and circularity per object. Graph numbers continue across files.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of binary images (exactly two grey levels, brighter is foreground)",
					},
					"node_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Contour pixels between graph nodes. Derived from the configured resolution when omitted.",
						"minimum":     1,
					},
					"output_dir": outputDirProperty(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name: "pavement_cells",
			Description: "Measure the cells of a membrane skeleton: lobes, necks, tri-cellular junctions, complexity " +
				"and circularity per cell, plus lobe lengths and neck widths. Give either a skeleton image or the " +
				"output directory of an earlier run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"skeleton_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of a one-pixel-wide membrane skeleton",
					},
					"thin": map[string]interface{}{
						"type":        "boolean",
						"description": "Threshold skeleton_path at mid grey and thin it first; set when it is a membrane image rather than a skeleton",
						"default":     false,
					},
					"artifacts_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding skeleton.png and branchlessSkeleton.png from an earlier run",
					},
					"resolution": map[string]interface{}{
						"type":        "number",
						"description": "Length units per pixel. Defaults to the configured resolution.",
					},
					"output_dir": outputDirProperty(),
				},
			},
		},
		{
			Name: "compare_graphs",
			Description: "Compare every graph of one or more stored graph collections by the Kolmogorov-Smirnov " +
				"distance of their normalised Laplacian spectra. Optionally adds a PCA projection and a " +
				"complete-linkage dendrogram.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"collections": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path":  map[string]interface{}{"type": "string", "description": "Absolute path of a .gvc collection"},
								"label": map[string]interface{}{"type": "string", "description": "Optional group label"},
								"color": map[string]interface{}{"type": "string", "description": "Optional group colour, e.g. #0077bb"},
							},
							"required": []string{"path"},
						},
						"description": "Collections in row order; at most 200 graphs in total",
					},
					"pca": map[string]interface{}{
						"type":    "boolean",
						"default": false,
					},
					"dendrogram": map[string]interface{}{
						"type":    "boolean",
						"default": false,
					},
					"output_dir": outputDirProperty(),
				},
				"required": []string{"collections"},
			},
		},
		{
			Name:        "graph_collection_info",
			Description: "List the graphs stored in a .gvc collection file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the collection",
					},
				},
				"required": []string{"path"},
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
