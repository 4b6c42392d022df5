package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	humanize "github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/gravis-mcp/internal/pipeline"
	"github.com/ironsheep/gravis-mcp/internal/store"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shape_graphs").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "shape_graphs":
		return s.handleShapeGraphs(ctx, args)
	case "pavement_cells":
		return s.handlePavementCells(ctx, args)
	case "compare_graphs":
		return s.handleCompareGraphs(ctx, args)
	case "graph_collection_info":
		return s.handleGraphCollectionInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// options starts from the server configuration.
func (s *Server) options(outputDir string) pipeline.Options {
	opts := pipeline.OptionsFrom(s.cfg)
	opts.OutputDir = outputDir
	return opts
}

// === Graph construction handlers ===

type shapeGraphsArgs struct {
	Paths       []string `json:"paths"`
	NodeSpacing int      `json:"node_spacing"`
	OutputDir   string   `json:"output_dir"`
}

func (s *Server) handleShapeGraphs(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a shapeGraphsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must name at least one image")
	}
	if a.NodeSpacing < 0 {
		return nil, fmt.Errorf("node_spacing must be positive, got %d", a.NodeSpacing)
	}
	opts := s.options(a.OutputDir)
	if a.NodeSpacing > 0 {
		opts.NodeSpacing = a.NodeSpacing
	}
	return pipeline.Shapes(ctx, s.cache, a.Paths, opts)
}

type pavementCellsArgs struct {
	SkeletonPath string  `json:"skeleton_path"`
	Thin         bool    `json:"thin"`
	ArtifactsDir string  `json:"artifacts_dir"`
	Resolution   float64 `json:"resolution"`
	OutputDir    string  `json:"output_dir"`
}

func (s *Server) handlePavementCells(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pavementCellsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if (a.SkeletonPath == "") == (a.ArtifactsDir == "") {
		return nil, errors.New("give exactly one of skeleton_path or artifacts_dir")
	}
	opts := s.options(a.OutputDir)
	if a.Resolution != 0 {
		opts.Resolution = a.Resolution
	}

	if a.ArtifactsDir != "" {
		return pipeline.CellsFromArtifacts(ctx, s.cache, a.ArtifactsDir, opts)
	}
	load := s.cache.LoadMask
	if a.Thin {
		load = s.cache.LoadMembrane
	}
	skel, err := load(a.SkeletonPath)
	if err != nil {
		return nil, err
	}
	return pipeline.Cells(ctx, skel, opts)
}

// === Comparison handlers ===

type compareGraphsArgs struct {
	Collections []pipeline.CollectionInput `json:"collections"`
	PCA         bool                       `json:"pca"`
	Dendrogram  bool                       `json:"dendrogram"`
	OutputDir   string                     `json:"output_dir"`
}

// compareGraphsResult adds the matrix itself, which the pipeline result
// only carries as a gonum matrix.
type compareGraphsResult struct {
	Distances [][]float64 `json:"distances"`
	*pipeline.CompareResult
}

func (s *Server) handleCompareGraphs(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a compareGraphsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Collections) == 0 {
		return nil, errors.New("collections must name at least one file")
	}
	copts := pipeline.CompareOptions{PCA: a.PCA, Dendrogram: a.Dendrogram}
	res, err := pipeline.Compare(ctx, a.Collections, copts, s.options(a.OutputDir))
	if err != nil {
		return nil, err
	}
	return compareGraphsResult{Distances: rows(res.Matrix), CompareResult: res}, nil
}

func rows(d mat.Matrix) [][]float64 {
	r, c := d.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, d)
	}
	return out
}

type graphCollectionInfoArgs struct {
	Path string `json:"path"`
}

type graphSummary struct {
	Index     int    `json:"index"`
	Label     string `json:"label,omitempty"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
	Perimeter int    `json:"perimeter"`
}

type collectionInfo struct {
	Name   string         `json:"name"`
	Size   string         `json:"size"`
	Graphs []graphSummary `json:"graphs"`
}

func (s *Server) handleGraphCollectionInfo(args json.RawMessage) (interface{}, error) {
	var a graphCollectionInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := store.ReadCollection(a.Path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(a.Path)
	if err != nil {
		return nil, err
	}

	info := collectionInfo{
		Name:   c.Name,
		Size:   humanize.Bytes(uint64(fi.Size())),
		Graphs: make([]graphSummary, 0, len(c.Graphs)),
	}
	for _, g := range c.Graphs {
		info.Graphs = append(info.Graphs, graphSummary{
			Index:     g.Index,
			Label:     g.Label,
			Nodes:     len(g.Nodes),
			Edges:     len(g.Edges),
			Perimeter: len(g.Contour),
		})
	}
	return info, nil
}
