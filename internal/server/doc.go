// Package server implements the MCP (Model Context Protocol) server for
// visibility-graph shape analysis.
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
//   - shape_graphs: graph and describe every object of binary images
//   - pavement_cells: lobe, neck and junction analysis of a membrane skeleton
//   - compare_graphs: spectral distance matrix with optional PCA and dendrogram
//   - graph_collection_info: list the graphs of a stored collection
//
// Tools that take output_dir write the same tables and .gvc collections as
// the batch commands, so a compare_graphs call can consume what an earlier
// shape_graphs or pavement_cells call produced.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Shapes that cannot be graphed do not fail a call; they are reported with a
// note in the result instead.
package server
