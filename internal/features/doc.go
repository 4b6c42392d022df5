// Package features measures shape descriptors on a visibility graph.
//
// Closeness centrality of the nodes, read around the outline, rises at
// indentations and falls towards protrusions: its local minima mark lobes
// and its local maxima necks. Around these the package derives lobe length,
// neck width, junction correlation, visibility-graph complexity and
// circularity.
package features
