// Package visgraph builds visibility graphs of shape outlines.
//
// The outline is sampled at a fixed node spacing. Two sampled nodes are
// joined when the straight segment between them stays inside the closed
// polygon formed by all nodes, judged from the DE-9IM relation of the
// segment with the polygon. Edges carry their Euclidean length.
package visgraph
