// Package pipeline runs the shape-to-graph stages end to end.
//
// Pavement mode takes a skeleton of cell membranes, repairs and prunes it,
// labels the enclosed cells, detects tri-cellular junctions once for the
// whole image, and then traces, graphs and measures every cell. Shape mode
// takes binary images of arbitrary objects and graphs every object, numbering
// graphs across all files of a batch. Compare loads stored graph
// collections and summarises their pairwise spectral distances.
//
// Shapes are independent, so each stage fans out over a bounded worker pool
// and writes into pre-sized slices. Per-shape failures (an outline touching
// the image border, an untraceable outline, too few nodes) never abort a run;
// they are logged and kept as a note on the shape's record.
package pipeline
