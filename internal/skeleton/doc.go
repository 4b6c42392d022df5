// Package skeleton reduces a one-pixel-wide membrane skeleton to a closed
// network of cell boundaries.
//
// Every lit pixel is classified as plain skeleton, an endpoint or a
// crossing. Small gaps between collinear endpoints are bridged, dangling
// spurs are either erased or tracked, and the crossings where three cells
// meet are reported as tri-cellular junctions.
package skeleton
