// Package contour orders the boundary of a single shape into a closed,
// clockwise pixel path.
//
// The boundary is the ring of background pixels 4-adjacent to the shape. A
// 2x2 marching-squares window walks that ring starting from its rightmost
// pixel. Shapes that touch the raster edge, rings the walk cannot cover, and
// walks that exceed their step or time budget are reported through sentinel
// errors so a batch can skip the shape and carry on.
package contour
