package features

import (
	"image"

	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// JunctionSet is a read-only collection of junction pixels shared by every
// shape of an image.
type JunctionSet struct {
	points []image.Point
	index  map[image.Point]struct{}
}

// NewJunctionSet copies pts into a set, keeping their order.
func NewJunctionSet(pts []image.Point) *JunctionSet {
	s := &JunctionSet{index: make(map[image.Point]struct{}, len(pts))}
	for _, p := range pts {
		if _, dup := s.index[p]; dup {
			continue
		}
		s.index[p] = struct{}{}
		s.points = append(s.points, p)
	}
	return s
}

// Len returns the number of junctions; a nil set is empty.
func (s *JunctionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Points returns a copy of the junctions.
func (s *JunctionSet) Points() []image.Point {
	if s == nil {
		return nil
	}
	return append([]image.Point(nil), s.points...)
}

// OnContour returns the junctions lying on the contour or one pixel off it
// in any direction.
func (s *JunctionSet) OnContour(contour []image.Point) []image.Point {
	if s.Len() == 0 {
		return nil
	}
	on := make(map[image.Point]struct{}, len(contour))
	for _, p := range contour {
		on[p] = struct{}{}
	}
	var out []image.Point
	for _, j := range s.points {
		if _, ok := firstOffset(j, nearSteps, func(q image.Point) bool {
			_, hit := on[q]
			return hit
		}); ok {
			out = append(out, j)
		}
	}
	return out
}

var (
	nearSteps        = []int{0, 1, -1}
	correlationSteps = []int{0, 1, -1, 2, -2, 3, -3}
)

// firstOffset probes p shifted by every pair of steps, vertical step in the
// outer loop, and returns the first shifted point accepted by hit.
func firstOffset(p image.Point, steps []int, hit func(image.Point) bool) (image.Point, bool) {
	for _, dy := range steps {
		for _, dx := range steps {
			q := image.Point{X: p.X + dx, Y: p.Y + dy}
			if hit(q) {
				return q, true
			}
		}
	}
	return image.Point{}, false
}

// CorrelateJunctions matches each junction to a lobe or neck node within
// three pixels, preferring the smallest shift, and returns the matched node
// ids in junction order. Junctions with no nearby lobe or neck are dropped.
func CorrelateJunctions(g *visgraph.Graph, lobes, necks []int, junctions []image.Point) []int {
	byPos := make(map[image.Point]int, len(lobes)+len(necks))
	for _, group := range [][]int{lobes, necks} {
		for _, id := range group {
			if _, dup := byPos[g.Position(id)]; !dup {
				byPos[g.Position(id)] = id
			}
		}
	}
	if len(byPos) == 0 {
		return nil
	}

	var out []int
	for _, j := range junctions {
		q, ok := firstOffset(j, correlationSteps, func(q image.Point) bool {
			_, hit := byPos[q]
			return hit
		})
		if ok {
			out = append(out, byPos[q])
		}
	}
	return out
}
