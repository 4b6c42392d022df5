package skeleton

import (
	"image"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

// State is the role of a pixel in a classified skeleton. The numeric values
// are ordered so that neighbourhood sums distinguish spur tips from pixels
// touching a crossing.
type State uint8

const (
	Background State = iota
	Skeleton
	Crossing
	Endpoint
	Tracked
)

func (s State) String() string {
	switch s {
	case Background:
		return "background"
	case Skeleton:
		return "skeleton"
	case Crossing:
		return "crossing"
	case Endpoint:
		return "endpoint"
	case Tracked:
		return "tracked"
	}
	return "unknown"
}

// NodeMap overlays a State on every pixel of a skeleton raster.
type NodeMap struct {
	Width  int
	Height int
	State  []State
}

func newNodeMap(sk *raster.Mask) *NodeMap {
	n := &NodeMap{
		Width:  sk.Width,
		Height: sk.Height,
		State:  make([]State, len(sk.Pix)),
	}
	for i, v := range sk.Pix {
		if v {
			n.State[i] = Skeleton
		}
	}
	return n
}

// Classify marks every lit pixel of sk as Skeleton, Endpoint or Crossing.
//
// A pixel whose lit neighbours form zero or one 4-connected group is an
// endpoint; three or four groups make a crossing. With exactly two groups the
// pixel is still a crossing when those neighbours are 8-connected and no
// crossing has been marked next to it yet, which catches diagonal branch
// points. Pixels are visited in row-major order, so the result is
// deterministic.
func Classify(sk *raster.Mask) *NodeMap {
	n := newNodeMap(sk)
	n.classify()
	return n
}

// classify reclassifies pixels currently in the Skeleton state. Other states
// are left alone but still count as lit neighbours.
func (n *NodeMap) classify() {
	for y := 0; y < n.Height; y++ {
		for x := 0; x < n.Width; x++ {
			if n.State[y*n.Width+x] != Skeleton {
				continue
			}
			w := n.window(x, y)
			switch c := components(w, raster.Four); {
			case c <= 1:
				n.State[y*n.Width+x] = Endpoint
			case c >= 3:
				n.State[y*n.Width+x] = Crossing
			default:
				if !n.touches(x, y, Crossing) && components(w, raster.Eight) == 1 {
					n.State[y*n.Width+x] = Crossing
				}
			}
		}
	}
}

// At returns the state at (x, y); outside the raster is Background.
func (n *NodeMap) At(x, y int) State {
	if x < 0 || y < 0 || x >= n.Width || y >= n.Height {
		return Background
	}
	return n.State[y*n.Width+x]
}

func (n *NodeMap) set(p image.Point, s State) {
	if p.X < 0 || p.Y < 0 || p.X >= n.Width || p.Y >= n.Height {
		return
	}
	n.State[p.Y*n.Width+p.X] = s
}

// Points lists pixels in state s in row-major order.
func (n *NodeMap) Points(s State) []image.Point {
	var pts []image.Point
	for y := 0; y < n.Height; y++ {
		for x := 0; x < n.Width; x++ {
			if n.State[y*n.Width+x] == s {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// Endpoints lists the endpoint pixels.
func (n *NodeMap) Endpoints() []image.Point { return n.Points(Endpoint) }

// Crossings lists the crossing pixels.
func (n *NodeMap) Crossings() []image.Point { return n.Points(Crossing) }

// Count returns how many pixels are in state s.
func (n *NodeMap) Count(s State) int {
	c := 0
	for _, v := range n.State {
		if v == s {
			c++
		}
	}
	return c
}

// Mask returns every non-background pixel as a mask.
func (n *NodeMap) Mask() *raster.Mask {
	m := raster.NewMask(n.Width, n.Height)
	for i, v := range n.State {
		m.Pix[i] = v != Background
	}
	return m
}

// window returns the lit 8-neighbourhood of (x, y) with the centre cleared.
func (n *NodeMap) window(x, y int) [3][3]bool {
	var w [3][3]bool
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			w[dy+1][dx+1] = n.At(x+dx, y+dy) != Background
		}
	}
	return w
}

// touches reports whether any 8-neighbour of (x, y) is in state s.
func (n *NodeMap) touches(x, y int, s State) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && n.At(x+dx, y+dy) == s {
				return true
			}
		}
	}
	return false
}

// components counts connected groups of lit cells inside a 3x3 window.
func components(w [3][3]bool, conn raster.Connectivity) int {
	var seen [3][3]bool
	count := 0
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if !w[r][c] || seen[r][c] {
				continue
			}
			count++
			stack := []image.Point{{X: c, Y: r}}
			seen[r][c] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, o := range conn.Offsets() {
					q := p.Add(o)
					if q.X < 0 || q.Y < 0 || q.X > 2 || q.Y > 2 {
						continue
					}
					if w[q.Y][q.X] && !seen[q.Y][q.X] {
						seen[q.Y][q.X] = true
						stack = append(stack, q)
					}
				}
			}
		}
	}
	return count
}
