package skeleton

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

// gapBands are the distance band edges, in pixels, used to group endpoint
// pairs. Only pairs in band 1 ([1, 10) pixels) are bridge candidates.
var gapBands = []float64{0, 1, 10, 20, 50, 100, 500, 1000, math.Inf(1)}

const (
	bridgeBand = 1

	// maxAngleSpread is the largest disagreement, in degrees, tolerated
	// between the two endpoint directions and the bridging segment.
	maxAngleSpread = 20.0

	// angleRadius is the half-size of the window used to estimate the
	// direction a skeleton arm arrives at an endpoint.
	angleRadius = 5
)

// RepairGaps bridges short breaks in a skeleton.
//
// Two endpoints are joined with a straight line when they are less than ten
// pixels apart, no lit pixel lies strictly between them, and the directions of
// both arms agree with the joining segment to within 20 degrees. Bridging can
// turn endpoints into ordinary pixels and expose new pairs, so the pass is
// repeated until nothing changes. The input is not modified.
func RepairGaps(sk *raster.Mask) *raster.Mask {
	out := sk.Clone()
	for repairPass(out) {
	}
	return out
}

func repairPass(out *raster.Mask) bool {
	nodes := Classify(out)
	ends := nodes.Endpoints()
	painted := raster.NewMask(out.Width, out.Height)
	changed := false

	for i := 1; i < len(ends); i++ {
		for j := 0; j < i; j++ {
			if band(distance(ends[i], ends[j])) != bridgeBand {
				continue
			}
			line, ok := nodes.bridge(ends[i], ends[j])
			if !ok || touchesPainted(line, painted) {
				continue
			}
			for _, p := range line {
				if !out.At(p.X, p.Y) {
					out.Set(p.X, p.Y, true)
					painted.Set(p.X, p.Y, true)
					changed = true
				}
			}
		}
	}
	return changed
}

// touchesPainted reports whether an inner pixel of line lies on or next to a
// bridge already drawn in this pass. The classification the pass works from
// does not see those bridges.
func touchesPainted(line []image.Point, painted *raster.Mask) bool {
	for _, p := range line[1 : len(line)-1] {
		if painted.At(p.X, p.Y) {
			return true
		}
		for _, o := range raster.Eight.Offsets() {
			if q := p.Add(o); painted.At(q.X, q.Y) {
				return true
			}
		}
	}
	return false
}

func band(d float64) int {
	for i := 0; i < len(gapBands)-1; i++ {
		if d >= gapBands[i] && d < gapBands[i+1] {
			return i
		}
	}
	return len(gapBands) - 2
}

// bridge returns the pixels of the segment a-b when the gap may be closed.
func (n *NodeMap) bridge(a, b image.Point) ([]image.Point, bool) {
	line := Line(a, b)
	for _, p := range line[1 : len(line)-1] {
		if n.At(p.X, p.Y) != Background {
			return nil, false
		}
	}

	angles := []float64{n.armAngle(a), n.armAngle(b), orientation(a, b)}
	lo, hi := angles[0], angles[0]
	for _, v := range angles[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo >= maxAngleSpread {
		return nil, false
	}
	return line, true
}

// armAngle estimates the direction of the skeleton arm ending at e. The
// reference pixel is the nearest crossing on the same arm within the window,
// or failing that the farthest plain skeleton pixel. An arm with neither
// reads as 0 degrees.
func (n *NodeMap) armAngle(e image.Point) float64 {
	arm := n.armNear(e, angleRadius)

	var ref image.Point
	found := false
	best := math.Inf(1)
	for _, p := range arm {
		if n.At(p.X, p.Y) != Crossing {
			continue
		}
		if d := distance(p, e); d < best {
			best, ref, found = d, p, true
		}
	}
	if !found {
		best = -1
		for _, p := range arm {
			if n.At(p.X, p.Y) != Skeleton {
				continue
			}
			if d := distance(p, e); d > best {
				best, ref, found = d, p, true
			}
		}
	}
	if !found {
		return 0
	}
	return orientation(ref, e)
}

// armNear returns the lit pixels 8-connected to e inside the square window of
// the given radius, in row-major order.
func (n *NodeMap) armNear(e image.Point, radius int) []image.Point {
	win := image.Rect(e.X-radius, e.Y-radius, e.X+radius+1, e.Y+radius+1)
	seen := map[image.Point]bool{e: true}
	stack := []image.Point{e}
	arm := []image.Point{e}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, o := range raster.Eight.Offsets() {
			q := p.Add(o)
			if seen[q] || !q.In(win) || n.At(q.X, q.Y) == Background {
				continue
			}
			seen[q] = true
			arm = append(arm, q)
			stack = append(stack, q)
		}
	}

	sort.Slice(arm, func(i, j int) bool {
		if arm[i].Y != arm[j].Y {
			return arm[i].Y < arm[j].Y
		}
		return arm[i].X < arm[j].X
	})
	return arm
}

// orientation returns the undirected direction of segment a-b in degrees.
// The vector is taken from the lower pixel to the upper one so that both
// ends of a segment agree.
func orientation(a, b image.Point) float64 {
	var d image.Point
	if b.Y < a.Y {
		d = b.Sub(a)
	} else {
		d = a.Sub(b)
	}
	return angle180(float64(d.X), float64(d.Y))
}

// angle180 folds the direction of (dx, dy) into the range [0, 270) with the
// lower quadrant mirrored so collinear vectors compare equal.
func angle180(dx, dy float64) float64 {
	a := math.Mod(math.Atan2(-dx, -dy)*180/math.Pi+360, 360)
	if a >= 270 {
		a = 360 - a
	}
	return a
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// Line returns the Bresenham rasterisation of the segment a-b, endpoints
// included, ordered from a to b.
func Line(a, b image.Point) []image.Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	pts := make([]image.Point, 0, max(dx, -dy)+1)
	err := dx + dy
	p := a
	for {
		pts = append(pts, p)
		if p == b {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
