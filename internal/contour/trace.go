package contour

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

var (
	// ErrTouchesBorder means the shape reaches the raster edge.
	ErrTouchesBorder = errors.New("shape touches the image border")
	// ErrUntraceable means the walk ran out of time or did not cover the ring.
	ErrUntraceable = errors.New("contour could not be traced")
	// ErrTopologyDefect means the walk met a configuration it cannot resolve.
	ErrTopologyDefect = errors.New("contour has a topology defect")
)

// DefaultTimeout bounds the wall-clock time of a single trace.
const DefaultTimeout = 120 * time.Second

type cell uint8

const (
	cellOther cell = iota
	cellBoundary
	cellShape
)

type move int

const (
	moveRight move = iota
	moveUp
	moveDown
	moveLeft
)

var moveOffsets = [...]image.Point{
	moveRight: {X: 1, Y: 0},
	moveUp:    {X: 0, Y: -1},
	moveDown:  {X: 0, Y: 1},
	moveLeft:  {X: -1, Y: 0},
}

// Window corners, as offsets from the window's top-left pixel.
var (
	nw = image.Point{X: 0, Y: 0}
	ne = image.Point{X: 1, Y: 0}
	sw = image.Point{X: 0, Y: 1}
	se = image.Point{X: 1, Y: 1}
)

type step struct {
	move move
	next []image.Point
}

// steps maps the occupancy of a 2x2 window (bit 0 NW, 1 NE, 2 SW, 3 SE) to
// the direction the window moves and the corners whose boundary pixels join
// the path, in order. A fully occupied window has no entry.
var steps = map[uint8]step{
	0:  {moveRight, nil},
	1:  {moveUp, nil},
	2:  {moveRight, nil},
	4:  {moveLeft, nil},
	8:  {moveDown, nil},
	3:  {moveRight, []image.Point{ne}},
	5:  {moveUp, []image.Point{nw}},
	6:  {moveLeft, []image.Point{sw}},
	9:  {moveUp, []image.Point{nw}},
	10: {moveDown, []image.Point{se}},
	12: {moveLeft, []image.Point{sw}},
	7:  {moveRight, []image.Point{nw, ne}},
	11: {moveDown, []image.Point{ne, se}},
	13: {moveUp, []image.Point{sw, nw}},
	14: {moveLeft, []image.Point{se, sw}},
}

// Candidates returns the background pixels 4-adjacent to the shape, in the
// order they are met when scanning the shape row-major and probing above,
// left, right and below each shape pixel. Shape pixels on the raster edge are
// returned themselves since they have no outside neighbour.
func Candidates(shape *raster.Mask) []image.Point {
	seen := make(map[image.Point]bool)
	var ring []image.Point
	add := func(p image.Point) {
		if !seen[p] {
			seen[p] = true
			ring = append(ring, p)
		}
	}

	probe := []image.Point{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	for _, p := range shape.Points() {
		if shape.OnBorder(p.X, p.Y) {
			add(p)
			continue
		}
		for _, o := range probe {
			q := p.Add(o)
			if !shape.At(q.X, q.Y) {
				add(q)
			}
		}
	}
	return ring
}

// Trace returns the closed boundary path of shape.
//
// The path visits every boundary candidate exactly once, consecutive pixels
// are 8-adjacent, it runs clockwise on screen and it starts at the rightmost
// candidate (the first one met when several share that column). A timeout of
// zero means DefaultTimeout.
func Trace(shape *raster.Mask, timeout time.Duration) ([]image.Point, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ring := Candidates(shape)
	if len(ring) == 0 {
		return nil, fmt.Errorf("%w: empty shape", ErrUntraceable)
	}
	for _, p := range ring {
		if shape.OnBorder(p.X, p.Y) {
			return nil, ErrTouchesBorder
		}
	}

	path, err := walk(shape, ring, time.Now().Add(timeout))
	if err != nil {
		return nil, err
	}
	return canonical(path, rightmost(ring)), nil
}

func rightmost(ring []image.Point) image.Point {
	best := ring[0]
	for _, p := range ring[1:] {
		if p.X > best.X {
			best = p
		}
	}
	return best
}

// walk runs the marching-squares window around the ring. The number of
// window moves is bounded by a multiple of the ring length: on a well-formed
// ring every move either consumes a pixel or rounds a corner.
func walk(shape *raster.Mask, ring []image.Point, deadline time.Time) ([]image.Point, error) {
	remaining := make(map[image.Point]bool, len(ring))
	for _, p := range ring {
		remaining[p] = true
	}
	visited := make(map[image.Point]bool, len(ring))
	path := make([]image.Point, 0, len(ring))

	cellAt := func(p image.Point) cell {
		switch {
		case shape.At(p.X, p.Y):
			return cellShape
		case remaining[p] || visited[p]:
			return cellBoundary
		}
		return cellOther
	}

	maxSteps := 8*len(ring) + 16
	cur := rightmost(ring)
	for n := 0; len(remaining) > 0; n++ {
		if n >= maxSteps {
			return nil, fmt.Errorf("%w: walk exceeded %d steps", ErrTopologyDefect, maxSteps)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: timed out after %d pixels", ErrUntraceable, len(path))
		}
		if !shape.In(cur.X, cur.Y) || !shape.In(cur.X+1, cur.Y+1) {
			return nil, fmt.Errorf("%w: window left the raster at %v", ErrTopologyDefect, cur)
		}

		var key uint8
		for bit, corner := range []image.Point{nw, ne, sw, se} {
			if cellAt(cur.Add(corner)) != cellOther {
				key |= 1 << bit
			}
		}
		st, ok := steps[key]
		if !ok {
			return nil, fmt.Errorf("%w: saturated window at %v", ErrTopologyDefect, cur)
		}

		closed := false
		for _, corner := range st.next {
			p := cur.Add(corner)
			if visited[p] {
				closed = true
				break
			}
			if remaining[p] {
				delete(remaining, p)
				visited[p] = true
				path = append(path, p)
			}
		}
		if closed {
			break
		}
		cur = cur.Add(moveOffsets[st.move])
	}

	if len(path) != len(ring) {
		return nil, fmt.Errorf("%w: covered %d of %d boundary pixels", ErrUntraceable, len(path), len(ring))
	}
	return path, nil
}

// canonical orients the path clockwise on screen and rotates it to begin at
// start.
func canonical(path []image.Point, start image.Point) []image.Point {
	out := make([]image.Point, len(path))
	copy(out, path)
	if SignedArea(out) < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	for i, p := range out {
		if p == start {
			rotated := make([]image.Point, 0, len(out))
			rotated = append(rotated, out[i:]...)
			return append(rotated, out[:i]...)
		}
	}
	return out
}

// SignedArea is twice the shoelace area of the closed path. With Y growing
// downward a positive value means the path runs clockwise on screen.
func SignedArea(path []image.Point) int {
	s := 0
	for i, p := range path {
		q := path[(i+1)%len(path)]
		s += p.X*q.Y - q.X*p.Y
	}
	return s
}
