package raster

import "image"

// Connectivity selects which neighbours join a region.
type Connectivity int

const (
	// Four joins pixels sharing an edge.
	Four Connectivity = 4
	// Eight also joins pixels sharing only a corner.
	Eight Connectivity = 8
)

var (
	offsets4 = []image.Point{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	offsets8 = []image.Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
	}
)

// Offsets returns the neighbour offsets for the connectivity.
func (c Connectivity) Offsets() []image.Point {
	if c == Four {
		return offsets4
	}
	return offsets8
}

// Labels assigns a region id to every foreground pixel of a mask. Id 0 is
// background; regions are numbered 1..Count in the order their first pixel is
// met in a row-major scan.
type Labels struct {
	Width  int
	Height int
	Pix    []int
	Count  int
}

// Label finds the connected regions of m.
//
// Each region is grown with an explicit stack rather than recursion so that
// large regions cannot overflow the goroutine stack.
func Label(m *Mask, conn Connectivity) *Labels {
	l := &Labels{
		Width:  m.Width,
		Height: m.Height,
		Pix:    make([]int, len(m.Pix)),
	}
	offsets := conn.Offsets()

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] || l.Pix[y*m.Width+x] != 0 {
				continue
			}
			l.Count++
			l.fill(m, x, y, l.Count, offsets)
		}
	}
	return l
}

func (l *Labels) fill(m *Mask, startX, startY, id int, offsets []image.Point) {
	stack := []image.Point{{X: startX, Y: startY}}
	l.Pix[startY*l.Width+startX] = id

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, o := range offsets {
			q := p.Add(o)
			if !m.At(q.X, q.Y) {
				continue
			}
			i := q.Y*l.Width + q.X
			if l.Pix[i] != 0 {
				continue
			}
			l.Pix[i] = id
			stack = append(stack, q)
		}
	}
}

// At returns the label at (x, y), 0 outside the raster.
func (l *Labels) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return l.Pix[y*l.Width+x]
}

// Areas returns the pixel count of every region, indexed by label id.
func (l *Labels) Areas() []int {
	areas := make([]int, l.Count+1)
	for _, v := range l.Pix {
		if v > 0 {
			areas[v]++
		}
	}
	return areas
}

// Bounds returns the bounding rectangle of every region, indexed by label
// id. Entry 0 is empty.
func (l *Labels) Bounds() []image.Rectangle {
	bounds := make([]image.Rectangle, l.Count+1)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			id := l.Pix[y*l.Width+x]
			if id == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if bounds[id].Empty() {
				bounds[id] = px
			} else {
				bounds[id] = bounds[id].Union(px)
			}
		}
	}
	return bounds
}

// Crop returns the pixels of region id inside r as a mask whose origin is
// r.Min. r is clipped to the raster first.
func (l *Labels) Crop(id int, r image.Rectangle) *Mask {
	r = r.Intersect(image.Rect(0, 0, l.Width, l.Height))
	m := NewMask(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if l.Pix[y*l.Width+x] == id {
				m.Pix[(y-r.Min.Y)*m.Width+(x-r.Min.X)] = true
			}
		}
	}
	return m
}
