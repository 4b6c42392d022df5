package raster

import (
	"errors"
	"image"
)

// ErrEmptyMask is returned when an operation needs at least one lit pixel.
var ErrEmptyMask = errors.New("mask has no foreground pixels")

// Mask is a binary raster stored row-major.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// MaskFromRows builds a mask from strings where '#' (or '1') is foreground
// and anything else is background. Rows shorter than the first are padded.
// It exists mostly to keep synthetic rasters readable.
func MaskFromRows(rows ...string) *Mask {
	if len(rows) == 0 {
		return NewMask(0, 0)
	}
	m := NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x := 0; x < len(row) && x < m.Width; x++ {
			if row[x] == '#' || row[x] == '1' {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// In reports whether (x, y) lies inside the raster.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the pixel value; out-of-range coordinates read as background.
func (m *Mask) At(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set writes a pixel. Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if !m.In(x, y) {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Equal reports whether two masks have the same size and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i, v := range m.Pix {
		if o.Pix[i] != v {
			return false
		}
	}
	return true
}

// Invert returns the complement of the mask.
func (m *Mask) Invert() *Mask {
	c := NewMask(m.Width, m.Height)
	for i, v := range m.Pix {
		c.Pix[i] = !v
	}
	return c
}

// Points lists foreground pixels in row-major scan order.
func (m *Mask) Points() []image.Point {
	var pts []image.Point
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// OnBorder reports whether (x, y) is on the outermost row or column.
func (m *Mask) OnBorder(x, y int) bool {
	return x == 0 || y == 0 || x == m.Width-1 || y == m.Height-1
}

// TouchesBorder reports whether any foreground pixel lies on the raster edge.
func (m *Mask) TouchesBorder() bool {
	for x := 0; x < m.Width; x++ {
		if m.At(x, 0) || m.At(x, m.Height-1) {
			return true
		}
	}
	for y := 0; y < m.Height; y++ {
		if m.At(0, y) || m.At(m.Width-1, y) {
			return true
		}
	}
	return false
}

// Pad returns a copy surrounded by n background pixels on every side.
func (m *Mask) Pad(n int) *Mask {
	if n <= 0 {
		return m.Clone()
	}
	p := NewMask(m.Width+2*n, m.Height+2*n)
	for y := 0; y < m.Height; y++ {
		copy(p.Pix[(y+n)*p.Width+n:(y+n)*p.Width+n+m.Width], m.Pix[y*m.Width:(y+1)*m.Width])
	}
	return p
}
