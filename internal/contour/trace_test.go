package contour

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

func block(w, h, x0, y0, x1, y1 int) *raster.Mask {
	m := raster.NewMask(w, h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// discs marks every pixel within r of any of the centres.
func discs(w, h int, r float64, centres ...image.Point) *raster.Mask {
	m := raster.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, c := range centres {
				if math.Hypot(float64(x-c.X), float64(y-c.Y)) <= r {
					m.Set(x, y, true)
					break
				}
			}
		}
	}
	return m
}

func checkClosedPath(t *testing.T, shape *raster.Mask, path []image.Point) {
	t.Helper()
	ring := Candidates(shape)
	if len(path) != len(ring) {
		t.Fatalf("path has %d pixels, ring has %d", len(path), len(ring))
	}

	seen := make(map[image.Point]bool)
	for i, p := range path {
		if seen[p] {
			t.Errorf("pixel %v visited twice", p)
		}
		seen[p] = true
		if shape.At(p.X, p.Y) {
			t.Errorf("path pixel %v lies inside the shape", p)
		}

		q := path[(i+1)%len(path)]
		d := q.Sub(p)
		if d.X < -1 || d.X > 1 || d.Y < -1 || d.Y > 1 || d == (image.Point{}) {
			t.Errorf("pixels %v and %v are not 8-adjacent", p, q)
		}
	}

	if SignedArea(path) <= 0 {
		t.Errorf("path is not clockwise, signed area %d", SignedArea(path))
	}
	maxX := path[0].X
	for _, p := range path {
		if p.X > maxX {
			t.Errorf("path starts at %v but %v lies further right", path[0], p)
		}
	}
}

func TestCandidates_Square(t *testing.T) {
	shape := block(7, 7, 2, 2, 4, 4)
	ring := Candidates(shape)
	if len(ring) != 12 {
		t.Fatalf("len = %d, want 12", len(ring))
	}
	if ring[0] != (image.Point{X: 2, Y: 1}) {
		t.Errorf("first candidate = %v, want (2,1)", ring[0])
	}
}

func TestTrace_Square(t *testing.T) {
	shape := block(7, 7, 2, 2, 4, 4)
	path, err := Trace(shape, time.Second)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	checkClosedPath(t, shape, path)

	want := []image.Point{{X: 5, Y: 2}, {X: 5, Y: 3}, {X: 5, Y: 4}, {X: 4, Y: 5}}
	for i, p := range want {
		if path[i] != p {
			t.Errorf("path[%d] = %v, want %v", i, path[i], p)
		}
	}
}

func TestTrace_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		shape *raster.Mask
	}{
		{"rectangle", block(12, 9, 3, 2, 8, 5)},
		{"single pixel", block(5, 5, 2, 2, 2, 2)},
		{"disc", discs(20, 20, 6, image.Pt(9, 10))},
		{"two discs", discs(30, 22, 6, image.Pt(10, 11), image.Pt(16, 10))},
		{
			"l shape",
			raster.MaskFromRows(
				"..........",
				"..........",
				"..##......",
				"..##......",
				"..#####...",
				"..#####...",
				"..........",
				"..........",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := Trace(tt.shape, 0)
			if err != nil {
				t.Fatalf("Trace: %v", err)
			}
			checkClosedPath(t, tt.shape, path)
		})
	}
}

func TestTrace_Errors(t *testing.T) {
	tests := []struct {
		name  string
		shape *raster.Mask
		want  error
	}{
		{"touches border", block(6, 6, 0, 2, 3, 3), ErrTouchesBorder},
		{"ring next to border", block(6, 6, 1, 2, 3, 3), ErrTouchesBorder},
		{"empty", raster.NewMask(5, 5), ErrUntraceable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Trace(tt.shape, time.Second)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignedArea(t *testing.T) {
	cw := []image.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
	if SignedArea(cw) != 8 {
		t.Errorf("SignedArea = %d, want 8", SignedArea(cw))
	}
}
