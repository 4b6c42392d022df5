package visgraph

import (
	"errors"
	"image"
	"math"
	"testing"

	"gonum.org/v1/gonum/graph"
)

func pts(xy ...int) []image.Point {
	out := make([]image.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, image.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestPixelDistance(t *testing.T) {
	tests := []struct {
		name       string
		resolution float64
		want       int
		wantErr    bool
	}{
		{"unit resolution", 1, 2, false},
		{"coarse", 0.1, 15, false},
		{"fine clamps to one", 10, 1, false},
		{"zero", 0, 0, true},
		{"negative", -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PixelDistance(tt.resolution)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSpacing) {
					t.Errorf("err = %v, want ErrInvalidSpacing", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PixelDistance(%v) = %d, want %d", tt.resolution, got, tt.want)
			}
		})
	}
}

func TestSample(t *testing.T) {
	contour := make([]image.Point, 12)
	for i := range contour {
		contour[i] = image.Point{X: i, Y: 0}
	}

	nodes, err := Sample(contour, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := pts(0, 0, 3, 0, 6, 0, 9, 0)
	if len(nodes) != len(want) {
		t.Fatalf("nodes = %v, want %v", nodes, want)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Errorf("nodes[%d] = %v, want %v", i, nodes[i], want[i])
		}
	}

	if _, err := Sample(contour, 5); !errors.Is(err, ErrDegenerateContour) {
		t.Errorf("two nodes: err = %v, want ErrDegenerateContour", err)
	}
	if _, err := Sample(contour, 0); !errors.Is(err, ErrInvalidSpacing) {
		t.Errorf("zero spacing: err = %v, want ErrInvalidSpacing", err)
	}
}

func TestBuild_Square(t *testing.T) {
	g, err := Build(pts(0, 0, 10, 0, 10, 10, 0, 10))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NumNodes() != 4 || g.NumEdges() != 6 {
		t.Fatalf("got %d nodes %d edges, want complete graph on 4", g.NumNodes(), g.NumEdges())
	}

	w, ok := g.Weight(0, 2)
	if !ok || math.Abs(w-math.Sqrt(200)) > 1e-9 {
		t.Errorf("diagonal weight = %v (%v), want %v", w, ok, math.Sqrt(200))
	}
	w, _ = g.Weight(1, 0)
	if w != 10 {
		t.Errorf("side weight = %v, want 10", w)
	}
}

func TestBuild_Concave(t *testing.T) {
	// L-shaped polygon with its notch at the lower right.
	g, err := Build(pts(0, 0, 10, 0, 10, 5, 5, 5, 5, 10, 0, 10))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		name string
		a, b int
		want bool
	}{
		{"side", 0, 1, true},
		{"interior diagonal", 0, 3, true},
		{"through the notch vertex", 1, 5, true},
		{"across the notch", 2, 4, false},
		{"clips the notch", 1, 4, false},
		{"mirror clip", 2, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.HasEdge(tt.a, tt.b); got != tt.want {
				t.Errorf("HasEdge(%d,%d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if g.HasEdge(tt.a, tt.b) != g.HasEdge(tt.b, tt.a) {
				t.Error("edge set is not symmetric")
			}
		})
	}
}

func TestBuild_Degenerate(t *testing.T) {
	if _, err := Build(pts(0, 0, 5, 5)); !errors.Is(err, ErrDegenerateContour) {
		t.Errorf("err = %v, want ErrDegenerateContour", err)
	}
	if _, err := Build(pts(0, 0, 10, 10, 10, 0, 0, 10)); !errors.Is(err, ErrInvalidPolygon) {
		t.Errorf("bow tie: err = %v, want ErrInvalidPolygon", err)
	}
}

func TestGraph_Edges(t *testing.T) {
	g := New(pts(0, 0, 3, 4, 6, 0))
	g.AddEdge(2, 0)
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	g.AddEdge(1, 1)

	edges := g.Edges()
	if len(edges) != 2 || g.NumEdges() != 2 {
		t.Fatalf("edges = %v", edges)
	}
	if edges[0] != (Edge{A: 0, B: 1, Weight: 5}) {
		t.Errorf("edges[0] = %+v", edges[0])
	}
	if edges[1] != (Edge{A: 0, B: 2, Weight: 6}) {
		t.Errorf("edges[1] = %+v", edges[1])
	}
	if g.Degree(0) != 2 || g.Degree(1) != 1 {
		t.Errorf("degrees = %d, %d", g.Degree(0), g.Degree(1))
	}
}

func TestGraph_Gonum(t *testing.T) {
	g := New(pts(0, 0, 3, 4, 6, 0))
	g.AddEdge(0, 1)

	var u graph.Undirected = g.Gonum()
	if e := u.EdgeBetween(1, 0); e == nil {
		t.Fatal("EdgeBetween(1, 0) = nil, want the 0-1 edge")
	}
	if e := u.EdgeBetween(0, 2); e != nil {
		t.Errorf("EdgeBetween(0, 2) = %v, want nil", e)
	}
	if w, ok := g.Gonum().Weight(0, 1); !ok || w != 5 {
		t.Errorf("Weight(0, 1) = %v, %v; want 5, true", w, ok)
	}
}
