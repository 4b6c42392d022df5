package compare

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

func cycle(n int, offset int64) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		a := simple.Node(offset + int64(i))
		b := simple.Node(offset + int64((i+1)%n))
		g.SetEdge(g.NewEdge(a, b))
	}
	return g
}

// nearComplete is K_n with the edge between nodes 0 and 1 removed.
func nearComplete(n int) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if i == 0 && j == 1 {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}
	return g
}

func complete(n int) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}
	return g
}

func edgeless(n int) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	return g
}

func TestSpectrum_Cycle(t *testing.T) {
	got, err := Spectrum(cycle(4, 0))
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	want := []float64{0, 0.5, 0.5, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("spectrum = %v, want %v", got, want)
			break
		}
	}
}

func TestSpectrum_Degenerate(t *testing.T) {
	for name, g := range map[string]graph.Undirected{
		"no edges": edgeless(3),
		"empty":    simple.NewUndirectedGraph(),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Spectrum(g); !errors.Is(err, ErrDegenerateSpectrum) {
				t.Errorf("err = %v, want ErrDegenerateSpectrum", err)
			}
		})
	}
}

func TestSpectralDistance(t *testing.T) {
	same, err := SpectralDistance(cycle(4, 0), cycle(4, 10))
	if err != nil {
		t.Fatal(err)
	}
	if same != 0 {
		t.Errorf("identical cycles: distance = %v, want 0", same)
	}

	far, err := SpectralDistance(cycle(4, 0), nearComplete(20))
	if err != nil {
		t.Fatal(err)
	}
	if far <= same {
		t.Errorf("cycle vs near-complete = %v, not greater than %v", far, same)
	}
	// C4 has 3/4 of its mass at or below 0.5, the near-complete graph 1/20.
	if math.Abs(far-0.7) > 1e-9 {
		t.Errorf("cycle vs near-complete = %v, want 0.7", far)
	}
}

func TestSpectralDistance_TiedEigenvalues(t *testing.T) {
	for _, n := range []int{4, 5, 12} {
		sp, err := Spectrum(complete(n))
		if err != nil {
			t.Fatal(err)
		}
		if sp[0] != 0 {
			t.Errorf("K%d: lowest eigenvalue = %v, want exactly 0", n, sp[0])
		}
		for _, v := range sp[1:] {
			if v != 1 {
				t.Errorf("K%d: spectrum = %v, want 0 then all 1", n, sp)
				break
			}
		}
	}

	// Only the share of zero eigenvalues differs: 1/4 against 1/5.
	d, err := SpectralDistance(complete(4), complete(5))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-0.05) > 1e-12 {
		t.Errorf("K4 vs K5 = %v, want 0.05", d)
	}
}

func TestDistanceMatrix(t *testing.T) {
	graphs := []graph.Undirected{cycle(4, 0), nearComplete(20), cycle(6, 0), cycle(4, 100), nearComplete(8)}
	d, err := DistanceMatrix(context.Background(), graphs, 2)
	if err != nil {
		t.Fatalf("DistanceMatrix: %v", err)
	}
	n := d.SymmetricDim()
	if n != len(graphs) {
		t.Fatalf("dim = %d, want %d", n, len(graphs))
	}
	for i := 0; i < n; i++ {
		if d.At(i, i) != 0 {
			t.Errorf("diagonal [%d] = %v", i, d.At(i, i))
		}
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			if v != d.At(j, i) {
				t.Errorf("asymmetric at (%d,%d)", i, j)
			}
			if v < 0 || v > 1 {
				t.Errorf("entry (%d,%d) = %v outside [0,1]", i, j, v)
			}
		}
	}
	if d.At(0, 3) != 0 {
		t.Errorf("two copies of C4 differ by %v", d.At(0, 3))
	}
	if d.At(0, 1) <= d.At(0, 3) {
		t.Errorf("C4 vs near-complete (%v) should exceed C4 vs C4 (%v)", d.At(0, 1), d.At(0, 3))
	}
}

func TestDistanceMatrix_Errors(t *testing.T) {
	tooMany := make([]graph.Undirected, MaxGraphs+1)
	for i := range tooMany {
		tooMany[i] = cycle(3, 0)
	}

	tests := []struct {
		name   string
		graphs []graph.Undirected
		want   error
	}{
		{"none", nil, ErrNoGraphs},
		{"over the cap", tooMany, ErrTooManyGraphs},
		{"edgeless member", []graph.Undirected{cycle(4, 0), edgeless(4)}, ErrDegenerateSpectrum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DistanceMatrix(context.Background(), tt.graphs, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func fourPoints() *mat.SymDense {
	return mat.NewSymDense(4, []float64{
		0, 0.1, 0.5, 0.6,
		0.1, 0, 0.7, 0.8,
		0.5, 0.7, 0, 0.2,
		0.6, 0.8, 0.2, 0,
	})
}

func TestCondensed(t *testing.T) {
	got := Condensed(fourPoints())
	want := []float64{0.1, 0.5, 0.6, 0.7, 0.8, 0.2}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("condensed[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if condensedIndex(4, 3, 2) != 5 {
		t.Errorf("condensedIndex(4,3,2) = %d, want 5", condensedIndex(4, 3, 2))
	}
}

func TestCluster(t *testing.T) {
	dg, err := Cluster(fourPoints(), []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	want := []Merge{
		{A: 0, B: 1, Distance: 0.1, Size: 2},
		{A: 2, B: 3, Distance: 0.2, Size: 2},
		{A: 4, B: 5, Distance: 0.8, Size: 4},
	}
	if len(dg.Merges) != len(want) {
		t.Fatalf("merges = %+v", dg.Merges)
	}
	for i, w := range want {
		if dg.Merges[i] != w {
			t.Errorf("merge %d = %+v, want %+v", i, dg.Merges[i], w)
		}
	}

	wantLeaves := []int{3, 2, 1, 0}
	wantLabels := []string{"d", "c", "b", "a"}
	for i := range wantLeaves {
		if dg.Leaves[i] != wantLeaves[i] || dg.Labels[i] != wantLabels[i] {
			t.Errorf("leaves = %v labels = %v, want %v %v", dg.Leaves, dg.Labels, wantLeaves, wantLabels)
			break
		}
	}
}

func TestCluster_Errors(t *testing.T) {
	if _, err := Cluster(mat.NewSymDense(1, nil), nil); !errors.Is(err, ErrNoGraphs) {
		t.Errorf("single row: err = %v, want ErrNoGraphs", err)
	}
	if _, err := Cluster(fourPoints(), []string{"x"}); err == nil {
		t.Error("label count mismatch should fail")
	}
	if _, err := CompleteLinkage([]float64{1, 2}, 3); err == nil {
		t.Error("short condensed matrix should fail")
	}
}

func TestProject(t *testing.T) {
	d := mat.NewSymDense(4, []float64{
		0, 0.1, 0.9, 0.9,
		0.1, 0, 0.9, 0.9,
		0.9, 0.9, 0, 0.1,
		0.9, 0.9, 0.1, 0,
	})
	p, err := Project(d)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(p.Points) != 4 {
		t.Fatalf("points = %d, want 4", len(p.Points))
	}

	pts := p.Points
	if pts[0].PC1*pts[1].PC1 <= 0 || pts[0].PC1*pts[2].PC1 >= 0 || pts[2].PC1*pts[3].PC1 <= 0 {
		t.Errorf("PC1 does not separate the two pairs: %+v", pts)
	}
	if math.Abs(math.Abs(pts[0].PC1)-0.85) > 1e-9 {
		t.Errorf("|PC1| of row 0 = %v, want 0.85", math.Abs(pts[0].PC1))
	}
	if p.Explained[0] < 0.9 || p.Explained[1] > p.Explained[0] || p.Explained[0]+p.Explained[1] > 1+1e-12 {
		t.Errorf("explained = %v", p.Explained)
	}

	if _, err := Project(mat.NewSymDense(1, nil)); !errors.Is(err, ErrNoGraphs) {
		t.Errorf("single row: err = %v, want ErrNoGraphs", err)
	}
}

func TestAnnotate_Single(t *testing.T) {
	got, err := Annotate([]Collection{{File: "cells.vgc", Graphs: 3}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, a := range got {
		want := Annotation{Row: i, File: "cells.vgc", Graph: i + 1, Label: strconv.Itoa(i + 1), Color: SingleColor}
		if a != want {
			t.Errorf("annotation %d = %+v, want %+v", i, a, want)
		}
	}
	if labels := RowLabels(got); labels[2] != "3" {
		t.Errorf("RowLabels = %v", labels)
	}
}

func TestAnnotate_Groups(t *testing.T) {
	cols := []Collection{
		{File: "wt.vgc", Label: "wild type", Graphs: 2},
		{File: "mut.vgc", Graphs: 1},
		{File: "ctl.vgc", Label: "control", Color: "#F00", Graphs: 1},
	}
	got, err := Annotate(cols, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Annotation{
		{Row: 0, File: "wt.vgc", Graph: 1, Label: "wild type", Color: "#0077bb"},
		{Row: 1, File: "wt.vgc", Graph: 2, Label: "wild type", Color: "#0077bb"},
		{Row: 2, File: "mut.vgc", Graph: 1, Label: "mut.vgc", Color: "#ee3377"},
		{Row: 3, File: "ctl.vgc", Graph: 1, Label: "control", Color: "#ff0000"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("annotation %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := Annotate([]Collection{{File: "x", Color: "teal", Graphs: 1}}, nil); err == nil {
		t.Error("invalid colour should fail")
	}
}

func TestGroupColors(t *testing.T) {
	got, err := GroupColors(9, DefaultPalette)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 9 {
		t.Fatalf("len = %d, want 9", len(got))
	}
	seen := make(map[string]bool)
	for i, c := range got {
		if len(c) != 7 || c[0] != '#' {
			t.Errorf("colour %d = %q is not #rrggbb", i, c)
		}
		if seen[c] {
			t.Errorf("colour %q repeated", c)
		}
		seen[c] = true
	}
	if got[6] != "#bbbbbb" {
		t.Errorf("last palette colour = %q", got[6])
	}
}
