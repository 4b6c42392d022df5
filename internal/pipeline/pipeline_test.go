package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/gravis-mcp/internal/compare"
	"github.com/ironsheep/gravis-mcp/internal/raster"
	"github.com/ironsheep/gravis-mcp/internal/store"
	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

func hline(m *raster.Mask, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		m.Set(x, y, true)
	}
}

func vline(m *raster.Mask, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		m.Set(x, y, true)
	}
}

func fill(m *raster.Mask, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		hline(m, x0, x1, y)
	}
}

// membrane draws two 5x5 cells side by side whose outline has clipped
// corners. top is the row of the upper wall.
func membrane(t *testing.T, top int) *raster.Mask {
	t.Helper()
	m := raster.NewMask(17, top+9)
	hline(m, 3, 13, top)
	hline(m, 3, 13, top+6)
	vline(m, 2, top+1, top+5)
	vline(m, 14, top+1, top+5)
	vline(m, 8, top+1, top+5)
	return m
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Resolution:   1,
		TraceTimeout: time.Second,
		Workers:      2,
		OutputDir:    t.TempDir(),
	}
}

func checkFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s: %v", name, err)
		}
	}
}

func TestCells_TwoCells(t *testing.T) {
	opts := testOptions(t)
	res, err := Cells(context.Background(), membrane(t, 2), opts)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}

	if res.Cells != 2 || len(res.Records) != 2 {
		t.Fatalf("cells = %d with %d records, want 2", res.Cells, len(res.Records))
	}
	if len(res.Junctions) != 2 {
		t.Errorf("junctions = %v, want two", res.Junctions)
	}
	for i, rec := range res.Records {
		if rec.Label != i+1 {
			t.Errorf("record %d label = %d", i, rec.Label)
		}
		if rec.Note != "" {
			t.Errorf("cell %d skipped: %s", rec.Label, rec.Note)
		}
		// 20 contour pixels sampled every 2 pixels.
		if rec.Area != 25 || rec.Perimeter != 20 || rec.Nodes != 10 {
			t.Errorf("cell %d area %d perimeter %d nodes %d, want 25, 20, 10",
				rec.Label, rec.Area, rec.Perimeter, rec.Nodes)
		}
		if rec.Complexity <= 0 || rec.Complexity > 1 {
			t.Errorf("cell %d complexity %v outside (0,1]", rec.Label, rec.Complexity)
		}
	}
	if len(res.Graphs.Graphs) != 2 || res.Graphs.Graphs[1].Index != 2 {
		t.Errorf("stored graphs = %+v", res.Graphs.Graphs)
	}
	checkFiles(t, opts.OutputDir,
		store.SkeletonFile, store.BranchlessFile,
		store.CellTableFile, store.LobeTableFile, store.CellGraphsFile)
}

func TestCellsFromArtifacts(t *testing.T) {
	opts := testOptions(t)
	first, err := Cells(context.Background(), membrane(t, 2), opts)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}

	resumed := opts
	resumed.OutputDir = ""
	again, err := CellsFromArtifacts(context.Background(), raster.NewCache(), opts.OutputDir, resumed)
	if err != nil {
		t.Fatalf("CellsFromArtifacts: %v", err)
	}
	if len(again.Records) != len(first.Records) {
		t.Fatalf("resumed %d records, first run had %d", len(again.Records), len(first.Records))
	}
	for i := range first.Records {
		if again.Records[i] != first.Records[i] {
			t.Errorf("record %d = %+v, want %+v", i, again.Records[i], first.Records[i])
		}
	}
	if len(again.Artifacts) != 0 {
		t.Errorf("wrote %v without an output directory", again.Artifacts)
	}
}

func TestCells_Repeatable(t *testing.T) {
	opts := testOptions(t)
	opts.OutputDir = ""
	first, err := Cells(context.Background(), membrane(t, 1), opts)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	for i := 0; i < 20; i++ {
		res, err := Cells(context.Background(), membrane(t, 1), opts)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !reflect.DeepEqual(res.Records, first.Records) {
			t.Fatalf("run %d: records %+v, first run %+v", i, res.Records, first.Records)
		}
		if !reflect.DeepEqual(res.Lobes, first.Lobes) {
			t.Fatalf("run %d: lobes %+v, first run %+v", i, res.Lobes, first.Lobes)
		}
	}
}

func TestCellsFromArtifacts_Missing(t *testing.T) {
	_, err := CellsFromArtifacts(context.Background(), raster.NewCache(), t.TempDir(), testOptions(t))
	if !errors.Is(err, store.ErrPrerequisiteNotFound) {
		t.Errorf("err = %v, want ErrPrerequisiteNotFound", err)
	}
}

func TestCells_EmptySkeleton(t *testing.T) {
	_, err := Cells(context.Background(), raster.NewMask(10, 10), testOptions(t))
	if !errors.Is(err, raster.ErrEmptyMask) {
		t.Errorf("err = %v, want ErrEmptyMask", err)
	}
}

func TestCells_SkipsBorderCells(t *testing.T) {
	opts := testOptions(t)
	res, err := Cells(context.Background(), membrane(t, 0), opts)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if res.Cells != 2 {
		t.Fatalf("cells = %d, want 2", res.Cells)
	}
	for _, rec := range res.Records {
		if !strings.Contains(rec.Note, "skipped at contour") {
			t.Errorf("cell %d note = %q, want a contour skip", rec.Label, rec.Note)
		}
		if rec.Area != 25 {
			t.Errorf("skipped cell %d area = %d, want 25", rec.Label, rec.Area)
		}
	}
	if len(res.Graphs.Graphs) != 0 {
		t.Errorf("stored %d graphs for skipped cells", len(res.Graphs.Graphs))
	}
}

func writeMask(t *testing.T, dir, name string, m *raster.Mask) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := raster.SaveMask(m, path); err != nil {
		t.Fatalf("SaveMask: %v", err)
	}
	return path
}

func TestShapes(t *testing.T) {
	in := t.TempDir()

	// The left square touches the border, so the image is padded.
	a := raster.NewMask(20, 12)
	fill(a, 0, 4, 3, 7)
	fill(a, 10, 3, 14, 7)

	// The lone pixel has too short an outline for three nodes.
	b := raster.NewMask(12, 12)
	fill(b, 3, 3, 6, 6)
	b.Set(9, 9, true)

	paths := []string{writeMask(t, in, "a.png", a), writeMask(t, in, "b.png", b)}
	opts := testOptions(t)
	opts.NodeSpacing = 4

	res, err := Shapes(context.Background(), raster.NewCache(), paths, opts)
	if err != nil {
		t.Fatalf("Shapes: %v", err)
	}

	want := []struct {
		file  string
		graph int
		area  int
	}{
		{"a.png", 1, 25},
		{"a.png", 2, 16},
		{"b.png", 3, 16},
	}
	if len(res.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(res.Rows), len(want))
	}
	for i, w := range want {
		r := res.Rows[i]
		if r.File != w.file || r.Graph != w.graph || r.Area != w.area {
			t.Errorf("row %d = %s graph %d area %d, want %s graph %d area %d",
				i, r.File, r.Graph, r.Area, w.file, w.graph, w.area)
		}
		if g := res.Graphs.Graphs[i]; g.Index != w.graph {
			t.Errorf("stored graph %d index = %d, want %d", i, g.Index, w.graph)
		}
	}

	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %+v, want one", res.Skipped)
	}
	if s := res.Skipped[0]; s.File != "b.png" || s.Object != 2 || !strings.Contains(s.Reason, "skipped at graph") {
		t.Errorf("skip = %+v", s)
	}
	checkFiles(t, opts.OutputDir, store.ShapeTableFile, store.ShapeGraphsFile)
}

func TestShapes_Errors(t *testing.T) {
	in := t.TempDir()
	blank := writeMask(t, in, "blank.png", raster.NewMask(8, 8))

	one := raster.NewMask(8, 8)
	fill(one, 2, 2, 4, 4)
	ok := writeMask(t, in, "ok.png", one)

	tests := []struct {
		name   string
		paths  []string
		modify func(*Options)
		want   error
	}{
		{"not binary", []string{ok, blank}, func(*Options) {}, raster.ErrNotBinary},
		{"no spacing", []string{ok}, func(o *Options) { o.Resolution = 0 }, visgraph.ErrInvalidSpacing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			tt.modify(&opts)
			_, err := Shapes(context.Background(), raster.NewCache(), tt.paths, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func ring(n int) *visgraph.Graph {
	pts := make([]image.Point, n)
	for i := range pts {
		pts[i] = image.Point{X: i, Y: i % 2}
	}
	g := visgraph.New(pts)
	for i := 0; i < n; i++ {
		g.AddEdge(i, (i+1)%n)
	}
	return g
}

func writeCollection(t *testing.T, dir, name string, sizes ...int) string {
	t.Helper()
	c := &store.Collection{Name: name}
	for i, n := range sizes {
		c.Graphs = append(c.Graphs, store.NewStoredGraph(i+1, "", ring(n), nil))
	}
	path := filepath.Join(dir, name)
	if err := store.WriteCollection(path, c); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}
	return path
}

func TestCompare(t *testing.T) {
	in := t.TempDir()
	inputs := []CollectionInput{
		{Path: writeCollection(t, in, "a.gvc", 4, 5), Label: "a"},
		{Path: writeCollection(t, in, "b.gvc", 6), Label: "b", Color: "#00ff00"},
	}
	opts := testOptions(t)

	res, err := Compare(context.Background(), inputs, CompareOptions{PCA: true, Dendrogram: true}, opts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if n := res.Matrix.SymmetricDim(); n != 3 {
		t.Fatalf("matrix is %dx%d, want 3x3", n, n)
	}
	for i := 0; i < 3; i++ {
		if res.Matrix.At(i, i) != 0 {
			t.Errorf("diagonal %d = %v", i, res.Matrix.At(i, i))
		}
	}
	if res.Matrix.At(0, 1) == 0 {
		t.Error("C4 and C5 should differ")
	}

	labels := compare.RowLabels(res.Annotations)
	if strings.Join(labels, ",") != "a,a,b" {
		t.Errorf("labels = %v", labels)
	}
	if res.Annotations[2].Color != "#00ff00" {
		t.Errorf("group b color = %s", res.Annotations[2].Color)
	}
	if res.Projection == nil || len(res.Projection.Points) != 3 {
		t.Errorf("projection = %+v", res.Projection)
	}
	if res.Dendrogram == nil || len(res.Dendrogram.Leaves) != 3 || len(res.Dendrogram.Merges) != 2 {
		t.Errorf("dendrogram = %+v", res.Dendrogram)
	}
	checkFiles(t, opts.OutputDir, store.MatrixFile, store.AnnotationFile, store.ProjectionFile, store.DendrogramFile)

	back, err := store.ReadMatrix(filepath.Join(opts.OutputDir, store.MatrixFile))
	if err != nil {
		t.Fatalf("ReadMatrix: %v", err)
	}
	if back.At(0, 2) != res.Matrix.At(0, 2) {
		t.Errorf("stored distance %v, computed %v", back.At(0, 2), res.Matrix.At(0, 2))
	}
}

func TestCompare_MissingCollection(t *testing.T) {
	inputs := []CollectionInput{{Path: filepath.Join(t.TempDir(), "none.gvc")}}
	_, err := Compare(context.Background(), inputs, CompareOptions{}, testOptions(t))
	if !errors.Is(err, store.ErrPrerequisiteNotFound) {
		t.Errorf("err = %v, want ErrPrerequisiteNotFound", err)
	}
}
