package visgraph

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"

	"github.com/peterstace/simplefeatures/geom"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDegenerateContour means the outline yields fewer than three nodes.
	ErrDegenerateContour = errors.New("contour too short for a visibility graph")
	// ErrInvalidSpacing means the node spacing or resolution is not usable.
	ErrInvalidSpacing = errors.New("invalid node spacing")
	// ErrInvalidPolygon means the sampled nodes do not form a simple polygon.
	ErrInvalidPolygon = errors.New("sampled contour is not a valid polygon")
)

// spacingFactor converts a physical resolution into a node spacing: nodes are
// placed about every 1/0.65 length units along the outline.
const spacingFactor = 0.65

// PixelDistance returns the node spacing in pixels for a resolution given in
// length units per pixel. The result is at least one pixel.
func PixelDistance(resolution float64) (int, error) {
	if resolution <= 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return 0, fmt.Errorf("%w: resolution %v", ErrInvalidSpacing, resolution)
	}
	d := int(math.Round(1 / (resolution * spacingFactor)))
	if d < 1 {
		d = 1
	}
	return d, nil
}

// Sample picks every spacing-th pixel of an ordered contour, starting with
// the first. Sampling stops one spacing short of the end so the last node is
// not crowded against the first.
func Sample(contour []image.Point, spacing int) ([]image.Point, error) {
	if spacing < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSpacing, spacing)
	}
	var nodes []image.Point
	for i := 0; i <= len(contour)-spacing; i += spacing {
		nodes = append(nodes, contour[i])
	}
	if len(nodes) < 3 {
		return nil, fmt.Errorf("%w: %d nodes from %d contour pixels at spacing %d",
			ErrDegenerateContour, len(nodes), len(contour), spacing)
	}
	return nodes, nil
}

// FromContour samples contour at the given spacing and builds the graph.
func FromContour(contour []image.Point, spacing int) (*Graph, error) {
	nodes, err := Sample(contour, spacing)
	if err != nil {
		return nil, err
	}
	return Build(nodes)
}

// Build connects every pair of mutually visible nodes of the closed polygon
// through nodes, in order. Pairs are tested concurrently; the resulting
// graph does not depend on scheduling.
func Build(nodes []image.Point) (*Graph, error) {
	if len(nodes) < 3 {
		return nil, fmt.Errorf("%w: %d nodes", ErrDegenerateContour, len(nodes))
	}

	ring := ringOf(nodes)
	poly := geom.NewPolygon([]geom.LineString{ring})
	if err := poly.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolygon, err)
	}
	polyGeom := poly.AsGeometry()
	boundary := ring.AsGeometry()

	n := len(nodes)
	visible := make([][]bool, n)
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		visible[i] = make([]bool, n)
		eg.Go(func() error {
			for j := i + 1; j < n; j++ {
				ok, err := Visible(segment(nodes[i], nodes[j]), polyGeom, boundary)
				if err != nil {
					return fmt.Errorf("nodes %d-%d: %w", i, j, err)
				}
				visible[i][j] = ok
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g := New(nodes)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if visible[i][j] {
				g.AddEdge(i, j)
			}
		}
	}
	return g, nil
}

// Visible decides whether the segment line sees across polygon. boundary is
// the polygon's exterior ring as a geometry.
//
// The DE-9IM matrix of line against polygon must show the line's interior
// and endpoints never reach the exterior. The accepted matrices cover a
// segment crossing the interior, one lying on the boundary, and one touching
// boundary vertices along the way; the last two need a closer look at how
// the line meets the boundary.
func Visible(line geom.LineString, polygon, boundary geom.Geometry) (bool, error) {
	m, err := geom.Relate(line.AsGeometry(), polygon)
	if err != nil {
		return false, err
	}

	switch m {
	case "FFFF0F212", "0FFF0F212", "1FFF0F212", "F0FF0F212", "00FF0F212":
		return true, nil
	case "10FF0F212":
		inter, err := geom.Intersection(boundary, line.AsGeometry())
		if err != nil {
			return false, err
		}
		return parts(inter) <= 3, nil
	case "F1FF0F212":
		inter, err := geom.Intersection(boundary, line.AsGeometry())
		if err != nil {
			return false, err
		}
		t := inter.Type()
		return t == geom.TypeLineString || t == geom.TypeMultiLineString, nil
	}
	return false, nil
}

// parts counts the top-level members of a geometry.
func parts(g geom.Geometry) int {
	switch g.Type() {
	case geom.TypeMultiPoint:
		return g.MustAsMultiPoint().NumPoints()
	case geom.TypeMultiLineString:
		return g.MustAsMultiLineString().NumLineStrings()
	case geom.TypeMultiPolygon:
		return g.MustAsMultiPolygon().NumPolygons()
	case geom.TypeGeometryCollection:
		return g.MustAsGeometryCollection().NumGeometries()
	}
	if g.IsEmpty() {
		return 0
	}
	return 1
}

func ringOf(nodes []image.Point) geom.LineString {
	coords := make([]float64, 0, 2*len(nodes)+2)
	for _, p := range nodes {
		coords = append(coords, float64(p.X), float64(p.Y))
	}
	coords = append(coords, float64(nodes[0].X), float64(nodes[0].Y))
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}

func segment(a, b image.Point) geom.LineString {
	return geom.NewLineString(geom.NewSequence([]float64{
		float64(a.X), float64(a.Y),
		float64(b.X), float64(b.Y),
	}, geom.DimXY))
}
