package features

import (
	"image"

	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// Shape is one traced shape ready for measurement.
type Shape struct {
	Label   int
	Area    int
	Contour []image.Point
	Graph   *visgraph.Graph
}

// Record is the per-shape row of the results table. Shapes that could not be
// measured keep zero values and carry a Note.
type Record struct {
	Label         int     `json:"label"`
	Lobes         int     `json:"lobes"`
	Necks         int     `json:"necks"`
	Junctions     int     `json:"junctions"`
	JunctionLobes int     `json:"junction_lobes"`
	Complexity    float64 `json:"complexity"`
	Circularity   float64 `json:"circularity"`
	Area          int     `json:"area"`
	Perimeter     int     `json:"perimeter"`
	Nodes         int     `json:"nodes"`
	Edges         int     `json:"edges"`
	Note          string  `json:"note,omitempty"`
}

// Describe fills the size and global shape descriptors of a record.
func Describe(s Shape) (Record, error) {
	r := Record{
		Label:     s.Label,
		Area:      s.Area,
		Perimeter: len(s.Contour),
		Nodes:     s.Graph.NumNodes(),
		Edges:     s.Graph.NumEdges(),
	}
	var err error
	if r.Complexity, err = Complexity(s.Graph); err != nil {
		return r, err
	}
	if r.Circularity, err = Circularity(r.Area, r.Perimeter); err != nil {
		return r, err
	}
	return r, nil
}

// Extract computes the full feature set of a pavement cell: global
// descriptors, lobe and neck counts, the junctions on its outline and those
// that coincide with a lobe or neck, plus one lobe measurement per neck pair.
func Extract(s Shape, junctions *JunctionSet, resolution float64) (Record, []LobeMeasurement, error) {
	r, err := Describe(s)
	if err != nil {
		return r, nil, err
	}

	lobes, necks := FindExtrema(Closeness(s.Graph))
	cellJunctions := junctions.OnContour(s.Contour)
	correlated := CorrelateJunctions(s.Graph, lobes, necks, cellJunctions)

	r.Lobes = len(lobes)
	r.Necks = len(necks)
	r.Junctions = len(cellJunctions)
	r.JunctionLobes = len(correlated)

	measurements := MeasureLobes(s.Graph, lobes, necks, resolution)
	for i := range measurements {
		measurements[i].Label = s.Label
	}
	return r, measurements, nil
}
