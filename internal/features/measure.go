package features

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// ErrDegenerateShape means a descriptor is undefined for the shape, for
// example a zero perimeter or a graph with fewer than two nodes.
var ErrDegenerateShape = errors.New("degenerate shape")

// Lobe outcomes between two consecutive necks.
const (
	LobeMeasured = "measured"
	LobeNone     = "no lobe found"
	LobeMultiple = "more than one lobe found"
)

// LobeMeasurement describes the stretch of outline between two consecutive
// necks. Lengths are in physical units.
type LobeMeasurement struct {
	Label      int     `json:"label"`
	Status     string  `json:"status"`
	Lobe       int     `json:"lobe"`
	Neck1      int     `json:"neck1"`
	Neck2      int     `json:"neck2"`
	LobeLength float64 `json:"lobe_length"`
	NeckWidth  float64 `json:"neck_width"`
}

// MeasureLobes walks consecutive neck pairs around the outline, wrapping from
// the last neck to the first. When exactly one lobe lies between a pair its
// length is the distance from the lobe node to the line through the two
// necks; the neck width is the distance between the necks. Both are scaled
// by resolution. Fewer than two necks give no measurements.
func MeasureLobes(g *visgraph.Graph, lobes, necks []int, resolution float64) []LobeMeasurement {
	if len(necks) < 2 {
		return nil
	}
	n := g.NumNodes()
	out := make([]LobeMeasurement, 0, len(necks))
	for i, n1 := range necks {
		n2 := necks[(i+1)%len(necks)]
		wraps := i == len(necks)-1

		var between []int
		for _, l := range lobes {
			if wraps {
				if (l >= n1 && l < n) || l < n2 {
					between = append(between, l)
				}
			} else if l >= n1 && l <= n2 {
				between = append(between, l)
			}
		}

		m := LobeMeasurement{
			Lobe:      -1,
			Neck1:     n1,
			Neck2:     n2,
			NeckWidth: visgraph.Distance(g.Position(n1), g.Position(n2)) * resolution,
		}
		switch len(between) {
		case 0:
			m.Status = LobeNone
		case 1:
			m.Status = LobeMeasured
			m.Lobe = between[0]
			m.LobeLength = LobeLength(g.Position(n1), g.Position(n2), g.Position(m.Lobe)) * resolution
		default:
			m.Status = LobeMultiple
		}
		out = append(out, m)
	}
	return out
}

// LobeLength is the perpendicular distance from lobe to the line through
// neck1 and neck2, in pixels. Axis-parallel neck lines are handled directly;
// otherwise the foot of the perpendicular comes from the two line equations.
func LobeLength(neck1, neck2, lobe image.Point) float64 {
	l := r2.Vec{X: float64(lobe.X), Y: float64(lobe.Y)}
	var foot r2.Vec
	switch {
	case neck1.X == neck2.X:
		foot = r2.Vec{X: float64(neck1.X), Y: l.Y}
	case neck1.Y == neck2.Y:
		foot = r2.Vec{X: l.X, Y: float64(neck1.Y)}
	default:
		slope := float64(neck2.Y-neck1.Y) / float64(neck2.X-neck1.X)
		intercept := float64(neck1.Y) - slope*float64(neck1.X)
		perp := -1 / slope
		perpIntercept := l.Y - perp*l.X
		foot.X = (perpIntercept - intercept) / (slope - perp)
		foot.Y = slope*foot.X + intercept
	}
	return r2.Norm(r2.Sub(l, foot))
}

// Complexity is the edge density E / (N(N-1)/2) of a visibility graph: 1 for
// a convex outline, lower the more the outline folds.
func Complexity(g *visgraph.Graph) (float64, error) {
	n := g.NumNodes()
	if n < 2 {
		return 0, fmt.Errorf("%w: %d nodes", ErrDegenerateShape, n)
	}
	return float64(g.NumEdges()) / (float64(n) * float64(n-1) / 2), nil
}

// Circularity is 4*pi*area/perimeter^2 with the perimeter measured as the
// number of contour pixels.
func Circularity(area, perimeter int) (float64, error) {
	if perimeter <= 0 {
		return 0, fmt.Errorf("%w: zero perimeter", ErrDegenerateShape)
	}
	return 4 * math.Pi * float64(area) / (float64(perimeter) * float64(perimeter)), nil
}
