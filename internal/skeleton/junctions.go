package skeleton

import (
	"image"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

type region uint8

const (
	regionExterior region = iota
	regionSkeleton
	regionSpur
	regionCell
)

// ExteriorLabel is the label id of the area outside the tissue when the
// complement of a branchless skeleton is labelled: the first region met in
// a row-major scan, which contains the top-left background pixel.
const ExteriorLabel = 1

// DetectJunctions finds the tri-cellular junctions of a cell network.
//
// sk is the gap-repaired skeleton, branchless its spur-free version and cells
// the 4-connected labelling of the complement of branchless. Every crossing of
// sk that survives on branchless is a candidate. A candidate with no spur
// pixel around it is a junction. When a spur touches it, the spur is looking
// into a cell rather than separating two, unless the spur's own neighbourhood
// holds at least as much exterior as cell area.
//
// Junctions are returned in row-major order.
func DetectJunctions(sk, branchless *raster.Mask, cells *raster.Labels) []image.Point {
	regions := regionMap(sk, cells)
	w := cells.Width

	var junctions []image.Point
	for _, c := range Classify(sk).Crossings() {
		if !branchless.At(c.X, c.Y) {
			continue
		}

		spur, ok := firstInWindow(regions, w, cells.Height, c, regionSpur)
		if !ok {
			junctions = append(junctions, c)
			continue
		}

		exterior, cell := 0, 0
		forWindow(w, cells.Height, spur, func(i int) {
			switch regions[i] {
			case regionExterior:
				exterior++
			case regionCell:
				cell++
			}
		})
		if exterior != 0 && exterior >= cell {
			junctions = append(junctions, c)
		}
	}
	return junctions
}

// regionMap tags every pixel as exterior, skeleton, spur or cell interior.
func regionMap(sk *raster.Mask, cells *raster.Labels) []region {
	regions := make([]region, len(cells.Pix))
	for i, id := range cells.Pix {
		switch {
		case id == 0:
			regions[i] = regionSkeleton
		case id == ExteriorLabel:
			regions[i] = regionExterior
		default:
			regions[i] = regionCell
		}
	}
	spurs := TrackBranches(sk)
	for i, v := range spurs.Pix {
		if v {
			regions[i] = regionSpur
		}
	}
	return regions
}

// forWindow calls fn with the index of every in-bounds pixel of the 3x3
// window centred on p, in row-major order.
func forWindow(width, height int, p image.Point, fn func(i int)) {
	for y := p.Y - 1; y <= p.Y+1; y++ {
		for x := p.X - 1; x <= p.X+1; x++ {
			if x < 0 || y < 0 || x >= width || y >= height {
				continue
			}
			fn(y*width + x)
		}
	}
}

func firstInWindow(regions []region, width, height int, p image.Point, want region) (image.Point, bool) {
	for y := p.Y - 1; y <= p.Y+1; y++ {
		for x := p.X - 1; x <= p.X+1; x++ {
			if x < 0 || y < 0 || x >= width || y >= height {
				continue
			}
			if regions[y*width+x] == want {
				return image.Point{X: x, Y: y}, true
			}
		}
	}
	return image.Point{}, false
}
