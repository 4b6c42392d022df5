package skeleton

import (
	"image"

	"github.com/ironsheep/gravis-mcp/internal/raster"
)

// PruneMode selects what happens to spur pixels.
type PruneMode int

const (
	// PruneRemove erases spurs.
	PruneRemove PruneMode = iota
	// PruneTrack keeps spurs but marks them Tracked.
	PruneTrack
)

func (m PruneMode) String() string {
	if m == PruneTrack {
		return "track"
	}
	return "remove"
}

// Prune walks every spur from its endpoint back towards the network.
//
// In remove mode each visited pixel is erased and the walk stops at a
// crossing, leaving only closed loops; the returned map is freshly
// classified. In track mode visited pixels become Tracked and stay in the
// raster. Both modes repeat until no endpoint is left, so applying Prune to
// its own remove-mode output changes nothing.
func Prune(sk *raster.Mask, mode PruneMode) *NodeMap {
	nodes := Classify(sk)
	for nodes.Count(Endpoint) > 0 {
		nodes.walkSpurs(mode)
		if mode == PruneRemove {
			nodes = Classify(nodes.Mask())
			continue
		}
		nodes.classify()
	}
	return nodes
}

// RemoveBranches returns the branchless skeleton: sk with every spur erased.
func RemoveBranches(sk *raster.Mask) *raster.Mask {
	return Prune(sk, PruneRemove).Mask()
}

// TrackBranches returns the pixels that belong to spurs of sk.
func TrackBranches(sk *raster.Mask) *raster.Mask {
	nodes := Prune(sk, PruneTrack)
	m := raster.NewMask(nodes.Width, nodes.Height)
	for i, v := range nodes.State {
		m.Pix[i] = v == Tracked
	}
	return m
}

// walkSpurs advances every endpoint front until none is left. A front moves
// into the plain skeleton pixels around it only while its neighbourhood shows
// it is still on a spur: in remove mode the window may hold nothing but
// skeleton and endpoints, in track mode the window sum must stay below a
// crossing's signature.
func (n *NodeMap) walkSpurs(mode PruneMode) {
	for {
		front := n.Endpoints()
		if len(front) == 0 {
			return
		}
		for _, p := range front {
			kinds, sum, lit := n.windowStats(p)
			var advance bool
			if mode == PruneRemove {
				advance = kinds == 2
			} else {
				advance = (kinds <= 3 && sum < 9) || (sum == 9 && lit == 4)
			}
			if advance {
				n.promote(p)
			}
			if mode == PruneRemove {
				n.set(p, Background)
			} else {
				n.set(p, Tracked)
			}
		}
	}
}

// windowStats summarises the 3x3 window centred on p, centre included: the
// number of distinct non-background states, the sum of state values and the
// number of lit pixels.
func (n *NodeMap) windowStats(p image.Point) (kinds, sum, lit int) {
	var present [Tracked + 1]bool
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			s := n.At(p.X+dx, p.Y+dy)
			if s == Background {
				continue
			}
			if !present[s] {
				present[s] = true
				kinds++
			}
			sum += int(s)
			lit++
		}
	}
	return kinds, sum, lit
}

// promote turns the plain skeleton neighbours of p into endpoints.
func (n *NodeMap) promote(p image.Point) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			q := image.Point{X: p.X + dx, Y: p.Y + dy}
			if n.At(q.X, q.Y) == Skeleton {
				n.set(q, Endpoint)
			}
		}
	}
}
