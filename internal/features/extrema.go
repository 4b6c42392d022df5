package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// Closeness returns the closeness centrality of every node in id order,
// using shortest-path lengths over edge weights. Values are normalised by
// N-1 so that they do not depend on the node count. Paths are summed in
// node id order, so equal graphs give bitwise equal values.
func Closeness(g *visgraph.Graph) []float64 {
	n := g.NumNodes()
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	og := byID{g.Gonum()}
	paths := path.DijkstraAllPaths(og)
	c := network.Closeness(og, paths)
	for id, v := range c {
		out[int(id)] = v * float64(n-1)
	}
	return out
}

// byID walks nodes and neighbours in ascending id order instead of the map
// order of the underlying graph.
type byID struct {
	*simple.WeightedUndirectedGraph
}

func (g byID) Nodes() graph.Nodes {
	return sortedNodes(g.WeightedUndirectedGraph.Nodes())
}

func (g byID) From(id int64) graph.Nodes {
	return sortedNodes(g.WeightedUndirectedGraph.From(id))
}

func sortedNodes(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return iterator.NewOrderedNodes(nodes)
}

// tieTolerance is the relative difference below which two closeness values
// count as equal. Mirror-image nodes reach their sums along different paths
// and can differ in the last bits.
const tieTolerance = 1e-9

type slope int8

func slopeOf(a, b float64) slope {
	if math.Abs(a-b) <= tieTolerance*math.Max(math.Abs(a), math.Abs(b)) {
		return 0
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// FindExtrema locates the strict local extrema of a circular sequence.
// Index i is a minimum (lobe) when it is lower than both neighbours and a
// maximum (neck) when it is higher than both; plateaus yield neither.
// Values within tieTolerance of each other count as equal.
func FindExtrema(values []float64) (lobes, necks []int) {
	n := len(values)
	if n < 3 {
		return nil, nil
	}
	for i, v := range values {
		next := slopeOf(v, values[(i+1)%n])
		prev := slopeOf(v, values[(i-1+n)%n])
		switch {
		case next == -1 && prev == -1:
			lobes = append(lobes, i)
		case next == 1 && prev == 1:
			necks = append(necks, i)
		}
	}
	return lobes, necks
}
