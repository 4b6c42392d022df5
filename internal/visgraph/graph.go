package visgraph

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Graph is an undirected visibility graph whose node ids are 0..N-1 in
// contour order. Each node keeps its pixel position.
type Graph struct {
	g     *simple.WeightedUndirectedGraph
	pos   []image.Point
	edges int
}

// Edge is one weighted connection, with A < B.
type Edge struct {
	A      int
	B      int
	Weight float64
}

// New creates an edgeless graph with one node per position.
func New(positions []image.Point) *Graph {
	g := &Graph{
		g:   simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		pos: append([]image.Point(nil), positions...),
	}
	for i := range positions {
		g.g.AddNode(simple.Node(i))
	}
	return g
}

// AddEdge joins nodes a and b with their Euclidean distance as weight.
// Self loops and repeated edges are ignored.
func (g *Graph) AddEdge(a, b int) {
	g.AddWeightedEdge(a, b, Distance(g.pos[a], g.pos[b]))
}

// AddWeightedEdge joins a and b with an explicit weight.
func (g *Graph) AddWeightedEdge(a, b int, w float64) {
	if a == b || g.HasEdge(a, b) {
		return
	}
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(a), simple.Node(b), w))
	g.edges++
}

// HasEdge reports whether a and b are joined.
func (g *Graph) HasEdge(a, b int) bool {
	return g.g.HasEdgeBetween(int64(a), int64(b))
}

// Weight returns the weight of edge a-b.
func (g *Graph) Weight(a, b int) (float64, bool) {
	if !g.HasEdge(a, b) {
		return 0, false
	}
	return g.g.Weight(int64(a), int64(b))
}

// NumNodes returns N.
func (g *Graph) NumNodes() int { return len(g.pos) }

// NumEdges returns E.
func (g *Graph) NumEdges() int { return g.edges }

// Position returns the pixel position of node id.
func (g *Graph) Position(id int) image.Point { return g.pos[id] }

// Positions returns a copy of all node positions in id order.
func (g *Graph) Positions() []image.Point {
	return append([]image.Point(nil), g.pos...)
}

// Edges lists all edges sorted by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for a := range g.pos {
		to := g.g.From(int64(a))
		for to.Next() {
			b := int(to.Node().ID())
			if b <= a {
				continue
			}
			w, _ := g.g.Weight(int64(a), int64(b))
			out = append(out, Edge{A: a, B: b, Weight: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Degree returns the number of edges at node id.
func (g *Graph) Degree(id int) int {
	return g.g.From(int64(id)).Len()
}

// Gonum exposes the graph to gonum's path, network and spectral packages.
func (g *Graph) Gonum() *simple.WeightedUndirectedGraph { return g.g }

// Distance is the Euclidean distance between two pixels.
func Distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
