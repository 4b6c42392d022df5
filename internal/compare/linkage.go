package compare

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Merge is one step of agglomerative clustering. A and B are cluster ids:
// ids below n are the original rows, id n+i is the cluster created by
// merge i. Size counts the rows in the new cluster.
type Merge struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Dendrogram is a complete-linkage tree over the rows of a distance matrix.
type Dendrogram struct {
	Merges []Merge `json:"merges"`
	// Leaves lists row indices in drawing order, left to right.
	Leaves []int `json:"leaves"`
	// Labels are the row labels in Leaves order.
	Labels []string `json:"labels"`
}

// Condensed returns the strict upper triangle of d row by row: the entry
// for rows i<j sits at n*i - i*(i+1)/2 + (j-i-1).
func Condensed(d mat.Symmetric) []float64 {
	n := d.SymmetricDim()
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, d.At(i, j))
		}
	}
	return out
}

func condensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + (j - i - 1)
}

// CompleteLinkage clusters n rows given their condensed distances. At each
// step the two active clusters with the smallest farthest-member distance
// merge; ties go to the pair met first scanning clusters in creation order.
func CompleteLinkage(condensed []float64, n int) ([]Merge, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: clustering needs at least 2 rows, have %d", ErrNoGraphs, n)
	}
	if len(condensed) != n*(n-1)/2 {
		return nil, fmt.Errorf("condensed matrix has %d entries, want %d for %d rows", len(condensed), n*(n-1)/2, n)
	}

	// dist is a dense working copy indexed by slot; slot i holds the
	// cluster whose id is ids[i].
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = condensed[condensedIndex(n, i, j)]
			}
		}
	}
	ids := make([]int, n)
	sizes := make([]int, n)
	active := make([]bool, n)
	for i := range ids {
		ids[i], sizes[i], active[i] = i, 1, true
	}
	order := make([]int, n) // slots in cluster creation order
	for i := range order {
		order[i] = i
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		best := math.Inf(1)
		bi, bj := -1, -1
		for x, si := range order {
			if !active[si] {
				continue
			}
			for _, sj := range order[x+1:] {
				if active[sj] && dist[si][sj] < best {
					best, bi, bj = dist[si][sj], si, sj
				}
			}
		}

		a, b := ids[bi], ids[bj]
		if a > b {
			a, b = b, a
		}
		merges = append(merges, Merge{A: a, B: b, Distance: best, Size: sizes[bi] + sizes[bj]})

		// The merged cluster reuses slot bi and moves to the end of the
		// creation order.
		for k := range dist {
			if active[k] && k != bi && k != bj {
				d := math.Max(dist[bi][k], dist[bj][k])
				dist[bi][k], dist[k][bi] = d, d
			}
		}
		active[bj] = false
		ids[bi] = n + step
		sizes[bi] += sizes[bj]
		order = append(removeSlot(order, bi), bi)
	}
	return merges, nil
}

func removeSlot(order []int, slot int) []int {
	out := order[:0]
	for _, s := range order {
		if s != slot {
			out = append(out, s)
		}
	}
	return out
}

// LeafOrder walks the merge tree from the root and lists the original rows
// left to right. At every node the child with the greater merge height is
// drawn first; on equal heights the second child comes first.
func LeafOrder(merges []Merge, n int) []int {
	if n == 0 {
		return nil
	}
	if len(merges) == 0 {
		return []int{0}
	}
	height := func(id int) float64 {
		if id < n {
			return 0
		}
		return merges[id-n].Distance
	}

	leaves := make([]int, 0, n)
	stack := []int{n + len(merges) - 1}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < n {
			leaves = append(leaves, id)
			continue
		}
		m := merges[id-n]
		first, second := m.B, m.A
		if height(m.A) > height(m.B) {
			first, second = m.A, m.B
		}
		stack = append(stack, second, first)
	}
	return leaves
}

// Cluster builds the complete-linkage dendrogram of d. labels, when
// non-nil, must have one entry per row.
func Cluster(d mat.Symmetric, labels []string) (Dendrogram, error) {
	n := d.SymmetricDim()
	if labels != nil && len(labels) != n {
		return Dendrogram{}, fmt.Errorf("%d labels for %d rows", len(labels), n)
	}
	merges, err := CompleteLinkage(Condensed(d), n)
	if err != nil {
		return Dendrogram{}, err
	}

	dg := Dendrogram{Merges: merges, Leaves: LeafOrder(merges, n)}
	if labels != nil {
		dg.Labels = make([]string, n)
		for i, leaf := range dg.Leaves {
			dg.Labels[i] = labels[leaf]
		}
	}
	return dg, nil
}
