package compare

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/gravis-mcp/internal/logging"
)

// MaxGraphs bounds the number of graphs in one comparison. The pairwise
// work grows with the square of the count.
const MaxGraphs = 200

var (
	ErrNoGraphs      = errors.New("no graphs to compare")
	ErrTooManyGraphs = errors.New("too many graphs")
)

// DistanceMatrix computes the spectral distance between every pair of
// graphs.
//
// Parameters:
//   - ctx: Cancels the remaining rows when done.
//   - graphs: The graphs in row order. Between 1 and MaxGraphs entries.
//   - workers: Maximum number of rows computed at once; values below 1 use
//     GOMAXPROCS.
//
// Returns:
//   - *mat.SymDense: M×M, zero diagonal, entries in [0, 1].
//   - error: ErrNoGraphs, ErrTooManyGraphs, or ErrDegenerateSpectrum naming
//     the offending graph.
//
// Requests above the cap are rejected, never truncated. Every spectrum is
// computed once up front, then rows are filled in parallel. Each worker
// writes only its own row, so the result does not depend on scheduling.
func DistanceMatrix(ctx context.Context, graphs []graph.Undirected, workers int) (*mat.SymDense, error) {
	m := len(graphs)
	switch {
	case m == 0:
		return nil, ErrNoGraphs
	case m > MaxGraphs:
		return nil, fmt.Errorf("%w: %d graphs exceed the limit of %d", ErrTooManyGraphs, m, MaxGraphs)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	spectra := make([][]float64, m)
	for i, g := range graphs {
		s, err := Spectrum(g)
		if err != nil {
			return nil, fmt.Errorf("graph %d: %w", i+1, err)
		}
		spectra[i] = s
	}

	logging.Infof("...Calculate distance matrix for %d graphs.", m)
	rows := make([][]float64, m)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range spectra {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, m)
			for j := i + 1; j < m; j++ {
				row[j] = ksDistance(spectra[i], spectra[j])
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	d := mat.NewSymDense(m, nil)
	for i, row := range rows {
		for j := i + 1; j < m; j++ {
			d.SetSym(i, j, row[j])
		}
	}
	return d, nil
}
