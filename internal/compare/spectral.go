package compare

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/spectral"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrDegenerateSpectrum means a graph has no positive Laplacian eigenvalue,
// which happens when it has no edges.
var ErrDegenerateSpectrum = errors.New("degenerate spectrum")

// Spectrum returns the eigenvalues of the combinatorial Laplacian of g,
// divided by the largest one, rounded to a 1e-9 grid and sorted
// ascending. Edge weights are ignored.
func Spectrum(g graph.Undirected) ([]float64, error) {
	if g.Nodes().Len() == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrDegenerateSpectrum)
	}
	lap := spectral.NewLaplacian(g)
	n := len(lap.Nodes)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, lap.At(i, j))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition did not converge", ErrDegenerateSpectrum)
	}
	values := eig.Values(nil)

	top := values[0]
	for _, v := range values[1:] {
		if v > top {
			top = v
		}
	}
	if top <= 0 {
		return nil, fmt.Errorf("%w: %d nodes without edges", ErrDegenerateSpectrum, n)
	}
	for i, v := range values {
		values[i] = snap(v / top)
	}
	sort.Float64s(values)
	return values, nil
}

// spectrumScale sets the grid, 1e-9, that normalised eigenvalues are
// rounded to, so that eigenvalues equal in exact arithmetic compare equal.
const spectrumScale = 1e9

func snap(v float64) float64 {
	v = math.Round(v*spectrumScale) / spectrumScale
	return math.Max(0, math.Min(1, v))
}

// SpectralDistance is the Kolmogorov-Smirnov statistic between the
// normalised spectra of a and b.
func SpectralDistance(a, b graph.Undirected) (float64, error) {
	sa, err := Spectrum(a)
	if err != nil {
		return 0, err
	}
	sb, err := Spectrum(b)
	if err != nil {
		return 0, err
	}
	return ksDistance(sa, sb), nil
}

// ksDistance expects both spectra sorted.
func ksDistance(a, b []float64) float64 {
	return stat.KolmogorovSmirnov(a, nil, b, nil)
}
