package compare

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Point2 is one row of the distance matrix projected on the first two
// principal components.
type Point2 struct {
	PC1 float64 `json:"pc1"`
	PC2 float64 `json:"pc2"`
}

// Projection is the 2-D principal-component view of a distance matrix.
type Projection struct {
	Points []Point2 `json:"points"`
	// Explained holds the share of total variance carried by PC1 and PC2.
	Explained [2]float64 `json:"explained"`
}

// Project treats each row of d as an observation and each column as a
// variable, centres the columns and projects the rows on the two leading
// principal directions. Component signs are whatever the decomposition
// returns. A matrix with every entry equal reports zero explained variance.
func Project(d mat.Matrix) (Projection, error) {
	r, c := d.Dims()
	if r < 2 || c < 2 {
		return Projection{}, fmt.Errorf("%w: projection needs at least 2 graphs, have %d", ErrNoGraphs, r)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(d, nil); !ok {
		return Projection{}, errors.New("principal component analysis failed")
	}
	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	centred := mat.DenseCopyOf(d)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, centred)
		mean := stat.Mean(col, nil)
		for i := 0; i < r; i++ {
			centred.Set(i, j, col[i]-mean)
		}
	}

	var proj mat.Dense
	proj.Mul(centred, vecs.Slice(0, c, 0, 2))

	out := Projection{Points: make([]Point2, r)}
	for i := range out.Points {
		out.Points[i] = Point2{PC1: proj.At(i, 0), PC2: proj.At(i, 1)}
	}

	var total float64
	for _, v := range vars {
		total += v
	}
	if total > 0 {
		out.Explained = [2]float64{vars[0] / total, vars[1] / total}
	}
	return out, nil
}
