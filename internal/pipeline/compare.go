package pipeline

import (
	"context"
	"path/filepath"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/gravis-mcp/internal/compare"
	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/store"
)

// CollectionInput names one stored graph collection to compare.
type CollectionInput struct {
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
}

// CompareOptions selects the optional summaries.
type CompareOptions struct {
	PCA        bool
	Dendrogram bool
}

// CompareResult is the outcome of a comparison run.
type CompareResult struct {
	Matrix      *mat.SymDense        `json:"-"`
	Annotations []compare.Annotation `json:"annotations"`
	Projection  *compare.Projection  `json:"projection,omitempty"`
	Dendrogram  *compare.Dendrogram  `json:"dendrogram,omitempty"`
	Artifacts   []string             `json:"artifacts,omitempty"`
}

// Compare loads every collection, computes the distance matrix over all
// their graphs in input order and, when asked, the PCA projection and the
// dendrogram. Requests above compare.MaxGraphs graphs are rejected.
func Compare(ctx context.Context, inputs []CollectionInput, copts CompareOptions, opts Options) (*CompareResult, error) {
	tlog := logging.NewTimeLog()
	var graphs []graph.Undirected
	cols := make([]compare.Collection, 0, len(inputs))
	for _, in := range inputs {
		c, err := store.ReadCollection(in.Path)
		if err != nil {
			return nil, err
		}
		for _, sg := range c.Graphs {
			graphs = append(graphs, sg.Graph().Gonum())
		}
		cols = append(cols, compare.Collection{
			File:   filepath.Base(in.Path),
			Label:  in.Label,
			Color:  in.Color,
			Graphs: len(c.Graphs),
		})
	}

	ann, err := compare.Annotate(cols, opts.Colors)
	if err != nil {
		return nil, err
	}
	d, err := compare.DistanceMatrix(ctx, graphs, opts.workers())
	if err != nil {
		return nil, err
	}
	res := &CompareResult{Matrix: d, Annotations: ann}

	if copts.PCA {
		p, err := compare.Project(d)
		if err != nil {
			return nil, err
		}
		res.Projection = &p
	}
	if copts.Dendrogram {
		dg, err := compare.Cluster(d, compare.RowLabels(ann))
		if err != nil {
			return nil, err
		}
		res.Dendrogram = &dg
	}

	if opts.OutputDir != "" {
		if err := writeComparison(opts.OutputDir, res); err != nil {
			return nil, err
		}
	}
	tlog.Infof("...Compared %d graphs from %d collections", len(graphs), len(inputs))
	return res, nil
}

func writeComparison(dir string, res *CompareResult) error {
	if err := store.EnsureDir(dir); err != nil {
		return err
	}
	matrix := filepath.Join(dir, store.MatrixFile)
	if err := store.WriteTable(matrix, store.MatrixTable(res.Matrix)); err != nil {
		return err
	}
	annotations := filepath.Join(dir, store.AnnotationFile)
	if err := store.WriteTable(annotations, store.AnnotationTable(res.Annotations)); err != nil {
		return err
	}
	res.Artifacts = append(res.Artifacts, matrix, annotations)

	if res.Projection != nil {
		path := filepath.Join(dir, store.ProjectionFile)
		if err := store.WriteJSON(path, res.Projection); err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
	}
	if res.Dendrogram != nil {
		path := filepath.Join(dir, store.DendrogramFile)
		if err := store.WriteJSON(path, res.Dendrogram); err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
	}
	return nil
}
