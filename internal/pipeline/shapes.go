package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/gravis-mcp/internal/features"
	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/raster"
	"github.com/ironsheep/gravis-mcp/internal/store"
)

// borderPad is the background margin added to an image whose objects touch
// its border.
const borderPad = 3

// Skip records an object that produced no graph.
type Skip struct {
	File   string `json:"file"`
	Object int    `json:"object"`
	Reason string `json:"reason"`
}

// ShapesResult is the outcome of shape mode.
type ShapesResult struct {
	Rows      []store.ShapeRow `json:"rows"`
	Skipped   []Skip           `json:"skipped,omitempty"`
	Graphs    store.Collection `json:"-"`
	Artifacts []string         `json:"artifacts,omitempty"`
}

// Shapes graphs every object of every binary image in paths. Graph numbers
// start at 1 and keep counting across files; skipped objects take no number.
// An image that is not binary fails the whole call with raster.ErrNotBinary.
func Shapes(ctx context.Context, cache *raster.Cache, paths []string, opts Options) (*ShapesResult, error) {
	spacing, err := opts.shapeSpacing()
	if err != nil {
		return nil, err
	}

	tlog := logging.NewTimeLog()
	res := &ShapesResult{Graphs: store.Collection{Name: "shapes"}}
	next := 1
	for fi, path := range paths {
		logging.Infof("...Load binary image %d of %d", fi+1, len(paths))
		m, err := cache.LoadMask(path)
		if err != nil {
			return nil, err
		}
		file := filepath.Base(path)
		rows, graphs, skips, err := ShapesInMask(ctx, m, file, spacing, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for i := range rows {
			rows[i].Graph = next
			graphs[i].Index = next
			graphs[i].Label = strconv.Itoa(next)
			next++
		}
		res.Rows = append(res.Rows, rows...)
		res.Graphs.Graphs = append(res.Graphs.Graphs, graphs...)
		res.Skipped = append(res.Skipped, skips...)
	}

	tlog.Infof("...Graphed %d shapes from %d images", len(res.Rows), len(paths))

	if opts.OutputDir != "" {
		if err := store.EnsureDir(opts.OutputDir); err != nil {
			return nil, err
		}
		table := filepath.Join(opts.OutputDir, store.ShapeTableFile)
		if err := store.WriteTable(table, store.ShapeTable(res.Rows)); err != nil {
			return nil, err
		}
		coll := filepath.Join(opts.OutputDir, store.ShapeGraphsFile)
		if err := store.WriteCollection(coll, &res.Graphs); err != nil {
			return nil, err
		}
		res.Artifacts = []string{table, coll}
	}
	return res, nil
}

// ShapesInMask graphs the 8-connected objects of one binary mask in label
// order. Rows and graphs come back unnumbered and aligned with each other.
func ShapesInMask(ctx context.Context, m *raster.Mask, file string, spacing int, opts Options) ([]store.ShapeRow, []store.StoredGraph, []Skip, error) {
	if m.TouchesBorder() {
		logging.Infof("...Detected objects at image border. Added padding to binary image.")
		m = m.Pad(borderPad)
	}
	labels := raster.Label(m, raster.Eight)
	n := labels.Count
	logging.Infof("...Create visibility graphs for %d objects.", n)

	rows := make([]*store.ShapeRow, n)
	graphs := make([]*store.StoredGraph, n)
	skips := make([]*Skip, n)
	bounds := labels.Bounds()
	areas := labels.Areas()
	frame := image.Rect(0, 0, labels.Width, labels.Height)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.workers())
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := i + 1
			logging.Debugf("......Graph %d of %d", id, n)

			r := bounds[id].Inset(-cropMargin).Intersect(frame)
			path, g, err := traceAndGraph(labels.Crop(id, r), r.Min, spacing, opts)
			if err == nil {
				var rec features.Record
				rec, err = features.Describe(features.Shape{Label: id, Area: areas[id], Contour: path, Graph: g})
				if err == nil {
					rows[i] = &store.ShapeRow{File: file, Record: rec}
					sg := store.NewStoredGraph(0, "", g, path)
					graphs[i] = &sg
					return nil
				}
				err = skipped("features", err)
			}
			if !skippable(err) {
				return fmt.Errorf("object %d: %w", id, err)
			}
			logging.Warningf("%s object %d %v", file, id, err)
			skips[i] = &Skip{File: file, Object: id, Reason: err.Error()}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var outRows []store.ShapeRow
	var outGraphs []store.StoredGraph
	var outSkips []Skip
	for i := 0; i < n; i++ {
		switch {
		case rows[i] != nil:
			outRows = append(outRows, *rows[i])
			outGraphs = append(outGraphs, *graphs[i])
		case skips[i] != nil:
			outSkips = append(outSkips, *skips[i])
		}
	}
	return outRows, outGraphs, outSkips, nil
}
