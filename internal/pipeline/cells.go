package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/gravis-mcp/internal/contour"
	"github.com/ironsheep/gravis-mcp/internal/features"
	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/raster"
	"github.com/ironsheep/gravis-mcp/internal/skeleton"
	"github.com/ironsheep/gravis-mcp/internal/store"
	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// cropMargin keeps a traced shape's background ring inside its crop unless
// the ring really reaches the image border.
const cropMargin = 2

// CellsResult is the outcome of pavement mode.
type CellsResult struct {
	// Cells counts the regions enclosed by the branchless skeleton.
	Cells     int                        `json:"cells"`
	Junctions []image.Point              `json:"junctions"`
	Records   []features.Record          `json:"records"`
	Lobes     []features.LobeMeasurement `json:"lobes"`
	Graphs    store.Collection           `json:"-"`
	Artifacts []string                   `json:"artifacts,omitempty"`
}

// Reduce closes small gaps in a membrane skeleton and removes its spurs.
func Reduce(skel *raster.Mask) (repaired, branchless *raster.Mask) {
	logging.Infof("...Repair gaps in skeleton.")
	repaired = skeleton.RepairGaps(skel)
	logging.Infof("...Remove branches.")
	branchless = skeleton.RemoveBranches(repaired)
	return repaired, branchless
}

// Cells runs pavement mode on a pre-thinned membrane skeleton. With an
// output directory set, the repaired and branchless skeletons are saved
// first so that CellsFromArtifacts can pick the run up later. A skeleton
// without lit pixels is raster.ErrEmptyMask.
func Cells(ctx context.Context, skel *raster.Mask, opts Options) (*CellsResult, error) {
	if skel.Count() == 0 {
		return nil, raster.ErrEmptyMask
	}
	repaired, branchless := Reduce(skel)

	var saved []string
	if opts.OutputDir != "" {
		if err := store.EnsureDir(opts.OutputDir); err != nil {
			return nil, err
		}
		for _, a := range []struct {
			name string
			m    *raster.Mask
		}{{store.SkeletonFile, repaired}, {store.BranchlessFile, branchless}} {
			path, err := store.SaveMask(opts.OutputDir, a.name, a.m)
			if err != nil {
				return nil, err
			}
			saved = append(saved, path)
		}
	}

	res, err := AnalyzeCells(ctx, repaired, branchless, opts)
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(saved, res.Artifacts...)
	return res, nil
}

// CellsFromArtifacts resumes pavement mode from the skeletons a previous
// run saved in dir. Missing files are store.ErrPrerequisiteNotFound.
func CellsFromArtifacts(ctx context.Context, cache *raster.Cache, dir string, opts Options) (*CellsResult, error) {
	repaired, err := store.LoadMask(cache, dir, store.SkeletonFile)
	if err != nil {
		return nil, err
	}
	branchless, err := store.LoadMask(cache, dir, store.BranchlessFile)
	if err != nil {
		return nil, err
	}
	if repaired.Width != branchless.Width || repaired.Height != branchless.Height {
		return nil, fmt.Errorf("skeleton is %dx%d but branchless skeleton is %dx%d",
			repaired.Width, repaired.Height, branchless.Width, branchless.Height)
	}
	return AnalyzeCells(ctx, repaired, branchless, opts)
}

// AnalyzeCells labels the cells enclosed by branchless, detects junctions
// and measures every cell. Cell numbers run from 1 in label order, leaving
// out the exterior region.
func AnalyzeCells(ctx context.Context, repaired, branchless *raster.Mask, opts Options) (*CellsResult, error) {
	spacing, err := visgraph.PixelDistance(opts.Resolution)
	if err != nil {
		return nil, err
	}
	tlog := logging.NewTimeLog()

	labels := raster.Label(branchless.Invert(), raster.Four)
	var ids []int
	for id := 1; id <= labels.Count; id++ {
		if id != skeleton.ExteriorLabel {
			ids = append(ids, id)
		}
	}

	logging.Infof("...Detect tri-cellular junctions.")
	junctions := features.NewJunctionSet(skeleton.DetectJunctions(repaired, branchless, labels))

	logging.Infof("...Create visibility graphs for %d cells.", len(ids))
	n := len(ids)
	records := make([]features.Record, n)
	lobes := make([][]features.LobeMeasurement, n)
	graphs := make([]*store.StoredGraph, n)
	bounds := labels.Bounds()
	areas := labels.Areas()
	frame := image.Rect(0, 0, labels.Width, labels.Height)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.workers())
	for i, id := range ids {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			number := i + 1
			logging.Debugf("......Graph %d of %d", number, n)

			r := bounds[id].Inset(-cropMargin).Intersect(frame)
			path, g, err := traceAndGraph(labels.Crop(id, r), r.Min, spacing, opts)
			rec := features.Record{Label: number, Area: areas[id], Perimeter: len(path)}
			if err != nil {
				if !skippable(err) {
					return fmt.Errorf("cell %d: %w", number, err)
				}
				rec.Note = err.Error()
				logging.Warningf("Cell %d %s", number, rec.Note)
				records[i] = rec
				return nil
			}

			sg := store.NewStoredGraph(number, strconv.Itoa(number), g, path)
			graphs[i] = &sg
			full, ms, err := features.Extract(features.Shape{Label: number, Area: areas[id], Contour: path, Graph: g}, junctions, opts.Resolution)
			if err != nil {
				if !skippable(err) {
					return fmt.Errorf("cell %d: %w", number, err)
				}
				full.Note = skipped("features", err).Error()
				logging.Warningf("Cell %d %s", number, full.Note)
			}
			records[i], lobes[i] = full, ms
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &CellsResult{
		Cells:     n,
		Junctions: junctions.Points(),
		Records:   records,
		Graphs:    store.Collection{Name: "cells"},
	}
	for i := range ids {
		res.Lobes = append(res.Lobes, lobes[i]...)
		if graphs[i] != nil {
			res.Graphs.Graphs = append(res.Graphs.Graphs, *graphs[i])
		}
	}

	if opts.OutputDir != "" {
		written, err := writeCells(opts.OutputDir, res)
		if err != nil {
			return nil, err
		}
		res.Artifacts = written
	}
	tlog.Infof("...Measured %d cells, %d junctions", n, junctions.Len())
	return res, nil
}

// traceAndGraph traces one cropped shape, moves its outline back to image
// coordinates and builds the visibility graph. Errors carry the failing
// stage.
func traceAndGraph(shape *raster.Mask, origin image.Point, spacing int, opts Options) ([]image.Point, *visgraph.Graph, error) {
	path, err := contour.Trace(shape, opts.TraceTimeout)
	if err != nil {
		return nil, nil, skipped("contour", err)
	}
	for i := range path {
		path[i] = path[i].Add(origin)
	}
	g, err := visgraph.FromContour(path, spacing)
	if err != nil {
		return path, nil, skipped("graph", err)
	}
	return path, g, nil
}

func writeCells(dir string, res *CellsResult) ([]string, error) {
	if err := store.EnsureDir(dir); err != nil {
		return nil, err
	}
	var written []string
	for _, t := range []struct {
		name  string
		table store.Table
	}{
		{store.CellTableFile, store.CellTable(res.Records)},
		{store.LobeTableFile, store.LobeTable(res.Lobes)},
	} {
		path := filepath.Join(dir, t.name)
		if err := store.WriteTable(path, t.table); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	path := filepath.Join(dir, store.CellGraphsFile)
	if err := store.WriteCollection(path, &res.Graphs); err != nil {
		return nil, err
	}
	return append(written, path), nil
}
