package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ironsheep/gravis-mcp/internal/config"
	"github.com/ironsheep/gravis-mcp/internal/contour"
	"github.com/ironsheep/gravis-mcp/internal/features"
	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

// Options are the per-run parameters shared by every mode.
type Options struct {
	// Resolution is the length of one pixel in physical units.
	Resolution float64
	// NodeSpacing is the contour stride of shape mode in pixels; zero
	// derives it from Resolution.
	NodeSpacing int
	// TraceTimeout bounds the boundary walk of one shape.
	TraceTimeout time.Duration
	// Workers bounds concurrent shapes.
	Workers int
	// Colors is the group palette of Compare.
	Colors []string
	// OutputDir receives artifacts; empty writes nothing.
	OutputDir string
}

// OptionsFrom copies the run parameters out of a configuration.
func OptionsFrom(c config.Config) Options {
	return Options{
		Resolution:   c.Resolution,
		NodeSpacing:  c.NodeSpacing,
		TraceTimeout: c.TraceTimeout.Duration,
		Workers:      c.Workers,
		Colors:       c.Colors,
	}
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// shapeSpacing is the node spacing of shape mode.
func (o Options) shapeSpacing() (int, error) {
	if o.NodeSpacing > 0 {
		return o.NodeSpacing, nil
	}
	return visgraph.PixelDistance(o.Resolution)
}

// skippable reports whether err only disqualifies one shape.
func skippable(err error) bool {
	for _, target := range []error{
		contour.ErrTouchesBorder,
		contour.ErrUntraceable,
		contour.ErrTopologyDefect,
		visgraph.ErrDegenerateContour,
		visgraph.ErrInvalidPolygon,
		features.ErrDegenerateShape,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// skipped tags a per-shape error with the stage that gave up on the shape.
func skipped(stage string, err error) error {
	return fmt.Errorf("skipped at %s: %w", stage, err)
}
