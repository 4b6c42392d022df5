package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"

	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/raster"
)

// ErrPrerequisiteNotFound means a stage was started on its own and the
// artifact an earlier stage should have left behind is missing. It is
// distinct from generic I/O failures; the wrapped error still matches
// os.ErrNotExist.
var ErrPrerequisiteNotFound = errors.New("prerequisite not found")

// Artifact file names inside an output directory.
const (
	SkeletonFile    = "skeleton.png"
	BranchlessFile  = "branchlessSkeleton.png"
	CellGraphsFile  = "visibilityGraphs.gvc"
	ShapeGraphsFile = "visibilityGraphsOther.gvc"
	CellTableFile   = "cellResults.csv"
	LobeTableFile   = "lobeResults.csv"
	ShapeTableFile  = "shapeResults.csv"
	MatrixFile      = "distanceMatrix.csv"
	AnnotationFile  = "annotationsDistanceMatrix.csv"
	ProjectionFile  = "pcaDistanceMatrix.json"
	DendrogramFile  = "dendrogramDistanceMatrix.json"
)

// Require returns the path of name inside dir, or ErrPrerequisiteNotFound
// when it does not exist.
func Require(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrPrerequisiteNotFound, path, err)
		}
		return "", err
	}
	return path, nil
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// SaveMask writes a mask artifact into dir.
func SaveMask(dir, name string, m *raster.Mask) (string, error) {
	path := filepath.Join(dir, name)
	if err := raster.SaveMask(m, path); err != nil {
		return "", err
	}
	logSize(path)
	return path, nil
}

// LoadMask reads a mask artifact previously written into dir.
func LoadMask(cache *raster.Cache, dir, name string) (*raster.Mask, error) {
	path, err := Require(dir, name)
	if err != nil {
		return nil, err
	}
	// The file may have been rewritten since it was cached.
	cache.Evict(path)
	return cache.LoadMask(path)
}

// WriteJSON stores v as indented JSON.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logSize(path)
	return nil
}

func logSize(path string) {
	if fi, err := os.Stat(path); err == nil {
		logging.Infof("Wrote %s (%s)", path, humanize.Bytes(uint64(fi.Size())))
	}
}
