// Package config loads the optional TOML configuration file and applies
// environment overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/gravis-mcp/internal/compare"
	"github.com/ironsheep/gravis-mcp/internal/contour"
	"github.com/ironsheep/gravis-mcp/internal/logging"
)

// Environment variables that override the file.
const (
	EnvLogLevel = "GRAVIS_LOG_LEVEL"
	EnvWorkers  = "GRAVIS_WORKERS"
)

// Duration is a time.Duration written as a Go duration string, e.g. "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds every tunable of a run.
type Config struct {
	// Resolution is the physical length of one pixel. It sets the node
	// spacing of pavement cells and the units of lobe measurements.
	Resolution float64 `toml:"resolution"`
	// NodeSpacing is the contour stride in pixels for generic shapes. Zero
	// derives it from Resolution.
	NodeSpacing int `toml:"node_spacing"`
	// TraceTimeout bounds the boundary walk of one shape.
	TraceTimeout Duration `toml:"trace_timeout"`
	// Workers bounds the shapes traced and the matrix rows computed at once.
	Workers int `toml:"workers"`
	// Colors is the group palette of the comparison plots.
	Colors []string `toml:"colors"`

	Log logging.FileConfig `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Resolution:   1.0,
		TraceTimeout: Duration{contour.DefaultTimeout},
		Workers:      runtime.NumCPU(),
		Colors:       append([]string(nil), compare.DefaultPalette...),
		Log:          logging.FileConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides and
// validates the result. An empty path skips the file. A relative log file is
// taken relative to the config file's directory.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &c)
		if err != nil {
			return c, fmt.Errorf("could not decode TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			logging.Warningf("Ignoring unknown config keys in %s: %v", path, undecoded)
		}
		if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
			c.Log.File = filepath.Join(filepath.Dir(path), c.Log.File)
		}
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks ranges and colours.
func (c Config) Validate() error {
	if !(c.Resolution > 0) {
		return fmt.Errorf("resolution must be positive, got %v", c.Resolution)
	}
	if c.NodeSpacing < 0 {
		return fmt.Errorf("node_spacing must not be negative, got %d", c.NodeSpacing)
	}
	if c.TraceTimeout.Duration <= 0 {
		return fmt.Errorf("trace_timeout must be positive, got %v", c.TraceTimeout.Duration)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for i, s := range c.Colors {
		if _, err := colorful.Hex(s); err != nil {
			return fmt.Errorf("colors[%d] %q: %w", i, s, err)
		}
	}
	if _, err := logging.ParseMode(c.Log.Level); err != nil {
		return err
	}
	return nil
}
