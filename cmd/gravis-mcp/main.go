package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/gravis-mcp/internal/config"
	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/pipeline"
	"github.com/ironsheep/gravis-mcp/internal/raster"
	"github.com/ironsheep/gravis-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	showVersion = flag.Bool("version", false, "")
	showHelp    = flag.Bool("help", false, "")
	configPath  = flag.String("config", "", "")
)

const helpMessage = `gravis-mcp - visibility graph shape analysis

Usage: gravis-mcp [options] [command] [command options]

Options:
  -config  =string   TOML configuration file
  -version (flag)    Print version information
  -h, -help (flag)   Print this help message

Commands:
  serve                                     MCP server on stdin/stdout (default)
  shapes  [-spacing n] [-out dir] image...  Graph every object of binary images
  cells   [-resolution r] [-thin] [-out dir] skeleton.png
  cells   [-resolution r] [-out dir] -from dir
                                            Pavement cell analysis
  compare [-pca] [-dendrogram] [-out dir] collection[,label[,color]]...
                                            Spectral distance matrix of stored graphs

Environment variables:
  GRAVIS_LOG_LEVEL=debug    Log level: debug, info, warning, error, silent
  GRAVIS_WORKERS=n          Concurrent shapes
`

func main() {
	flag.BoolVar(showHelp, "h", false, "")
	flag.BoolVar(showVersion, "v", false, "")
	flag.Usage = func() { fmt.Print(helpMessage) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("gravis-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}
	if *showHelp || (flag.NArg() > 0 && flag.Arg(0) == "help") {
		flag.Usage()
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("Logging setup error: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := "serve", []string(nil)
	if flag.NArg() > 0 {
		cmd, args = flag.Arg(0), flag.Args()[1:]
	}
	if err := run(ctx, cmd, args, cfg); err != nil {
		logging.Errorf("%s: %v", cmd, err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg config.Config) error {
	switch cmd {
	case "serve":
		server.Version = Version
		logging.Debugf("Gravis MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		return server.New(cfg).Run(ctx)
	case "shapes":
		return runShapes(ctx, args, cfg)
	case "cells":
		return runCells(ctx, args, cfg)
	case "compare":
		return runCompare(ctx, args, cfg)
	default:
		return fmt.Errorf("unknown command %q, see -help", cmd)
	}
}

func runShapes(ctx context.Context, args []string, cfg config.Config) error {
	fs := flag.NewFlagSet("shapes", flag.ContinueOnError)
	spacing := fs.Int("spacing", cfg.NodeSpacing, "contour pixels between nodes")
	out := fs.String("out", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no images given")
	}

	opts := pipeline.OptionsFrom(cfg)
	opts.NodeSpacing = *spacing
	opts.OutputDir = *out
	res, err := pipeline.Shapes(ctx, raster.NewCache(), fs.Args(), opts)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runCells(ctx context.Context, args []string, cfg config.Config) error {
	fs := flag.NewFlagSet("cells", flag.ContinueOnError)
	resolution := fs.Float64("resolution", cfg.Resolution, "length units per pixel")
	thin := fs.Bool("thin", false, "thin the input mask to a skeleton first")
	from := fs.String("from", "", "resume from the skeletons saved in this directory")
	out := fs.String("out", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := pipeline.OptionsFrom(cfg)
	opts.Resolution = *resolution
	opts.OutputDir = *out
	cache := raster.NewCache()

	var res *pipeline.CellsResult
	var err error
	switch {
	case *from != "" && fs.NArg() == 0:
		res, err = pipeline.CellsFromArtifacts(ctx, cache, *from, opts)
	case *from == "" && fs.NArg() == 1:
		load := cache.LoadMask
		if *thin {
			load = cache.LoadMembrane
		}
		var skel *raster.Mask
		if skel, err = load(fs.Arg(0)); err != nil {
			return err
		}
		res, err = pipeline.Cells(ctx, skel, opts)
	default:
		return errors.New("give one skeleton image or -from dir")
	}
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runCompare(ctx context.Context, args []string, cfg config.Config) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	pca := fs.Bool("pca", false, "project the matrix on two principal components")
	dendrogram := fs.Bool("dendrogram", false, "cluster the matrix by complete linkage")
	out := fs.String("out", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no collections given")
	}

	inputs := make([]pipeline.CollectionInput, 0, fs.NArg())
	for _, a := range fs.Args() {
		parts := strings.SplitN(a, ",", 3)
		in := pipeline.CollectionInput{Path: parts[0]}
		if len(parts) > 1 {
			in.Label = parts[1]
		}
		if len(parts) > 2 {
			in.Color = parts[2]
		}
		inputs = append(inputs, in)
	}

	opts := pipeline.OptionsFrom(cfg)
	opts.OutputDir = *out
	res, err := pipeline.Compare(ctx, inputs, pipeline.CompareOptions{PCA: *pca, Dendrogram: *dendrogram}, opts)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
