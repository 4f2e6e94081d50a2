// scenetool compiles source scenes into engine assets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/compiler"
	"github.com/Faultbox/scenerc/internal/config"
	"github.com/Faultbox/scenerc/internal/importer"
	"github.com/Faultbox/scenerc/internal/importer/gltf"
	"github.com/Faultbox/scenerc/internal/logger"
	"github.com/Faultbox/scenerc/pkg/formats"
	"github.com/Faultbox/scenerc/pkg/scene"
)

func main() {
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{
		Path:       cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var cmdErr error
	switch command {
	case "export":
		cmdErr = cmdExport(cfg, args)
	case "batch":
		cmdErr = cmdBatch(cfg, args)
	case "watch":
		cmdErr = cmdWatch(cfg, args)
	case "inspect":
		cmdErr = cmdInspect(cfg, args)
	case "dot":
		cmdErr = cmdDot(cfg, args)
	case "manifest":
		cmdErr = cmdManifest(cfg, args)
	case "chunks":
		cmdErr = cmdChunks(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(cmdErr))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - scene asset compiler

Usage:
  scenetool [flags] <command> [options]

Commands:
  export <source>...             Export scenes to the output directory
  batch <dir|source>...          Export every source found below the given paths
  watch <dir>...                 Re-export sources when they or their manifests change
  inspect <source>               Show the scene graph and manifest entries
  dot <source> [output.dot]      Write a graphviz view of the scene graph
  manifest [-write] <source>     Print the manifest used for a source
  chunks <file>                  Show the chunk table of an exported asset

Flags:
  -config <path>   Config file (.yaml or .toml)
  -out <dir>       Output directory
  -workers <n>     Batch worker count
  -fail-fast       Stop a batch at the first failure
  -dot             Write a graphviz view of each exported scene
  -log <path>      Log file
  -debug           Debug logging

Examples:
  scenetool export models/crate.glb
  scenetool -out build/objects -workers 4 batch models/
  scenetool watch models/
  scenetool chunks build/objects/crate.cgf`)
}

// newLoader returns a loader knowing every built-in importer.
func newLoader(cfg *config.Config) (*importer.Loader, error) {
	registry := importer.NewRegistry()
	if err := registry.Register(gltf.New(logger.Log)); err != nil {
		return nil, err
	}
	return &importer.Loader{
		Importers:           registry,
		Types:               scene.NewRegistry(),
		Logger:              logger.Log,
		SaveDefaultManifest: cfg.Import.SaveDefaultManifest,
	}, nil
}

func newCompiler(cfg *config.Config, loader *importer.Loader) *compiler.SceneCompiler {
	opts := compiler.Options{
		WriteDot: cfg.Export.WriteDot,
		DotDir:   cfg.Export.DotDirectory(),
	}
	return compiler.New(loader, formats.NewWriter(), logger.Log, opts)
}

// signalContext is cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdExport(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool export <source>...")
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	c := newCompiler(cfg, loader)

	ctx, stop := signalContext()
	defer stop()

	failed := 0
	for _, source := range args {
		if err := c.Process(ctx, source, cfg.Export.OutputDir); err != nil {
			logger.Error("export failed", zap.String("source", source), zap.Error(err))
			failed++
			continue
		}
		logger.Info("exported", zap.String("source", source), zap.String("output", cfg.Export.OutputDir))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(args))
	}
	return nil
}

// sourceFilter accepts the configured extensions among those an importer
// exists for.
func sourceFilter(cfg *config.Config, loader *importer.Loader) compiler.SourceFilter {
	return compiler.All(compiler.ExtensionFilter(cfg.Import.Extensions), loader.Importers.Supports)
}

func cmdBatch(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool batch <dir|source>...")
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	c := newCompiler(cfg, loader)

	sources, err := compiler.FindSources(args, cfg.Batch.Recursive, sourceFilter(cfg, loader))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logger.Warn("no sources found", zap.Strings("paths", args))
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	b := &compiler.Batch{
		Compiler: c,
		Workers:  cfg.Batch.Workers,
		FailFast: cfg.Batch.FailFast,
		Logger:   logger.Log,
	}
	return b.Run(ctx, sources, cfg.Export.OutputDir)
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool watch <dir>...")
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	c := newCompiler(cfg, loader)

	ctx, stop := signalContext()
	defer stop()

	w := &compiler.Watcher{
		Compiler:  c,
		OutputDir: cfg.Export.OutputDir,
		Accept:    sourceFilter(cfg, loader),
		Debounce:  time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		Logger:    logger.Log,
	}
	return w.Run(ctx, args)
}
