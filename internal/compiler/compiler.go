// Package compiler drives the conversion of source scenes into exported
// assets: one scene at a time, in batches, or continuously in watch mode.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/internal/export/cgf"
	"github.com/Faultbox/scenerc/internal/export/chr"
	"github.com/Faultbox/scenerc/internal/export/mtl"
	"github.com/Faultbox/scenerc/internal/export/skin"
	"github.com/Faultbox/scenerc/internal/importer"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/events"
)

// ErrExportFailed is returned when at least one exporter failed.
var ErrExportFailed = errors.New("failure during conversion and exporting")

// Options tunes a SceneCompiler.
type Options struct {
	// WriteDot writes a graphviz view of every processed scene to DotDir.
	WriteDot bool
	DotDir   string
}

// SceneCompiler imports scenes and exports the assets their manifests
// describe. It is safe for concurrent use; every Compile call runs on its
// own bus.
type SceneCompiler struct {
	loader *importer.Loader
	writer export.AssetWriter
	logger *zap.Logger
	opts   Options
}

// New returns a compiler loading scenes with loader and writing assets with
// writer.
func New(loader *importer.Loader, writer export.AssetWriter, logger *zap.Logger, opts Options) *SceneCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SceneCompiler{loader: loader, writer: writer, logger: logger, opts: opts}
}

// Process loads sourcePath and exports it to outputDir. A scene without
// manifest entries is not an error.
func (c *SceneCompiler) Process(ctx context.Context, sourcePath, outputDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := c.logger.With(zap.String("source", sourcePath))

	s, err := c.loader.LoadScene(sourcePath)
	if err != nil {
		logger.Error("failed to load asset", zap.Error(err))
		return fmt.Errorf("loading %s: %w", sourcePath, err)
	}

	if c.opts.WriteDot {
		if path, err := (export.DotExporter{}).WriteToFile(c.opts.DotDir, s); err != nil {
			logger.Warn("unable to write scene graph", zap.Error(err))
		} else {
			logger.Debug("scene graph written", zap.String("dot", path))
		}
	}

	if s.GetManifest().IsEmpty() {
		logger.Info("no manifest loaded and not enough information to create a default manifest",
			zap.String("manifest", s.GetManifestFilename()))
		return nil
	}

	if !c.Compile(s, outputDir) {
		return fmt.Errorf("%s: %w", sourcePath, ErrExportFailed)
	}
	return nil
}

// Compile dispatches the pre-export, export and post-export events for s.
// It reports false only when an exporter failed.
func (c *SceneCompiler) Compile(s *scene.Scene, outputDir string) bool {
	logger := c.logger.With(zap.String("scene", s.GetName()), zap.String("output", outputDir))

	bus := events.NewBus(events.WithLogger(c.logger))
	bus.Connect(
		mtl.NewExporter(c.logger),
		cgf.NewExporter(bus, c.writer, c.logger),
		chr.NewExporter(bus, c.writer, c.logger),
		skin.NewExporter(bus, c.writer, c.logger),
	)

	var result events.Combiner
	result.Add(bus.Process(&export.PreExportEventContext{Scene: s}))
	result.Add(bus.Process(&export.ExportEventContext{OutputDirectory: outputDir, Scene: s}))
	result.Add(bus.Process(&export.PostExportEventContext{OutputDirectory: outputDir}))

	switch r := result.Result(); r {
	case events.Success:
		return true
	case events.Ignored:
		logger.Warn("Nothing found to convert and export")
		return true
	case events.Failure:
		logger.Error("Failure during conversion and exporting")
		return false
	default:
		logger.Error("unexpected result from conversion and exporting", zap.Stringer("result", r))
		return false
	}
}
