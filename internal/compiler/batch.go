package compiler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenerc/pkg/scene/manifest"
)

// Batch exports many sources with a bounded pool of workers. Each scene is
// processed by a single worker.
type Batch struct {
	Compiler *SceneCompiler
	Workers  int  // 0 uses one worker per CPU
	FailFast bool // Stop scheduling after the first failure
	Logger   *zap.Logger
}

// Run processes every source into outputDir. Failures do not stop the other
// sources unless FailFast is set; all of them are returned combined.
func (b *Batch) Run(ctx context.Context, sources []string, outputDir string) error {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu       sync.Mutex
		errs     error
		exported int
	)
	for _, source := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := b.Compiler.Process(gctx, source, outputDir)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				exported++
				return nil
			case errors.Is(err, context.Canceled):
				return nil
			}
			errs = multierr.Append(errs, err)
			if b.FailFast {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch finished",
		zap.Int("sources", len(sources)),
		zap.Int("exported", exported),
		zap.Int("failed", len(multierr.Errors(errs))))

	if errs == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errs
}

// SourceFilter reports whether a file should be compiled.
type SourceFilter func(path string) bool

// ExtensionFilter accepts files whose extension is in exts. An empty list
// accepts everything.
func ExtensionFilter(exts []string) SourceFilter {
	normalized := make([]string, len(exts))
	for i, ext := range exts {
		normalized[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return func(path string) bool {
		if len(normalized) == 0 {
			return true
		}
		return slices.Contains(normalized, strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")))
	}
}

// All returns a filter accepting paths accepted by every filter.
func All(filters ...SourceFilter) SourceFilter {
	return func(path string) bool {
		for _, f := range filters {
			if !f(path) {
				return false
			}
		}
		return true
	}
}

// FindSources expands roots into the accepted source files below them, in
// lexical order. Files named directly are kept even when not accepted.
// Manifest sidecars are never sources.
func FindSources(roots []string, recursive bool, accept SourceFilter) ([]string, error) {
	var sources []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			sources = append(sources, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, manifest.FileExtension) || !accept(path) {
				return nil
			}
			sources = append(sources, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}
