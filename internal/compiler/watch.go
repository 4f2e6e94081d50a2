package compiler

import (
	"context"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/scene/manifest"
)

// Watcher re-exports sources when they or their manifest sidecars change.
// Bursts of events are collapsed: a source is processed once Debounce has
// passed without further changes.
type Watcher struct {
	Compiler  *SceneCompiler
	OutputDir string
	Accept    SourceFilter
	Debounce  time.Duration
	Logger    *zap.Logger

	// OnProcessed is called after each export attempt.
	OnProcessed func(source string, err error)
}

// Run watches dirs until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, dirs []string) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
		logger.Info("watching", zap.String("dir", dir))
	}

	pending := make(map[string]struct{})
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			source := w.sourceFor(event.Name)
			if source == "" {
				continue
			}
			logger.Debug("change detected", zap.String("file", event.Name), zap.String("source", source))
			pending[source] = struct{}{}
			fire = time.After(w.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			sources := make([]string, 0, len(pending))
			for source := range pending {
				sources = append(sources, source)
			}
			clear(pending)
			slices.Sort(sources)

			for _, source := range sources {
				err := w.Compiler.Process(ctx, source, w.OutputDir)
				if err != nil {
					logger.Error("export failed", zap.String("source", source), zap.Error(err))
				} else {
					logger.Info("exported", zap.String("source", source))
				}
				if w.OnProcessed != nil {
					w.OnProcessed(source, err)
				}
			}
		}
	}
}

// sourceFor maps a changed file to the source to export, or "" when the
// change is not relevant. Manifest sidecars map to their source.
func (w *Watcher) sourceFor(name string) string {
	source := strings.TrimSuffix(name, manifest.FileExtension)
	if w.Accept != nil && !w.Accept(source) {
		return ""
	}
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		return ""
	}
	return source
}
