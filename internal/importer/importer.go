// Package importer turns source files into scenes. Importers are looked up by
// file extension; files without one are identified by their content.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/h2non/filetype"

	"github.com/Faultbox/scenerc/pkg/scene"
)

// Registry errors.
var (
	ErrNoExtensions       = errors.New("importer declares no extensions")
	ErrDuplicateExtension = errors.New("extension already registered")
	ErrUnsupported        = errors.New("no importer for file")
)

// Importer fills a scene graph from a source file.
type Importer interface {
	// Extensions returns the file extensions handled, without dot.
	Extensions() []string
	Import(path string, s *scene.Scene) error
}

// Registry maps lowercase extensions to importers.
type Registry struct {
	importers map[string]Importer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

// Register adds imp for all its extensions. Nothing is registered when one
// of them is already taken.
func (r *Registry) Register(imp Importer) error {
	exts := imp.Extensions()
	if len(exts) == 0 {
		return ErrNoExtensions
	}

	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = normalizeExtension(ext)
		if ext == "" {
			return ErrNoExtensions
		}
		if _, exists := r.importers[ext]; exists || slices.Contains(normalized, ext) {
			return fmt.Errorf("%w: %s", ErrDuplicateExtension, ext)
		}
		normalized = append(normalized, ext)
	}
	for _, ext := range normalized {
		r.importers[ext] = imp
	}
	return nil
}

// Find returns the importer for path. Paths without an extension are matched
// on their leading bytes.
func (r *Registry) Find(path string) (Importer, error) {
	ext := normalizeExtension(filepath.Ext(path))
	if ext == "" {
		sniffed, err := sniffExtension(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupported, path, err)
		}
		ext = sniffed
	}
	if imp, ok := r.importers[ext]; ok {
		return imp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.importers[normalizeExtension(filepath.Ext(path))]
	return ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.importers))
	for ext := range r.importers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var registerMatchers sync.Once

// Scene formats are not known to filetype; they are added once.
func addSceneMatchers() {
	filetype.AddMatcher(filetype.NewType("glb", "model/gltf-binary"), func(buf []byte) bool {
		return len(buf) >= 4 && string(buf[:4]) == "glTF"
	})
	filetype.AddMatcher(filetype.NewType("gltf", "model/gltf+json"), func(buf []byte) bool {
		text := strings.TrimSpace(string(buf))
		return strings.HasPrefix(text, "{") && strings.Contains(text, `"asset"`)
	})
}

func sniffExtension(path string) (string, error) {
	registerMatchers.Do(addSceneMatchers)
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown {
		return "", errors.New("unknown content")
	}
	return kind.Extension, nil
}
