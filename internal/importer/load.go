package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// ErrNoMeshes is returned when a default manifest cannot be built because
// the scene has no mesh to export.
var ErrNoMeshes = errors.New("scene contains no meshes")

// Loader imports scenes and attaches their manifests.
type Loader struct {
	Importers *Registry
	Types     *manifest.Registry
	Logger    *zap.Logger

	// SaveDefaultManifest writes generated manifests next to the source.
	SaveDefaultManifest bool
}

// LoadScene imports path and loads the sidecar manifest next to it. Without
// a sidecar a default manifest is built; when that is not possible the scene
// is returned with an empty manifest.
func (l *Loader) LoadScene(path string) (*scene.Scene, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	imp, err := l.Importers.Find(path)
	if err != nil {
		return nil, err
	}

	s := scene.New(SceneName(path))
	s.SetSourceFilename(path)
	s.SetManifestFilename(manifest.PathFor(path))

	if err := imp.Import(path, s); err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	logger.Debug("scene imported",
		zap.String("scene", s.GetName()),
		zap.Int("nodes", s.GetGraph().GetNodeCount()))

	if _, err := os.Stat(s.GetManifestFilename()); err == nil {
		if err := s.GetManifest().LoadFrom(s.GetManifestFilename(), l.Types); err != nil {
			return nil, err
		}
		logger.Debug("manifest loaded",
			zap.String("manifest", s.GetManifestFilename()),
			zap.Int("entries", s.GetManifest().GetEntryCount()))
		return s, nil
	}

	if err := BuildDefaultManifest(s); err != nil {
		logger.Debug("no default manifest", zap.String("scene", s.GetName()), zap.Error(err))
		return s, nil
	}
	if l.SaveDefaultManifest {
		if err := s.GetManifest().Save(s.GetManifestFilename()); err != nil {
			logger.Warn("unable to save default manifest",
				zap.String("manifest", s.GetManifestFilename()),
				zap.Error(err))
		}
	}
	return s, nil
}

// SceneName returns the file name of path without its extension.
func SceneName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildDefaultManifest adds one mesh group named after the scene that selects
// every mesh node.
func BuildDefaultManifest(s *scene.Scene) error {
	g := s.GetGraph()
	var meshes []string
	for node := range g.DepthFirst() {
		if selection.IsMesh(g, node) {
			meshes = append(meshes, g.GetNodeName(node))
		}
	}
	if len(meshes) == 0 {
		return ErrNoMeshes
	}

	group := groups.NewMeshGroup()
	selection.UpdateTargetNodes(g, group.GetSceneNodeSelectionList(), meshes, selection.IsMesh)

	name := s.GetManifest().GenerateUniqueName(sanitizeGroupName(s.GetName()))
	return s.GetManifest().AddEntry(name, group)
}

// Group names become file names, so path separators are replaced.
func sanitizeGroupName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	if !manifest.IsValidName(name) {
		return "scene"
	}
	return name
}
