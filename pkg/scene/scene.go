// Package scene ties an imported scene graph to the manifest describing how
// to export it.
package scene

import (
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
)

// Scene owns the graph and manifest of one source file.
type Scene struct {
	name             string
	sourceFilename   string
	manifestFilename string

	graph    *graph.Graph
	manifest *manifest.Manifest
}

// New returns an empty scene called name.
func New(name string) *Scene {
	return &Scene{
		name:     name,
		graph:    graph.New(),
		manifest: manifest.New(),
	}
}

// GetName returns the scene name.
func (s *Scene) GetName() string { return s.name }

// GetGraph returns the scene graph.
func (s *Scene) GetGraph() *graph.Graph { return s.graph }

// GetManifest returns the export manifest.
func (s *Scene) GetManifest() *manifest.Manifest { return s.manifest }

// GetSourceFilename returns the imported file path.
func (s *Scene) GetSourceFilename() string { return s.sourceFilename }

// SetSourceFilename records the imported file path.
func (s *Scene) SetSourceFilename(path string) { s.sourceFilename = path }

// GetManifestFilename returns the sidecar manifest path.
func (s *Scene) GetManifestFilename() string { return s.manifestFilename }

// SetManifestFilename records the sidecar manifest path.
func (s *Scene) SetManifestFilename(path string) { s.manifestFilename = path }

// NewRegistry returns a registry holding every built-in group and rule type.
func NewRegistry() *manifest.Registry {
	r := manifest.NewRegistry()
	// Built-in names are distinct, registration cannot fail.
	if err := groups.Register(r); err != nil {
		panic(err)
	}
	if err := rules.Register(r); err != nil {
		panic(err)
	}
	return r
}
