package importer

import (
	"os"
	"path/filepath"
	"testing"

	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenerc/internal/importer/gltf"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

type fakeImporter struct {
	exts  []string
	build func(s *scene.Scene) error
}

func (f *fakeImporter) Extensions() []string { return f.exts }

func (f *fakeImporter) Import(_ string, s *scene.Scene) error {
	if f.build == nil {
		return nil
	}
	return f.build(s)
}

func withMesh(names ...string) func(s *scene.Scene) error {
	return func(s *scene.Scene) error {
		g := s.GetGraph()
		for _, name := range names {
			if _, err := g.AddChild(g.Root(), name, &data.MeshData{}); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	fbx := &fakeImporter{exts: []string{".FBX"}}
	require.NoError(t, r.Register(fbx))
	require.NoError(t, r.Register(&fakeImporter{exts: []string{"obj", "OBJX"}}))

	assert.Equal(t, []string{"fbx", "obj", "objx"}, r.Extensions())

	found, err := r.Find("models/Crate.Fbx")
	require.NoError(t, err)
	assert.Same(t, fbx, found)
	assert.True(t, r.Supports("a.objx"))
	assert.False(t, r.Supports("a.png"))

	_, err = r.Find("a.png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeImporter{exts: []string{"fbx"}}))

	assert.ErrorIs(t, r.Register(&fakeImporter{exts: []string{"obj", "FBX"}}), ErrDuplicateExtension)
	assert.False(t, r.Supports("a.obj"), "a rejected importer registers nothing")
	assert.ErrorIs(t, r.Register(&fakeImporter{}), ErrNoExtensions)
	assert.ErrorIs(t, r.Register(&fakeImporter{exts: []string{"."}}), ErrNoExtensions)
	assert.ErrorIs(t, r.Register(&fakeImporter{exts: []string{"dae", "dae"}}), ErrDuplicateExtension)
}

func writeGLB(t *testing.T, path string) {
	t.Helper()
	doc := qgltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*qgltf.Mesh{{
		Name:       "body",
		Primitives: []*qgltf.Primitive{{Attributes: map[string]int{qgltf.POSITION: positions}}},
	}}
	doc.Nodes = []*qgltf.Node{{Name: "body", Mesh: qgltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}
	require.NoError(t, qgltf.SaveBinary(doc, path))
}

func TestFindSniffsContent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(gltf.New(nil)))

	path := filepath.Join(t.TempDir(), "crate")
	writeGLB(t, path)

	found, err := r.Find(path)
	require.NoError(t, err)
	assert.IsType(t, &gltf.Importer{}, found)

	text := filepath.Join(t.TempDir(), "notes")
	require.NoError(t, os.WriteFile(text, []byte("plain text"), 0644))
	_, err = r.Find(text)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func newLoader(t *testing.T, imp Importer) *Loader {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(imp))
	return &Loader{Importers: r, Types: scene.NewRegistry()}
}

func TestLoadSceneDefaultManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.fake")
	l := newLoader(t, &fakeImporter{exts: []string{"fake"}, build: withMesh("body", "lid")})

	s, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, "crate", s.GetName())
	assert.Equal(t, path, s.GetSourceFilename())
	assert.Equal(t, path+".assetinfo", s.GetManifestFilename())

	require.Equal(t, 1, s.GetManifest().GetEntryCount())
	assert.Equal(t, "crate", s.GetManifest().GetName(0))
	group, ok := s.GetManifest().GetValue(0).(*groups.MeshGroup)
	require.True(t, ok)
	targets := selection.GenerateTargetNodes(s.GetGraph(), group.GetSceneNodeSelectionList(), selection.IsMesh)
	assert.Equal(t, []string{"body", "lid"}, targets)
}

func TestLoadSceneWithoutMeshes(t *testing.T) {
	l := newLoader(t, &fakeImporter{exts: []string{"fake"}})
	s, err := l.LoadScene(filepath.Join(t.TempDir(), "empty.fake"))
	require.NoError(t, err)
	assert.True(t, s.GetManifest().IsEmpty())
	assert.ErrorIs(t, BuildDefaultManifest(s), ErrNoMeshes)
}

func TestLoadSceneSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crate.fake")
	l := newLoader(t, &fakeImporter{exts: []string{"fake"}, build: withMesh("body", "lid")})

	// Save a manifest selecting only the lid, then load it back.
	s, err := l.LoadScene(path)
	require.NoError(t, err)
	s.GetManifest().Clear()
	group := groups.NewMeshGroup()
	selection.UpdateTargetNodes(s.GetGraph(), group.GetSceneNodeSelectionList(), []string{"lid"}, selection.IsMesh)
	require.NoError(t, s.GetManifest().AddEntry("lid_only", group))
	require.NoError(t, s.GetManifest().Save(s.GetManifestFilename()))

	loaded, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lid_only"}, loaded.GetManifest().Names())

	require.NoError(t, os.WriteFile(loaded.GetManifestFilename(), []byte("entries: ["), 0644))
	_, err = l.LoadScene(path)
	assert.Error(t, err)
}

func TestLoadSceneImportErrors(t *testing.T) {
	l := newLoader(t, &fakeImporter{exts: []string{"fake"}, build: withMesh("a.b")})
	_, err := l.LoadScene(filepath.Join(t.TempDir(), "bad.fake"))
	assert.Error(t, err)

	_, err = l.LoadScene("scene.unknown")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.glb")
	writeGLB(t, path)

	s, err := newLoader(t, gltf.New(nil)).LoadScene(path)
	require.NoError(t, err)
	assert.True(t, selection.IsMesh(s.GetGraph(), s.GetGraph().Find("body")))
	assert.Equal(t, []string{"crate"}, s.GetManifest().Names())
}

func TestLoadSceneSavesDefaultManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.fake")
	l := newLoader(t, &fakeImporter{exts: []string{"fake"}, build: withMesh("body")})
	l.SaveDefaultManifest = true

	s, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.FileExists(t, s.GetManifestFilename())

	// The saved manifest is picked up as a sidecar next time.
	reloaded, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"crate"}, reloaded.GetManifest().Names())
}

func TestDefaultGroupNames(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"crate", "crate"},
		{"props/crate", "props_crate"},
		{`props\crate`, "props_crate"},
		{"", "scene"},
		{".", "scene"},
		{"..", "scene"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeGroupName(tt.in), tt.in)
	}
}
