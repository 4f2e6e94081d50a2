package chr

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
)

type captureWriter struct {
	written []*content.CGF
	err     error
}

func (w *captureWriter) WriteCGF(*content.CGF) error { return errors.New("unexpected cgf") }

func (w *captureWriter) WriteCHR(c *content.CGF) error {
	w.written = append(w.written, c)
	return w.err
}

func (w *captureWriter) WriteSKIN(*content.CGF) error { return errors.New("unexpected skin") }

// skeletonScene builds root -> child -> grandchild bones with a mesh helper
// next to the child.
func skeletonScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New("hero")
	g := s.GetGraph()

	add := func(parent, name string, world math.Mat4) {
		index, err := g.AddChild(g.Find(parent), name)
		require.NoError(t, err)
		require.NoError(t, data.AttachBone(g, index, world))
	}
	add("", "root", math.Identity())
	add("root", "child", math.Translate(0, 1, 0))
	add("root.child", "grandchild", math.Translate(0, 2, 0))

	_, err := g.AddChild(g.Find("root"), "mesh", &data.MeshData{})
	require.NoError(t, err)
	return s
}

func exportSkeleton(t *testing.T, s *scene.Scene, rootBone string, w *captureWriter) events.ProcessingResult {
	t.Helper()
	require.NoError(t, s.GetManifest().AddEntry("hero", groups.NewSkeletonGroup(rootBone)))

	bus := events.NewBus()
	bus.Connect(NewExporter(bus, w, nil))
	return bus.Process(&export.ExportEventContext{OutputDirectory: t.TempDir(), Scene: s})
}

func TestSkeletonRootDetection(t *testing.T) {
	w := &captureWriter{}
	require.Equal(t, events.Success, exportSkeleton(t, skeletonScene(t), "root", w))
	require.Len(t, w.written, 1)

	c := w.written[0]
	assert.Equal(t, "hero.chr", filepath.Base(c.Filename))
	assert.True(t, c.ExportInfo.NoMesh)

	info := c.SkinningInfo
	require.Len(t, info.BoneDescs, 3)
	require.Len(t, info.BoneEntities, 3)

	names := []string{info.BoneDescs[0].Name, info.BoneDescs[1].Name, info.BoneDescs[2].Name}
	assert.Equal(t, []string{"root", "child", "grandchild"}, names)

	roots := 0
	for _, e := range info.BoneEntities {
		if e.IsRoot() {
			roots++
		}
	}
	assert.Equal(t, 1, roots)

	assert.Equal(t, content.BoneEntity{BoneID: 0, ParentID: -1, ChildCount: 1, ControllerID: ControllerID("root")}, info.BoneEntities[0])
	assert.Equal(t, content.BoneEntity{BoneID: 1, ParentID: 0, ChildCount: 1, ControllerID: ControllerID("root.child")}, info.BoneEntities[1])
	assert.Equal(t, content.BoneEntity{BoneID: 2, ParentID: 1, ChildCount: 0, ControllerID: ControllerID("root.child.grandchild")}, info.BoneEntities[2])
}

func TestBoneTransforms(t *testing.T) {
	w := &captureWriter{}
	require.Equal(t, events.Success, exportSkeleton(t, skeletonScene(t), "root", w))

	child := w.written[0].SkinningInfo.BoneDescs[1]
	assert.True(t, child.BoneToWorld.ApproxEqual(math.Translate(0, 1, 0), 1e-6))
	assert.True(t, child.WorldToBone.ApproxEqual(math.Translate(0, -1, 0), 1e-6))
}

func TestSubtreeRoot(t *testing.T) {
	w := &captureWriter{}
	require.Equal(t, events.Success, exportSkeleton(t, skeletonScene(t), "root.child", w))

	info := w.written[0].SkinningInfo
	require.Len(t, info.BoneEntities, 2)
	assert.True(t, info.BoneEntities[0].IsRoot())
	assert.Equal(t, 0, info.BoneEntities[1].ParentID)
}

func TestSkeletonFailures(t *testing.T) {
	tests := []struct {
		name     string
		rootBone string
		err      error
	}{
		{"missing root", "nope", nil},
		{"root is not a bone", "root.mesh", nil},
		{"writer error", "root", errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &captureWriter{err: tt.err}
			assert.Equal(t, events.Failure, exportSkeleton(t, skeletonScene(t), tt.rootBone, w))
		})
	}
}

func TestControllerID(t *testing.T) {
	assert.Equal(t, ControllerID("Root.Child"), ControllerID("root.child"))
	assert.NotEqual(t, ControllerID("root.child"), ControllerID("root.other"))
}
