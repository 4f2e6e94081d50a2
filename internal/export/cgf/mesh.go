package cgf

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// MeshExporter copies the geometry of mesh nodes into their content node
// and dispatches the mesh context for the stream exporters.
type MeshExporter struct {
	events.Binder
	bus    *events.Bus
	logger *zap.Logger
}

// NewMeshExporter returns an exporter bound to NodeExportContext.
func NewMeshExporter(bus *events.Bus, logger *zap.Logger) *MeshExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &MeshExporter{bus: bus, logger: logger}
	events.Bind(&e.Binder, e.processMesh)
	return e
}

func (e *MeshExporter) processMesh(ctx *NodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}
	meshData, ok := graph.ContentAs[*data.MeshData](ctx.Scene.GetGraph(), ctx.NodeIndex)
	if !ok {
		return events.Ignored
	}
	if err := meshData.Validate(); err != nil {
		e.logger.Error("invalid mesh data",
			zap.String("node", ctx.NodeName),
			zap.Error(err))
		return events.Failure
	}

	var result events.Combiner

	mesh := &content.Mesh{}
	result.Add(e.bus.Process(NewMeshNodeExportContext(ctx, mesh, events.Construction)))

	filling := NewMeshNodeExportContext(ctx, mesh, events.Filling)
	CopyMesh(meshData, mesh, ctx.PhysicalizeType)
	ctx.Node.Type = content.NodeMesh
	ctx.Node.Mesh = mesh
	ctx.Node.Physicalize = ctx.PhysicalizeType
	if ctx.PhysicalizeType != content.PhysicalizeNone {
		ctx.Container.ExportInfo.HavePhysicsProxy = true
	}
	result.Add(e.bus.Process(filling))

	ctx.Container.ExportInfo.NoMesh = false
	result.Add(e.bus.Process(NewMeshNodeExportContext(ctx, mesh, events.Finalizing)))

	return result.Result()
}

// CopyMesh copies the faces, positions and normals of src into mesh.
func CopyMesh(src *data.MeshData, mesh *content.Mesh, physicalize content.PhysicalizeType) {
	setMeshFaces(src, mesh, physicalize)
	setMeshVertices(src, mesh)
}

// setMeshFaces copies the triangles. Physicalized meshes use a single subset;
// the others get one subset per material id, indexed by that id.
func setMeshFaces(src *data.MeshData, mesh *content.Mesh, physicalize content.PhysicalizeType) {
	count := src.GetFaceCount()
	if count == 0 {
		return
	}

	mesh.Faces = make([]content.Face, count)
	for i := range count {
		face := content.Face{V: src.GetFaceInfo(i).VertexIndex}

		switch physicalize {
		case content.PhysicalizeDefaultProxy, content.PhysicalizeObstruct:
			if len(mesh.Subsets) == 0 {
				mesh.Subsets = append(mesh.Subsets, content.Subset{MatID: 0})
			}
		default:
			face.Subset = int(src.GetFaceMaterialId(i))
			for len(mesh.Subsets) <= face.Subset {
				mesh.Subsets = append(mesh.Subsets, content.Subset{MatID: len(mesh.Subsets)})
			}
		}
		mesh.Faces[i] = face
	}
}

// setMeshVertices copies positions and, when present, normals. Missing
// normals stay empty and are filled with a default by the file writer.
func setMeshVertices(src *data.MeshData, mesh *content.Mesh) {
	count := src.GetVertexCount()
	mesh.Positions = make([]math.Vec3, count)
	for i := range count {
		mesh.Positions[i] = src.GetPosition(i)
	}

	if !src.HasNormalData() {
		return
	}
	mesh.Normals = make([]math.Vec3, count)
	for i := range count {
		mesh.Normals[i] = src.GetNormal(i)
	}
}
