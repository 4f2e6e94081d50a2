package skin

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export/cgf"
	"github.com/Faultbox/scenerc/internal/export/chr"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/encoding"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// maxCompactLinks is the number of links per vertex that fit the compact
// skinning format.
const maxCompactLinks = 4

// SkinMeshExporter adds skinned meshes to the container. Bone links are
// remapped from the ids of the skin weights to skeleton bone indices.
type SkinMeshExporter struct {
	events.Binder
	logger *zap.Logger
}

// NewSkinMeshExporter returns an exporter bound to SkinMeshExportContext.
func NewSkinMeshExporter(logger *zap.Logger) *SkinMeshExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &SkinMeshExporter{logger: logger}
	events.Bind(&e.Binder, e.processMesh)
	return e
}

func (e *SkinMeshExporter) processMesh(ctx *SkinMeshExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}
	g := ctx.Scene.GetGraph()
	meshData, ok := graph.ContentAs[*data.MeshData](g, ctx.NodeIndex)
	if !ok {
		return events.Ignored
	}
	if err := meshData.Validate(); err != nil {
		e.logger.Error("invalid mesh data",
			zap.String("node", g.GetNodeName(ctx.NodeIndex)),
			zap.Error(err))
		return events.Failure
	}

	mesh := &content.Mesh{}
	cgf.CopyMesh(meshData, mesh, content.PhysicalizeNone)

	// Only the first weight stream of a mesh is used.
	for _, weights := range graph.ChildContentOf[*data.SkinWeightData](g, ctx.NodeIndex) {
		if !e.copyLinks(ctx, weights, mesh) {
			return events.Failure
		}
		break
	}

	node := content.NewNode(encoding.TruncateName(ctx.NodeName, encoding.NodeNameSize))
	node.Type = content.NodeMesh
	node.Mesh = mesh
	world, translated := cgf.WorldTransform(g, ctx.NodeIndex)
	node.WorldTM = world
	node.IdentityMatrix = !translated

	ctx.Container.AddNode(node)
	ctx.Container.ExportInfo.NoMesh = false
	return events.Success
}

func (e *SkinMeshExporter) copyLinks(ctx *SkinMeshExportContext, weights *data.SkinWeightData, mesh *content.Mesh) bool {
	count := mesh.GetVertexCount()
	if weights.GetVertexCount() > count {
		e.logger.Error("skin weights exceed mesh vertices",
			zap.String("node", ctx.NodeName),
			zap.Int("vertices", count),
			zap.Int("weighted", weights.GetVertexCount()))
		return false
	}

	info := &ctx.Container.SkinningInfo
	remap := make([]int, weights.GetBoneCount())
	for id := range remap {
		name := weights.GetBoneName(id)
		remap[id] = info.FindController(chr.ControllerID(name))
		if remap[id] < 0 {
			e.logger.Error("skinned bone is not part of the skeleton",
				zap.String("node", ctx.NodeName),
				zap.String("bone", name))
			return false
		}
	}

	mesh.BoneLinks = make([][]content.BoneLink, count)
	for v := range weights.GetVertexCount() {
		n := weights.GetLinkCount(v)
		if n > maxCompactLinks {
			ctx.Container.ExportInfo.EightWeightsPerVertex = true
		}
		links := make([]content.BoneLink, n)
		for i := range n {
			link := weights.GetLink(v, i)
			links[i] = content.BoneLink{BoneID: remap[link.BoneID], Weight: link.Weight}
		}
		mesh.BoneLinks[v] = links
	}
	return true
}
