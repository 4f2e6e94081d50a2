package cgf

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/internal/export/mtl"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/encoding"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
)

// MaterialExporter links the exported meshes to the material library written
// next to the source file. The library order defines the sub-material
// indices of the container.
type MaterialExporter struct {
	events.Binder
	logger *zap.Logger

	group     *groups.MeshGroup
	materials *mtl.MaterialGroup
}

// NewMaterialExporter returns an exporter bound to every CGF context.
func NewMaterialExporter(logger *zap.Logger) *MaterialExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &MaterialExporter{logger: logger}
	events.Bind(&e.Binder, e.processGroup)
	events.Bind(&e.Binder, e.processContainer)
	events.Bind(&e.Binder, e.processNode)
	events.Bind(&e.Binder, e.processMeshNode)
	return e
}

func (e *MaterialExporter) processGroup(ctx *MeshGroupExportContext) events.ProcessingResult {
	switch ctx.Phase() {
	case events.Construction:
		e.group = ctx.Group
		return events.Success
	case events.Finalizing:
		e.group = nil
		e.materials = nil
		return events.Success
	default:
		return events.Ignored
	}
}

func (e *MaterialExporter) processContainer(ctx *ContainerExportContext) events.ProcessingResult {
	switch ctx.Phase() {
	case events.Construction:
		if !mtl.PolicyFor(ctx.Group).Enabled {
			return events.Ignored
		}
		sourceDir := filepath.Dir(ctx.Scene.GetSourceFilename())
		path := export.CreateOutputFileName(ctx.GroupName, sourceDir, mtl.Extension)

		materials := &mtl.MaterialGroup{}
		if err := materials.Read(path); err != nil {
			e.logger.Error("unable to read material file for processing meshes",
				zap.String("group", ctx.GroupName),
				zap.String("file", path),
				zap.Error(err))
			return events.Failure
		}
		e.materials = materials
		setupCommonMaterial(ctx)
		return events.Success
	case events.Finalizing:
		if !e.active(&ctx.MeshGroupExportContext) {
			return events.Ignored
		}
		e.patchSubmeshes(ctx)
		e.createSubMaterials(ctx)
		return events.Success
	default:
		return events.Ignored
	}
}

func (e *MaterialExporter) processNode(ctx *NodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling || ctx.Container.CommonMaterial == nil {
		return events.Ignored
	}
	ctx.Node.Material = ctx.Container.CommonMaterial
	return events.Success
}

func (e *MaterialExporter) processMeshNode(ctx *MeshNodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling || !e.active(&ctx.MeshGroupExportContext) {
		return events.Ignored
	}
	e.patchMaterials(ctx)
	return events.Success
}

func (e *MaterialExporter) active(ctx *MeshGroupExportContext) bool {
	return e.materials != nil && e.group == ctx.Group
}

func setupCommonMaterial(ctx *ContainerExportContext) {
	if ctx.Container.CommonMaterial != nil {
		return
	}
	name := encoding.TruncateName(ctx.GroupName, encoding.MaterialNameSize)
	ctx.Container.CommonMaterial = content.NewMaterial(name, content.PhysicalizeNone)
}

// patchMaterials maps the node local material ids of a mesh to indices into
// the material library. Merged nodes patch their faces, since only the
// subsets of the first mesh survive merging.
func (e *MaterialExporter) patchMaterials(ctx *MeshNodeExportContext) {
	table := e.relocationTable(ctx)
	if len(table) == 0 {
		// No materials assigned; leave the subsets for manual assignment.
		return
	}

	relocate := func(i int) int {
		if i < 0 || i >= len(table) {
			return i
		}
		return table[i]
	}
	if ctx.Container.ExportInfo.MergeAllNodes {
		for i := range ctx.Mesh.Faces {
			ctx.Mesh.Faces[i].Subset = relocate(ctx.Mesh.Faces[i].Subset)
		}
		return
	}
	for i := range ctx.Mesh.Subsets {
		ctx.Mesh.Subsets[i].MatID = relocate(ctx.Mesh.Subsets[i].MatID)
	}
}

// relocationTable lists the library index of each material child of the
// node in order. Physics proxies use the physics material. Materials missing
// from the library map to the first entry.
func (e *MaterialExporter) relocationTable(ctx *MeshNodeExportContext) []int {
	lookup := func(name string) int {
		index := e.materials.FindMaterialIndex(name)
		if index == mtl.NotFound {
			e.logger.Warn("material not found in library",
				zap.String("node", ctx.NodeName),
				zap.String("material", name))
			return 0
		}
		return index
	}

	if ctx.PhysicalizeType == content.PhysicalizeDefaultProxy {
		return []int{lookup(mtl.PhysicsNoDraw)}
	}

	var table []int
	g := ctx.Scene.GetGraph()
	for child := range graph.ChildContentOf[*data.MaterialData](g, ctx.NodeIndex) {
		table = append(table, lookup(graph.GetShortName(g.GetNodeName(child))))
	}
	return table
}

// patchSubmeshes pads the subsets of the first render mesh so that it covers
// every library material. Merging keeps only the subsets of that mesh.
func (e *MaterialExporter) patchSubmeshes(ctx *ContainerExportContext) {
	if !ctx.Container.ExportInfo.MergeAllNodes {
		return
	}

	var first *content.Mesh
	for _, node := range ctx.Container.Nodes() {
		if node.Mesh != nil && node.Type == content.NodeMesh && node.Physicalize == content.PhysicalizeNone {
			first = node.Mesh
			break
		}
	}
	if first == nil {
		return
	}
	for i := first.GetSubSetCount(); i < e.materials.GetMaterialCount(); i++ {
		first.Subsets = append(first.Subsets, content.Subset{MatID: i})
	}
}

// createSubMaterials mirrors the library into the common material.
func (e *MaterialExporter) createSubMaterials(ctx *ContainerExportContext) {
	root := ctx.Container.CommonMaterial
	if root == nil {
		return
	}

	root.SubMaterials = make([]*content.Material, e.materials.GetMaterialCount())
	for i := range root.SubMaterials {
		m := e.materials.GetMaterial(i)
		physicalize := content.PhysicalizeNone
		if m.Physical {
			physicalize = content.PhysicalizeDefaultProxy
		}
		root.SubMaterials[i] = content.NewMaterial(encoding.TruncateName(m.Name, encoding.MaterialNameSize), physicalize)
	}
}
