package cgf

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/encoding"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// Exporter writes one static mesh file per mesh group of the scene.
type Exporter struct {
	events.Binder
	bus    *events.Bus
	writer export.AssetWriter
	logger *zap.Logger
}

// NewExporter returns an exporter bound to ExportEventContext. The nested
// contexts are dispatched on bus; writer may be nil to fill the content
// without writing it.
func NewExporter(bus *events.Bus, writer export.AssetWriter, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{bus: bus, writer: writer, logger: logger}
	events.Bind(&e.Binder, e.export)
	return e
}

func (e *Exporter) export(ctx *export.ExportEventContext) events.ProcessingResult {
	// The group level exporters only live for the duration of this event.
	disconnect := e.bus.Connect(
		NewMeshGroupExporter(e.bus, e.writer, e.logger),
		NewContainerSettingsExporter(),
		NewMaterialExporter(e.logger),
		NewWorldMatrixExporter(),
		NewMeshExporter(e.bus, e.logger),
		NewColorStreamExporter(e.logger),
		NewUVStreamExporter(e.logger),
	)
	defer disconnect()

	var result events.Combiner
	for name, group := range manifest.EntriesOf[*groups.MeshGroup](ctx.Scene.GetManifest()) {
		r := e.bus.ProcessPhases(NewMeshGroupExportContext(ctx, name, group, events.Construction))
		e.logger.Info("mesh group exported",
			zap.String("scene", ctx.Scene.GetName()),
			zap.String("group", name),
			zap.Stringer("result", r))
		result.Add(r)
	}
	return result.Result()
}

// MeshGroupExporter builds and writes the content of a mesh group.
type MeshGroupExporter struct {
	events.Binder
	bus    *events.Bus
	writer export.AssetWriter
	logger *zap.Logger
}

// NewMeshGroupExporter returns an exporter bound to MeshGroupExportContext.
func NewMeshGroupExporter(bus *events.Bus, writer export.AssetWriter, logger *zap.Logger) *MeshGroupExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &MeshGroupExporter{bus: bus, writer: writer, logger: logger}
	events.Bind(&e.Binder, e.processGroup)
	return e
}

func (e *MeshGroupExporter) processGroup(ctx *MeshGroupExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	filename := export.CreateOutputFileName(ctx.GroupName, ctx.OutputDirectory, Extension)
	if err := export.EnsureTargetFolderExists(filename); err != nil {
		e.logger.Error("unable to prepare cgf file",
			zap.String("group", ctx.GroupName),
			zap.String("file", filename),
			zap.Error(err))
		return events.Failure
	}

	var result events.Combiner

	container := content.New(filename)
	configureContent(container)
	result.Add(e.bus.Process(NewContainerExportContext(ctx, container, events.Construction)))

	filling := NewContainerExportContext(ctx, container, events.Filling)
	result.Add(e.processMeshes(filling))
	result.Add(e.bus.Process(filling))

	result.Add(e.bus.Process(NewContainerExportContext(ctx, container, events.Finalizing)))

	if e.writer != nil && container.GetNodeCount() > 0 {
		if err := e.writer.WriteCGF(container); err != nil {
			e.logger.Error("unable to write cgf file", zap.String("file", filename), zap.Error(err))
			result.Add(events.Failure)
		}
	}
	return result.Result()
}

func configureContent(c *content.CGF) {
	c.ExportInfo = content.ExportInfo{
		MergeAllNodes:     true,
		NoMesh:            true,
		AuthorToolVersion: 1,
	}
}

// processMeshes adds the physics proxies first, then the render meshes.
func (e *MeshGroupExporter) processMeshes(ctx *ContainerExportContext) events.ProcessingResult {
	g := ctx.Scene.GetGraph()

	var physTargets []string
	if rule, ok := groups.FindRule[*rules.PhysicsRule](ctx.Group); ok {
		physTargets = selection.GenerateTargetNodes(g, rule.GetSceneNodeSelectionList(), selection.IsMesh)
	}
	targets := selection.GenerateTargetNodes(g, ctx.Group.GetSceneNodeSelectionList(), selection.IsMesh)

	return events.Combine(
		e.processMeshType(ctx, physTargets, content.PhysicalizeDefaultProxy),
		e.processMeshType(ctx, targets, content.PhysicalizeNone),
	)
}

func (e *MeshGroupExporter) processMeshType(ctx *ContainerExportContext, targets []string, physicalize content.PhysicalizeType) events.ProcessingResult {
	g := ctx.Scene.GetGraph()
	var result events.Combiner
	for _, name := range targets {
		index := g.Find(name)
		if !index.IsValid() {
			continue
		}

		node := content.NewNode(encoding.TruncateName(name, encoding.NodeNameSize))
		result.Add(e.bus.Process(NewNodeExportContext(ctx, node, name, index, physicalize, events.Construction)))
		result.Add(e.bus.Process(NewNodeExportContext(ctx, node, name, index, physicalize, events.Filling)))
		ctx.Container.AddNode(node)
		result.Add(e.bus.Process(NewNodeExportContext(ctx, node, name, index, physicalize, events.Finalizing)))
	}
	return result.Result()
}

// ContainerSettingsExporter applies the MeshAdvancedRule of a group to its
// container.
type ContainerSettingsExporter struct {
	events.Binder
}

// NewContainerSettingsExporter returns an exporter bound to
// ContainerExportContext.
func NewContainerSettingsExporter() *ContainerSettingsExporter {
	e := &ContainerSettingsExporter{}
	events.Bind(&e.Binder, e.processContainer)
	return e
}

func (e *ContainerSettingsExporter) processContainer(ctx *ContainerExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Construction {
		return events.Ignored
	}
	rule, ok := groups.FindRule[*rules.MeshAdvancedRule](ctx.Group)
	if !ok {
		return events.Ignored
	}
	ctx.Container.ExportInfo.MergeAllNodes = rule.MergeMeshes
	ctx.Container.ExportInfo.WantF32Vertices = rule.Use32BitVertices
	return events.Success
}
