// Package skin exports skin groups as skinned mesh files. The skeleton is
// taken from the bones the selected meshes are weighted to.
package skin

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/internal/export/chr"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// Extension is the file extension of exported skins.
const Extension = "skin"

// SkinGroupExportContext carries one skin group of the exported scene.
type SkinGroupExportContext struct {
	export.ExportEventContext
	events.PhaseTag

	GroupName string
	Group     *groups.SkinGroup
}

// NewSkinGroupExportContext returns the context of group in the given phase.
func NewSkinGroupExportContext(parent *export.ExportEventContext, groupName string, group *groups.SkinGroup, phase events.Phase) *SkinGroupExportContext {
	return &SkinGroupExportContext{
		ExportEventContext: *parent,
		PhaseTag:           events.Tag(phase),
		GroupName:          groupName,
		Group:              group,
	}
}

// SkinMeshExportContext carries one selected mesh of a skin group.
type SkinMeshExportContext struct {
	SkinGroupExportContext

	Container *content.CGF
	NodeName  string
	NodeIndex graph.NodeIndex
}

// NewSkinMeshExportContext returns the context of one skinned mesh.
func NewSkinMeshExportContext(parent *SkinGroupExportContext, container *content.CGF, nodeName string, index graph.NodeIndex, phase events.Phase) *SkinMeshExportContext {
	ctx := &SkinMeshExportContext{
		SkinGroupExportContext: *parent,
		Container:              container,
		NodeName:               nodeName,
		NodeIndex:              index,
	}
	ctx.SetPhase(phase)
	return ctx
}

// Exporter writes one skin file per skin group of the scene.
type Exporter struct {
	events.Binder
	bus    *events.Bus
	writer export.AssetWriter
	logger *zap.Logger
}

// NewExporter returns an exporter bound to ExportEventContext.
func NewExporter(bus *events.Bus, writer export.AssetWriter, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{bus: bus, writer: writer, logger: logger}
	events.Bind(&e.Binder, e.export)
	return e
}

func (e *Exporter) export(ctx *export.ExportEventContext) events.ProcessingResult {
	disconnect := e.bus.Connect(
		NewSkinGroupExporter(e.bus, e.writer, e.logger),
		chr.NewSkeletonExporter(e.logger),
		NewSkinMeshExporter(e.logger),
	)
	defer disconnect()

	var result events.Combiner
	for name, group := range manifest.EntriesOf[*groups.SkinGroup](ctx.Scene.GetManifest()) {
		r := e.bus.ProcessPhases(NewSkinGroupExportContext(ctx, name, group, events.Construction))
		e.logger.Info("skin group exported",
			zap.String("scene", ctx.Scene.GetName()),
			zap.String("group", name),
			zap.Stringer("result", r))
		result.Add(r)
	}
	return result.Result()
}

// SkinGroupExporter builds and writes the skeleton and meshes of a skin
// group.
type SkinGroupExporter struct {
	events.Binder
	bus    *events.Bus
	writer export.AssetWriter
	logger *zap.Logger
}

// NewSkinGroupExporter returns an exporter bound to SkinGroupExportContext.
func NewSkinGroupExporter(bus *events.Bus, writer export.AssetWriter, logger *zap.Logger) *SkinGroupExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &SkinGroupExporter{bus: bus, writer: writer, logger: logger}
	events.Bind(&e.Binder, e.processGroup)
	return e
}

func (e *SkinGroupExporter) processGroup(ctx *SkinGroupExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	filename := export.CreateOutputFileName(ctx.GroupName, ctx.OutputDirectory, Extension)
	if err := export.EnsureTargetFolderExists(filename); err != nil {
		e.logger.Error("unable to prepare skin file",
			zap.String("group", ctx.GroupName),
			zap.String("file", filename),
			zap.Error(err))
		return events.Failure
	}

	g := ctx.Scene.GetGraph()
	targets := selection.GenerateTargetNodes(g, ctx.Group.GetSceneNodeSelectionList(), selection.IsMesh)
	rootBone, ok := DetectRootBone(g, targets)
	if !ok {
		e.logger.Error("no skinned bones found", zap.String("group", ctx.GroupName))
		return events.Failure
	}

	container := content.New(filename)
	chr.ConfigureContent(container)

	var result events.Combiner
	result.Add(e.bus.ProcessPhases(chr.NewSkeletonExportContext(ctx.Scene, rootBone, &container.SkinningInfo, events.Construction)))
	for _, name := range targets {
		index := g.Find(name)
		if !index.IsValid() {
			continue
		}
		result.Add(e.bus.ProcessPhases(NewSkinMeshExportContext(ctx, container, name, index, events.Construction)))
	}

	if e.writer != nil {
		if err := e.writer.WriteSKIN(container); err != nil {
			e.logger.Error("unable to write skin file", zap.String("file", filename), zap.Error(err))
			result.Add(events.Failure)
		}
	}
	return result.Result()
}

// DetectRootBone returns the top-most bone above the first bone any of the
// meshes is weighted to. Bone names in skin weights are node paths.
func DetectRootBone(g *graph.Graph, meshes []string) (string, bool) {
	for _, name := range meshes {
		mesh := g.Find(name)
		if !mesh.IsValid() {
			continue
		}
		for _, weights := range graph.ChildContentOf[*data.SkinWeightData](g, mesh) {
			for id := range weights.GetBoneCount() {
				bone := g.Find(weights.GetBoneName(id))
				if !data.IsBone(g, bone) {
					continue
				}
				top := bone
				for ancestor := range g.Upwards(g.GetNodeParent(bone)) {
					if data.IsBone(g, ancestor) {
						top = ancestor
					}
				}
				return g.GetNodeName(top), true
			}
		}
	}
	return "", false
}
