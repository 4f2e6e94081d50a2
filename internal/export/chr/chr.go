// Package chr exports skeleton groups as character skeleton files.
package chr

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
)

// Extension is the file extension of exported skeletons.
const Extension = "chr"

// SkeletonGroupExportContext carries one skeleton group of the exported
// scene.
type SkeletonGroupExportContext struct {
	export.ExportEventContext
	events.PhaseTag

	GroupName string
	Group     *groups.SkeletonGroup
}

// NewSkeletonGroupExportContext returns the context of group in the given
// phase.
func NewSkeletonGroupExportContext(parent *export.ExportEventContext, groupName string, group *groups.SkeletonGroup, phase events.Phase) *SkeletonGroupExportContext {
	return &SkeletonGroupExportContext{
		ExportEventContext: *parent,
		PhaseTag:           events.Tag(phase),
		GroupName:          groupName,
		Group:              group,
	}
}

// SkeletonExportContext asks for the bones below RootBoneName to be added to
// SkinningInfo. It is shared by character and skin export.
type SkeletonExportContext struct {
	events.PhaseTag

	Scene        *scene.Scene
	RootBoneName string
	SkinningInfo *content.SkinningInfo
}

// NewSkeletonExportContext returns a skeleton context in the given phase.
func NewSkeletonExportContext(s *scene.Scene, rootBoneName string, info *content.SkinningInfo, phase events.Phase) *SkeletonExportContext {
	return &SkeletonExportContext{
		PhaseTag:     events.Tag(phase),
		Scene:        s,
		RootBoneName: rootBoneName,
		SkinningInfo: info,
	}
}

// ConfigureContent sets the export info shared by skeleton and skin files.
func ConfigureContent(c *content.CGF) {
	c.ExportInfo = content.ExportInfo{
		MergeAllNodes:     true,
		NoMesh:            true,
		AuthorToolVersion: 1,
	}
}

// Exporter writes one skeleton file per skeleton group of the scene.
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
		NewSkeletonGroupExporter(e.bus, e.writer, e.logger),
		NewSkeletonExporter(e.logger),
	)
	defer disconnect()

	var result events.Combiner
	for name, group := range manifest.EntriesOf[*groups.SkeletonGroup](ctx.Scene.GetManifest()) {
		r := e.bus.ProcessPhases(NewSkeletonGroupExportContext(ctx, name, group, events.Construction))
		e.logger.Info("skeleton group exported",
			zap.String("scene", ctx.Scene.GetName()),
			zap.String("group", name),
			zap.Stringer("result", r))
		result.Add(r)
	}
	return result.Result()
}

// SkeletonGroupExporter builds and writes the skeleton of a group.
type SkeletonGroupExporter struct {
	events.Binder
	bus    *events.Bus
	writer export.AssetWriter
	logger *zap.Logger
}

// NewSkeletonGroupExporter returns an exporter bound to
// SkeletonGroupExportContext.
func NewSkeletonGroupExporter(bus *events.Bus, writer export.AssetWriter, logger *zap.Logger) *SkeletonGroupExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &SkeletonGroupExporter{bus: bus, writer: writer, logger: logger}
	events.Bind(&e.Binder, e.processGroup)
	return e
}

func (e *SkeletonGroupExporter) processGroup(ctx *SkeletonGroupExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	filename := export.CreateOutputFileName(ctx.GroupName, ctx.OutputDirectory, Extension)
	if err := export.EnsureTargetFolderExists(filename); err != nil {
		e.logger.Error("unable to prepare chr file",
			zap.String("group", ctx.GroupName),
			zap.String("file", filename),
			zap.Error(err))
		return events.Failure
	}

	container := content.New(filename)
	ConfigureContent(container)

	result := e.bus.ProcessPhases(NewSkeletonExportContext(ctx.Scene, ctx.Group.GetSelectedRootBone(), &container.SkinningInfo, events.Construction))

	if e.writer != nil {
		if err := e.writer.WriteCHR(container); err != nil {
			e.logger.Error("unable to write chr file", zap.String("file", filename), zap.Error(err))
			return events.Failure
		}
	}
	return result
}
