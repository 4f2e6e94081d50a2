package chr

import (
	"hash/crc32"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/encoding"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// ControllerID returns the animation controller id of the bone at path.
func ControllerID(path string) uint32 {
	return crc32.ChecksumIEEE([]byte(strings.ToLower(path)))
}

// SkeletonExporter fills the skinning info of a container with the bone
// hierarchy below the root bone. Descriptors and entities are both in
// depth-first order, so entity i describes bone i.
type SkeletonExporter struct {
	events.Binder
	logger *zap.Logger

	boneIndex map[string]int
}

// NewSkeletonExporter returns an exporter bound to SkeletonExportContext.
func NewSkeletonExporter(logger *zap.Logger) *SkeletonExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &SkeletonExporter{logger: logger}
	events.Bind(&e.Binder, e.createBoneDescs)
	events.Bind(&e.Binder, e.createBoneEntities)
	return e
}

func (e *SkeletonExporter) rootBone(ctx *SkeletonExportContext) (graph.NodeIndex, bool) {
	g := ctx.Scene.GetGraph()
	root := g.Find(ctx.RootBoneName)
	if !root.IsValid() {
		e.logger.Error("root bone cannot be found", zap.String("bone", ctx.RootBoneName))
		return root, false
	}
	if !data.IsBone(g, root) {
		e.logger.Error("root bone is not a bone", zap.String("bone", ctx.RootBoneName))
		return root, false
	}
	return root, true
}

func (e *SkeletonExporter) createBoneDescs(ctx *SkeletonExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}
	root, ok := e.rootBone(ctx)
	if !ok {
		return events.Failure
	}

	e.boneIndex = make(map[string]int)
	e.addBoneDescs(ctx, ctx.Scene.GetGraph(), root)
	return events.Success
}

func (e *SkeletonExporter) addBoneDescs(ctx *SkeletonExportContext, g *graph.Graph, node graph.NodeIndex) {
	bone, ok := graph.ContentAs[data.Bone](g, node)
	if !ok {
		return
	}

	fullName := g.GetNodeName(node)
	world := bone.GetWorldTransform()
	e.boneIndex[fullName] = len(ctx.SkinningInfo.BoneDescs)
	ctx.SkinningInfo.BoneDescs = append(ctx.SkinningInfo.BoneDescs, content.BoneDesc{
		Name:         encoding.TruncateName(graph.GetShortName(fullName), encoding.BoneNameSize),
		ControllerID: ControllerID(fullName),
		BoneToWorld:  world,
		WorldToBone:  world.Inverse(),
	})

	for child := range g.Children(node) {
		e.addBoneDescs(ctx, g, child)
	}
}

func (e *SkeletonExporter) createBoneEntities(ctx *SkeletonExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}
	root, ok := e.rootBone(ctx)
	if !ok {
		return events.Failure
	}
	return e.addBoneEntities(ctx, ctx.Scene.GetGraph(), root)
}

func (e *SkeletonExporter) addBoneEntities(ctx *SkeletonExportContext, g *graph.Graph, node graph.NodeIndex) events.ProcessingResult {
	if !data.IsBone(g, node) {
		return events.Success
	}

	fullName := g.GetNodeName(node)
	entity := content.BoneEntity{
		BoneID:       e.boneIndex[fullName],
		ParentID:     -1,
		ControllerID: ControllerID(fullName),
	}
	if fullName != ctx.RootBoneName {
		parent, ok := e.boneIndex[g.GetNodeName(g.GetNodeParent(node))]
		if !ok {
			e.logger.Error("direct parent of bone is not a bone", zap.String("bone", fullName))
			return events.Failure
		}
		entity.ParentID = parent
	}
	for child := range g.Children(node) {
		if _, ok := e.boneIndex[g.GetNodeName(child)]; ok {
			entity.ChildCount++
		}
	}
	ctx.SkinningInfo.BoneEntities = append(ctx.SkinningInfo.BoneEntities, entity)

	var result events.Combiner
	result.Add(events.Success)
	for child := range g.Children(node) {
		result.Add(e.addBoneEntities(ctx, g, child))
	}
	return result.Result()
}
