package cgf

import (
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
)

// WorldMatrixExporter bakes the scene transforms of exported nodes. The
// OriginRule of the group adds a root transform applied on top of every node.
type WorldMatrixExporter struct {
	events.Binder

	group      *groups.MeshGroup
	rootMatrix math.Mat4
	rootIsSet  bool
}

// NewWorldMatrixExporter returns an exporter bound to MeshGroupExportContext
// and NodeExportContext.
func NewWorldMatrixExporter() *WorldMatrixExporter {
	e := &WorldMatrixExporter{rootMatrix: math.Identity()}
	events.Bind(&e.Binder, e.processGroup)
	events.Bind(&e.Binder, e.processNode)
	return e
}

func (e *WorldMatrixExporter) processGroup(ctx *MeshGroupExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Construction {
		return events.Ignored
	}

	e.group = ctx.Group
	e.rootMatrix = math.Identity()
	e.rootIsSet = false

	rule, ok := groups.FindRule[*rules.OriginRule](ctx.Group)
	if !ok {
		return events.Ignored
	}

	if !rule.Translation.IsZero() || !rule.Rotation.IsIdentity() {
		e.rootMatrix = math.FromQuatTranslation(rule.Rotation, rule.Translation)
		e.rootIsSet = true
	}
	if rule.Scale != 1 {
		e.rootMatrix = e.rootMatrix.MulScale(math.Vec3{X: rule.Scale, Y: rule.Scale, Z: rule.Scale})
		e.rootIsSet = true
	}
	if rule.OriginNodeName != "" && !rule.UseRootAsOrigin {
		g := ctx.Scene.GetGraph()
		if origin := g.Find(rule.OriginNodeName); origin.IsValid() {
			if world, translated := WorldTransform(g, origin); translated {
				e.rootMatrix = e.rootMatrix.Mul(world.Inverse())
				e.rootIsSet = true
			}
		}
	}

	if !e.rootIsSet {
		return events.Ignored
	}
	return events.Success
}

func (e *WorldMatrixExporter) processNode(ctx *NodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	world, translated := WorldTransform(ctx.Scene.GetGraph(), ctx.NodeIndex)
	if e.rootIsSet && e.group == ctx.Group {
		world = e.rootMatrix.Mul(world)
		translated = true
	}

	// Unmerged nodes keep their transform in the local matrix.
	if ctx.Container.ExportInfo.MergeAllNodes {
		ctx.Node.WorldTM = world
	} else {
		ctx.Node.LocalTM = world
	}
	ctx.Node.IdentityMatrix = !translated
	return events.Success
}

// WorldTransform multiplies the transforms from node up to the root.
// A node contributes its own TransformData or, for nodes with other content,
// the first end point transform among its children. The flag reports
// whether any transform was found.
func WorldTransform(g *graph.Graph, node graph.NodeIndex) (math.Mat4, bool) {
	world := math.Identity()
	translated := false

	for n := range g.Upwards(node) {
		c := g.GetNodeContent(n)
		if c == nil {
			continue
		}
		if t, ok := c.(*data.TransformData); ok {
			world = t.Matrix.Mul(world)
			translated = true
			continue
		}
		if t, ok := endPointTransform(g, n); ok {
			world = t.Matrix.Mul(world)
			translated = true
		}
	}
	return world, translated
}

func endPointTransform(g *graph.Graph, node graph.NodeIndex) (*data.TransformData, bool) {
	for child, t := range graph.ChildContentOf[*data.TransformData](g, node) {
		if g.IsNodeEndPoint(child) {
			return t, true
		}
	}
	return nil, false
}
