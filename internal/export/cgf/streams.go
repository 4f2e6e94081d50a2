package cgf

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
)

// findStream returns the stream named by the rule below node, or the first
// child stream of type T when name is empty or does not resolve.
func findStream[T graph.Content](g *graph.Graph, node graph.NodeIndex, name string) (T, string, bool) {
	if name != "" {
		if stream, ok := graph.ContentAs[T](g, g.FindFrom(node, name)); ok {
			return stream, name, true
		}
	}
	for child, stream := range graph.ChildContentOf[T](g, node) {
		return stream, graph.GetShortName(g.GetNodeName(child)), true
	}
	var zero T
	return zero, "", false
}

// ColorStreamExporter copies a vertex colour stream into the mesh.
type ColorStreamExporter struct {
	events.Binder
	logger *zap.Logger
}

// NewColorStreamExporter returns an exporter bound to MeshNodeExportContext.
func NewColorStreamExporter(logger *zap.Logger) *ColorStreamExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &ColorStreamExporter{logger: logger}
	events.Bind(&e.Binder, e.copyColors)
	return e
}

func (e *ColorStreamExporter) copyColors(ctx *MeshNodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	var name string
	if rule, ok := groups.FindRule[*rules.MeshAdvancedRule](ctx.Group); ok {
		if rule.IsVertexColorStreamDisabled() {
			return events.Ignored
		}
		name = rule.VertexColorStreamName
	}

	colors, streamName, ok := findStream[*data.VertexColorData](ctx.Scene.GetGraph(), ctx.NodeIndex, name)
	if !ok {
		return events.Ignored
	}

	count := ctx.Mesh.GetVertexCount()
	if colors.GetCount() != count {
		e.logger.Error("vertex color count mismatch",
			zap.String("node", ctx.NodeName),
			zap.String("stream", streamName),
			zap.Int("vertices", count),
			zap.Int("colors", colors.GetCount()))
		return events.Failure
	}

	ctx.Mesh.Colors = make([]content.Color, count)
	for i := range count {
		c := colors.GetColor(i)
		ctx.Mesh.Colors[i] = content.Color{
			R: toByte(c.R),
			G: toByte(c.G),
			B: toByte(c.B),
			A: toByte(c.A),
		}
	}
	return events.Success
}

func toByte(v float32) uint8 {
	return uint8(math.Clamp01(v) * 255)
}

// UVStreamExporter copies texture coordinates into the mesh. Meshes without
// a usable stream receive (0, 0) for every vertex.
type UVStreamExporter struct {
	events.Binder
	logger *zap.Logger
}

// NewUVStreamExporter returns an exporter bound to MeshNodeExportContext.
func NewUVStreamExporter(logger *zap.Logger) *UVStreamExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &UVStreamExporter{logger: logger}
	events.Bind(&e.Binder, e.copyUVs)
	return e
}

func (e *UVStreamExporter) copyUVs(ctx *MeshNodeExportContext) events.ProcessingResult {
	if ctx.Phase() != events.Filling {
		return events.Ignored
	}

	var (
		uvs        *data.VertexUVData
		streamName string
		found      bool
	)
	rule, hasRule := groups.FindRule[*rules.MeshAdvancedRule](ctx.Group)
	if !hasRule || !rule.IsUVStreamDisabled() {
		var name string
		if hasRule {
			name = rule.UVStreamName
		}
		uvs, streamName, found = findStream[*data.VertexUVData](ctx.Scene.GetGraph(), ctx.NodeIndex, name)
	}

	count := ctx.Mesh.GetVertexCount()
	ctx.Mesh.TexCoords = make([]math.Vec2, count)
	if !found {
		return events.Success
	}

	if uvs.GetCount() != count {
		e.logger.Error("uv count mismatch",
			zap.String("node", ctx.NodeName),
			zap.String("stream", streamName),
			zap.Int("vertices", count),
			zap.Int("uvs", uvs.GetCount()))
		return events.Failure
	}
	for i := range count {
		ctx.Mesh.TexCoords[i] = uvs.GetUV(i)
	}
	return events.Success
}
