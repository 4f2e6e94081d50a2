package data

import "github.com/Faultbox/scenerc/pkg/math"

// Color is a linear RGBA colour.
type Color struct {
	R, G, B, A float32
}

// VertexColorData is a per-vertex colour stream stored as a child of a mesh.
type VertexColorData struct {
	colors []Color
}

// TypeName implements graph.Content.
func (*VertexColorData) TypeName() string { return "VertexColorData" }

// AppendColor adds the colour of the next vertex.
func (v *VertexColorData) AppendColor(c Color) {
	v.colors = append(v.colors, c)
}

// GetCount returns the number of colours.
func (v *VertexColorData) GetCount() int {
	return len(v.colors)
}

// GetColor returns colour i.
func (v *VertexColorData) GetColor(i int) Color {
	return v.colors[i]
}

// VertexUVData is a per-vertex texture coordinate stream stored as a child
// of a mesh.
type VertexUVData struct {
	uvs []math.Vec2
}

// TypeName implements graph.Content.
func (*VertexUVData) TypeName() string { return "VertexUVData" }

// AppendUV adds the coordinate of the next vertex.
func (v *VertexUVData) AppendUV(uv math.Vec2) {
	v.uvs = append(v.uvs, uv)
}

// GetCount returns the number of coordinates.
func (v *VertexUVData) GetCount() int {
	return len(v.uvs)
}

// GetUV returns coordinate i.
func (v *VertexUVData) GetUV(i int) math.Vec2 {
	return v.uvs[i]
}
