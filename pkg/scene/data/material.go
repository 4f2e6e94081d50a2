package data

// TextureMapType selects a texture slot of a material.
type TextureMapType int

const (
	TextureDiffuse TextureMapType = iota
	TextureSpecular
	TextureBump
	textureSlotCount
)

var textureMapNames = [...]string{"Diffuse", "Specular", "Bump"}

func (t TextureMapType) String() string {
	if t < 0 || t >= textureSlotCount {
		return "Unknown"
	}
	return textureMapNames[t]
}

// MaterialData describes a material attached to a mesh node as an end point
// child. The node's short name is the material name.
type MaterialData struct {
	textures [textureSlotCount]string
	noDraw   bool
}

// TypeName implements graph.Content.
func (*MaterialData) TypeName() string { return "MaterialData" }

// SetTexture sets the file path of a slot. Unknown slots are ignored.
func (m *MaterialData) SetTexture(slot TextureMapType, path string) {
	if slot >= 0 && slot < textureSlotCount {
		m.textures[slot] = path
	}
}

// GetTexture returns the file path of a slot, or "".
func (m *MaterialData) GetTexture(slot TextureMapType) string {
	if slot < 0 || slot >= textureSlotCount {
		return ""
	}
	return m.textures[slot]
}

// SetNoDraw marks the material as invisible.
func (m *MaterialData) SetNoDraw(noDraw bool) {
	m.noDraw = noDraw
}

// IsNoDraw reports whether the material is invisible.
func (m *MaterialData) IsNoDraw() bool {
	return m.noDraw
}
