// Package mtl reads and writes MTL material libraries and exports the
// materials used by mesh groups.
package mtl

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/scenerc/pkg/scene/data"
)

// Extension is the file extension of material libraries.
const Extension = "mtl"

// PhysicsNoDraw names the invisible material of physics proxies.
const PhysicsNoDraw = "physics_noDraw"

// NotFound is returned by FindMaterialIndex for unknown names.
const NotFound = -1

// Material flags stored in MtlFlags.
const (
	flagMultiSubMaterial uint32 = 0x00000100
	flagNoDraw           uint32 = 0x00000400
	flagPureChild        uint32 = 0x00080000
)

const (
	vertexColorsGenMask = "%VERTCOLORS"
	defaultShader       = "Illum"
	noDrawShader        = "Nodraw"
)

// MTL errors.
var (
	ErrInvalidMaterialFile = errors.New("invalid material file")
	ErrNoMaterials         = errors.New("material group is empty")
)

// Material is one sub-material of a group.
type Material struct {
	Name           string
	UseVertexColor bool
	Physical       bool
	Textures       map[data.TextureMapType]string

	// Attributes read from an existing file that are not modelled above.
	// They are written back unchanged.
	extraAttrs []xml.Attr
}

// NewMaterial returns a material without textures.
func NewMaterial(name string) *Material {
	return &Material{Name: name, Textures: make(map[data.TextureMapType]string)}
}

// SetTexture sets or clears a texture slot.
func (m *Material) SetTexture(slot data.TextureMapType, path string) {
	if m.Textures == nil {
		m.Textures = make(map[data.TextureMapType]string)
	}
	if path == "" {
		delete(m.Textures, slot)
		return
	}
	m.Textures[slot] = path
}

// GetTexture returns the texture of a slot, or "".
func (m *Material) GetTexture(slot data.TextureMapType) string {
	return m.Textures[slot]
}

// MaterialGroup is an ordered list of uniquely named materials. Lookups by
// name ignore case.
type MaterialGroup struct {
	materials []*Material
	rootAttrs []xml.Attr
}

// GetMaterialCount returns the number of materials.
func (g *MaterialGroup) GetMaterialCount() int {
	return len(g.materials)
}

// GetMaterial returns material i, or nil when out of range.
func (g *MaterialGroup) GetMaterial(i int) *Material {
	if i < 0 || i >= len(g.materials) {
		return nil
	}
	return g.materials[i]
}

// FindMaterialIndex returns the index of the named material, or NotFound.
func (g *MaterialGroup) FindMaterialIndex(name string) int {
	for i, m := range g.materials {
		if strings.EqualFold(m.Name, name) {
			return i
		}
	}
	return NotFound
}

// AddMaterial appends m unless a material with the same name exists.
func (g *MaterialGroup) AddMaterial(m *Material) bool {
	if m == nil || g.FindMaterialIndex(m.Name) != NotFound {
		return false
	}
	g.materials = append(g.materials, m)
	return true
}

// RemoveMaterial removes the named material.
func (g *MaterialGroup) RemoveMaterial(name string) bool {
	i := g.FindMaterialIndex(name)
	if i == NotFound {
		return false
	}
	g.materials = append(g.materials[:i], g.materials[i+1:]...)
	return true
}

// Names returns the material names in order.
func (g *MaterialGroup) Names() []string {
	names := make([]string, len(g.materials))
	for i, m := range g.materials {
		names[i] = m.Name
	}
	return names
}

// xmlMaterial is the on-disk shape of both the root and sub-materials.
type xmlMaterial struct {
	XMLName       xml.Name         `xml:"Material"`
	Name          string           `xml:"Name,attr,omitempty"`
	MtlFlags      uint32           `xml:"MtlFlags,attr"`
	Shader        string           `xml:"Shader,attr,omitempty"`
	StringGenMask string           `xml:"StringGenMask,attr,omitempty"`
	Attrs         []xml.Attr       `xml:",any,attr"`
	Textures      *xmlTextures     `xml:"Textures,omitempty"`
	SubMaterials  *xmlSubMaterials `xml:"SubMaterials,omitempty"`
}

type xmlTextures struct {
	Textures []xmlTexture `xml:"Texture"`
}

type xmlTexture struct {
	Map  string `xml:"Map,attr"`
	File string `xml:"File,attr"`
}

type xmlSubMaterials struct {
	Materials []xmlMaterial `xml:"Material"`
}

// Read replaces the group with the sub-materials of the MTL file at path.
func (g *MaterialGroup) Read(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading material file: %w", err)
	}
	return g.Decode(raw)
}

// Decode replaces the group with the sub-materials in raw.
func (g *MaterialGroup) Decode(raw []byte) error {
	var root xmlRoot
	if err := xml.Unmarshal(raw, &root); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMaterialFile, err)
	}

	g.materials = nil
	g.rootAttrs = root.Attrs
	if root.SubMaterials == nil {
		return nil
	}
	for _, x := range root.SubMaterials.Materials {
		m := NewMaterial(x.Name)
		m.Physical = x.MtlFlags&flagNoDraw != 0
		m.UseVertexColor = strings.Contains(x.StringGenMask, vertexColorsGenMask)
		if x.Textures != nil {
			for _, tex := range x.Textures.Textures {
				slot, ok := parseTextureMap(tex.Map)
				if !ok {
					continue
				}
				m.SetTexture(slot, tex.File)
			}
		}
		m.extraAttrs = x.Attrs
		g.AddMaterial(m)
	}
	return nil
}

// xmlRoot reads the root element and its sub-materials.
type xmlRoot struct {
	XMLName      xml.Name         `xml:"Material"`
	MtlFlags     uint32           `xml:"MtlFlags,attr"`
	Attrs        []xml.Attr       `xml:",any,attr"`
	SubMaterials *xmlSubMaterials `xml:"SubMaterials"`
}

// Write stores the group as an MTL file at path.
func (g *MaterialGroup) Write(path string) error {
	raw, err := g.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing material file: %w", err)
	}
	return nil
}

// Encode renders the group as an MTL document.
func (g *MaterialGroup) Encode() ([]byte, error) {
	if len(g.materials) == 0 {
		return nil, ErrNoMaterials
	}

	root := xmlMaterial{
		MtlFlags:     flagMultiSubMaterial,
		Attrs:        g.rootAttrs,
		SubMaterials: &xmlSubMaterials{},
	}
	for _, m := range g.materials {
		root.SubMaterials.Materials = append(root.SubMaterials.Materials, m.toXML())
	}

	raw, err := xml.MarshalIndent(root, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding material file: %w", err)
	}
	return append(raw, '\n'), nil
}

func (m *Material) toXML() xmlMaterial {
	x := xmlMaterial{
		Name:     m.Name,
		MtlFlags: flagPureChild,
		Shader:   defaultShader,
		Attrs:    m.extraAttrs,
	}
	if m.Physical {
		x.MtlFlags |= flagNoDraw
		x.Shader = noDrawShader
	}
	if m.UseVertexColor {
		x.StringGenMask = vertexColorsGenMask
	}
	for _, slot := range textureSlots {
		if file := m.Textures[slot]; file != "" {
			if x.Textures == nil {
				x.Textures = &xmlTextures{}
			}
			x.Textures.Textures = append(x.Textures.Textures, xmlTexture{Map: slot.String(), File: file})
		}
	}
	return x
}

var textureSlots = []data.TextureMapType{data.TextureDiffuse, data.TextureSpecular, data.TextureBump}

func parseTextureMap(name string) (data.TextureMapType, bool) {
	for _, slot := range textureSlots {
		if strings.EqualFold(slot.String(), name) {
			return slot, true
		}
	}
	return 0, false
}
