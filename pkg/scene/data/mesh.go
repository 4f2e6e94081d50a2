// Package data contains the payloads importers attach to scene graph nodes.
package data

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenerc/pkg/math"
)

// ErrFaceIndex is returned when a face references a missing vertex.
var ErrFaceIndex = errors.New("face vertex index out of range")

// Face is a triangle referencing three vertices.
type Face struct {
	VertexIndex [3]uint32
}

// MeshData is the geometry of a single mesh node. Normals are optional; when
// present there is one per position. Each face has a material id which
// indexes the material children of the mesh node in order.
type MeshData struct {
	positions   []math.Vec3
	normals     []math.Vec3
	faces       []Face
	materialIDs []uint32
}

// TypeName implements graph.Content.
func (*MeshData) TypeName() string { return "MeshData" }

// AddPosition appends a vertex position.
func (m *MeshData) AddPosition(p math.Vec3) {
	m.positions = append(m.positions, p)
}

// AddNormal appends a vertex normal.
func (m *MeshData) AddNormal(n math.Vec3) {
	m.normals = append(m.normals, n)
}

// AddFace appends a triangle with its material id.
func (m *MeshData) AddFace(face Face, materialID uint32) {
	m.faces = append(m.faces, face)
	m.materialIDs = append(m.materialIDs, materialID)
}

// GetVertexCount returns the number of positions.
func (m *MeshData) GetVertexCount() int {
	return len(m.positions)
}

// HasNormalData reports whether normals were provided.
func (m *MeshData) HasNormalData() bool {
	return len(m.normals) > 0
}

// GetPosition returns position i.
func (m *MeshData) GetPosition(i int) math.Vec3 {
	return m.positions[i]
}

// GetNormal returns normal i.
func (m *MeshData) GetNormal(i int) math.Vec3 {
	return m.normals[i]
}

// GetFaceCount returns the number of triangles.
func (m *MeshData) GetFaceCount() int {
	return len(m.faces)
}

// GetFaceInfo returns face i.
func (m *MeshData) GetFaceInfo(i int) Face {
	return m.faces[i]
}

// GetFaceMaterialId returns the material id of face i.
func (m *MeshData) GetFaceMaterialId(i int) uint32 {
	return m.materialIDs[i]
}

// Validate checks that every face references existing vertices and that
// normals, when present, match the position count.
func (m *MeshData) Validate() error {
	count := uint32(len(m.positions))
	for i, f := range m.faces {
		for _, v := range f.VertexIndex {
			if v >= count {
				return fmt.Errorf("%w: face %d uses vertex %d of %d", ErrFaceIndex, i, v, count)
			}
		}
	}
	if len(m.normals) > 0 && len(m.normals) != len(m.positions) {
		return fmt.Errorf("mesh has %d normals for %d positions", len(m.normals), len(m.positions))
	}
	return nil
}
