// Package content holds the intermediate asset content that exporters fill
// in and asset writers serialize.
package content

import (
	"fmt"

	"github.com/Faultbox/scenerc/pkg/math"
)

// PhysicalizeType tells the engine how a node or material takes part in
// physics.
type PhysicalizeType int32

const (
	PhysicalizeNone         PhysicalizeType = 0 // Render only
	PhysicalizeDefaultProxy PhysicalizeType = 1 // Collision proxy
	PhysicalizeObstruct     PhysicalizeType = 2 // Blocks visibility
)

// String returns a human-readable physicalize type name.
func (p PhysicalizeType) String() string {
	switch p {
	case PhysicalizeNone:
		return "None"
	case PhysicalizeDefaultProxy:
		return "DefaultProxy"
	case PhysicalizeObstruct:
		return "Obstruct"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// NodeType is the kind of an exported node.
type NodeType int32

const (
	NodeHelper NodeType = 0 // Transform only
	NodeMesh   NodeType = 1 // Carries geometry
)

// String returns a human-readable node type name.
func (t NodeType) String() string {
	switch t {
	case NodeHelper:
		return "Helper"
	case NodeMesh:
		return "Mesh"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ExportInfo describes how the content was produced.
type ExportInfo struct {
	MergeAllNodes         bool   // Nodes are baked into world space
	UseCustomNormals      bool   // Normals come from the source
	HavePhysicsProxy      bool   // At least one proxy node is present
	NoMesh                bool   // No node carries geometry
	WantF32Vertices       bool   // Store 32-bit vertex positions
	EightWeightsPerVertex bool   // Skinned vertices use up to eight links
	AuthorToolVersion     uint32 // Version of the exporting tool
}

// Face is a triangle referencing three vertices and a mesh subset.
type Face struct {
	V      [3]uint32 // Vertex indices
	Subset int       // Index into Mesh.Subsets
}

// Subset groups faces drawn with one sub-material.
type Subset struct {
	MatID int // Index into the common material's sub-materials
}

// Color is an 8-bit RGBA vertex colour.
type Color struct {
	R, G, B, A uint8
}

// BoneLink binds a vertex to a skeleton bone.
type BoneLink struct {
	BoneID int     // Index into SkinningInfo.BoneDescs
	Weight float32 // Blend weight
}

// Mesh is the geometry of one node. Normals, Colors, TexCoords and BoneLinks
// are either empty or hold one entry per position.
type Mesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Faces     []Face
	Colors    []Color
	TexCoords []math.Vec2
	Subsets   []Subset
	BoneLinks [][]BoneLink
}

// GetVertexCount returns the number of positions.
func (m *Mesh) GetVertexCount() int {
	return len(m.Positions)
}

// HasNormalData reports whether the mesh carries normals.
func (m *Mesh) HasNormalData() bool {
	return len(m.Normals) > 0
}

// GetFaceCount returns the number of triangles.
func (m *Mesh) GetFaceCount() int {
	return len(m.Faces)
}

// GetFaceInfo returns triangle i.
func (m *Mesh) GetFaceInfo(i int) Face {
	return m.Faces[i]
}

// GetSubSetCount returns the number of subsets.
func (m *Mesh) GetSubSetCount() int {
	return len(m.Subsets)
}

// Material is a material or one of its sub-materials.
type Material struct {
	Name         string
	Physicalize  PhysicalizeType
	SubMaterials []*Material
}

// NewMaterial returns a material without sub-materials.
func NewMaterial(name string, physicalize PhysicalizeType) *Material {
	return &Material{Name: name, Physicalize: physicalize}
}

// Node is an exported scene node.
type Node struct {
	Name           string
	Type           NodeType
	Mesh           *Mesh
	Material       *Material
	WorldTM        math.Mat4
	LocalTM        math.Mat4
	IdentityMatrix bool
	Physicalize    PhysicalizeType
}

// NewNode returns a helper node with identity transforms.
func NewNode(name string) *Node {
	return &Node{
		Name:           name,
		Type:           NodeHelper,
		WorldTM:        math.Identity(),
		LocalTM:        math.Identity(),
		IdentityMatrix: true,
	}
}

// BoneDesc describes one skeleton bone.
type BoneDesc struct {
	Name         string
	ControllerID uint32    // Animation controller id
	BoneToWorld  math.Mat4 // Bind pose
	WorldToBone  math.Mat4 // Inverse bind pose
}

// BoneEntity links a bone into the hierarchy.
type BoneEntity struct {
	BoneID       int
	ParentID     int // -1 for the root bone
	ChildCount   int
	ControllerID uint32
}

// IsRoot reports whether the entity is the skeleton root.
func (e BoneEntity) IsRoot() bool {
	return e.ParentID < 0
}

// SkinningInfo is the skeleton of a character or skinned mesh.
type SkinningInfo struct {
	BoneDescs    []BoneDesc
	BoneEntities []BoneEntity
}

// FindBone returns the index of the bone with the given name, or -1.
func (s *SkinningInfo) FindBone(name string) int {
	for i, desc := range s.BoneDescs {
		if desc.Name == name {
			return i
		}
	}
	return -1
}

// FindController returns the index of the bone with the given controller
// id, or -1.
func (s *SkinningInfo) FindController(id uint32) int {
	for i, desc := range s.BoneDescs {
		if desc.ControllerID == id {
			return i
		}
	}
	return -1
}

// CGF is the content of one exported asset file.
type CGF struct {
	Filename       string
	ExportInfo     ExportInfo
	CommonMaterial *Material
	SkinningInfo   SkinningInfo

	nodes []*Node
}

// New returns empty content destined for filename.
func New(filename string) *CGF {
	return &CGF{Filename: filename}
}

// AddNode appends a node.
func (c *CGF) AddNode(node *Node) {
	c.nodes = append(c.nodes, node)
}

// GetNodeCount returns the number of nodes.
func (c *CGF) GetNodeCount() int {
	return len(c.nodes)
}

// GetNode returns node i.
func (c *CGF) GetNode(i int) *Node {
	return c.nodes[i]
}

// Nodes returns the nodes in insertion order.
func (c *CGF) Nodes() []*Node {
	return c.nodes
}

// GetTotalVertexCount returns the number of vertices across all nodes.
func (c *CGF) GetTotalVertexCount() int {
	total := 0
	for _, node := range c.nodes {
		if node.Mesh != nil {
			total += node.Mesh.GetVertexCount()
		}
	}
	return total
}

// GetTotalFaceCount returns the number of triangles across all nodes.
func (c *CGF) GetTotalFaceCount() int {
	total := 0
	for _, node := range c.nodes {
		if node.Mesh != nil {
			total += node.Mesh.GetFaceCount()
		}
	}
	return total
}
