package formats

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/math"
)

func testMesh() *content.Mesh {
	return &content.Mesh{
		Positions: []math.Vec3{{X: 0}, {X: 1}, {Y: 1}},
		Faces:     []content.Face{{V: [3]uint32{0, 1, 2}, Subset: 0}},
		Subsets:   []content.Subset{{MatID: 0}},
		TexCoords: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
	}
}

func testCGF(filename string) *content.CGF {
	c := content.New(filename)
	c.ExportInfo = content.ExportInfo{MergeAllNodes: true, WantF32Vertices: true, AuthorToolVersion: 1}
	c.CommonMaterial = content.NewMaterial("crate", content.PhysicalizeNone)
	c.CommonMaterial.SubMaterials = []*content.Material{
		content.NewMaterial("wood", content.PhysicalizeNone),
		content.NewMaterial("physics_noDraw", content.PhysicalizeDefaultProxy),
	}

	node := content.NewNode("crate")
	node.Type = content.NodeMesh
	node.Mesh = testMesh()
	node.Material = c.CommonMaterial
	node.WorldTM = math.Translate(1, 2, 3)
	node.IdentityMatrix = false
	c.AddNode(node)
	return c
}

func TestEncode_RoundTrip(t *testing.T) {
	data, err := Encode(FileTypeCGF, testCGF(""))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := ParseChunks(data)
	if err != nil {
		t.Fatalf("ParseChunks failed: %v", err)
	}

	if f.Type != FileTypeCGF {
		t.Errorf("expected file type cgf, got %s", f.Type)
	}
	if f.Version != CurrentChunkVersion {
		t.Errorf("expected version %s, got %s", CurrentChunkVersion, f.Version)
	}
	if got := f.CountChunks(ChunkNode); got != 1 {
		t.Errorf("expected 1 node chunk, got %d", got)
	}
	if got := f.CountChunks(ChunkMaterial); got != 1 {
		t.Errorf("expected shared material written once, got %d chunks", got)
	}

	c := f.Content
	if !c.ExportInfo.MergeAllNodes || !c.ExportInfo.WantF32Vertices || c.ExportInfo.NoMesh {
		t.Errorf("unexpected export info: %+v", c.ExportInfo)
	}
	if c.CommonMaterial == nil || len(c.CommonMaterial.SubMaterials) != 2 {
		t.Fatalf("expected common material with 2 sub-materials, got %+v", c.CommonMaterial)
	}
	if sub := c.CommonMaterial.SubMaterials[1]; sub.Name != "physics_noDraw" || sub.Physicalize != content.PhysicalizeDefaultProxy {
		t.Errorf("unexpected sub-material: %+v", sub)
	}

	if c.GetNodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", c.GetNodeCount())
	}
	node := c.GetNode(0)
	if node.Name != "crate" || node.Type != content.NodeMesh {
		t.Errorf("unexpected node %q type %s", node.Name, node.Type)
	}
	if node.Material != c.CommonMaterial {
		t.Error("expected node to reference the common material")
	}
	if !node.WorldTM.ApproxEqual(math.Translate(1, 2, 3), 1e-6) {
		t.Errorf("unexpected world transform: %v", node.WorldTM)
	}
	if node.IdentityMatrix {
		t.Error("expected identity flag to be cleared")
	}

	mesh := node.Mesh
	if mesh.GetVertexCount() != 3 || mesh.GetFaceCount() != 1 {
		t.Fatalf("expected 3 vertices and 1 face, got %d and %d", mesh.GetVertexCount(), mesh.GetFaceCount())
	}
	if mesh.HasNormalData() {
		t.Error("expected no normals for a mesh written without them")
	}
	if mesh.GetFaceInfo(0).V != [3]uint32{0, 1, 2} {
		t.Errorf("unexpected face: %v", mesh.GetFaceInfo(0).V)
	}
	if len(mesh.TexCoords) != 3 || mesh.TexCoords[2].Y != 1 {
		t.Errorf("unexpected texture coordinates: %v", mesh.TexCoords)
	}
	if len(mesh.Colors) != 0 {
		t.Errorf("expected no colors, got %d", len(mesh.Colors))
	}
}

func TestEncode_DefaultNormals(t *testing.T) {
	data, err := Encode(FileTypeCGF, testCGF(""))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f, err := ParseChunks(data)
	if err != nil {
		t.Fatalf("ParseChunks failed: %v", err)
	}

	// The normal stream follows the positions in the mesh payload.
	var mesh ChunkHeader
	for _, h := range f.Chunks {
		if h.Type == ChunkMesh {
			mesh = h
		}
	}
	normalOffset := mesh.Offset + 16 + 3*12
	x := float32FromBytes(data[normalOffset:])
	if x != 1 {
		t.Errorf("expected default normal X = 1, got %f", x)
	}
}

func float32FromBytes(b []byte) float32 {
	var v float32
	binary.Decode(b, binary.LittleEndian, &v)
	return v
}

func TestEncode_Skeleton(t *testing.T) {
	c := content.New("")
	root := math.Translate(0, 1, 0)
	c.SkinningInfo = content.SkinningInfo{
		BoneDescs: []content.BoneDesc{
			{Name: "root", ControllerID: 11, BoneToWorld: root, WorldToBone: root.Inverse()},
			{Name: "spine", ControllerID: 22, BoneToWorld: math.Identity(), WorldToBone: math.Identity()},
		},
		BoneEntities: []content.BoneEntity{
			{BoneID: 0, ParentID: -1, ChildCount: 1, ControllerID: 11},
			{BoneID: 1, ParentID: 0, ChildCount: 0, ControllerID: 22},
		},
	}

	data, err := Encode(FileTypeCHR, c)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f, err := ParseChunks(data)
	if err != nil {
		t.Fatalf("ParseChunks failed: %v", err)
	}

	info := f.Content.SkinningInfo
	if len(info.BoneDescs) != 2 || len(info.BoneEntities) != 2 {
		t.Fatalf("expected 2 bones, got %d descs and %d entities", len(info.BoneDescs), len(info.BoneEntities))
	}
	if info.BoneDescs[1].Name != "spine" || info.BoneDescs[1].ControllerID != 22 {
		t.Errorf("unexpected bone desc: %+v", info.BoneDescs[1])
	}
	if !info.BoneDescs[0].WorldToBone.ApproxEqual(root.Inverse(), 1e-6) {
		t.Errorf("unexpected inverse bind pose: %v", info.BoneDescs[0].WorldToBone)
	}
	if !info.BoneEntities[0].IsRoot() || info.BoneEntities[1].IsRoot() {
		t.Error("expected only the first entity to be the root")
	}
	if info.BoneEntities[1].ParentID != 0 {
		t.Errorf("expected parent 0, got %d", info.BoneEntities[1].ParentID)
	}
	if f.CountChunks(ChunkNode) != 0 {
		t.Error("expected no node chunks in a skeleton file")
	}
}

func TestEncode_InvalidMesh(t *testing.T) {
	c := testCGF("")
	c.GetNode(0).Mesh.Faces[0].V[2] = 7

	if _, err := Encode(FileTypeCGF, c); err == nil {
		t.Error("expected error for out of range face index")
	}

	c = testCGF("")
	c.GetNode(0).Mesh.Colors = []content.Color{{R: 1}}
	if _, err := Encode(FileTypeCGF, c); err == nil {
		t.Error("expected error for short color stream")
	}

	c = testCGF("")
	c.GetNode(0).Mesh.Faces[0].Subset = 1
	if _, err := Encode(FileTypeCGF, c); err == nil {
		t.Error("expected error for out of range subset")
	}

	// Merged nodes may use subsets of another mesh.
	second := content.NewNode("lid")
	second.Type = content.NodeMesh
	second.Mesh = testMesh()
	second.Mesh.Subsets = append(second.Mesh.Subsets, content.Subset{MatID: 1})
	c.AddNode(second)
	if _, err := Encode(FileTypeCGF, c); err != nil {
		t.Errorf("merged subsets should be accepted: %v", err)
	}
}

func TestParseChunks_Errors(t *testing.T) {
	valid, err := Encode(FileTypeCGF, testCGF(""))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	badMagic := append([]byte("XXXX"), valid[4:]...)
	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9
	badTable := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badTable[8:], 1000)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedChunkData},
		{"magic", badMagic, ErrInvalidChunkMagic},
		{"version", badVersion, ErrUnsupportedChunkVersion},
		{"table", badTable, ErrInvalidChunkTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChunks(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.cgf")
	w := NewWriter()

	if err := w.WriteCGF(testCGF(path)); err != nil {
		t.Fatalf("WriteCGF failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}

	f, err := ParseChunkFile(path)
	if err != nil {
		t.Fatalf("ParseChunkFile failed: %v", err)
	}
	if f.Content.Filename != path {
		t.Errorf("expected filename %s, got %s", path, f.Content.Filename)
	}
	if f.Content.GetTotalFaceCount() != 1 {
		t.Errorf("expected 1 face, got %d", f.Content.GetTotalFaceCount())
	}

	if err := w.WriteCGF(testCGF("")); !errors.Is(err, ErrNoFilename) {
		t.Errorf("expected ErrNoFilename, got %v", err)
	}
	if err := w.WriteCHR(content.New(path)); !errors.Is(err, ErrNoBones) {
		t.Errorf("expected ErrNoBones, got %v", err)
	}
}
