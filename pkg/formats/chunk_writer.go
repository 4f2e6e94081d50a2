package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/encoding"
	"github.com/Faultbox/scenerc/pkg/math"
)

// Writer errors.
var (
	ErrNoFilename = errors.New("content has no output filename")
	ErrNoBones    = errors.New("skeleton has no bones")
)

// defaultNormal is written for meshes without source normals.
var defaultNormal = math.Vec3{X: 1, Y: 0, Z: 0}

// Writer serializes exported content to chunk files at content.Filename.
type Writer struct{}

// NewWriter returns a chunk file writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteCGF writes static geometry.
func (w *Writer) WriteCGF(c *content.CGF) error {
	return w.writeFile(FileTypeCGF, c)
}

// WriteCHR writes a skeleton.
func (w *Writer) WriteCHR(c *content.CGF) error {
	if len(c.SkinningInfo.BoneDescs) == 0 {
		return ErrNoBones
	}
	return w.writeFile(FileTypeCHR, c)
}

// WriteSKIN writes skinned geometry.
func (w *Writer) WriteSKIN(c *content.CGF) error {
	return w.writeFile(FileTypeSKIN, c)
}

func (w *Writer) writeFile(t FileType, c *content.CGF) error {
	if c.Filename == "" {
		return ErrNoFilename
	}
	data, err := Encode(t, c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Filename, data, 0644); err != nil {
		return fmt.Errorf("writing %s file: %w", t, err)
	}
	return nil
}

// Encode serializes c as a chunk file of type t.
func Encode(t FileType, c *content.CGF) ([]byte, error) {
	cw := &chunkWriter{}
	cw.add(ChunkExportFlags, func(b *bytes.Buffer) {
		writeExportInfo(b, &c.ExportInfo)
	})

	if t != FileTypeCHR {
		materialIDs := make(map[*content.Material]int32)
		if c.CommonMaterial != nil {
			materialIDs[c.CommonMaterial] = int32(cw.add(ChunkMaterial, func(b *bytes.Buffer) {
				writeMaterial(b, c.CommonMaterial)
			}))
		}
		merged := mergedSubsetCount(c)
		for _, node := range c.Nodes() {
			meshID := int32(noChunk)
			if node.Mesh != nil {
				subsets := len(node.Mesh.Subsets)
				if c.ExportInfo.MergeAllNodes {
					subsets = merged
				}
				if err := validateMesh(node.Mesh, subsets); err != nil {
					return nil, fmt.Errorf("node %q: %w", node.Name, err)
				}
				meshID = int32(cw.add(ChunkMesh, func(b *bytes.Buffer) {
					writeMesh(b, node.Mesh)
				}))
			}
			materialID := int32(noChunk)
			if node.Material != nil {
				id, ok := materialIDs[node.Material]
				if !ok {
					id = int32(cw.add(ChunkMaterial, func(b *bytes.Buffer) {
						writeMaterial(b, node.Material)
					}))
					materialIDs[node.Material] = id
				}
				materialID = id
			}
			cw.add(ChunkNode, func(b *bytes.Buffer) {
				writeNode(b, node, meshID, materialID)
			})
		}
	}

	if info := &c.SkinningInfo; len(info.BoneDescs) > 0 {
		cw.add(ChunkBoneNameList, func(b *bytes.Buffer) {
			put(b, uint32(len(info.BoneDescs)))
			for _, desc := range info.BoneDescs {
				b.Write(encoding.UTF8ToFixedString(desc.Name, encoding.BoneNameSize))
				put(b, desc.ControllerID)
			}
		})
		cw.add(ChunkBoneInitial, func(b *bytes.Buffer) {
			put(b, uint32(len(info.BoneDescs)))
			for _, desc := range info.BoneDescs {
				put(b, desc.BoneToWorld.Rows3x4())
				put(b, desc.WorldToBone.Rows3x4())
			}
		})
		cw.add(ChunkBoneHierarchy, func(b *bytes.Buffer) {
			put(b, uint32(len(info.BoneEntities)))
			for _, e := range info.BoneEntities {
				put(b, int32(e.BoneID))
				put(b, int32(e.ParentID))
				put(b, int32(e.ChildCount))
				put(b, e.ControllerID)
			}
		})
	}

	return cw.bytes(t), nil
}

// mergedSubsetCount returns the largest subset count of all meshes. Faces of
// merged nodes index the subsets of the merged mesh.
func mergedSubsetCount(c *content.CGF) int {
	count := 0
	for _, node := range c.Nodes() {
		if node.Mesh != nil {
			count = max(count, node.Mesh.GetSubSetCount())
		}
	}
	return count
}

// validateMesh checks that every stream matches the vertex count and every
// face references an existing vertex and a subset index below subsets.
func validateMesh(m *content.Mesh, subsets int) error {
	n := m.GetVertexCount()
	streams := []struct {
		name  string
		count int
	}{
		{"normal", len(m.Normals)},
		{"color", len(m.Colors)},
		{"texture coordinate", len(m.TexCoords)},
		{"bone link", len(m.BoneLinks)},
	}
	for _, s := range streams {
		if s.count != 0 && s.count != n {
			return fmt.Errorf("%s stream has %d entries for %d vertices", s.name, s.count, n)
		}
	}
	for i, f := range m.Faces {
		for _, v := range f.V {
			if int(v) >= n {
				return fmt.Errorf("face %d references vertex %d of %d", i, v, n)
			}
		}
		if f.Subset < 0 || f.Subset >= subsets {
			return fmt.Errorf("face %d references subset %d of %d", i, f.Subset, subsets)
		}
	}
	return nil
}

// chunkWriter collects payloads and lays them out behind the file header.
type chunkWriter struct {
	headers  []ChunkHeader
	payloads [][]byte
}

// add appends a chunk and returns its id.
func (cw *chunkWriter) add(t ChunkType, fill func(b *bytes.Buffer)) uint32 {
	var b bytes.Buffer
	fill(&b)
	id := uint32(len(cw.headers) + 1)
	cw.headers = append(cw.headers, ChunkHeader{
		Type:    t,
		Version: 1,
		ID:      id,
		Size:    uint32(b.Len()),
	})
	cw.payloads = append(cw.payloads, b.Bytes())
	return id
}

func (cw *chunkWriter) bytes(t FileType) []byte {
	offset := uint32(chunkHeaderSize)
	for i := range cw.headers {
		cw.headers[i].Offset = offset
		offset += cw.headers[i].Size
	}

	var b bytes.Buffer
	b.WriteString(chunkMagic)
	put(&b, CurrentChunkVersion.Major)
	put(&b, CurrentChunkVersion.Minor)
	put(&b, uint8(t))
	put(&b, uint8(0))
	put(&b, uint32(len(cw.headers)))
	put(&b, offset)
	for _, p := range cw.payloads {
		b.Write(p)
	}
	for _, h := range cw.headers {
		put(&b, h.Type)
		put(&b, h.Version)
		put(&b, h.ID)
		put(&b, h.Offset)
		put(&b, h.Size)
	}
	return b.Bytes()
}

// put writes v in little endian. Writes to a bytes.Buffer cannot fail.
func put(b *bytes.Buffer, v any) {
	binary.Write(b, binary.LittleEndian, v)
}

func writeExportInfo(b *bytes.Buffer, info *content.ExportInfo) {
	var flags uint32
	set := func(on bool, bit uint32) {
		if on {
			flags |= bit
		}
	}
	set(info.MergeAllNodes, flagMergeAllNodes)
	set(info.UseCustomNormals, flagUseCustomNormals)
	set(info.HavePhysicsProxy, flagHavePhysicsProxy)
	set(info.NoMesh, flagNoMesh)
	set(info.WantF32Vertices, flagWantF32Vertices)
	set(info.EightWeightsPerVertex, flagEightWeightsPerVertex)
	put(b, flags)
	put(b, info.AuthorToolVersion)
}

func writeMaterial(b *bytes.Buffer, mtl *content.Material) {
	b.Write(encoding.UTF8ToFixedString(mtl.Name, encoding.MaterialNameSize))
	put(b, mtl.Physicalize)
	put(b, uint32(len(mtl.SubMaterials)))
	for _, sub := range mtl.SubMaterials {
		b.Write(encoding.UTF8ToFixedString(sub.Name, encoding.MaterialNameSize))
		put(b, sub.Physicalize)
	}
}

func writeMesh(b *bytes.Buffer, m *content.Mesh) {
	var streams uint32
	if m.HasNormalData() {
		streams |= meshHasNormals
	}
	if len(m.Colors) > 0 {
		streams |= meshHasColors
	}
	if len(m.TexCoords) > 0 {
		streams |= meshHasTexCoords
	}
	if len(m.BoneLinks) > 0 {
		streams |= meshHasBoneLinks
	}

	put(b, streams)
	put(b, uint32(m.GetVertexCount()))
	put(b, uint32(m.GetFaceCount()))
	put(b, uint32(m.GetSubSetCount()))
	put(b, m.Positions)
	for i := range m.Positions {
		if m.HasNormalData() {
			put(b, m.Normals[i])
		} else {
			put(b, defaultNormal)
		}
	}
	for _, f := range m.Faces {
		put(b, f.V)
		put(b, int32(f.Subset))
	}
	for _, s := range m.Subsets {
		put(b, int32(s.MatID))
	}
	if len(m.Colors) > 0 {
		put(b, m.Colors)
	}
	if len(m.TexCoords) > 0 {
		put(b, m.TexCoords)
	}
	for _, links := range m.BoneLinks {
		put(b, uint32(len(links)))
		for _, l := range links {
			put(b, int32(l.BoneID))
			put(b, l.Weight)
		}
	}
}

func writeNode(b *bytes.Buffer, node *content.Node, meshID, materialID int32) {
	var identity uint8
	if node.IdentityMatrix {
		identity = 1
	}
	b.Write(encoding.UTF8ToFixedString(node.Name, encoding.NodeNameSize))
	put(b, node.Type)
	put(b, node.Physicalize)
	put(b, meshID)
	put(b, materialID)
	put(b, identity)
	put(b, [3]uint8{})
	put(b, node.WorldTM.Rows3x4())
	put(b, node.LocalTM.Rows3x4())
}
