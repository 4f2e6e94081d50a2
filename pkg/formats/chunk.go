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

// Chunk file errors.
var (
	ErrInvalidChunkMagic       = errors.New("invalid chunk file magic: expected 'SCNC'")
	ErrUnsupportedChunkVersion = errors.New("unsupported chunk file version")
	ErrTruncatedChunkData      = errors.New("truncated chunk data")
	ErrInvalidChunkTable       = errors.New("invalid chunk table")
	ErrUnknownChunkReference   = errors.New("reference to unknown chunk")
)

const (
	chunkMagic       = "SCNC"
	chunkHeaderSize  = 16
	chunkEntrySize   = 16
	maxChunkCount    = 1 << 16
	noChunk          = -1
	matrixFloatCount = 12
)

// ChunkVersion is the file format version.
type ChunkVersion struct {
	Major uint8
	Minor uint8
}

// CurrentChunkVersion is the version written by Writer.
var CurrentChunkVersion = ChunkVersion{Major: 1, Minor: 0}

// String returns the version as "Major.Minor".
func (v ChunkVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// FileType identifies the asset kind stored in a chunk file.
type FileType uint8

const (
	FileTypeCGF  FileType = 1 // Static geometry
	FileTypeCHR  FileType = 2 // Skeleton
	FileTypeSKIN FileType = 3 // Skinned geometry
)

// String returns the file extension of the asset kind.
func (t FileType) String() string {
	switch t {
	case FileTypeCGF:
		return "cgf"
	case FileTypeCHR:
		return "chr"
	case FileTypeSKIN:
		return "skin"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ChunkType identifies the payload of a chunk.
type ChunkType uint16

const (
	ChunkExportFlags   ChunkType = 0x0001 // ExportInfo
	ChunkMaterial      ChunkType = 0x0002 // Material with inline sub-materials
	ChunkMesh          ChunkType = 0x0003 // Geometry and vertex streams
	ChunkNode          ChunkType = 0x0004 // Node referencing mesh and material
	ChunkBoneNameList  ChunkType = 0x0005 // Bone names and controller ids
	ChunkBoneInitial   ChunkType = 0x0006 // Bind pose matrices
	ChunkBoneHierarchy ChunkType = 0x0007 // Bone entities
)

// String returns a human-readable chunk type name.
func (t ChunkType) String() string {
	switch t {
	case ChunkExportFlags:
		return "ExportFlags"
	case ChunkMaterial:
		return "Material"
	case ChunkMesh:
		return "Mesh"
	case ChunkNode:
		return "Node"
	case ChunkBoneNameList:
		return "BoneNameList"
	case ChunkBoneInitial:
		return "BoneInitialPos"
	case ChunkBoneHierarchy:
		return "BoneHierarchy"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
}

// ChunkHeader is one entry of the chunk table.
type ChunkHeader struct {
	Type    ChunkType // Payload kind
	Version uint16    // Payload version
	ID      uint32    // Unique within the file, starting at 1
	Offset  uint32    // Payload offset from the start of the file
	Size    uint32    // Payload size in bytes
}

// Export flag bits.
const (
	flagMergeAllNodes uint32 = 1 << iota
	flagUseCustomNormals
	flagHavePhysicsProxy
	flagNoMesh
	flagWantF32Vertices
	flagEightWeightsPerVertex
)

// Mesh stream bits.
const (
	meshHasNormals uint32 = 1 << iota
	meshHasColors
	meshHasTexCoords
	meshHasBoneLinks
)

// ChunkFile is a parsed chunk file.
type ChunkFile struct {
	Version ChunkVersion  // File version
	Type    FileType      // Asset kind
	Chunks  []ChunkHeader // Chunk table in file order
	Content *content.CGF  // Decoded content
}

// ParseChunks parses chunk file data from a byte slice.
func ParseChunks(data []byte) (*ChunkFile, error) {
	if len(data) < chunkHeaderSize {
		return nil, ErrTruncatedChunkData
	}

	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := r.Read(magic); err != nil {
		return nil, ErrTruncatedChunkData
	}
	if string(magic) != chunkMagic {
		return nil, ErrInvalidChunkMagic
	}

	f := &ChunkFile{Content: content.New("")}
	var fileType, reserved uint8
	var chunkCount, tableOffset uint32
	binary.Read(r, binary.LittleEndian, &f.Version.Major)
	binary.Read(r, binary.LittleEndian, &f.Version.Minor)
	binary.Read(r, binary.LittleEndian, &fileType)
	binary.Read(r, binary.LittleEndian, &reserved)
	binary.Read(r, binary.LittleEndian, &chunkCount)
	binary.Read(r, binary.LittleEndian, &tableOffset)
	f.Type = FileType(fileType)

	if f.Version.Major != CurrentChunkVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChunkVersion, f.Version)
	}

	if chunkCount > maxChunkCount ||
		uint64(tableOffset)+uint64(chunkCount)*chunkEntrySize > uint64(len(data)) {
		return nil, ErrInvalidChunkTable
	}

	r.Seek(int64(tableOffset), 0)
	f.Chunks = make([]ChunkHeader, chunkCount)
	for i := range f.Chunks {
		h := &f.Chunks[i]
		binary.Read(r, binary.LittleEndian, &h.Type)
		binary.Read(r, binary.LittleEndian, &h.Version)
		binary.Read(r, binary.LittleEndian, &h.ID)
		binary.Read(r, binary.LittleEndian, &h.Offset)
		binary.Read(r, binary.LittleEndian, &h.Size)
		if uint64(h.Offset)+uint64(h.Size) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: chunk %d exceeds file size", ErrInvalidChunkTable, h.ID)
		}
	}

	if err := f.decode(data); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseChunkFile parses a chunk file from disk.
func ParseChunkFile(path string) (*ChunkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk file: %w", err)
	}
	f, err := ParseChunks(data)
	if err != nil {
		return nil, err
	}
	f.Content.Filename = path
	return f, nil
}

// decode rebuilds the content from the chunk payloads.
func (f *ChunkFile) decode(data []byte) error {
	meshes := make(map[uint32]*content.Mesh)
	materials := make(map[uint32]*content.Material)
	var nodeChunks []ChunkHeader

	for _, h := range f.Chunks {
		cr := newChunkReader(data[h.Offset : h.Offset+h.Size])
		var err error
		switch h.Type {
		case ChunkExportFlags:
			err = cr.exportInfo(&f.Content.ExportInfo)
		case ChunkMaterial:
			var mtl *content.Material
			mtl, err = cr.material()
			if err == nil {
				materials[h.ID] = mtl
				if f.Content.CommonMaterial == nil {
					f.Content.CommonMaterial = mtl
				}
			}
		case ChunkMesh:
			var mesh *content.Mesh
			mesh, err = cr.mesh()
			meshes[h.ID] = mesh
		case ChunkNode:
			// Nodes reference other chunks and are decoded last.
			nodeChunks = append(nodeChunks, h)
		case ChunkBoneNameList:
			err = cr.boneNames(&f.Content.SkinningInfo)
		case ChunkBoneInitial:
			err = cr.boneInitial(&f.Content.SkinningInfo)
		case ChunkBoneHierarchy:
			err = cr.boneHierarchy(&f.Content.SkinningInfo)
		}
		if err != nil {
			return fmt.Errorf("parsing %s chunk %d: %w", h.Type, h.ID, err)
		}
	}

	for _, h := range nodeChunks {
		cr := newChunkReader(data[h.Offset : h.Offset+h.Size])
		node, meshID, materialID, err := cr.node()
		if err != nil {
			return fmt.Errorf("parsing %s chunk %d: %w", h.Type, h.ID, err)
		}
		if meshID != noChunk {
			mesh, ok := meshes[uint32(meshID)]
			if !ok {
				return fmt.Errorf("%w: node %q mesh %d", ErrUnknownChunkReference, node.Name, meshID)
			}
			node.Mesh = mesh
		}
		if materialID != noChunk {
			mtl, ok := materials[uint32(materialID)]
			if !ok {
				return fmt.Errorf("%w: node %q material %d", ErrUnknownChunkReference, node.Name, materialID)
			}
			node.Material = mtl
		}
		f.Content.AddNode(node)
	}
	return nil
}

// CountChunks returns the number of chunks of type t.
func (f *ChunkFile) CountChunks(t ChunkType) int {
	n := 0
	for _, h := range f.Chunks {
		if h.Type == t {
			n++
		}
	}
	return n
}

// chunkReader reads one payload and keeps the first error.
type chunkReader struct {
	r   *bytes.Reader
	err error
}

func newChunkReader(payload []byte) *chunkReader {
	return &chunkReader{r: bytes.NewReader(payload)}
}

func (cr *chunkReader) read(v any) {
	if cr.err != nil {
		return
	}
	if err := binary.Read(cr.r, binary.LittleEndian, v); err != nil {
		cr.err = ErrTruncatedChunkData
	}
}

func (cr *chunkReader) name(size int) string {
	buf := make([]byte, size)
	cr.read(buf)
	return encoding.FixedStringToUTF8(buf)
}

// count reads an element count and checks that elemSize bytes per element
// remain.
func (cr *chunkReader) count(elemSize int) int {
	var n uint32
	cr.read(&n)
	if cr.err == nil && uint64(n)*uint64(elemSize) > uint64(cr.r.Len()) {
		cr.err = ErrTruncatedChunkData
	}
	if cr.err != nil {
		return 0
	}
	return int(n)
}

func (cr *chunkReader) matrix() math.Mat4 {
	var rows [matrixFloatCount]float32
	cr.read(&rows)
	return math.FromRows3x4(rows)
}

func (cr *chunkReader) exportInfo(info *content.ExportInfo) error {
	var flags uint32
	cr.read(&flags)
	cr.read(&info.AuthorToolVersion)
	info.MergeAllNodes = flags&flagMergeAllNodes != 0
	info.UseCustomNormals = flags&flagUseCustomNormals != 0
	info.HavePhysicsProxy = flags&flagHavePhysicsProxy != 0
	info.NoMesh = flags&flagNoMesh != 0
	info.WantF32Vertices = flags&flagWantF32Vertices != 0
	info.EightWeightsPerVertex = flags&flagEightWeightsPerVertex != 0
	return cr.err
}

func (cr *chunkReader) material() (*content.Material, error) {
	mtl := &content.Material{}
	mtl.Name = cr.name(encoding.MaterialNameSize)
	cr.read(&mtl.Physicalize)
	subCount := cr.count(encoding.MaterialNameSize + 4)
	for i := 0; i < subCount; i++ {
		sub := &content.Material{}
		sub.Name = cr.name(encoding.MaterialNameSize)
		cr.read(&sub.Physicalize)
		mtl.SubMaterials = append(mtl.SubMaterials, sub)
	}
	return mtl, cr.err
}

func (cr *chunkReader) mesh() (*content.Mesh, error) {
	var streams, vertexCount, faceCount, subsetCount uint32
	cr.read(&streams)
	cr.read(&vertexCount)
	cr.read(&faceCount)
	cr.read(&subsetCount)
	if cr.err != nil {
		return nil, cr.err
	}
	// Positions, normals and faces are always present.
	minSize := uint64(vertexCount)*24 + uint64(faceCount)*16 + uint64(subsetCount)*4
	if minSize > uint64(cr.r.Len()) {
		return nil, ErrTruncatedChunkData
	}

	mesh := &content.Mesh{
		Positions: make([]math.Vec3, vertexCount),
		Faces:     make([]content.Face, faceCount),
		Subsets:   make([]content.Subset, subsetCount),
	}
	for i := range mesh.Positions {
		cr.read(&mesh.Positions[i])
	}
	normals := make([]math.Vec3, vertexCount)
	for i := range normals {
		cr.read(&normals[i])
	}
	if streams&meshHasNormals != 0 {
		mesh.Normals = normals
	}
	for i := range mesh.Faces {
		var subset int32
		cr.read(&mesh.Faces[i].V)
		cr.read(&subset)
		mesh.Faces[i].Subset = int(subset)
	}
	for i := range mesh.Subsets {
		var matID int32
		cr.read(&matID)
		mesh.Subsets[i].MatID = int(matID)
	}
	if streams&meshHasColors != 0 {
		mesh.Colors = make([]content.Color, vertexCount)
		for i := range mesh.Colors {
			cr.read(&mesh.Colors[i])
		}
	}
	if streams&meshHasTexCoords != 0 {
		mesh.TexCoords = make([]math.Vec2, vertexCount)
		for i := range mesh.TexCoords {
			cr.read(&mesh.TexCoords[i])
		}
	}
	if streams&meshHasBoneLinks != 0 {
		mesh.BoneLinks = make([][]content.BoneLink, vertexCount)
		for i := range mesh.BoneLinks {
			linkCount := cr.count(8)
			for j := 0; j < linkCount; j++ {
				var boneID int32
				var weight float32
				cr.read(&boneID)
				cr.read(&weight)
				mesh.BoneLinks[i] = append(mesh.BoneLinks[i], content.BoneLink{BoneID: int(boneID), Weight: weight})
			}
		}
	}
	return mesh, cr.err
}

func (cr *chunkReader) node() (node *content.Node, meshID, materialID int32, err error) {
	node = &content.Node{}
	var identity uint8
	var padding [3]uint8
	node.Name = cr.name(encoding.NodeNameSize)
	cr.read(&node.Type)
	cr.read(&node.Physicalize)
	cr.read(&meshID)
	cr.read(&materialID)
	cr.read(&identity)
	cr.read(&padding)
	node.IdentityMatrix = identity != 0
	node.WorldTM = cr.matrix()
	node.LocalTM = cr.matrix()
	return node, meshID, materialID, cr.err
}

func (cr *chunkReader) boneNames(info *content.SkinningInfo) error {
	n := cr.count(encoding.BoneNameSize + 4)
	info.BoneDescs = make([]content.BoneDesc, n)
	for i := range info.BoneDescs {
		info.BoneDescs[i].Name = cr.name(encoding.BoneNameSize)
		cr.read(&info.BoneDescs[i].ControllerID)
	}
	return cr.err
}

func (cr *chunkReader) boneInitial(info *content.SkinningInfo) error {
	n := cr.count(2 * matrixFloatCount * 4)
	if n != len(info.BoneDescs) {
		return fmt.Errorf("%w: %d bind poses for %d bones", ErrInvalidChunkTable, n, len(info.BoneDescs))
	}
	for i := range info.BoneDescs {
		info.BoneDescs[i].BoneToWorld = cr.matrix()
		info.BoneDescs[i].WorldToBone = cr.matrix()
	}
	return cr.err
}

func (cr *chunkReader) boneHierarchy(info *content.SkinningInfo) error {
	n := cr.count(16)
	info.BoneEntities = make([]content.BoneEntity, n)
	for i := range info.BoneEntities {
		var boneID, parentID, childCount int32
		e := &info.BoneEntities[i]
		cr.read(&boneID)
		cr.read(&parentID)
		cr.read(&childCount)
		cr.read(&e.ControllerID)
		e.BoneID = int(boneID)
		e.ParentID = int(parentID)
		e.ChildCount = int(childCount)
	}
	return cr.err
}
