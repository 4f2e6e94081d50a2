package gltf

import (
	"fmt"
	"strconv"

	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/data"
)

// defaultColor is used for vertices of primitives without colours when other
// primitives of the mesh have them.
var defaultColor = data.Color{R: 1, G: 1, B: 1, A: 1}

type namedMaterial struct {
	name string
	data *data.MaterialData
}

type rawLink struct {
	joint  int
	weight float32
}

// pendingSkin holds the joint links of a mesh until the joints are in the
// graph.
type pendingSkin struct {
	skin    int
	weights *data.SkinWeightData
	links   [][]rawLink
}

type meshContent struct {
	mesh      *data.MeshData
	materials []namedMaterial
	colors    *data.VertexColorData
	uvs       *data.VertexUVData
	skin      *pendingSkin
}

// primitiveStreams are the optional vertex streams of one primitive.
type primitiveStreams struct {
	count   int
	normals [][3]float32
	colors  [][4]uint8
	uvs     [][2]float32
	joints  [][4]uint16
	weights [][4]float32
}

// readMesh merges the triangle primitives of m into one mesh. Each primitive
// material becomes a material slot; primitives without one share the
// default slot.
func (b *builder) readMesh(m *qgltf.Mesh, skin *int) (*meshContent, error) {
	out := &meshContent{mesh: &data.MeshData{}}
	slots := make(map[int]uint32)
	defaultSlot := -1

	var streams []primitiveStreams
	var hasNormals, hasColors, hasUVs, hasJoints bool

	for p, prim := range m.Primitives {
		if prim.Mode != qgltf.PrimitiveTriangles {
			b.logger.Warn("skipping non-triangle primitive",
				zap.String("mesh", m.Name),
				zap.Int("primitive", p))
			continue
		}

		var slot uint32
		if prim.Material == nil {
			if defaultSlot < 0 {
				defaultSlot = len(out.materials)
				out.materials = append(out.materials, namedMaterial{name: DefaultMaterialName, data: &data.MaterialData{}})
			}
			slot = uint32(defaultSlot)
		} else {
			var ok bool
			if slot, ok = slots[*prim.Material]; !ok {
				mat, err := b.readMaterial(*prim.Material)
				if err != nil {
					return nil, err
				}
				slot = uint32(len(out.materials))
				slots[*prim.Material] = slot
				out.materials = append(out.materials, mat)
			}
		}

		base := uint32(out.mesh.GetVertexCount())
		s, err := b.readPrimitive(out.mesh, prim, base, slot)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, p, err)
		}
		hasNormals = hasNormals || s.normals != nil
		hasColors = hasColors || s.colors != nil
		hasUVs = hasUVs || s.uvs != nil
		hasJoints = hasJoints || (s.joints != nil && s.weights != nil)
		streams = append(streams, s)
	}

	if hasNormals {
		for _, s := range streams {
			for v := range s.count {
				var n math.Vec3
				if s.normals != nil {
					n = vec3(s.normals[v])
				}
				out.mesh.AddNormal(n)
			}
		}
	}
	if hasColors {
		out.colors = &data.VertexColorData{}
		for _, s := range streams {
			for v := range s.count {
				c := defaultColor
				if s.colors != nil {
					c = data.Color{
						R: float32(s.colors[v][0]) / 255,
						G: float32(s.colors[v][1]) / 255,
						B: float32(s.colors[v][2]) / 255,
						A: float32(s.colors[v][3]) / 255,
					}
				}
				out.colors.AppendColor(c)
			}
		}
	}
	if hasUVs {
		out.uvs = &data.VertexUVData{}
		for _, s := range streams {
			for v := range s.count {
				var uv math.Vec2
				if s.uvs != nil {
					uv = math.Vec2{X: s.uvs[v][0], Y: s.uvs[v][1]}
				}
				out.uvs.AppendUV(uv)
			}
		}
	}
	if hasJoints && skin != nil {
		if *skin < 0 || *skin >= len(b.doc.Skins) {
			return nil, fmt.Errorf("%w: skin %d", ErrInvalidDocument, *skin)
		}
		out.skin = &pendingSkin{skin: *skin, weights: &data.SkinWeightData{}}
		for _, s := range streams {
			for v := range s.count {
				var links []rawLink
				if s.joints != nil && s.weights != nil {
					for k := range 4 {
						if s.weights[v][k] > 0 {
							links = append(links, rawLink{joint: int(s.joints[v][k]), weight: s.weights[v][k]})
						}
					}
				}
				out.skin.links = append(out.skin.links, links)
			}
		}
	}

	if err := out.mesh.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	return out, nil
}

// readPrimitive appends the positions and faces of prim to mesh and returns
// its optional streams.
func (b *builder) readPrimitive(mesh *data.MeshData, prim *qgltf.Primitive, base, slot uint32) (primitiveStreams, error) {
	var s primitiveStreams

	posIndex, ok := prim.Attributes[qgltf.POSITION]
	if !ok {
		return s, fmt.Errorf("%w: primitive without positions", ErrInvalidDocument)
	}
	acr, err := b.accessor(posIndex)
	if err != nil {
		return s, err
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return s, fmt.Errorf("positions: %w", err)
	}
	s.count = len(positions)
	for _, p := range positions {
		mesh.AddPosition(vec3(p))
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := b.accessor(*prim.Indices)
		if err != nil {
			return s, err
		}
		if indices, err = modeler.ReadIndices(b.doc, acr, nil); err != nil {
			return s, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, s.count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		mesh.AddFace(data.Face{VertexIndex: [3]uint32{
			base + indices[i], base + indices[i+1], base + indices[i+2],
		}}, slot)
	}

	if s.normals, err = readStream(b, prim, qgltf.NORMAL, s.count, modeler.ReadNormal); err != nil {
		return s, err
	}
	if s.colors, err = readStream(b, prim, qgltf.COLOR_0, s.count, modeler.ReadColor); err != nil {
		return s, err
	}
	if s.uvs, err = readStream(b, prim, qgltf.TEXCOORD_0, s.count, modeler.ReadTextureCoord); err != nil {
		return s, err
	}
	if s.joints, err = readStream(b, prim, qgltf.JOINTS_0, s.count, modeler.ReadJoints); err != nil {
		return s, err
	}
	if s.weights, err = readStream(b, prim, qgltf.WEIGHTS_0, s.count, modeler.ReadWeights); err != nil {
		return s, err
	}
	return s, nil
}

// readStream reads an optional vertex attribute. A missing attribute yields
// nil; one with a different vertex count is an error.
func readStream[T any](b *builder, prim *qgltf.Primitive, attribute string, count int,
	read func(*qgltf.Document, *qgltf.Accessor, []T) ([]T, error)) ([]T, error) {
	index, ok := prim.Attributes[attribute]
	if !ok {
		return nil, nil
	}
	acr, err := b.accessor(index)
	if err != nil {
		return nil, err
	}
	values, err := read(b.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attribute, err)
	}
	if len(values) != count {
		return nil, fmt.Errorf("%w: %s has %d values for %d vertices", ErrInvalidDocument, attribute, len(values), count)
	}
	return values, nil
}

func (b *builder) readMaterial(index int) (namedMaterial, error) {
	if index < 0 || index >= len(b.doc.Materials) {
		return namedMaterial{}, fmt.Errorf("%w: material %d", ErrInvalidDocument, index)
	}
	src := b.doc.Materials[index]
	mat := namedMaterial{
		name: nodeName(src.Name, "material_"+strconv.Itoa(index)),
		data: &data.MaterialData{},
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
		mat.data.SetTexture(data.TextureDiffuse, b.texturePath(pbr.BaseColorTexture.Index))
	}
	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		mat.data.SetTexture(data.TextureBump, b.texturePath(*src.NormalTexture.Index))
	}
	return mat, nil
}

// texturePath returns the image URI of a texture. Embedded images have no
// path and yield "".
func (b *builder) texturePath(texture int) string {
	if texture < 0 || texture >= len(b.doc.Textures) {
		return ""
	}
	source := b.doc.Textures[texture].Source
	if source == nil || *source < 0 || *source >= len(b.doc.Images) {
		return ""
	}
	image := b.doc.Images[*source]
	if image.IsEmbeddedResource() {
		return ""
	}
	return image.URI
}

// resolveSkin turns joint links into bone links named by the joint node
// paths.
func (b *builder) resolveSkin(p *pendingSkin) error {
	skin := b.doc.Skins[p.skin]
	p.weights.ResizeContainerSpace(len(p.links))
	for v, links := range p.links {
		for _, link := range links {
			if link.joint >= len(skin.Joints) {
				return fmt.Errorf("%w: joint %d of skin %d", ErrInvalidDocument, link.joint, p.skin)
			}
			node, ok := b.nodes[skin.Joints[link.joint]]
			if !ok {
				return fmt.Errorf("%w: joint %d is not part of the scene", ErrInvalidDocument, skin.Joints[link.joint])
			}
			id := p.weights.GetBoneId(b.graph.GetNodeName(node))
			p.weights.AppendLink(v, data.Link{BoneID: id, Weight: link.weight})
		}
	}
	return nil
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
