// Package gltf imports glTF 2.0 scenes (.gltf and .glb) into a scene graph.
//
// Nodes are added breadth first. Meshes become MeshData nodes with material,
// colour, UV, skin weight and transform end point children. Skin joints are
// turned into bones carrying their bind pose.
package gltf

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// Short names of the end point children added to mesh nodes.
const (
	DefaultMaterialName = "default"
	ColorStreamName     = "colors"
	UVStreamName        = "uvs"
	SkinWeightsName     = "skin"
)

// ErrInvalidDocument is returned for documents referencing missing objects.
var ErrInvalidDocument = errors.New("invalid glTF document")

// Importer reads glTF files.
type Importer struct {
	logger *zap.Logger
}

// New returns a glTF importer.
func New(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{logger: logger}
}

// Extensions implements importer.Importer.
func (*Importer) Extensions() []string {
	return []string{"gltf", "glb"}
}

// Import implements importer.Importer.
func (i *Importer) Import(path string, s *scene.Scene) error {
	doc, err := qgltf.Open(path)
	if err != nil {
		return fmt.Errorf("open gltf: %w", err)
	}
	return i.ImportDocument(doc, s)
}

// ImportDocument adds the default scene of doc to the scene graph.
func (i *Importer) ImportDocument(doc *qgltf.Document, s *scene.Scene) error {
	b := &builder{
		doc:    doc,
		graph:  s.GetGraph(),
		logger: i.logger,
		nodes:  make(map[int]graph.NodeIndex, len(doc.Nodes)),
		world:  make(map[int]math.Mat4, len(doc.Nodes)),
		joints: jointSet(doc),
	}
	if err := b.addHierarchy(); err != nil {
		return err
	}
	return b.addBones()
}

type queued struct {
	node   int
	parent graph.NodeIndex
	world  math.Mat4
}

type builder struct {
	doc    *qgltf.Document
	graph  *graph.Graph
	logger *zap.Logger

	nodes  map[int]graph.NodeIndex
	world  map[int]math.Mat4
	joints map[int]bool

	pendingSkins []*pendingSkin
}

func jointSet(doc *qgltf.Document) map[int]bool {
	joints := make(map[int]bool)
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			joints[j] = true
		}
	}
	return joints
}

// roots returns the root nodes of the default scene, or every node without
// a parent when the document declares no scene.
func (b *builder) roots() []int {
	if len(b.doc.Scenes) > 0 {
		index := 0
		if b.doc.Scene != nil && *b.doc.Scene < len(b.doc.Scenes) {
			index = *b.doc.Scene
		}
		return b.doc.Scenes[index].Nodes
	}

	isChild := make(map[int]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (b *builder) addHierarchy() error {
	queue := make([]queued, 0, len(b.doc.Nodes))
	for _, n := range b.roots() {
		queue = append(queue, queued{node: n, parent: b.graph.Root(), world: math.Identity()})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.node < 0 || item.node >= len(b.doc.Nodes) {
			return fmt.Errorf("%w: node %d", ErrInvalidDocument, item.node)
		}
		if _, seen := b.nodes[item.node]; seen {
			return fmt.Errorf("%w: node %d has more than one parent", ErrInvalidDocument, item.node)
		}

		node := b.doc.Nodes[item.node]
		local := localTransform(node)
		world := item.world.Mul(local)
		b.world[item.node] = world

		index, err := b.addNode(item.node, item.parent, local)
		if err != nil {
			return err
		}
		b.nodes[item.node] = index

		for _, child := range node.Children {
			queue = append(queue, queued{node: child, parent: index, world: world})
		}
	}
	return nil
}

func (b *builder) addNode(n int, parent graph.NodeIndex, local math.Mat4) (graph.NodeIndex, error) {
	node := b.doc.Nodes[n]
	name := uniqueChildName(b.graph, parent, nodeName(node.Name, "node_"+strconv.Itoa(n)))

	if node.Mesh == nil {
		index, err := b.graph.AddChild(parent, name)
		if err != nil {
			return graph.InvalidIndex, err
		}
		// Joints receive bone content later, so their transform is kept
		// in a child.
		if !local.IsIdentity() {
			if b.joints[n] {
				err = addEndPoint(b.graph, index, data.TransformNodeName, data.NewTransformData(local))
			} else {
				err = b.graph.SetContent(index, data.NewTransformData(local))
			}
		}
		return index, err
	}

	if *node.Mesh < 0 || *node.Mesh >= len(b.doc.Meshes) {
		return graph.InvalidIndex, fmt.Errorf("%w: node %q mesh %d", ErrInvalidDocument, node.Name, *node.Mesh)
	}
	m, err := b.readMesh(b.doc.Meshes[*node.Mesh], node.Skin)
	if err != nil {
		return graph.InvalidIndex, fmt.Errorf("node %q: %w", node.Name, err)
	}

	index, err := b.graph.AddChild(parent, name, m.mesh)
	if err != nil {
		return graph.InvalidIndex, err
	}
	if err := b.addMeshChildren(index, m); err != nil {
		return graph.InvalidIndex, err
	}
	if !local.IsIdentity() {
		if err := addEndPoint(b.graph, index, data.TransformNodeName, data.NewTransformData(local)); err != nil {
			return graph.InvalidIndex, err
		}
	}
	return index, nil
}

func (b *builder) addMeshChildren(index graph.NodeIndex, m *meshContent) error {
	for _, mat := range m.materials {
		if err := addEndPoint(b.graph, index, mat.name, mat.data); err != nil {
			return err
		}
	}
	if m.colors != nil {
		if err := addEndPoint(b.graph, index, ColorStreamName, m.colors); err != nil {
			return err
		}
	}
	if m.uvs != nil {
		if err := addEndPoint(b.graph, index, UVStreamName, m.uvs); err != nil {
			return err
		}
	}
	if m.skin != nil {
		// Joint names are resolved after the whole hierarchy is known.
		if err := addEndPoint(b.graph, index, SkinWeightsName, m.skin.weights); err != nil {
			return err
		}
		b.pendingSkins = append(b.pendingSkins, m.skin)
	}
	return nil
}

// addBones attaches bone content to every skin joint and resolves the bone
// names of skin weights. Joints are processed parent first so AttachBone can
// tell root bones apart.
func (b *builder) addBones() error {
	for _, skin := range b.doc.Skins {
		bindPoses, err := b.bindPoses(skin)
		if err != nil {
			return err
		}
		for _, j := range b.parentFirst(skin.Joints) {
			index, ok := b.nodes[j]
			if !ok {
				return fmt.Errorf("%w: joint %d is not part of the scene", ErrInvalidDocument, j)
			}
			if data.IsBone(b.graph, index) {
				continue
			}
			if b.graph.HasNodeContent(index) {
				b.logger.Warn("joint already carries content, not a bone",
					zap.String("node", b.graph.GetNodeName(index)))
				continue
			}
			pose, ok := bindPoses[j]
			if !ok {
				pose = b.world[j]
			}
			if err := data.AttachBone(b.graph, index, pose); err != nil {
				return err
			}
		}
	}

	for _, pending := range b.pendingSkins {
		if err := b.resolveSkin(pending); err != nil {
			return err
		}
	}
	return nil
}

// parentFirst orders joints by graph depth.
func (b *builder) parentFirst(joints []int) []int {
	depth := func(j int) int {
		index, ok := b.nodes[j]
		if !ok {
			return 0
		}
		d := 0
		for range b.graph.Upwards(index) {
			d++
		}
		return d
	}
	ordered := slices.Clone(joints)
	slices.SortStableFunc(ordered, func(x, y int) int {
		return cmp.Compare(depth(x), depth(y))
	})
	return ordered
}

// bindPoses returns the scene space bind pose of each joint, taken from the
// inverse bind matrices when the skin has them.
func (b *builder) bindPoses(skin *qgltf.Skin) (map[int]math.Mat4, error) {
	poses := make(map[int]math.Mat4, len(skin.Joints))
	if skin.InverseBindMatrices == nil {
		return poses, nil
	}
	acr, err := b.accessor(*skin.InverseBindMatrices)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("inverse bind matrices: %w", err)
	}
	matrices, ok := raw.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: inverse bind matrices of type %T", ErrInvalidDocument, raw)
	}
	for i, j := range skin.Joints {
		if i >= len(matrices) {
			break
		}
		var inverse math.Mat4
		for c := range 4 {
			for r := range 4 {
				inverse[c*4+r] = matrices[i][c][r]
			}
		}
		poses[j] = inverse.Inverse()
	}
	return poses, nil
}

func (b *builder) accessor(index int) (*qgltf.Accessor, error) {
	if index < 0 || index >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d", ErrInvalidDocument, index)
	}
	return b.doc.Accessors[index], nil
}

func localTransform(n *qgltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != qgltf.DefaultMatrix {
		return math.FromFloat64(m)
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return math.FromTRS(
		math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		math.QuatFromFloat64(n.RotationOrDefault()),
		math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
	)
}

// nodeName makes a glTF name usable as a short node name.
func nodeName(name, fallback string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, string(graph.Separator), "_"))
	if name == "" {
		return fallback
	}
	return name
}

// uniqueChildName appends a counter when parent already has a child called
// name.
func uniqueChildName(g *graph.Graph, parent graph.NodeIndex, name string) string {
	if !g.FindFrom(parent, name).IsValid() {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + "_" + strconv.Itoa(n)
		if !g.FindFrom(parent, candidate).IsValid() {
			return candidate
		}
	}
}

func addEndPoint(g *graph.Graph, parent graph.NodeIndex, name string, content graph.Content) error {
	index, err := g.AddChild(parent, uniqueChildName(g, parent, name), content)
	if err != nil {
		return err
	}
	return g.MakeEndPoint(index)
}
