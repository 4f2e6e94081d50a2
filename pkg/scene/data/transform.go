package data

import (
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

// TransformData is a local affine transform. Importers store it either on the
// node itself or on an end point child named TransformNodeName.
type TransformData struct {
	Matrix math.Mat4
}

// TransformNodeName is the short name of end point transform children.
const TransformNodeName = "transform"

// NewTransformData wraps m.
func NewTransformData(m math.Mat4) *TransformData {
	return &TransformData{Matrix: m}
}

// TypeName implements graph.Content.
func (*TransformData) TypeName() string { return "TransformData" }

// BoneData marks a node as a bone. WorldTransform is the bind pose in scene
// space.
type BoneData struct {
	WorldTransform math.Mat4
}

// TypeName implements graph.Content.
func (*BoneData) TypeName() string { return "BoneData" }

// RootBoneData is a bone without bone ancestors.
type RootBoneData struct {
	BoneData
}

// TypeName implements graph.Content.
func (*RootBoneData) TypeName() string { return "RootBoneData" }

// Bone is implemented by both bone payloads.
type Bone interface {
	graph.Content
	GetWorldTransform() math.Mat4
}

// GetWorldTransform implements Bone.
func (b *BoneData) GetWorldTransform() math.Mat4 {
	return b.WorldTransform
}

// IsBone reports whether node holds either bone payload.
func IsBone(g *graph.Graph, node graph.NodeIndex) bool {
	_, ok := graph.ContentAs[Bone](g, node)
	return ok
}

// AttachBone sets a bone payload on node. Nodes with a bone ancestor receive
// BoneData, the others RootBoneData.
func AttachBone(g *graph.Graph, node graph.NodeIndex, world math.Mat4) error {
	for ancestor := range g.Upwards(g.GetNodeParent(node)) {
		if IsBone(g, ancestor) {
			return g.SetContent(node, &BoneData{WorldTransform: world})
		}
	}
	return g.SetContent(node, &RootBoneData{BoneData{WorldTransform: world}})
}
