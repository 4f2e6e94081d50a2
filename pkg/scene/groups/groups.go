package groups

import (
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// Type names used in manifest files.
const (
	MeshGroupType     = "MeshGroup"
	SkeletonGroupType = "SkeletonGroup"
	SkinGroupType     = "SkinGroup"
)

// Group is an export unit stored in a manifest.
type Group interface {
	manifest.RuleOwner
	RemoveRuleAt(i int) error
	RemoveRule(rule manifest.Object) bool
}

// SelectionGroup is a group that selects nodes through a selection list.
type SelectionGroup interface {
	Group
	GetSceneNodeSelectionList() *selection.List
}

// MeshGroup exports the selected meshes as one static mesh file.
type MeshGroup struct {
	RuleList `yaml:"-"`

	Selection selection.List `yaml:"selection"`
}

// NewMeshGroup returns an empty mesh group.
func NewMeshGroup() *MeshGroup {
	return &MeshGroup{}
}

// TypeName implements manifest.Object.
func (*MeshGroup) TypeName() string { return MeshGroupType }

// GetSceneNodeSelectionList returns the node selection.
func (g *MeshGroup) GetSceneNodeSelectionList() *selection.List {
	return &g.Selection
}

// SkeletonGroup exports the bone hierarchy below RootBone.
type SkeletonGroup struct {
	RuleList `yaml:"-"`

	RootBone string `yaml:"rootBone"`
}

// NewSkeletonGroup returns a skeleton group rooted at rootBone.
func NewSkeletonGroup(rootBone string) *SkeletonGroup {
	return &SkeletonGroup{RootBone: rootBone}
}

// TypeName implements manifest.Object.
func (*SkeletonGroup) TypeName() string { return SkeletonGroupType }

// GetSelectedRootBone returns the path of the root bone.
func (g *SkeletonGroup) GetSelectedRootBone() string {
	return g.RootBone
}

// SkinGroup exports the selected skinned meshes.
type SkinGroup struct {
	RuleList `yaml:"-"`

	Selection selection.List `yaml:"selection"`
}

// NewSkinGroup returns an empty skin group.
func NewSkinGroup() *SkinGroup {
	return &SkinGroup{}
}

// TypeName implements manifest.Object.
func (*SkinGroup) TypeName() string { return SkinGroupType }

// GetSceneNodeSelectionList returns the node selection.
func (g *SkinGroup) GetSceneNodeSelectionList() *selection.List {
	return &g.Selection
}

// Register adds every group type to r.
func Register(r *manifest.Registry) error {
	if err := r.Register(MeshGroupType, func() manifest.Object { return NewMeshGroup() }); err != nil {
		return err
	}
	if err := r.Register(SkeletonGroupType, func() manifest.Object { return &SkeletonGroup{} }); err != nil {
		return err
	}
	return r.Register(SkinGroupType, func() manifest.Object { return NewSkinGroup() })
}
