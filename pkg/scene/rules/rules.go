// Package rules contains the configuration facets attached to groups.
package rules

import (
	"github.com/Faultbox/scenerc/pkg/math"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// Type names used in manifest files.
const (
	CommentRuleType      = "CommentRule"
	MaterialRuleType     = "MaterialRule"
	MeshAdvancedRuleType = "MeshAdvancedRule"
	PhysicsRuleType      = "PhysicsRule"
	OriginRuleType       = "OriginRule"
)

// StreamDisabled turns off a vertex stream in MeshAdvancedRule.
const StreamDisabled = "Disabled"

// CommentRule carries free text.
type CommentRule struct {
	manifest.Ownership `yaml:"-"`

	Comment string `yaml:"comment"`
}

// TypeName implements manifest.Object.
func (*CommentRule) TypeName() string { return CommentRuleType }

// MaterialRule controls material export and how an existing MTL file is
// merged with the scene materials.
type MaterialRule struct {
	manifest.Ownership `yaml:"-"`

	EnableMaterials       bool `yaml:"enableMaterials"`
	UpdateMaterials       bool `yaml:"updateMaterials"`
	RemoveUnusedMaterials bool `yaml:"removeUnusedMaterials"`
}

// NewMaterialRule returns a rule with materials enabled.
func NewMaterialRule() *MaterialRule {
	return &MaterialRule{EnableMaterials: true}
}

// TypeName implements manifest.Object.
func (*MaterialRule) TypeName() string { return MaterialRuleType }

// MeshAdvancedRule tunes mesh export. An empty stream name keeps the default
// behaviour of using the first stream found; StreamDisabled drops the stream.
type MeshAdvancedRule struct {
	manifest.Ownership `yaml:"-"`

	Use32BitVertices      bool   `yaml:"use32BitVertices"`
	MergeMeshes           bool   `yaml:"mergeMeshes"`
	VertexColorStreamName string `yaml:"vertexColorStreamName,omitempty"`
	UVStreamName          string `yaml:"uvStreamName,omitempty"`
}

// NewMeshAdvancedRule returns a rule that merges meshes.
func NewMeshAdvancedRule() *MeshAdvancedRule {
	return &MeshAdvancedRule{MergeMeshes: true}
}

// TypeName implements manifest.Object.
func (*MeshAdvancedRule) TypeName() string { return MeshAdvancedRuleType }

// IsVertexColorStreamDisabled reports whether vertex colours are dropped.
func (r *MeshAdvancedRule) IsVertexColorStreamDisabled() bool {
	return r.VertexColorStreamName == StreamDisabled
}

// IsUVStreamDisabled reports whether texture coordinates are dropped.
func (r *MeshAdvancedRule) IsUVStreamDisabled() bool {
	return r.UVStreamName == StreamDisabled
}

// PhysicsRule selects the meshes exported as physics proxies.
type PhysicsRule struct {
	manifest.Ownership `yaml:"-"`

	Selection selection.List `yaml:"selection"`
}

// TypeName implements manifest.Object.
func (*PhysicsRule) TypeName() string { return PhysicsRuleType }

// GetSceneNodeSelectionList returns the proxy selection.
func (r *PhysicsRule) GetSceneNodeSelectionList() *selection.List {
	return &r.Selection
}

// OriginRule moves the exported geometry. When OriginNodeName is set and
// UseRootAsOrigin is false, the named node becomes the origin.
type OriginRule struct {
	manifest.Ownership `yaml:"-"`

	OriginNodeName  string    `yaml:"originNodeName,omitempty"`
	UseRootAsOrigin bool      `yaml:"useRootAsOrigin"`
	Translation     math.Vec3 `yaml:"translation"`
	Rotation        math.Quat `yaml:"rotation"`
	Scale           float32   `yaml:"scale"`
}

// NewOriginRule returns a rule that leaves the geometry in place.
func NewOriginRule() *OriginRule {
	return &OriginRule{
		Rotation: math.QuatIdentity(),
		Scale:    1,
	}
}

// TypeName implements manifest.Object.
func (*OriginRule) TypeName() string { return OriginRuleType }

// Register adds every rule type to r.
func Register(r *manifest.Registry) error {
	factories := []struct {
		name    string
		factory manifest.Factory
	}{
		{CommentRuleType, func() manifest.Object { return &CommentRule{} }},
		{MaterialRuleType, func() manifest.Object { return NewMaterialRule() }},
		{MeshAdvancedRuleType, func() manifest.Object { return NewMeshAdvancedRule() }},
		{PhysicsRuleType, func() manifest.Object { return &PhysicsRule{} }},
		{OriginRuleType, func() manifest.Object { return NewOriginRule() }},
	}
	for _, f := range factories {
		if err := r.Register(f.name, f.factory); err != nil {
			return err
		}
	}
	return nil
}
