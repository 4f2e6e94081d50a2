package groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
)

func TestRuleListOrder(t *testing.T) {
	g := NewMeshGroup()
	material := rules.NewMaterialRule()
	advanced := rules.NewMeshAdvancedRule()
	comment := &rules.CommentRule{Comment: "hi"}

	require.True(t, g.AddRule(material))
	require.True(t, g.AddRule(advanced))
	require.True(t, g.AddRule(comment))
	assert.False(t, g.AddRule(material), "duplicates are rejected")
	assert.False(t, g.AddRule(nil))

	require.Equal(t, 3, g.GetRuleCount())
	assert.Same(t, material, g.GetRule(0))
	assert.Same(t, advanced, g.GetRule(1))
	assert.Same(t, comment, g.GetRule(2))
	assert.Nil(t, g.GetRule(3))

	require.NoError(t, g.RemoveRuleAt(1))
	assert.Same(t, comment, g.GetRule(1))
	assert.ErrorIs(t, g.RemoveRuleAt(5), ErrRuleIndex)
	assert.ErrorIs(t, g.RemoveRuleAt(-1), ErrRuleIndex)

	assert.True(t, g.RemoveRule(material))
	assert.False(t, g.RemoveRule(material))
	assert.Equal(t, 1, g.GetRuleCount())
}

func TestRuleOwnedByOneGroup(t *testing.T) {
	first := NewMeshGroup()
	second := NewSkinGroup()
	rule := rules.NewOriginRule()

	require.True(t, first.AddRule(rule))
	assert.False(t, second.AddRule(rule), "rule already owned by another group")
	assert.Equal(t, 0, second.GetRuleCount())

	require.True(t, first.RemoveRule(rule))
	assert.True(t, second.AddRule(rule), "released rules can move")
}

func TestFindRule(t *testing.T) {
	g := NewSkinGroup()
	_, ok := FindRule[*rules.MaterialRule](g)
	assert.False(t, ok)

	first := &rules.CommentRule{Comment: "first"}
	require.True(t, g.AddRule(rules.NewMaterialRule()))
	require.True(t, g.AddRule(first))
	require.True(t, g.AddRule(&rules.CommentRule{Comment: "second"}))

	found, ok := FindRule[*rules.CommentRule](g)
	require.True(t, ok)
	assert.Same(t, first, found)

	material, ok := FindRule[*rules.MaterialRule](g)
	require.True(t, ok)
	assert.True(t, material.EnableMaterials)
}

func TestGroupInterfaces(t *testing.T) {
	var _ SelectionGroup = NewMeshGroup()
	var _ SelectionGroup = NewSkinGroup()
	var _ Group = NewSkeletonGroup("root")
	var _ manifest.RuleOwner = NewSkeletonGroup("root")

	g := NewMeshGroup()
	g.GetSceneNodeSelectionList().AddSelectedNode("body")
	assert.Equal(t, []string{"body"}, g.Selection.Selected)
	assert.Equal(t, "root", NewSkeletonGroup("root").GetSelectedRootBone())
}

func TestRegister(t *testing.T) {
	r := manifest.NewRegistry()
	require.NoError(t, Register(r))
	require.NoError(t, rules.Register(r))

	obj, err := r.New(MeshGroupType)
	require.NoError(t, err)
	assert.IsType(t, &MeshGroup{}, obj)

	obj, err = r.New(rules.MeshAdvancedRuleType)
	require.NoError(t, err)
	assert.True(t, obj.(*rules.MeshAdvancedRule).MergeMeshes)

	assert.Error(t, Register(r))
}
