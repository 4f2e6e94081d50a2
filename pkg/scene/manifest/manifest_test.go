package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRule struct {
	Ownership `yaml:"-"`
	Value     string `yaml:"value"`
}

func (*testRule) TypeName() string { return "TestRule" }

type testGroup struct {
	Nodes []string `yaml:"nodes"`
	rules []Object
}

func (*testGroup) TypeName() string { return "TestGroup" }

func (g *testGroup) GetRuleCount() int { return len(g.rules) }

func (g *testGroup) GetRule(i int) Object { return g.rules[i] }

func (g *testGroup) AddRule(rule Object) bool {
	g.rules = append(g.rules, rule)
	return true
}

type loose struct{ Tags []string }

func (loose) TypeName() string { return "Loose" }

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("TestRule", func() Object { return &testRule{} }))
	require.NoError(t, r.Register("TestGroup", func() Object { return &testGroup{} }))
	return r
}

func TestAddEntry(t *testing.T) {
	m := New()
	first := &testGroup{}

	require.NoError(t, m.AddEntry("first", first))
	assert.ErrorIs(t, m.AddEntry("first", &testGroup{}), ErrDuplicateName)
	assert.ErrorIs(t, m.AddEntry("second", first), ErrDuplicateObject)
	assert.ErrorIs(t, m.AddEntry("", &testGroup{}), ErrInvalidName)
	assert.ErrorIs(t, m.AddEntry("nil", nil), ErrNilObject)

	var typedNil *testGroup
	assert.ErrorIs(t, m.AddEntry("typed-nil", typedNil), ErrNilObject)

	assert.Equal(t, 1, m.GetEntryCount())
	assert.Same(t, first, m.FindValue("first"))
	assert.Equal(t, "first", m.FindName(first))
}

func TestEntryNamesArePathElements(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"crate", true},
		{"crate.lod1", true},
		{"..crate", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../../escaped", false},
		{"sub/crate", false},
		{`sub\crate`, false},
		{"/abs", false},
		{"nul\x00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidName(tt.name))

			m := New()
			err := m.AddEntry(tt.name, &testGroup{})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.True(t, m.IsEmpty())
		})
	}

	m := New()
	require.NoError(t, m.AddEntry("crate", &testGroup{}))
	assert.ErrorIs(t, m.RenameEntry("crate", "../crate"), ErrInvalidName)
	assert.Equal(t, []string{"crate"}, m.Names())
}

func TestNonComparableValues(t *testing.T) {
	m := New()
	require.NoError(t, m.AddEntry("a", loose{Tags: []string{"x"}}))
	// Equal values are distinct entries.
	require.NoError(t, m.AddEntry("b", loose{Tags: []string{"x"}}))
	assert.Equal(t, 2, m.GetEntryCount())
}

func TestRemoveAndRename(t *testing.T) {
	m := New()
	a, b, c := &testGroup{}, &testGroup{}, &testGroup{}
	require.NoError(t, m.AddEntry("a", a))
	require.NoError(t, m.AddEntry("b", b))
	require.NoError(t, m.AddEntry("c", c))

	assert.True(t, m.RemoveEntry("b"))
	assert.False(t, m.RemoveEntry("b"))
	assert.Equal(t, []string{"a", "c"}, m.Names())
	assert.Equal(t, 1, m.FindIndex("c"))
	assert.Same(t, c, m.GetValue(1))

	require.NoError(t, m.RenameEntry("c", "z"))
	assert.Equal(t, -1, m.FindIndex("c"))
	assert.Equal(t, 1, m.FindIndex("z"))
	assert.ErrorIs(t, m.RenameEntry("a", "z"), ErrDuplicateName)
	assert.ErrorIs(t, m.RenameEntry("missing", "x"), ErrNotFound)

	assert.Nil(t, m.GetValue(5))
	assert.Equal(t, "", m.GetName(-1))
}

func TestEntriesOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.AddEntry("g1", &testGroup{}))
	require.NoError(t, m.AddEntry("r1", &testRule{}))
	require.NoError(t, m.AddEntry("g2", &testGroup{}))

	var all []string
	for name := range m.Entries() {
		all = append(all, name)
	}
	assert.Equal(t, []string{"g1", "r1", "g2"}, all)

	var groups []string
	for name := range EntriesOf[*testGroup](m) {
		groups = append(groups, name)
	}
	assert.Equal(t, []string{"g1", "g2"}, groups)

	assert.Equal(t, "g1-1", m.GenerateUniqueName("g1"))

	m.Clear()
	assert.True(t, m.IsEmpty())
}

func TestRegistry(t *testing.T) {
	r := testRegistry(t)

	assert.ErrorIs(t, r.Register("TestRule", func() Object { return &testRule{} }), ErrDuplicateType)
	_, err := r.New("Missing")
	assert.ErrorIs(t, err, ErrUnknownType)

	obj, err := r.New("TestGroup")
	require.NoError(t, err)
	assert.IsType(t, &testGroup{}, obj)
	assert.True(t, slices.Equal([]string{"TestGroup", "TestRule"}, r.Types()))
}

func TestSaveLoad(t *testing.T) {
	registry := testRegistry(t)

	m := New()
	group := &testGroup{Nodes: []string{"a.b", "c"}}
	group.AddRule(&testRule{Value: "first"})
	group.AddRule(&testRule{Value: "second"})
	require.NoError(t, m.AddEntry("mesh", group))
	require.NoError(t, m.AddEntry("comment", &testRule{Value: "loose"}))

	path := filepath.Join(t.TempDir(), "nested", "model.gltf"+FileExtension)
	require.NoError(t, m.Save(path))

	loaded, err := Load(path, registry)
	require.NoError(t, err)
	require.Equal(t, []string{"mesh", "comment"}, loaded.Names())

	got, ok := loaded.FindValue("mesh").(*testGroup)
	require.True(t, ok)
	assert.Equal(t, []string{"a.b", "c"}, got.Nodes)
	require.Equal(t, 2, got.GetRuleCount())
	assert.Equal(t, "second", got.GetRule(1).(*testRule).Value)
	assert.Equal(t, "loose", loaded.FindValue("comment").(*testRule).Value)
}

func TestLoadReplacesContents(t *testing.T) {
	registry := testRegistry(t)
	path := filepath.Join(t.TempDir(), "scene.assetinfo")
	data := "entries:\n  - name: only\n    type: TestRule\n    value:\n      value: x\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	m := New()
	require.NoError(t, m.AddEntry("old", &testGroup{}))
	require.NoError(t, m.LoadFrom(path, registry))
	assert.Equal(t, []string{"only"}, m.Names())
}

func TestDecodeErrors(t *testing.T) {
	registry := testRegistry(t)

	tests := []struct {
		name string
		data string
	}{
		{"unknown type", "entries:\n  - name: a\n    type: Nope\n"},
		{"rules on non owner", "entries:\n  - name: a\n    type: TestRule\n    rules:\n      - type: TestRule\n"},
		{"duplicate names", "entries:\n  - name: a\n    type: TestRule\n  - name: a\n    type: TestRule\n"},
		{"malformed", "entries: [\n"},
		{"name leaving the output folder", "entries:\n  - name: ../../escaped\n    type: TestRule\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			err := m.Decode(bytes.NewBufferString(tt.data), registry)
			assert.Error(t, err)
			assert.True(t, m.IsEmpty())
		})
	}

	m := New()
	err := m.Decode(bytes.NewBufferString("entries:\n  - name: a\n    type: Nope\n"), registry)
	assert.ErrorIs(t, err, ErrUnknownType)

	require.NoError(t, m.Decode(bytes.NewBufferString(""), registry))
	assert.True(t, m.IsEmpty())
}
