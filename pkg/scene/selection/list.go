// Package selection tracks which scene graph nodes a group exports.
package selection

import (
	"slices"

	"github.com/jinzhu/copier"
)

// List holds explicitly selected and unselected node paths. A path is in at
// most one of the two lists.
type List struct {
	Selected   []string `yaml:"selected,omitempty"`
	Unselected []string `yaml:"unselected,omitempty"`
}

// GetSelectedNodeCount returns the number of selected paths.
func (l *List) GetSelectedNodeCount() int {
	return len(l.Selected)
}

// GetUnselectedNodeCount returns the number of unselected paths.
func (l *List) GetUnselectedNodeCount() int {
	return len(l.Unselected)
}

// AddSelectedNode selects path, dropping it from the unselected paths.
func (l *List) AddSelectedNode(path string) {
	l.Unselected = remove(l.Unselected, path)
	if !slices.Contains(l.Selected, path) {
		l.Selected = append(l.Selected, path)
	}
}

// RemoveSelectedNode marks path as unselected.
func (l *List) RemoveSelectedNode(path string) {
	l.Selected = remove(l.Selected, path)
	if !slices.Contains(l.Unselected, path) {
		l.Unselected = append(l.Unselected, path)
	}
}

// AddUnselectedNode is an alias of RemoveSelectedNode.
func (l *List) AddUnselectedNode(path string) {
	l.RemoveSelectedNode(path)
}

// RemoveUnselectedNode forgets an explicit unselection so the node inherits
// its parent's state again.
func (l *List) RemoveUnselectedNode(path string) {
	l.Unselected = remove(l.Unselected, path)
}

// IsSelected reports whether path is explicitly selected.
func (l *List) IsSelected(path string) bool {
	return slices.Contains(l.Selected, path)
}

// IsUnselected reports whether path is explicitly unselected.
func (l *List) IsUnselected(path string) bool {
	return slices.Contains(l.Unselected, path)
}

// ClearSelectedNodes drops all selected paths.
func (l *List) ClearSelectedNodes() {
	l.Selected = nil
}

// ClearUnselectedNodes drops all unselected paths.
func (l *List) ClearUnselectedNodes() {
	l.Unselected = nil
}

// Clear drops both lists.
func (l *List) Clear() {
	l.ClearSelectedNodes()
	l.ClearUnselectedNodes()
}

// Copy returns a deep copy of the list.
func (l *List) Copy() *List {
	out := &List{}
	if err := copier.CopyWithOption(out, l, copier.Option{DeepCopy: true}); err != nil {
		// Both sides share the same type; copier only fails on invalid input.
		out.Selected = slices.Clone(l.Selected)
		out.Unselected = slices.Clone(l.Unselected)
	}
	return out
}

// Merge applies the selections of other on top of l. Selections in other win
// over unselections in l and the other way round.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	for _, path := range other.Selected {
		l.AddSelectedNode(path)
	}
	for _, path := range other.Unselected {
		l.RemoveSelectedNode(path)
	}
}

func remove(paths []string, path string) []string {
	return slices.DeleteFunc(paths, func(p string) bool { return p == path })
}
