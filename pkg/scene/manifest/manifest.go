// Package manifest holds the named export configuration of a scene: groups
// that select graph nodes and the rules that parameterize them.
package manifest

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
)

// Manifest errors.
var (
	ErrInvalidName     = errors.New("invalid manifest entry name")
	ErrNilObject       = errors.New("manifest object is nil")
	ErrDuplicateName   = errors.New("duplicate manifest entry name")
	ErrDuplicateObject = errors.New("object already stored in manifest")
	ErrNotFound        = errors.New("manifest entry not found")
)

// Object is a value stored in the manifest. TypeName is the key used by the
// Registry and the sidecar file.
type Object interface {
	TypeName() string
}

// RuleOwner is implemented by objects that own an ordered list of rules.
// AddRule rejects duplicates and rules owned elsewhere.
type RuleOwner interface {
	Object
	GetRuleCount() int
	GetRule(index int) Object
	AddRule(rule Object) bool
}

// Manifest is an ordered collection of named objects.
type Manifest struct {
	names  []string
	values []Object
	lookup map[string]int
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{lookup: make(map[string]int)}
}

// Clear removes all entries.
func (m *Manifest) Clear() {
	m.names = nil
	m.values = nil
	m.lookup = make(map[string]int)
}

// IsEmpty reports whether the manifest has no entries.
func (m *Manifest) IsEmpty() bool {
	return len(m.values) == 0
}

// GetEntryCount returns the number of entries.
func (m *Manifest) GetEntryCount() int {
	return len(m.values)
}

// IsValidName reports whether name can be used as an entry name. Entry
// names become output file names, so they must be a single path element.
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// AddEntry appends object under name. Existing entries are never overwritten.
func (m *Manifest) AddEntry(name string, object Object) error {
	if !IsValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if isNil(object) {
		return fmt.Errorf("%w: %q", ErrNilObject, name)
	}
	if _, exists := m.lookup[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if other := m.FindName(object); other != "" {
		return fmt.Errorf("%w: already stored as %q", ErrDuplicateObject, other)
	}

	m.lookup[name] = len(m.values)
	m.names = append(m.names, name)
	m.values = append(m.values, object)
	return nil
}

// RemoveEntry deletes the entry with the given name and reports whether it
// existed. Later entries keep their relative order.
func (m *Manifest) RemoveEntry(name string) bool {
	index, ok := m.lookup[name]
	if !ok {
		return false
	}
	m.names = append(m.names[:index], m.names[index+1:]...)
	m.values = append(m.values[:index], m.values[index+1:]...)
	m.reindex()
	return true
}

// RenameEntry changes the name of an entry in place.
func (m *Manifest) RenameEntry(oldName, newName string) error {
	index, ok := m.lookup[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if !IsValidName(newName) {
		return fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	if _, exists := m.lookup[newName]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	delete(m.lookup, oldName)
	m.names[index] = newName
	m.lookup[newName] = index
	return nil
}

func (m *Manifest) reindex() {
	m.lookup = make(map[string]int, len(m.names))
	for i, name := range m.names {
		m.lookup[name] = i
	}
}

// FindValue returns the object stored under name, or nil.
func (m *Manifest) FindValue(name string) Object {
	if index, ok := m.lookup[name]; ok {
		return m.values[index]
	}
	return nil
}

// FindIndex returns the position of name, or -1.
func (m *Manifest) FindIndex(name string) int {
	if index, ok := m.lookup[name]; ok {
		return index
	}
	return -1
}

// FindName returns the name the object is stored under, or "".
func (m *Manifest) FindName(object Object) string {
	for i, value := range m.values {
		if Same(value, object) {
			return m.names[i]
		}
	}
	return ""
}

// GetName returns the name at index, or "" when out of range.
func (m *Manifest) GetName(index int) string {
	if index < 0 || index >= len(m.names) {
		return ""
	}
	return m.names[index]
}

// GetValue returns the object at index, or nil when out of range.
func (m *Manifest) GetValue(index int) Object {
	if index < 0 || index >= len(m.values) {
		return nil
	}
	return m.values[index]
}

// Names returns a copy of the entry names in insertion order.
func (m *Manifest) Names() []string {
	return append([]string(nil), m.names...)
}

// Entries visits (name, object) pairs in insertion order.
func (m *Manifest) Entries() iter.Seq2[string, Object] {
	return func(yield func(string, Object) bool) {
		for i, value := range m.values {
			if !yield(m.names[i], value) {
				return
			}
		}
	}
}

// EntriesOf visits the entries whose object has Go type T, in insertion order.
func EntriesOf[T any](m *Manifest) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for name, object := range m.Entries() {
			if value, ok := object.(T); ok {
				if !yield(name, value) {
					return
				}
			}
		}
	}
}

// GenerateUniqueName returns a name derived from base that is not used by
// any entry.
func (m *Manifest) GenerateUniqueName(base string) string {
	return GenerateUniqueName(m.names, base)
}

func isNil(object Object) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Same reports whether a and b are the same object. Non-comparable values
// are never the same.
func Same(a, b Object) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Owned is implemented by rules that track the list holding them.
type Owned interface {
	Owner() any
	SetOwner(owner any)
}

// Ownership is embedded in rules to implement Owned. The owner is never
// serialized.
type Ownership struct {
	owner any
}

// Owner returns the current owner, or nil.
func (o *Ownership) Owner() any {
	return o.owner
}

// SetOwner records owner. Pass nil to release the rule.
func (o *Ownership) SetOwner(owner any) {
	o.owner = owner
}
