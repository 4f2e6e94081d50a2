package manifest

import (
	"errors"
	"fmt"
	"slices"
)

// Registry errors.
var (
	ErrUnknownType   = errors.New("unknown manifest type")
	ErrDuplicateType = errors.New("manifest type already registered")
)

// Factory creates a zero-configured object ready to be decoded into.
type Factory func() Object

// Registry maps type names to factories. Build one per process and pass it
// to the code that loads manifests.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for typeName.
func (r *Registry) Register(typeName string, factory Factory) error {
	if typeName == "" || factory == nil {
		return fmt.Errorf("register %q: %w", typeName, ErrUnknownType)
	}
	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// New creates an object of the named type.
func (r *Registry) New(typeName string) (Object, error) {
	factory, ok := r.factories[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return factory(), nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}
