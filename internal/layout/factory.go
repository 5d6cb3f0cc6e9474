package layout

import (
	"fmt"
	"sort"

	"fieldbind/internal/component"
)

// Constructor creates a fresh component with its constructor-time
// defaults in place.
type Constructor func() component.Component

// Factory maps layout type names to constructors.
type Factory struct {
	types map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{types: make(map[string]Constructor)}
}

// Register adds a type. Registering a name twice is an error.
func (f *Factory) Register(name string, ctor Constructor) error {
	if _, dup := f.types[name]; dup {
		return fmt.Errorf("component type %q already registered", name)
	}

	f.types[name] = ctor

	return nil
}

// MustRegister is Register for static setup code; it panics on error.
func (f *Factory) MustRegister(name string, ctor Constructor) {
	if err := f.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	_, ok := f.types[name]
	return ok
}

// New creates a component of type name.
func (f *Factory) New(name string) (component.Component, error) {
	ctor, ok := f.types[name]
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", name)
	}

	return ctor(), nil
}

// Names returns the registered type names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.types))
	for name := range f.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
