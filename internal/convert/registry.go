package convert

import (
	"reflect"
	"sync"
)

// Registry hands out one Converter per native type. Build one at startup
// and pass it to whatever needs conversion.
type Registry struct {
	categories CategoryEnum

	mu     sync.RWMutex
	byType map[reflect.Type]Converter
}

// NewRegistry creates a registry whose built-in converters honor categories.
func NewRegistry(categories CategoryEnum) *Registry {
	return &Registry{
		categories: categories,
		byType:     make(map[reflect.Type]Converter),
	}
}

// Categories returns the conversion categories the registry was built with.
func (r *Registry) Categories() CategoryEnum {
	return r.categories
}

// Register installs c for its own type, replacing any built-in converter.
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byType[c.Type()] = c
}

// Lookup returns the converter for t, building and caching a built-in one
// on first use.
func (r *Registry) Lookup(t reflect.Type) Converter {
	r.mu.RLock()
	c, ok := r.byType[t]
	r.mu.RUnlock()

	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.byType[t]; ok {
		return c
	}

	c = r.builtin(t)
	r.byType[t] = c

	return c
}

func (r *Registry) builtin(t reflect.Type) Converter {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) && t.Kind() != reflect.Pointer {
		return &textConverter{typ: t}
	}

	switch kind := FromReflectType(t); {
	case kind == KindDuration:
		return &durationConverter{categories: r.categories}
	case kind == KindTime:
		return &timeConverter{categories: r.categories}
	case kind != 0:
		return &scalarConverter{typ: t, kind: kind, categories: r.categories}
	}

	return &assignConverter{typ: t}
}

// IsTextual reports whether values of t round-trip through ToText/Parse.
func IsTextual(t reflect.Type) bool {
	if FromReflectType(t) != 0 {
		return true
	}

	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}
