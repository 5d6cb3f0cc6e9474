package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"fieldbind/internal/common"
)

// MemberKind tells how a Field is stored.
type MemberKind int

const (
	MemberUnknown  MemberKind = iota
	MemberField               // exported struct field
	MemberProperty            // X() / SetX(v) method pair
	MemberAlias               // component.Alias marker forwarding to MapTo
)

// String returns a human-readable representation of the MemberKind.
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	case MemberAlias:
		return "alias"
	default:
		return common.UnknownStr
	}
}

// Field describes one bindable member of a struct type.
type Field struct {
	Name        string       // Bindable name, from the bind tag or the Go name
	GoName      string       // Go field or getter method name
	Kind        MemberKind   // How the value is stored
	Type        reflect.Type // Declared value type (nil for aliases)
	IsComponent bool         // Type holds a component reference
	ReadOnly    bool         // Getter without setter
	MapTo       string       // Alias target path, relative to the owner

	index  []int // struct field index path
	getter int   // method index on the pointer type
	setter int   // method index on the pointer type, -1 if none
}

// Type is the schema of one struct type.
type Type struct {
	Go     reflect.Type // struct type, never a pointer
	Name   string
	Fields []*Field

	byName  map[string]*Field
	methods map[string]int // lower-cased name -> method index on *Go
}

// Field looks a member up by exact name.
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.byName[name]
	return f, ok
}

// Names returns every bindable member name, sorted.
func (t *Type) Names() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}

	sort.Strings(names)

	return names
}

// Method returns the exported method of *t whose name matches name ignoring
// case, bound to receiver.
func (t *Type) Method(receiver reflect.Value, name string) (reflect.Value, bool) {
	idx, ok := t.methods[strings.ToLower(name)]
	if !ok {
		return reflect.Value{}, false
	}

	return pointerTo(receiver).Method(idx), true
}

// MethodNames returns the names of methods callable through Method, sorted.
func (t *Type) MethodNames() []string {
	ptr := reflect.PointerTo(t.Go)

	names := make([]string, 0, len(t.methods))
	for _, idx := range t.methods {
		names = append(names, ptr.Method(idx).Name)
	}

	sort.Strings(names)

	return names
}

func (t *Type) String() string {
	return t.Name
}

// Get reads f from owner, which is a pointer to the struct or an
// addressable struct value.
func (f *Field) Get(owner reflect.Value) (reflect.Value, error) {
	switch f.Kind {
	case MemberField:
		v, err := structOf(owner).FieldByIndexErr(f.index)
		if err != nil {
			return reflect.Value{}, err
		}

		return v, nil
	case MemberProperty:
		p := pointerTo(owner)
		if !p.IsValid() {
			return reflect.Value{}, fmt.Errorf("%s: property receiver is not addressable", f.Name)
		}

		return p.Method(f.getter).Call(nil)[0], nil
	default:
		return reflect.Value{}, fmt.Errorf("%s: %s has no storage", f.Name, f.Kind)
	}
}

// Set writes v, already of f.Type, into owner.
func (f *Field) Set(owner reflect.Value, v reflect.Value) error {
	if f.ReadOnly {
		return fmt.Errorf("%s is read-only", f.Name)
	}

	if !v.IsValid() {
		v = reflect.Zero(f.Type)
	}

	switch f.Kind {
	case MemberField:
		dst, err := structOf(owner).FieldByIndexErr(f.index)
		if err != nil {
			return err
		}

		if !dst.CanSet() {
			return fmt.Errorf("%s is not addressable", f.Name)
		}

		dst.Set(v)

		return nil
	case MemberProperty:
		p := pointerTo(owner)
		if !p.IsValid() {
			return fmt.Errorf("%s: property receiver is not addressable", f.Name)
		}

		p.Method(f.setter).Call([]reflect.Value{v})

		return nil
	default:
		return fmt.Errorf("%s: %s has no storage", f.Name, f.Kind)
	}
}

func structOf(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	return v
}

func pointerTo(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	if v.Kind() == reflect.Pointer {
		return v
	}

	if v.CanAddr() {
		return v.Addr()
	}

	return reflect.Value{}
}
