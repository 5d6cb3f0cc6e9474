package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"fieldbind/internal/component"
)

// TagName is the struct tag read for member names and aliases.
const TagName = "bind"

// Methods that never become properties or transform targets.
var ignoredMethods = map[string]bool{
	"String":      true,
	"Error":       true,
	"MarshalText": true,
	"Self":        true,
}

// Registry caches one Type per struct type.
type Registry struct {
	mu    sync.Mutex
	types map[reflect.Type]*Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[reflect.Type]*Type)}
}

// Of returns the schema of v's dynamic type.
func (r *Registry) Of(v any) (*Type, error) {
	return r.Lookup(reflect.TypeOf(v))
}

// Lookup returns the schema of t, building it on first use. Pointers are
// dereferenced; anything that is not a struct is an error.
func (r *Registry) Lookup(t reflect.Type) (*Type, error) {
	if t == nil {
		return nil, fmt.Errorf("schema of nil type")
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.types[t]; ok {
		return st, nil
	}

	st, err := build(t)
	if err != nil {
		return nil, err
	}

	r.types[t] = st

	return st, nil
}

func build(t reflect.Type) (*Type, error) {
	st := &Type{
		Go:      t,
		Name:    t.Name(),
		byName:  make(map[string]*Field),
		methods: make(map[string]int),
	}

	if st.Name == "" {
		st.Name = t.String()
	}

	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() || inBase(t, sf) {
			continue
		}

		name, opts, skip := parseTag(sf)
		if skip {
			continue
		}

		f := &Field{
			Name:   name,
			GoName: sf.Name,
			Kind:   MemberField,
			Type:   sf.Type,
			index:  sf.Index,
			setter: -1,
		}

		if component.IsAliasType(sf.Type) {
			target, ok := opts["map"]
			if !ok || target == "" {
				return nil, fmt.Errorf("%s.%s: alias without map= target", st.Name, sf.Name)
			}

			f.Kind = MemberAlias
			f.Type = nil
			f.MapTo = target
		} else {
			f.IsComponent = component.IsComponentType(sf.Type)
		}

		if err := st.add(f); err != nil {
			return nil, err
		}
	}

	addMethods(st)

	return st, nil
}

// addMethods registers X()/SetX(v) pairs as properties and indexes every
// other exported method for transform lookup.
func addMethods(st *Type) {
	ptr := reflect.PointerTo(st.Go)
	base := reflect.PointerTo(reflect.TypeFor[component.Base]())

	for i := range ptr.NumMethod() {
		m := ptr.Method(i)
		if ignoredMethods[m.Name] {
			continue
		}

		if _, promoted := base.MethodByName(m.Name); promoted {
			continue
		}

		st.methods[strings.ToLower(m.Name)] = i

		if !isGetter(m) {
			continue
		}

		if _, taken := st.byName[m.Name]; taken {
			continue
		}

		f := &Field{
			Name:     m.Name,
			GoName:   m.Name,
			Kind:     MemberProperty,
			Type:     m.Type.Out(0),
			getter:   i,
			setter:   -1,
			ReadOnly: true,
		}
		f.IsComponent = component.IsComponentType(f.Type)

		if set, ok := ptr.MethodByName("Set" + m.Name); ok && isSetterFor(set, f.Type) {
			f.setter = set.Index
			f.ReadOnly = false
		}

		st.byName[f.Name] = f
		st.Fields = append(st.Fields, f)
	}
}

func (st *Type) add(f *Field) error {
	if _, dup := st.byName[f.Name]; dup {
		return fmt.Errorf("%s: duplicate member %q", st.Name, f.Name)
	}

	st.byName[f.Name] = f
	st.Fields = append(st.Fields, f)

	return nil
}

// isGetter matches func(*T) V with V not a func. The receiver is In(0).
func isGetter(m reflect.Method) bool {
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0).Kind() != reflect.Func
}

func isSetterFor(m reflect.Method, t reflect.Type) bool {
	return m.Type.NumIn() == 2 && m.Type.NumOut() == 0 && m.Type.In(1) == t
}

// inBase reports whether sf is promoted from an embedded component.Base.
func inBase(t reflect.Type, sf reflect.StructField) bool {
	for depth := 1; depth < len(sf.Index); depth++ {
		if component.IsBaseType(t.FieldByIndex(sf.Index[:depth]).Type) {
			return true
		}
	}

	return false
}

// parseTag reads `bind:"Name,key=value,..."`. A tag of "-" hides the field.
func parseTag(sf reflect.StructField) (string, map[string]string, bool) {
	tag, ok := sf.Tag.Lookup(TagName)
	if !ok {
		return sf.Name, nil, false
	}

	if tag == "-" {
		return "", nil, true
	}

	parts := strings.Split(tag, ",")

	name := strings.TrimSpace(parts[0])
	if name == "" {
		name = sf.Name
	}

	opts := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		key, value, _ := strings.Cut(p, "=")
		opts[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return name, opts, false
}
