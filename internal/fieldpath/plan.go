package fieldpath

import (
	"fmt"
	"reflect"

	"fieldbind/internal/common"
	"fieldbind/internal/component"
	"fieldbind/internal/convert"
	"fieldbind/internal/schema"
)

// Kind says how a Plan reaches its value.
type Kind int

const (
	KindUnknown            Kind = iota
	KindDirect                  // chain of members on the root
	KindMapped                  // root member holds a component; the rest is forwarded to it
	KindAlias                   // root member is an alias; the rewritten path applies to the root
	KindMappedToDescendant      // root segment is a descendant identifier, looked up per access
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindMapped:
		return "mapped"
	case KindAlias:
		return "alias"
	case KindMappedToDescendant:
		return "descendant"
	default:
		return common.UnknownStr
	}
}

// Step is one member access of a plan.
type Step struct {
	Owner *schema.Type
	Field *schema.Field
	// DepKey is the path prefix through this step.
	DepKey string
}

// Plan is the resolved, immutable interpretation of a path against a type.
type Plan struct {
	Path Path
	Kind Kind
	Root *schema.Type

	// Steps holds the whole member chain for direct plans and only the
	// component-valued root member for mapped plans.
	Steps []Step
	// Residual is the path applied to the forwarded component (mapped,
	// descendant) or to the root again (alias).
	Residual Path
	// DescendantID is the identifier searched for by descendant plans.
	DescendantID string

	// Target is the terminal value type of direct plans.
	Target    reflect.Type
	Converter convert.Converter
	ReadOnly  bool

	// DependencyKeys holds every prefix of Path.
	DependencyKeys []string
}

// Shared reports whether the plan may be reused by every instance of the
// root type.
func (p *Plan) Shared() bool {
	return p.Kind != KindMappedToDescendant
}

// IsForwarding reports whether reads and writes are delegated elsewhere.
func (p *Plan) IsForwarding() bool {
	return p.Kind != KindDirect
}

// Read walks a direct plan from root. A nil pointer on the way yields
// ErrSoft.
func (p *Plan) Read(root reflect.Value) (reflect.Value, error) {
	if p.Kind != KindDirect {
		return reflect.Value{}, fmt.Errorf("read on %s plan %q", p.Kind, p.Path)
	}

	owner, err := p.ownerOfLast(root)
	if err != nil {
		return reflect.Value{}, err
	}

	return p.Steps[len(p.Steps)-1].Field.Get(owner)
}

// Write assigns v, already converted to Target, through a direct plan.
func (p *Plan) Write(root reflect.Value, v reflect.Value) error {
	if p.Kind != KindDirect {
		return fmt.Errorf("write on %s plan %q", p.Kind, p.Path)
	}

	owner, err := p.ownerOfLast(root)
	if err != nil {
		return err
	}

	return p.Steps[len(p.Steps)-1].Field.Set(owner, v)
}

// ForwardTarget returns the component a mapped plan forwards to. An empty
// root member yields ErrSoft.
func (p *Plan) ForwardTarget(root reflect.Value) (component.Component, error) {
	if p.Kind != KindMapped {
		return nil, fmt.Errorf("forward on %s plan %q", p.Kind, p.Path)
	}

	v, err := p.Steps[0].Field.Get(root)
	if err != nil || isNil(v) {
		return nil, ErrSoft
	}

	c, ok := v.Interface().(component.Component)
	if !ok {
		return nil, ErrSoft
	}

	return c, nil
}

func (p *Plan) ownerOfLast(root reflect.Value) (reflect.Value, error) {
	cur := root
	for _, st := range p.Steps[:len(p.Steps)-1] {
		v, err := st.Field.Get(cur)
		if err != nil || isNil(v) {
			return reflect.Value{}, ErrSoft
		}

		cur = v
	}

	if isNil(cur) {
		return reflect.Value{}, ErrSoft
	}

	return cur, nil
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
