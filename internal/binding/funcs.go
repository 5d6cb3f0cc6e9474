package binding

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"fieldbind/internal/component"
	"fieldbind/internal/convert"
)

var errorType = reflect.TypeFor[error]()

// FuncRegistry holds the named functions transform bindings may call when
// the scope component has no method of that name. Names are matched
// ignoring case; qualified names ("Math.Max") are registered as such.
type FuncRegistry struct {
	funcs map[string]*Func
}

// Func is a registered transform function.
type Func struct {
	Name string
	fn   reflect.Value
}

// NewFuncRegistry creates a new empty registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: make(map[string]*Func)}
}

// Register adds fn under name. fn must be a function returning one value,
// optionally followed by an error.
func (r *FuncRegistry) Register(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if err := checkFuncType(v); err != nil {
		return fmt.Errorf("func %q: %w", name, err)
	}

	r.funcs[strings.ToLower(name)] = &Func{Name: name, fn: v}

	return nil
}

// MustRegister is Register for static setup code; it panics on error.
func (r *FuncRegistry) MustRegister(name string, fn any) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Get returns a function by name, or nil if not found.
func (r *FuncRegistry) Get(name string) *Func {
	return r.funcs[strings.ToLower(name)]
}

// Has returns true if a function with the given name exists.
func (r *FuncRegistry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns all registered names, sorted.
func (r *FuncRegistry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for _, f := range r.funcs {
		names = append(names, f.Name)
	}

	sort.Strings(names)

	return names
}

// RegisterBuiltins adds the functions every layout can use.
func RegisterBuiltins(r *FuncRegistry) {
	r.MustRegister("Concat", func(parts ...any) string {
		var b strings.Builder
		for _, p := range parts {
			if p != nil {
				fmt.Fprint(&b, p)
			}
		}

		return b.String()
	})
	r.MustRegister("Upper", strings.ToUpper)
	r.MustRegister("Lower", strings.ToLower)
	r.MustRegister("Trim", strings.TrimSpace)
	r.MustRegister("Not", func(b bool) bool { return !b })
	r.MustRegister("And", func(bs ...bool) bool {
		for _, b := range bs {
			if !b {
				return false
			}
		}

		return true
	})
	r.MustRegister("Or", func(bs ...bool) bool {
		for _, b := range bs {
			if b {
				return true
			}
		}

		return false
	})
	r.MustRegister("Sum", func(xs ...float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += x
		}

		return total
	})
	r.MustRegister("Max", func(first float64, rest ...float64) float64 {
		for _, x := range rest {
			first = max(first, x)
		}

		return first
	})
	r.MustRegister("Min", func(first float64, rest ...float64) float64 {
		for _, x := range rest {
			first = min(first, x)
		}

		return first
	})
	r.MustRegister("If", func(cond bool, yes, no any) any {
		if cond {
			return yes
		}

		return no
	})
	r.MustRegister("Len", func(s string) int { return len([]rune(s)) })
}

func checkFuncType(v reflect.Value) error {
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("not a function")
	}

	t := v.Type()

	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		return nil
	case t.NumOut() == 2 && t.Out(1) == errorType:
		return nil
	default:
		return fmt.Errorf("%s must return a value, optionally followed by an error", t)
	}
}

// boundFunc is a resolved transform: a registered function or a method
// bound to its owner component.
type boundFunc struct {
	name  string
	fn    reflect.Value
	owner component.Component
}

func (f *boundFunc) checkArity(n int) error {
	t := f.fn.Type()

	required := t.NumIn()
	if t.IsVariadic() {
		required--
	}

	if n < required || (!t.IsVariadic() && n > t.NumIn()) {
		return fmt.Errorf("%s takes %d arguments, got %d", f.name, t.NumIn(), n)
	}

	return nil
}

func (f *boundFunc) paramType(i int) reflect.Type {
	t := f.fn.Type()
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}

	return t.In(i)
}

// call converts args to the parameter types and invokes the function.
// Missing arguments are passed as zero values. A panic inside the function
// is returned as an error.
func (f *boundFunc) call(converters *convert.Registry, args []any, present []bool) (out any, err error) {
	if err := f.checkArity(len(args)); err != nil {
		return nil, err
	}

	in := make([]reflect.Value, len(args))

	for i, a := range args {
		pt := f.paramType(i)

		if !present[i] || a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}

		if pt.Kind() == reflect.Interface {
			av := reflect.ValueOf(a)
			if !av.Type().Implements(pt) {
				return nil, fmt.Errorf("%s: argument %d: %T does not implement %s", f.name, i, a, pt)
			}

			in[i] = av

			continue
		}

		conv, err := converters.Lookup(pt).Parse(a, convert.Context{Field: fmt.Sprintf("%s#%d", f.name, i)})
		if err != nil {
			return nil, err
		}

		if cv := reflect.ValueOf(conv); cv.IsValid() {
			in[i] = cv
		} else {
			in[i] = reflect.Zero(pt)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s panicked: %v", f.name, r)
		}
	}()

	results := f.fn.Call(in)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}

	return results[0].Interface(), nil
}
