package binding

import (
	"fmt"
	"reflect"
)

// Observer is a propagation edge from one or more sources to one target
// location. Notify returns false once the edge is dead (its target was
// destroyed); the location iterating it then drops it.
type Observer interface {
	Kind() Kind
	Target() *Location
	// OneWayOnly reports whether the edge may not get a reverse partner.
	OneWayOnly() bool
	Notify(pass *Pass) bool
}

// source is one input of an observer: a location or a resource entry.
type source struct {
	tok Token

	loc *Location

	tables     ResourceTables
	table, key string
}

func (s *source) read() (any, bool) {
	var (
		v  any
		ok bool
	)

	if s.loc != nil {
		v, ok = s.loc.Get()
	} else {
		v, ok = s.tables.Lookup(s.table, s.key)
	}

	if !ok && s.tok.Default != nil {
		v, ok = *s.tok.Default, true
	}

	if ok && s.tok.Mods.Negate {
		v = negate(v)
	}

	return v, ok
}

func (s *source) String() string {
	if s.loc != nil {
		return s.loc.String()
	}

	return "@" + s.table + "/" + s.key
}

// negate flips values whose type is boolean; everything else, boolean
// text included, passes through.
func negate(v any) any {
	if b, ok := v.(bool); ok {
		return !b
	}

	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.Bool {
		return reflect.ValueOf(!rv.Bool()).Convert(rv.Type()).Interface()
	}

	return v
}

// edge holds what every observer kind shares.
type edge struct {
	binding *Binding
	target  *Location
}

func (e *edge) Target() *Location { return e.target }

func (e *edge) write(v any, pass *Pass) {
	if _, err := e.target.Set(v, pass); err != nil {
		e.target.engine.reportWrite(e.target, e.binding, err)
	}
}

type singleObserver struct {
	edge
	src *source
}

func (o *singleObserver) Kind() Kind { return KindSingle }

func (o *singleObserver) OneWayOnly() bool { return o.src.tok.Mods.OneWay }

func (o *singleObserver) Notify(pass *Pass) bool {
	if o.target.destroyed() {
		return false
	}

	if v, ok := o.src.read(); ok {
		o.write(v, pass)
	}

	return true
}

type formatObserver struct {
	edge
	sources []*source
	tmpl    *formatTemplate
}

func (o *formatObserver) Kind() Kind { return KindFormat }

func (o *formatObserver) OneWayOnly() bool { return true }

func (o *formatObserver) Notify(pass *Pass) bool {
	if o.target.destroyed() {
		return false
	}

	values := make([]any, len(o.sources))
	for i, s := range o.sources {
		if v, ok := s.read(); ok {
			values[i] = v
		}
	}

	o.write(o.tmpl.Render(values), pass)

	return true
}

type transformObserver struct {
	edge
	sources []*source
	fn      *boundFunc
}

func (o *transformObserver) Kind() Kind { return KindTransform }

func (o *transformObserver) OneWayOnly() bool { return true }

func (o *transformObserver) Notify(pass *Pass) bool {
	if o.target.destroyed() {
		return false
	}

	if o.fn.owner != nil && o.fn.owner.Node().Destroyed() {
		return false
	}

	args := make([]any, len(o.sources))
	present := make([]bool, len(o.sources))

	for i, s := range o.sources {
		args[i], present[i] = s.read()
	}

	out, err := o.fn.call(o.target.engine.converters, args, present)
	if err != nil {
		o.target.engine.reportTransform(o.target, o.binding, err)
		return true
	}

	o.write(out, pass)

	return true
}

type resourceObserver struct {
	edge
	src *source
}

func (o *resourceObserver) Kind() Kind { return KindResource }

func (o *resourceObserver) OneWayOnly() bool { return true }

func (o *resourceObserver) Notify(pass *Pass) bool {
	if o.target.destroyed() {
		return false
	}

	if v, ok := o.src.read(); ok {
		o.write(v, pass)
	}

	return true
}

// relayObserver sits on the current target of a forwarding location and
// re-fires the forwarding location when the target changes.
type relayObserver struct {
	from *Location
	dead bool
}

func (o *relayObserver) Kind() Kind { return KindRelay }

func (o *relayObserver) Target() *Location { return o.from }

func (o *relayObserver) OneWayOnly() bool { return true }

func (o *relayObserver) Notify(pass *Pass) bool {
	if o.dead || o.from.destroyed() {
		return false
	}

	o.from.propagate(pass)

	return true
}

func describe(o Observer) string {
	return fmt.Sprintf("%s -> %s", o.Kind(), o.Target())
}
