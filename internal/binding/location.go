package binding

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"fieldbind/internal/component"
	"fieldbind/internal/convert"
	"fieldbind/internal/fieldpath"
)

// Location is a path plan bound to one root component.
type Location struct {
	engine  *Engine
	host    *host
	root    component.Component
	rootVal reflect.Value
	plan    *fieldpath.Plan
	path    string

	isSet          bool
	propagateFirst bool
	observers      []Observer

	// Forwarding plans only.
	inner     *Location
	relay     *relayObserver
	resolving bool
}

func (l *Location) Root() component.Component { return l.root }

func (l *Location) Path() string { return l.path }

func (l *Location) Plan() *fieldpath.Plan { return l.plan }

// IsSet reports whether the location has ever been written, as opposed to
// holding the value it started with.
func (l *Location) IsSet() bool {
	if inner := l.resolved(); inner != nil {
		return inner.IsSet()
	}

	return l.isSet
}

// PropagateFirst reports whether bulk walks visit l before its peers.
func (l *Location) PropagateFirst() bool { return l.propagateFirst }

// Observers returns a copy of the observers registered on l.
func (l *Location) Observers() []Observer {
	return slices.Clone(l.observers)
}

func (l *Location) String() string {
	return l.root.Node().DisplayName() + "." + l.path
}

// Type returns the value type, or nil if a forwarding location cannot be
// followed right now.
func (l *Location) Type() reflect.Type {
	if !l.plan.IsForwarding() {
		return l.plan.Target
	}

	if inner := l.resolved(); inner != nil {
		return inner.Type()
	}

	return nil
}

// Converter returns the converter of the terminal field, or nil if a
// forwarding location cannot be followed right now.
func (l *Location) Converter() convert.Converter {
	if !l.plan.IsForwarding() {
		return l.plan.Converter
	}

	if inner := l.resolved(); inner != nil {
		return inner.Converter()
	}

	return nil
}

// ReadOnly reports whether writes are rejected.
func (l *Location) ReadOnly() bool {
	if !l.plan.IsForwarding() {
		return l.plan.ReadOnly
	}

	if inner := l.resolved(); inner != nil {
		return inner.ReadOnly()
	}

	return false
}

// Get reads the live value. A path that cannot be followed right now
// yields false.
func (l *Location) Get() (any, bool) {
	if l.plan.IsForwarding() {
		inner, err := l.forward()
		if err != nil {
			return nil, false
		}

		return inner.Get()
	}

	v, err := l.plan.Read(l.rootVal)
	if err != nil {
		return nil, false
	}

	return v.Interface(), true
}

// Set converts and writes value as part of pass. It returns the value
// actually stored, or nil when nothing was written: l was already written
// in this pass, or the path cannot be followed right now.
func (l *Location) Set(value any, pass *Pass) (any, error) {
	if !pass.enter(l) {
		return nil, nil
	}

	if l.plan.IsForwarding() {
		inner, err := l.forward()
		if err != nil {
			if errors.Is(err, fieldpath.ErrSoft) {
				return nil, nil
			}

			return nil, err
		}

		return inner.Set(value, pass)
	}

	if l.plan.ReadOnly {
		return nil, fmt.Errorf("%s: %w", l, ErrReadOnly)
	}

	converted, err := l.plan.Converter.Parse(value, convert.Context{Field: l.path})
	if err != nil {
		return nil, &ConversionError{Component: l.root.Node().DisplayName(), Path: l.path, Value: value, Err: err}
	}

	old, had := l.Get()

	if err := l.plan.Write(l.rootVal, reflect.ValueOf(converted)); err != nil {
		if errors.Is(err, fieldpath.ErrSoft) {
			return nil, nil
		}

		return nil, err
	}

	l.isSet = true

	if had && sameValue(old, converted) {
		return converted, nil
	}

	l.propagate(pass)

	return converted, nil
}

// propagate runs after l changed: its observers, then same-root locations
// whose path runs through l, then the deferred change record.
func (l *Location) propagate(pass *Pass) {
	l.notifyObservers(pass)
	l.engine.notifyDependents(l, pass)
	l.engine.recordChange(l.root, l.path)
}

func (l *Location) notifyObservers(pass *Pass) {
	if l.plan.IsForwarding() {
		_, _ = l.forward()
	}

	var dead []Observer

	for _, o := range slices.Clone(l.observers) {
		if !o.Notify(pass) {
			dead = append(dead, o)
		}
	}

	if len(dead) > 0 {
		l.observers = slices.DeleteFunc(l.observers, func(o Observer) bool {
			return slices.Contains(dead, o)
		})
	}
}

func (l *Location) addObserver(o Observer) {
	l.observers = append(l.observers, o)
}

// resolved returns the current forwarding target without reporting
// errors.
func (l *Location) resolved() *Location {
	if !l.plan.IsForwarding() {
		return nil
	}

	inner, err := l.forward()
	if err != nil {
		return nil
	}

	return inner
}

// forward finds the location a forwarding plan currently points at and
// keeps a relay observer on it, so writes made directly on the target
// still fire l's observers.
func (l *Location) forward() (*Location, error) {
	if l.resolving {
		return nil, fmt.Errorf("%s: alias cycle: %w", l, fieldpath.ErrSoft)
	}

	l.resolving = true
	defer func() { l.resolving = false }()

	var target component.Component

	switch l.plan.Kind {
	case fieldpath.KindMapped:
		c, err := l.plan.ForwardTarget(l.rootVal)
		if err != nil {
			l.detach()
			return nil, err
		}

		target = c
	case fieldpath.KindMappedToDescendant:
		target = component.FindDescendantByID(l.root, l.plan.DescendantID)
	case fieldpath.KindAlias:
		target = l.root
	}

	if target == nil || target.Node().Destroyed() {
		l.detach()
		return nil, fieldpath.ErrSoft
	}

	inner, err := l.engine.location(target, l.plan.Residual.String())
	if err != nil {
		l.detach()
		return nil, err
	}

	l.attach(inner)

	return inner, nil
}

func (l *Location) attach(inner *Location) {
	if l.inner == inner {
		return
	}

	l.detach()

	l.inner = inner
	l.relay = &relayObserver{from: l}
	inner.addObserver(l.relay)
}

func (l *Location) detach() {
	if l.relay != nil {
		l.relay.dead = true
	}

	l.inner = nil
	l.relay = nil
}

func (l *Location) destroyed() bool {
	return l.root.Node().Destroyed()
}

// sameValue compares by == when both values are comparable, which keeps
// pointers by identity, and deeply otherwise.
func sameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}

	if va.Type() != vb.Type() {
		return false
	}

	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}

	return reflect.DeepEqual(a, b)
}

func rootValue(c component.Component) reflect.Value {
	return reflect.ValueOf(c)
}
