package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"fieldbind/internal/component"
	"fieldbind/internal/convert"
	"fieldbind/internal/diagnostic"
	"fieldbind/internal/fieldpath"
	"fieldbind/internal/resource"
	"fieldbind/internal/schema"
)

// ResourceTables is what the engine needs from the resource subsystem.
type ResourceTables interface {
	Register(table, key string, s resource.Subscriber)
	Lookup(table, key string) (any, bool)
}

// host is the per-component state of an engine.
type host struct {
	comp      component.Component
	typ       *schema.Type
	locations map[string]*Location
	order     []*Location
	// dependents maps a path to the locations whose path strictly extends it.
	dependents map[string][]*Location
	bindings   []*Binding
	states     *StateLayer
}

type changeSet struct {
	comp    component.Component
	handler component.ChangeHandler
	fields  []string
}

// Engine owns locations, observers and deferred changes for one component
// tree. It is not safe for concurrent use.
type Engine struct {
	log        *slog.Logger
	cfg        Config
	schemas    *schema.Registry
	converters *convert.Registry
	resolver   *fieldpath.Resolver
	resources  ResourceTables
	funcs      *FuncRegistry

	hosts     map[component.Component]*host
	hostOrder []*host

	pending     []Observer
	changes     []*changeSet
	changeIndex map[component.Component]*changeSet

	diags       diagnostic.Diagnostics
	initialized bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithResources sets the resource tables resource bindings read.
func WithResources(tables ResourceTables) Option {
	return func(e *Engine) { e.resources = tables }
}

// WithFuncs sets the registry transform bindings fall back to.
func WithFuncs(funcs *FuncRegistry) Option {
	return func(e *Engine) { e.funcs = funcs }
}

// WithConverters replaces the converter registry built from
// Config.Categories.
func WithConverters(converters *convert.Registry) Option {
	return func(e *Engine) { e.converters = converters }
}

// WithSchemas shares a schema registry between engines.
func WithSchemas(schemas *schema.Registry) Option {
	return func(e *Engine) { e.schemas = schemas }
}

// NewEngine creates an engine. Without options it logs to slog.Default,
// uses fresh resource tables and a FuncRegistry holding the builtins.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		hosts:       make(map[component.Component]*host),
		changeIndex: make(map[component.Component]*changeSet),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = slog.Default()
	}

	if e.schemas == nil {
		e.schemas = schema.NewRegistry()
	}

	if e.converters == nil {
		e.converters = convert.NewRegistry(cfg.Categories)
	}

	if e.resources == nil {
		e.resources = resource.NewTables()
	}

	if e.funcs == nil {
		e.funcs = NewFuncRegistry()
		RegisterBuiltins(e.funcs)
	}

	e.resolver = fieldpath.NewResolver(e.schemas, e.converters)

	return e
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Logger() *slog.Logger { return e.log }

func (e *Engine) Funcs() *FuncRegistry { return e.funcs }

func (e *Engine) Converters() *convert.Registry { return e.converters }

func (e *Engine) Schemas() *schema.Registry { return e.schemas }

func (e *Engine) Resources() ResourceTables { return e.resources }

// Initialized reports whether Initialize has run its binding sweep.
func (e *Engine) Initialized() bool { return e.initialized }

// Diagnostics returns everything reported so far.
func (e *Engine) Diagnostics() diagnostic.Diagnostics { return e.diags }

func (e *Engine) host(c component.Component) (*host, error) {
	if h, ok := e.hosts[c]; ok {
		return h, nil
	}

	component.Attach(c)

	typ, err := e.schemas.Of(c)
	if err != nil {
		return nil, err
	}

	h := &host{
		comp:       c,
		typ:        typ,
		locations:  make(map[string]*Location),
		dependents: make(map[string][]*Location),
	}
	e.hosts[c] = h
	e.hostOrder = append(e.hostOrder, h)

	e.adopt(c)

	return h, nil
}

// adopt points the descendant-path locations of c's ancestors that name c
// at it. Once the tree is initialized their observers are notified with
// c's current values.
func (e *Engine) adopt(c component.Component) {
	id := c.Node().ID()

	for _, a := range component.Ancestors(c) {
		h, ok := e.hosts[a]
		if !ok {
			continue
		}

		for _, l := range slices.Clone(h.order) {
			if l.plan.Kind != fieldpath.KindMappedToDescendant || l.plan.DescendantID != id {
				continue
			}

			if l.inner != nil && l.inner.root == c {
				continue
			}

			if component.FindDescendantByID(a, id) != c {
				continue
			}

			if _, err := l.forward(); err != nil {
				continue
			}

			if e.initialized {
				l.notifyObservers(NewPass())
			}
		}
	}
}

// AddChild attaches child under parent and points descendant paths that
// name a component of child's subtree at it. After Initialize the subtree
// gets its defaults and init calls first.
func (e *Engine) AddChild(parent, child component.Component) error {
	component.AddChild(parent, child)

	var sub []component.Component

	component.Walk(child, func(c component.Component) bool {
		sub = append(sub, c)
		return true
	})

	if e.initialized {
		for _, c := range sub {
			component.Attach(c)

			if d, ok := c.(component.HasDefaults); ok {
				d.ApplyDefaults()
			}
		}

		for _, c := range sub {
			if i, ok := c.(component.HasInit); ok {
				i.InitComponent()
			}
		}
	}

	for _, c := range sub {
		if _, err := e.host(c); err != nil {
			return fmt.Errorf("add %s: %w", c.Node().DisplayName(), err)
		}

		e.adopt(c)
	}

	return nil
}

// Location returns the location of path on c, creating it on first use.
// A *fieldpath.SevereError means the path does not exist on c's type.
func (e *Engine) Location(c component.Component, path string) (*Location, error) {
	return e.location(c, path)
}

func (e *Engine) location(c component.Component, path string) (*Location, error) {
	h, err := e.host(c)
	if err != nil {
		return nil, err
	}

	if l, ok := h.locations[path]; ok {
		return l, nil
	}

	plan, err := e.resolver.Resolve(h.typ, path)
	if err != nil {
		return nil, err
	}

	l := &Location{
		engine:  e,
		host:    h,
		root:    c,
		rootVal: rootValue(c),
		plan:    plan,
		path:    path,
	}

	h.locations[path] = l
	h.order = append(h.order, l)

	for _, key := range plan.DependencyKeys {
		if key != path {
			h.dependents[key] = append(h.dependents[key], l)
		}
	}

	return l, nil
}

// Get reads path on c.
func (e *Engine) Get(c component.Component, path string) (any, bool, error) {
	l, err := e.location(c, path)
	if err != nil {
		return nil, false, err
	}

	v, ok := l.Get()

	return v, ok, nil
}

// Set writes v to path on c in a new pass. Failures are also reported as
// diagnostics.
func (e *Engine) Set(c component.Component, path string, v any) error {
	l, err := e.location(c, path)
	if err != nil {
		e.report(diagnostic.Diagnostic{
			Severity:  diagnostic.DiagnosticError,
			Code:      diagnostic.CodeTargetNotFound,
			Message:   err.Error(),
			Component: c.Node().DisplayName(),
			Field:     path,
		})

		return err
	}

	if _, err := l.Set(v, NewPass()); err != nil {
		e.reportWrite(l, nil, err)
		return err
	}

	return nil
}

// States returns the state layer of c, creating it on first use.
func (e *Engine) States(c component.Component) *StateLayer {
	h, err := e.host(c)
	if err != nil {
		panic(fmt.Sprintf("binding: %v", err))
	}

	if h.states == nil {
		h.states = newStateLayer(e, c)
	}

	return h.states
}

// Walk returns the locations created on c, those flagged propagate-first
// ahead of the rest, creation order otherwise.
func (e *Engine) Walk(c component.Component) []*Location {
	h, ok := e.hosts[c]
	if !ok {
		return nil
	}

	out := slices.Clone(h.order)
	slices.SortStableFunc(out, func(a, b *Location) int {
		switch {
		case a.propagateFirst == b.propagateFirst:
			return 0
		case a.propagateFirst:
			return -1
		default:
			return 1
		}
	})

	return out
}

// Destroy tears c and its subtree down. Observers targeting them drop out
// the next time they are notified.
func (e *Engine) Destroy(c component.Component) {
	component.Destroy(c)

	e.hostOrder = slices.DeleteFunc(e.hostOrder, func(h *host) bool {
		if h.comp.Node().Destroyed() {
			delete(e.hosts, h.comp)
			return true
		}

		return false
	})
}

// Initialize runs the staged sweeps over the tree rooted at root: defaults,
// internal init, custom init, binding propagation, change-handler flush.
func (e *Engine) Initialize(ctx context.Context, root component.Component) error {
	var tree []component.Component

	component.Walk(root, func(c component.Component) bool {
		tree = append(tree, c)
		return true
	})

	for _, c := range tree {
		component.Attach(c)

		if d, ok := c.(component.HasDefaults); ok {
			d.ApplyDefaults()
		}
	}

	for _, c := range tree {
		if _, err := e.host(c); err != nil {
			return fmt.Errorf("initialize %s: %w", c.Node().DisplayName(), err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, c := range tree {
		if i, ok := c.(component.HasInit); ok {
			i.InitComponent()
		}
	}

	e.initialized = true

	pending := e.pending
	e.pending = nil

	for _, o := range pending {
		o.Notify(NewPass())
	}

	e.log.Debug("Initialized component tree",
		"root", root.Node().DisplayName(), "components", len(tree), "bindings", len(pending))

	return e.Flush(ctx)
}

// Flush delivers deferred changes to ChangeHandlers until none are left.
// Handlers may write fields, which queues more changes; after
// Config.MaxFlushIterations rounds the rest is dropped and
// ErrPropagationOverflow returned.
func (e *Engine) Flush(ctx context.Context) error {
	for i := 0; len(e.changes) > 0; i++ {
		if i >= e.cfg.MaxFlushIterations {
			pending := e.pendingChanges()
			e.changes = nil
			clear(e.changeIndex)

			d := diagnostic.Diagnostic{
				Severity: diagnostic.DiagnosticError,
				Code:     diagnostic.CodePropagationOverflow,
				Message:  fmt.Sprintf("change handlers still pending after %d iterations: %s", i, strings.Join(pending, "; ")),
			}
			e.report(d)

			return fmt.Errorf("%w after %d iterations", ErrPropagationOverflow, i)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		batch := e.changes
		e.changes = nil
		clear(e.changeIndex)

		for _, cs := range batch {
			if cs.comp.Node().Destroyed() {
				continue
			}

			e.deliver(cs)
		}
	}

	return nil
}

func (e *Engine) deliver(cs *changeSet) {
	defer func() {
		if r := recover(); r != nil {
			e.report(diagnostic.Diagnostic{
				Severity:  diagnostic.DiagnosticError,
				Code:      diagnostic.CodeTransformFailed,
				Message:   fmt.Sprintf("change handler panicked: %v", r),
				Component: cs.comp.Node().DisplayName(),
				Field:     strings.Join(cs.fields, ","),
			})
		}
	}()

	cs.handler.FieldsChanged(cs.fields)
}

func (e *Engine) pendingChanges() []string {
	out := make([]string, 0, len(e.changes))
	for _, cs := range e.changes {
		out = append(out, cs.comp.Node().DisplayName()+"["+strings.Join(cs.fields, ",")+"]")
	}

	return out
}

func (e *Engine) recordChange(c component.Component, path string) {
	handler, ok := c.(component.ChangeHandler)
	if !ok {
		return
	}

	cs, ok := e.changeIndex[c]
	if !ok {
		cs = &changeSet{comp: c, handler: handler}
		e.changeIndex[c] = cs
		e.changes = append(e.changes, cs)
	}

	if !slices.Contains(cs.fields, path) {
		cs.fields = append(cs.fields, path)
	}
}

func (e *Engine) notifyDependents(l *Location, pass *Pass) {
	for _, d := range l.host.dependents[l.path] {
		d.notifyObservers(pass)
	}
}

// schedule evaluates o now if the tree is initialized, or during the
// binding sweep of Initialize otherwise.
func (e *Engine) schedule(o Observer) {
	if e.initialized {
		o.Notify(NewPass())
		return
	}

	e.pending = append(e.pending, o)
}

func (e *Engine) report(d diagnostic.Diagnostic) {
	e.diags.Add(d)
	diagnostic.Log(e.log, d)
}

func (e *Engine) reportWrite(target *Location, b *Binding, err error) {
	code := diagnostic.CodeConversionFailed

	switch {
	case errors.Is(err, ErrReadOnly):
		code = diagnostic.CodeReadOnlyTarget
	case fieldpath.IsSevere(err):
		code = diagnostic.CodeSevereResolution
	}

	d := diagnostic.Diagnostic{
		Severity:  diagnostic.DiagnosticError,
		Code:      code,
		Message:   err.Error(),
		Component: target.root.Node().DisplayName(),
		Field:     target.path,
	}

	if b != nil {
		d.Expression = b.Expr.Raw
	}

	e.report(d)
}

func (e *Engine) reportTransform(target *Location, b *Binding, err error) {
	e.report(diagnostic.Diagnostic{
		Severity:   diagnostic.DiagnosticError,
		Code:       diagnostic.CodeTransformFailed,
		Message:    err.Error(),
		Component:  target.root.Node().DisplayName(),
		Field:      target.path,
		Expression: b.Expr.Raw,
	})
}
