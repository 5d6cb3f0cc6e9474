package binding

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"fieldbind/internal/component"
	"fieldbind/internal/diagnostic"
	"fieldbind/internal/fieldpath"
	"fieldbind/internal/match"
	"fieldbind/internal/resource"
)

// Binding is the result of one Bind call.
type Binding struct {
	Target  *Location
	Expr    *Expr
	Forward Observer
	// Reverse is the reciprocal observer of a two-way single binding.
	Reverse Observer
}

// TwoWay reports whether the binding also flows target to source.
func (b *Binding) TwoWay() bool {
	return b.Reverse != nil
}

// bindError carries the diagnostic code and suggestions of a failed Bind.
type bindError struct {
	code        string
	suggestions []string
	err         error
}

func (e *bindError) Error() string { return e.err.Error() }

func (e *bindError) Unwrap() error { return e.err }

// Bind parses expr and wires it into field of target. Failures are
// reported as diagnostics keyed by target, field and expression, and the
// field is left unbound. If the engine is initialized the binding is
// evaluated at once; otherwise during Initialize.
func (e *Engine) Bind(target component.Component, field, expr string) (*Binding, error) {
	b, err := e.bind(target, field, expr)
	if err != nil {
		d := diagnostic.Diagnostic{
			Severity:   diagnostic.DiagnosticError,
			Code:       diagnostic.CodeBindingSyntax,
			Message:    err.Error(),
			Component:  target.Node().DisplayName(),
			Field:      field,
			Expression: expr,
		}

		var be *bindError
		if errors.As(err, &be) {
			d.Code = be.code
			d.Suggestions = be.suggestions
		}

		e.report(d)

		return nil, err
	}

	e.log.Debug("Bound field",
		"component", target.Node().DisplayName(), "field", field, "expression", expr,
		"kind", b.Expr.Kind.String(), "two_way", b.TwoWay())

	return b, nil
}

func (e *Engine) bind(target component.Component, field, expr string) (*Binding, error) {
	targetLoc, err := e.location(target, field)
	if err != nil {
		return nil, resolutionError(diagnostic.CodeTargetNotFound, fmt.Errorf("%w: %w", ErrTargetNotFound, err))
	}

	if targetLoc.ReadOnly() {
		return nil, &bindError{
			code: diagnostic.CodeReadOnlyTarget,
			err:  fmt.Errorf("%s: %w", targetLoc, ErrReadOnly),
		}
	}

	ex, err := ParseExpr(expr)
	if err != nil {
		return nil, err
	}

	sources := make([]*source, 0, len(ex.Sources))

	for _, tok := range ex.Sources {
		s, err := e.source(target, tok)
		if err != nil {
			return nil, err
		}

		sources = append(sources, s)
	}

	b := &Binding{Target: targetLoc, Expr: ex}
	base := edge{binding: b, target: targetLoc}

	switch ex.Kind {
	case KindSingle:
		b.Forward = &singleObserver{edge: base, src: sources[0]}
	case KindResource:
		b.Forward = &resourceObserver{edge: base, src: sources[0]}
	case KindFormat:
		b.Forward = &formatObserver{edge: base, sources: sources, tmpl: ex.template}
	case KindTransform:
		fn, err := e.lookupFunc(scopeOf(target), ex)
		if err != nil {
			return nil, err
		}

		if err := fn.checkArity(len(sources)); err != nil {
			return nil, &bindError{code: diagnostic.CodeBindingSyntax, err: err}
		}

		b.Forward = &transformObserver{edge: base, sources: sources, fn: fn}
	}

	if ex.Kind == KindSingle {
		src := sources[0]

		if !ex.OneWay() && !src.loc.ReadOnly() {
			b.Reverse = &singleObserver{
				edge: edge{binding: b, target: src.loc},
				src:  &source{tok: Token{Mods: Modifiers{Negate: src.tok.Mods.Negate}}, loc: targetLoc},
			}
		}

		if src.tok.Mods.Local && src.loc.root == target && !src.loc.plan.IsForwarding() {
			src.loc.propagateFirst = true
		}
	}

	e.register(b, sources)

	return b, nil
}

func (e *Engine) register(b *Binding, sources []*source) {
	fwd := b.Forward

	for _, s := range sources {
		if s.loc != nil {
			s.loc.addObserver(fwd)
			continue
		}

		e.resources.Register(s.table, s.key, resource.SubscriberFunc(func() bool {
			if !e.initialized {
				return !fwd.Target().destroyed()
			}

			return fwd.Notify(NewPass())
		}))
	}

	if b.Reverse != nil {
		b.Target.addObserver(b.Reverse)
	}

	b.Target.host.bindings = append(b.Target.host.bindings, b)

	e.schedule(fwd)
}

// source resolves one token to a location or a resource entry.
func (e *Engine) source(target component.Component, tok Token) (*source, error) {
	if tok.Mods.Resource {
		table := tok.Table
		if table == "" {
			table = e.cfg.DefaultResourceTable
		}

		return &source{tok: tok, tables: e.resources, table: table, key: tok.Key}, nil
	}

	scope, err := e.scopeFor(target, tok)
	if err != nil {
		return nil, err
	}

	loc, err := e.location(scope, tok.Path)
	if err != nil {
		return nil, resolutionError(diagnostic.CodeSevereResolution, err)
	}

	if loc.plan.IsForwarding() {
		if _, err := loc.forward(); err != nil && !errors.Is(err, fieldpath.ErrSoft) {
			return nil, resolutionError(diagnostic.CodeSevereResolution, err)
		}
	}

	return &source{tok: tok, loc: loc}, nil
}

// scopeOf returns the logical parent of c, or c itself at the root.
func scopeOf(c component.Component) component.Component {
	if p := c.Node().Parent(); p != nil {
		return p
	}

	return c
}

// scopeFor picks the component a token's path is resolved on.
func (e *Engine) scopeFor(target component.Component, tok Token) (component.Component, error) {
	logical := scopeOf(target)

	switch {
	case tok.Mods.Parent:
	case tok.Mods.Local:
		return target, nil
	default:
		return logical, nil
	}

	var candidates []component.Component
	if tok.Mods.Local {
		candidates = append(candidates, target)
	}

	reached := false

	for _, a := range component.Ancestors(target) {
		candidates = append(candidates, a)
		if a == logical {
			reached = true
			break
		}
	}

	if !reached {
		candidates = append(candidates, logical)
	}

	root := fieldpath.MustParsePath(tok.Path).Root()

	for _, c := range candidates {
		h, err := e.host(c)
		if err != nil {
			continue
		}

		if _, ok := h.typ.Field(root); ok {
			return c, nil
		}
	}

	return nil, &bindError{
		code: diagnostic.CodeSourceNotFound,
		err:  fmt.Errorf("%w: no component in scope of %s declares %q", ErrSourceNotFound, target.Node().DisplayName(), root),
	}
}

// lookupFunc finds a transform: a method of the scope component first
// (unless the name is qualified by another type), then the registry.
func (e *Engine) lookupFunc(scope component.Component, ex *Expr) (*boundFunc, error) {
	h, err := e.host(scope)
	if err != nil {
		return nil, err
	}

	if ex.FuncType == "" || strings.EqualFold(ex.FuncType, h.typ.Name) {
		if m, ok := h.typ.Method(reflect.ValueOf(scope), ex.FuncName); ok && checkFuncType(m) == nil {
			return &boundFunc{name: ex.QualifiedFunc(), fn: m, owner: scope}, nil
		}
	}

	if f := e.funcs.Get(ex.QualifiedFunc()); f != nil {
		return &boundFunc{name: f.Name, fn: f.fn}, nil
	}

	known := append(e.funcs.Names(), h.typ.MethodNames()...)

	return nil, &bindError{
		code:        diagnostic.CodeUnknownFunction,
		suggestions: match.Suggest(ex.QualifiedFunc(), known),
		err:         fmt.Errorf("%w %q", ErrUnknownFunction, ex.QualifiedFunc()),
	}
}

func resolutionError(code string, err error) error {
	var severe *fieldpath.SevereError
	if errors.As(err, &severe) {
		return &bindError{code: code, suggestions: severe.Suggestions, err: err}
	}

	return &bindError{code: code, err: err}
}
