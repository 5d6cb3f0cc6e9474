package binding

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"fieldbind/internal/component"
	"fieldbind/internal/ctxlog"
)

type panel struct {
	component.Base

	Title   string
	Count   int
	Hidden  bool
	Price   float64
	Label   *label
	Caption component.Alias `bind:",map=Label.Text"`

	changed [][]string
}

func (p *panel) ApplyDefaults() {
	if p.Count == 0 {
		p.Count = 4
	}
}

func (p *panel) FieldsChanged(fields []string) {
	p.changed = append(p.changed, fields)
}

// Describe is called by transform bindings.
func (p *panel) Describe(title string, n int) string {
	return title + "#" + strconv.Itoa(n)
}

type label struct {
	component.Base

	Text    string
	Size    int
	Visible bool

	caption string
	sets    int
}

func (l *label) Caption() string { return l.caption }

func (l *label) SetCaption(s string) {
	l.sets++
	l.caption = s
}

// Length is a read-only property.
func (l *label) Length() int { return len(l.Text) }

type looper struct {
	component.Base

	N int

	engine *Engine
}

func (l *looper) FieldsChanged([]string) {
	_ = l.engine.Set(l, "N", l.N+1)
}

func newEngine(opts ...Option) *Engine {
	return NewEngine(DefaultConfig(), append([]Option{WithLogger(ctxlog.Discard())}, opts...)...)
}

// newTree builds a panel holding one label and returns them unbound.
func newTree() (*panel, *label) {
	p := &panel{}
	l := &label{Size: 3}
	p.Label = l

	p.SetID("p")
	l.SetID("l")
	component.AddChild(p, l)

	return p, l
}

func mustBind(t *testing.T, e *Engine, c component.Component, field, expr string) *Binding {
	t.Helper()

	b, err := e.Bind(c, field, expr)
	require.NoError(t, err)

	return b
}

func mustInit(t *testing.T, e *Engine, root component.Component) {
	t.Helper()
	require.NoError(t, e.Initialize(context.Background(), root))
}
