package binding

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbind/internal/component"
	"fieldbind/internal/ctxlog"
	"fieldbind/internal/diagnostic"
	"fieldbind/internal/fieldpath"
	"fieldbind/internal/resource"
)

func TestIdenticalWriteDoesNotPropagate(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Caption", "Title")
	mustInit(t, e, p)
	assert.Equal(t, 1, l.sets)

	require.NoError(t, e.Set(p, "Title", "a"))
	assert.Equal(t, "a", l.Caption())
	assert.Equal(t, 2, l.sets)
	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, [][]string{{"Title"}}, p.changed)

	require.NoError(t, e.Set(p, "Title", "a"))
	assert.Equal(t, 2, l.sets, "identical write must not reach observers")
	require.NoError(t, e.Flush(context.Background()))
	assert.Len(t, p.changed, 1, "identical write must not queue a change")
}

func TestTwoWayEchoTerminates(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	b := mustBind(t, e, l, "Text", "Title")
	require.True(t, b.TwoWay())
	mustInit(t, e, p)

	require.NoError(t, e.Set(l, "Text", "x"))
	assert.Equal(t, "x", p.Title)
	assert.Equal(t, "x", l.Text)

	loc, err := e.Location(p, "Title")
	require.NoError(t, err)

	pass := NewPass()
	_, err = loc.Set("y", pass)
	require.NoError(t, err)

	assert.Equal(t, "y", l.Text)
	assert.Equal(t, []string{"panel#p.Title", "label#l.Text"}, pass.Visits())
}

func TestFormatRecomputesOnceWithAllSources(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Count = 5

	b := mustBind(t, e, l, "Caption", "{#Size} of {Count}")
	assert.Equal(t, KindFormat, b.Expr.Kind)
	assert.False(t, b.TwoWay())

	mustInit(t, e, p)
	assert.Equal(t, "3 of 5", l.Caption())
	assert.Equal(t, 1, l.sets)

	require.NoError(t, e.Set(l, "Size", 7))
	assert.Equal(t, "7 of 5", l.Caption())
	assert.Equal(t, 2, l.sets)
}

func TestFormatVerbsAndDefaults(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Price = 2.5

	mustBind(t, e, l, "Text", "{Price:%.2f} EUR, {@missing:none}")
	mustInit(t, e, p)

	assert.Equal(t, "2.50 EUR, none", l.Text)
}

func TestSevereResolutionIsReported(t *testing.T) {
	e := newEngine()
	_, l := newTree()

	_, err := e.Bind(l, "Text", "Titel")
	require.Error(t, err)

	diags := e.Diagnostics().WithCode(diagnostic.CodeSevereResolution)
	require.Len(t, diags, 1)
	assert.Equal(t, "label#l", diags[0].Component)
	assert.Equal(t, "Text", diags[0].Field)
	assert.Equal(t, "Titel", diags[0].Expression)
	assert.Contains(t, diags[0].Suggestions, "Title")
}

func TestSoftResolutionWaitsForDescendant(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Text", "icon.Text")
	mustInit(t, e, p)
	assert.True(t, e.Diagnostics().IsValid())
	assert.Empty(t, l.Text)

	icon := &label{}
	icon.SetID("icon")
	component.AddChild(p, icon)

	require.NoError(t, e.Set(p, "icon.Text", "hi"))
	assert.Equal(t, "hi", icon.Text)
	assert.Equal(t, "hi", l.Text)

	require.NoError(t, e.Set(icon, "Text", "again"))
	assert.Equal(t, "again", l.Text)

	e.Destroy(icon)
	require.NoError(t, e.Set(p, "icon.Text", "gone"))
	assert.Equal(t, "again", l.Text)
	assert.True(t, e.Diagnostics().IsValid())
}

func TestLateDescendantWrittenDirectly(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Text", "icon.Text")
	mustInit(t, e, p)

	icon := &label{}
	icon.SetID("icon")
	component.AddChild(p, icon)

	require.NoError(t, e.Set(icon, "Text", "hi"))
	assert.Equal(t, "hi", l.Text)

	e.Destroy(icon)

	replacement := &label{Text: "new"}
	replacement.SetID("icon")
	require.NoError(t, e.AddChild(p, replacement))
	assert.Equal(t, "new", l.Text)

	require.NoError(t, e.Set(replacement, "Text", "newer"))
	assert.Equal(t, "newer", l.Text)
	assert.True(t, e.Diagnostics().IsValid())
}

func TestNilRootFieldBecomesLive(t *testing.T) {
	e := newEngine()
	p := &panel{}
	out := &label{}
	component.AddChild(p, out)

	mustBind(t, e, out, "Text", "Label.Text")
	mustInit(t, e, p)
	assert.Empty(t, out.Text)
	assert.True(t, e.Diagnostics().IsValid())

	inner := &label{Text: "live"}
	require.NoError(t, e.Set(p, "Label", inner))
	assert.Equal(t, "live", out.Text)

	require.NoError(t, e.Set(inner, "Text", "next"))
	assert.Equal(t, "next", out.Text)
}

type knot struct {
	component.Base

	A component.Alias `bind:",map=B"`
	B component.Alias `bind:",map=A"`
}

func TestAliasCycleIsSevere(t *testing.T) {
	e := newEngine()
	k := &knot{}
	l := &label{}
	component.AddChild(k, l)

	_, err := e.Bind(l, "Text", "A")
	require.Error(t, err)
	assert.True(t, fieldpath.IsSevere(err))
	assert.ErrorContains(t, err, "alias cycle")
	assert.Len(t, e.Diagnostics().WithCode(diagnostic.CodeSevereResolution), 1)
}

func TestStateRevertRestoresCapturedDefault(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Text", "$Count")
	mustInit(t, e, p)
	assert.Equal(t, "4", l.Text)

	states := e.States(p)
	require.NoError(t, states.AddValue("Hover", "Count", "9"))

	defaults := states.Values(DefaultState)
	require.Len(t, defaults, 1)
	assert.False(t, defaults[0].HasDefaultCaptured())

	// The default is read when leaving Default, not when it is declared.
	require.NoError(t, e.Set(p, "Count", 6))

	require.NoError(t, states.OnStateChanged("Hover"))
	assert.Equal(t, "Hover", states.State())
	assert.Equal(t, 9, p.Count)
	assert.Equal(t, "9", l.Text)
	assert.True(t, defaults[0].HasDefaultCaptured())
	assert.Equal(t, "6", defaults[0].Literal)

	require.NoError(t, states.OnStateChanged(DefaultState))
	assert.Equal(t, 6, p.Count)
	assert.Equal(t, "6", l.Text)

	require.NoError(t, states.OnStateChanged("Hover"))
	assert.Equal(t, 9, p.Count)
}

func TestResourceRebindingWithNegation(t *testing.T) {
	tables := resource.NewTables()
	tables.Load("flags", map[string]any{"hidden": true})

	e := newEngine(WithResources(tables))
	p, l := newTree()

	b := mustBind(t, e, l, "Visible", "!@flags/hidden")
	assert.Equal(t, KindResource, b.Expr.Kind)
	assert.False(t, b.TwoWay())

	mustInit(t, e, p)
	assert.False(t, l.Visible)

	tables.Set("flags", "hidden", false)
	assert.True(t, l.Visible)

	tables.Load("flags", map[string]any{"hidden": "true"})
	assert.True(t, l.Visible, "boolean text is not negated")

	tables.Load("flags", map[string]any{"hidden": true})
	assert.False(t, l.Visible)

	tables.Unload("flags")
	assert.False(t, l.Visible, "an unloaded key leaves the target alone")
	assert.Equal(t, 1, tables.Subscribers("flags", "hidden"))

	e.Destroy(l)
	tables.Set("flags", "hidden", true)
	assert.Zero(t, tables.Subscribers("flags", "hidden"))
}

func TestResourceMissingAtBindNotifiesOnceOnLoad(t *testing.T) {
	tables := resource.NewTables()

	e := newEngine(WithResources(tables))
	p, l := newTree()

	mustBind(t, e, l, "Caption", "@greeting")
	mustInit(t, e, p)
	assert.Zero(t, l.sets)
	assert.Equal(t, 1, tables.Subscribers("strings", "greeting"))

	tables.Load("strings", map[string]any{"greeting": "hi"})
	assert.Equal(t, "hi", l.Caption())
	assert.Equal(t, 1, l.sets)
}

func TestResourceDefaultTable(t *testing.T) {
	tables := resource.NewTables()
	tables.Load("strings", map[string]any{"greeting": "hello"})

	e := newEngine(WithResources(tables))
	p, l := newTree()

	mustBind(t, e, l, "Text", "@greeting")
	mustInit(t, e, p)
	assert.Equal(t, "hello", l.Text)

	tables.Load("strings", map[string]any{"greeting": "hallo"})
	assert.Equal(t, "hallo", l.Text)
}

func TestTwoWayNegation(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Hidden = true

	mustBind(t, e, l, "Visible", "!Hidden")
	mustInit(t, e, p)
	assert.False(t, l.Visible)

	require.NoError(t, e.Set(l, "Visible", false))
	require.NoError(t, e.Set(l, "Visible", true))
	assert.False(t, p.Hidden)
}

func TestAliasAndMappedPaths(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	other := &label{}
	component.AddChild(p, other)

	mustBind(t, e, other, "Text", "Caption")
	mustInit(t, e, p)

	require.NoError(t, e.Set(p, "Caption", "via alias"))
	assert.Equal(t, "via alias", l.Text)
	assert.Equal(t, "via alias", other.Text)

	require.NoError(t, e.Set(l, "Text", "direct"))
	assert.Equal(t, "direct", other.Text)

	require.NoError(t, e.Set(p, "Label.Size", 11))
	assert.Equal(t, 11, l.Size)

	v, ok, err := e.Get(p, "Label.Size")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 11, v)
}

func TestParentSearch(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	inner := &label{}
	component.AddChild(l, inner)
	inner.SetLogicalParent(p)

	_, err := e.Bind(inner, "Text", "Size")
	require.Error(t, err, "Size is not declared by the logical parent")

	mustBind(t, e, inner, "Visible", "^Hidden")
	mustBind(t, e, inner, "Size", "^Size")
	mustInit(t, e, p)

	require.NoError(t, e.Set(l, "Size", 8))
	assert.Equal(t, 8, inner.Size)

	require.NoError(t, e.Set(p, "Hidden", true))
	assert.True(t, inner.Visible)

	_, err = e.Bind(inner, "Text", "^Nope")
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestTransformBindings(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Title = "a"

	mustBind(t, e, l, "Caption", "=Concat(Title, #Size)")
	mustBind(t, e, l, "Text", "{=Describe(Title, Count)}")
	mustInit(t, e, p)

	assert.Equal(t, "a3", l.Caption())
	assert.Equal(t, "a#4", l.Text)

	require.NoError(t, e.Set(p, "Title", "b"))
	assert.Equal(t, "b3", l.Caption())
	assert.Equal(t, "b#4", l.Text)
}

func TestUnknownFunctionSuggests(t *testing.T) {
	e := newEngine()
	_, l := newTree()

	_, err := e.Bind(l, "Text", "=Concta(Title)")
	require.ErrorIs(t, err, ErrUnknownFunction)

	diags := e.Diagnostics().WithCode(diagnostic.CodeUnknownFunction)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Suggestions, "Concat")
}

func TestBindRejections(t *testing.T) {
	tests := []struct {
		name  string
		field string
		expr  string
		code  string
	}{
		{"syntax", "Text", "{Title", diagnostic.CodeBindingSyntax},
		{"missing target", "Nope", "Title", diagnostic.CodeTargetNotFound},
		{"read-only target", "Length", "Count", diagnostic.CodeReadOnlyTarget},
		{"arity", "Text", "=Not(Hidden, Hidden)", diagnostic.CodeBindingSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			_, l := newTree()

			_, err := e.Bind(l, tt.field, tt.expr)
			require.Error(t, err)

			diags := e.Diagnostics()
			require.Len(t, diags.Errors, 1)
			assert.Equal(t, tt.code, diags.Errors[0].Code)
			assert.Equal(t, tt.expr, diags.Errors[0].Expression)
		})
	}
}

func TestReadOnlySourceIsOneWay(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	l.Text = "abcd"

	other := &label{}
	component.AddChild(l, other)

	b := mustBind(t, e, other, "Size", "Length")
	assert.False(t, b.TwoWay())
	mustInit(t, e, p)
	assert.Equal(t, 4, other.Size)
}

func TestConversionFailureKeepsOldValue(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Title = "not a number"

	mustBind(t, e, l, "Size", "$Title")
	mustInit(t, e, p)

	assert.Equal(t, 3, l.Size)
	require.Len(t, e.Diagnostics().WithCode(diagnostic.CodeConversionFailed), 1)
}

func TestPropagateFirstWalk(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Text", "#Caption")
	mustInit(t, e, p)

	walk := e.Walk(l)
	require.Len(t, walk, 2)
	assert.Equal(t, "Caption", walk[0].Path())
	assert.True(t, walk[0].PropagateFirst())
	assert.Equal(t, "Text", walk[1].Path())
}

func TestFlushOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFlushIterations = 5

	e := NewEngine(cfg, WithLogger(ctxlog.Discard()))
	lp := &looper{engine: e}
	mustInit(t, e, lp)

	require.NoError(t, e.Set(lp, "N", 1))

	err := e.Flush(context.Background())
	require.ErrorIs(t, err, ErrPropagationOverflow)
	assert.Equal(t, 6, lp.N)
	assert.Len(t, e.Diagnostics().WithCode(diagnostic.CodePropagationOverflow), 1)

	// The loop was abandoned, nothing is left queued.
	require.NoError(t, e.Flush(context.Background()))
}

func TestDestroyedTargetIsPruned(t *testing.T) {
	e := newEngine()
	p, l := newTree()

	mustBind(t, e, l, "Text", "Title")
	mustInit(t, e, p)

	title, err := e.Location(p, "Title")
	require.NoError(t, err)
	require.Len(t, title.Observers(), 1)

	e.Destroy(l)
	require.NoError(t, e.Set(p, "Title", "q"))

	assert.Empty(t, l.Text)
	assert.Empty(t, title.Observers())
	assert.True(t, e.Diagnostics().IsValid())
}

func TestBindAfterInitializeEvaluatesAtOnce(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Title = "now"

	mustInit(t, e, p)
	assert.True(t, e.Initialized())

	mustBind(t, e, l, "Text", "Title")
	assert.Equal(t, "now", l.Text)
}

func TestSnapshot(t *testing.T) {
	e := newEngine()
	p, l := newTree()
	p.Title = "t"

	mustBind(t, e, l, "Text", "$Title")
	mustInit(t, e, p)

	snap := e.Snapshot()

	want := []ComponentSnapshot{
		{
			Name:  "label#l",
			State: DefaultState,
			Locations: []LocationSnapshot{
				{Path: "Text", Plan: "direct", Value: "t", Valid: true, IsSet: true},
			},
		},
		{
			Name:  "panel#p",
			State: DefaultState,
			Locations: []LocationSnapshot{
				{Path: "Title", Plan: "direct", Value: "t", Valid: true, Observers: []string{"Single -> label#l.Text"}},
			},
		},
	}

	if diff := cmp.Diff(want, snap.Components); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
