package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseExprKinds(t *testing.T) {
	tests := []struct {
		expr     string
		kind     Kind
		template string
		sources  []Token
	}{
		{
			expr: "Title",
			kind: KindSingle,
			sources: []Token{
				{Raw: "Title", Path: "Title"},
			},
		},
		{
			expr: "{#!Enabled}",
			kind: KindSingle,
			sources: []Token{
				{Raw: "#!Enabled", Mods: Modifiers{Local: true, Negate: true}, Path: "Enabled"},
			},
		},
		{
			expr: "$Label.Text:none",
			kind: KindSingle,
			sources: []Token{
				{Raw: "$Label.Text:none", Mods: Modifiers{OneWay: true}, Path: "Label.Text", Default: strPtr("none")},
			},
		},
		{
			expr: "@theme/accent",
			kind: KindResource,
			sources: []Token{
				{Raw: "@theme/accent", Mods: Modifiers{Resource: true}, Table: "theme", Key: "accent"},
			},
		},
		{
			expr:     "{#X} of {^Y}",
			kind:     KindFormat,
			template: "{0} of {1}",
			sources: []Token{
				{Raw: "#X", Mods: Modifiers{Local: true}, Path: "X"},
				{Raw: "^Y", Mods: Modifiers{Parent: true}, Path: "Y"},
			},
		},
		{
			expr:     "{Price:0:%.2f}",
			kind:     KindFormat,
			template: "{0:%.2f}",
			sources: []Token{
				{Raw: "Price:0", Path: "Price", Default: strPtr("0"), Format: "%.2f"},
			},
		},
		{
			expr:     "{{literal}} {Name}",
			kind:     KindFormat,
			template: "{{literal}} {0}",
			sources: []Token{
				{Raw: "Name", Path: "Name"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ex, err := ParseExpr(tt.expr)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, ex.Kind)
			assert.Equal(t, tt.template, ex.Template)
			assert.Equal(t, tt.sources, ex.Sources)
		})
	}
}

func TestParseTransform(t *testing.T) {
	ex, err := ParseExpr("{=Math.Max(A, #B.C)}")
	require.NoError(t, err)

	assert.Equal(t, KindTransform, ex.Kind)
	assert.Equal(t, "Math", ex.FuncType)
	assert.Equal(t, "Max", ex.FuncName)
	assert.Equal(t, "Math.Max", ex.QualifiedFunc())
	require.Len(t, ex.Sources, 2)
	assert.Equal(t, "A", ex.Sources[0].Path)
	assert.Equal(t, "B.C", ex.Sources[1].Path)
	assert.True(t, ex.Sources[1].Mods.Local)
	assert.True(t, ex.OneWay())

	ex, err = ParseExpr("=Now()")
	require.NoError(t, err)
	assert.Equal(t, "Now", ex.QualifiedFunc())
	assert.Empty(t, ex.Sources)
}

func TestParseExprOneWay(t *testing.T) {
	for expr, oneWay := range map[string]bool{
		"Title":       false,
		"$Title":      true,
		"@greeting":   true,
		"{A} and {B}": true,
	} {
		ex, err := ParseExpr(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, oneWay, ex.OneWay(), expr)
	}
}

func TestParseExprErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", "  "},
		{"duplicate modifier", "##Title"},
		{"unterminated", "{Title"},
		{"unmatched close", "Title}"},
		{"nested", "{a{b}}"},
		{"no path", "{#}"},
		{"bad path", "a..b"},
		{"scoped resource", "#@key"},
		{"bad resource", "@table/"},
		{"transform without call", "=Upper"},
		{"bad function name", "=1x(A)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpr(tt.expr)

			var syntax *SyntaxError
			require.ErrorAs(t, err, &syntax)
			assert.Equal(t, tt.expr, syntax.Expr)
		})
	}
}

func TestFormatTemplateRender(t *testing.T) {
	ft, err := compileTemplate("{0} of {1:%03d}{{x}}")
	require.NoError(t, err)

	assert.Equal(t, "3 of 005{x}", ft.Render([]any{3, 5}))
	assert.Equal(t, " of 005{x}", ft.Render([]any{nil, 5}))
	assert.Equal(t, "a of {x}", ft.Render([]any{"a"}))
}
