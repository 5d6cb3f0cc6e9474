package layout_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"fieldbind/internal/binding"
	"fieldbind/internal/ctxlog"
	"fieldbind/internal/diagnostic"
	"fieldbind/internal/layout"
	"fieldbind/internal/resource"
	"fieldbind/widgets"
)

func newFactory() *layout.Factory {
	f := layout.NewFactory()
	widgets.Register(f)

	return f
}

func newEngine(doc *layout.Document) (*binding.Engine, *resource.Tables) {
	tables := resource.NewTables()

	return binding.NewEngine(doc.Config(),
		binding.WithLogger(ctxlog.Discard()),
		binding.WithResources(tables),
	), tables
}

func TestYAMLAndHCLDecodeAlike(t *testing.T) {
	fromYAML, err := layout.LoadFile("testdata/settings.yaml")
	require.NoError(t, err)

	fromHCL, err := layout.LoadFile("testdata/settings.hcl")
	require.NoError(t, err)

	assert.Equal(t, "testdata/settings.yaml", fromYAML.Source)
	fromYAML.Source, fromHCL.Source = "", ""

	if diff := cmp.Diff(fromYAML, fromHCL); diff != "" {
		t.Errorf("documents differ (-yaml +hcl):\n%s", diff)
	}

	cfg := fromHCL.Config()
	assert.Equal(t, 16, cfg.MaxFlushIterations)
	assert.Equal(t, "strings", cfg.DefaultResourceTable)
}

func TestMountBindsTree(t *testing.T) {
	for _, file := range []string{"testdata/settings.yaml", "testdata/settings.hcl"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			doc, err := layout.LoadFile(file)
			require.NoError(t, err)

			e, tables := newEngine(doc)

			tree, err := layout.Mount(context.Background(), e, newFactory(), doc)
			require.NoError(t, err)
			require.True(t, e.Diagnostics().IsValid(), e.Diagnostics().Error())

			main := find[*widgets.Panel](t, tree, "main")
			heading := find[*widgets.Label](t, tree, "heading")
			volume := find[*widgets.Slider](t, tree, "volume")
			percent := find[*widgets.Label](t, tree, "percent")

			assert.Same(t, tree.Root, main)
			assert.Equal(t, widgets.Color{R: 0x10, G: 0x20, B: 0x30}, main.Background)
			assert.Equal(t, "Hello, Settings", heading.Text)
			assert.Equal(t, 100.0, volume.Value())
			assert.Equal(t, "100%", percent.Text)

			require.NoError(t, e.Set(main, "Title", "Audio"))
			assert.Equal(t, "Hello, Audio", heading.Text)

			tables.Set("strings", "greeting", "Hi")
			assert.Equal(t, "Hi, Audio", heading.Text)

			require.NoError(t, e.Set(volume, "Value", 25))
			assert.Equal(t, "25%", percent.Text)

			states := e.States(heading)
			require.NoError(t, states.OnStateChanged("Hover"))
			assert.False(t, heading.Visible)
			require.NoError(t, states.OnStateChanged(binding.DefaultState))
			assert.True(t, heading.Visible)
		})
	}
}

func find[T any](t *testing.T, tree *layout.Tree, id string) T {
	t.Helper()

	c, ok := tree.Find(id)
	require.True(t, ok, id)

	typed, ok := c.(T)
	require.True(t, ok, "%s is %T", id, c)

	return typed
}

func TestValidate(t *testing.T) {
	zero := 0

	tests := []struct {
		name  string
		doc   *layout.Document
		codes int
		want  string
	}{
		{
			name:  "nil",
			doc:   nil,
			codes: 1,
			want:  "layout document is nil",
		},
		{
			name:  "no root",
			doc:   &layout.Document{Version: "1"},
			codes: 1,
			want:  "no root",
		},
		{
			name:  "version",
			doc:   &layout.Document{Version: "2", Root: &layout.Node{Type: "Panel"}},
			codes: 1,
			want:  "unsupported layout version",
		},
		{
			name: "options",
			doc: &layout.Document{
				Version: "1",
				Options: layout.Options{MaxFlushIterations: &zero},
				Root:    &layout.Node{Type: "Panel"},
			},
			codes: 1,
			want:  "max_flush_iterations",
		},
		{
			name: "unknown type",
			doc: &layout.Document{Version: "1", Root: &layout.Node{
				Type:     "Panel",
				Children: []*layout.Node{{Type: "Lable", ID: "x"}},
			}},
			codes: 1,
			want:  "did you mean Label",
		},
		{
			name: "duplicate id",
			doc: &layout.Document{Version: "1", Root: &layout.Node{
				Type: "Panel", ID: "a",
				Children: []*layout.Node{{Type: "Label", ID: "a"}},
			}},
			codes: 1,
			want:  "duplicate component id",
		},
		{
			name: "empty binding",
			doc: &layout.Document{Version: "1", Root: &layout.Node{
				Type: "Label",
				Bind: map[string]string{"Text": " "},
			}},
			codes: 1,
			want:  "empty binding expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := layout.Validate(tt.doc, newFactory())
			require.Len(t, diags.Errors, tt.codes)
			assert.Equal(t, diagnostic.CodeLayout, diags.Errors[0].Code)
			assert.Contains(t, diags.Error().Error(), tt.want)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	doc := &layout.Document{
		Version: "1",
		Resources: []layout.Resource{
			{Table: "strings"},
			{Table: "strings"},
		},
		Root: &layout.Node{
			Type:   "Label",
			Fields: map[string]any{"Text": "x"},
			Bind:   map[string]string{"Text": "Title"},
		},
	}

	diags := layout.Validate(doc, newFactory())
	assert.True(t, diags.IsValid())
	assert.Len(t, diags.Warnings, 2)
}

func TestBuildReportsBindingFailures(t *testing.T) {
	doc, err := layout.ParseYAML([]byte(`
root:
  type: Panel
  fields:
    Padding: lots
  children:
    - type: Label
      id: a
      bind:
        Text: Titel
        Visible: "!Enabled"
`))
	require.NoError(t, err)
	assert.Equal(t, layout.CurrentVersion, doc.Version)

	e, _ := newEngine(doc)

	tree, err := layout.Mount(context.Background(), e, newFactory(), doc)
	require.Error(t, err)
	require.NotNil(t, tree)
	assert.Len(t, multierr.Errors(err), 2)

	diags := e.Diagnostics()
	assert.Len(t, diags.WithCode(diagnostic.CodeSevereResolution), 1)
	assert.Len(t, diags.WithCode(diagnostic.CodeConversionFailed), 1)

	label := find[*widgets.Label](t, tree, "a")
	assert.False(t, label.Visible, "sibling bindings still propagate")
}

func TestBuildStrict(t *testing.T) {
	doc, err := layout.ParseYAML([]byte(`
options:
  strict_bindings: true
root:
  type: Label
  bind:
    Text: "{Nope"
`))
	require.NoError(t, err)

	e, _ := newEngine(doc)
	require.True(t, e.Config().StrictBindings)

	tree, err := layout.Build(context.Background(), e, newFactory(), doc)
	require.Error(t, err)
	assert.Nil(t, tree)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

		return p
	}

	good := write("a.yaml", "root:\n  type: Label\n")
	badYAML := write("b.yml", "root: [\n")
	badExt := write("c.json", "{}")

	docs, err := layout.LoadFiles(good, badYAML, badExt, filepath.Join(dir, "missing.hcl"), "testdata/settings.hcl")
	require.Len(t, docs, 2)
	assert.Equal(t, good, docs[0].Source)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestParseHCLErrors(t *testing.T) {
	_, err := layout.ParseHCL("two.hcl", []byte(`
component "Panel" "a" {}
component "Panel" "b" {}
`))
	require.ErrorContains(t, err, "exactly one top-level component")

	_, err = layout.ParseHCL("fields.hcl", []byte(`
component "Panel" "a" {
  fields = "nope"
}
`))
	require.ErrorContains(t, err, "expected an object")

	_, err = layout.ParseHCL("syntax.hcl", []byte(`component "Panel" {`))
	require.Error(t, err)
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	doc, err := layout.LoadFile("testdata/settings.yaml")
	require.NoError(t, err)

	data, err := layout.MarshalYAML(doc)
	require.NoError(t, err)

	again, err := layout.ParseYAML(data)
	require.NoError(t, err)

	again.Source = doc.Source
	assert.Empty(t, cmp.Diff(doc, again))
}
