package layout

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclFile is the top level of an HCL layout.
type hclFile struct {
	Version    *string         `hcl:"version,optional"`
	Options    *hclOptions     `hcl:"options,block"`
	Resources  []*hclResource  `hcl:"resource,block"`
	Components []*hclComponent `hcl:"component,block"`
}

type hclOptions struct {
	MaxFlushIterations   *int    `hcl:"max_flush_iterations,optional"`
	DefaultResourceTable *string `hcl:"default_resource_table,optional"`
	StrictBindings       *bool   `hcl:"strict_bindings,optional"`
}

type hclResource struct {
	Table   string         `hcl:"table,label"`
	Entries hcl.Expression `hcl:"entries"`
}

type hclComponent struct {
	Type     string            `hcl:"type,label"`
	ID       string            `hcl:"id,label"`
	Fields   hcl.Expression    `hcl:"fields,optional"`
	Bind     map[string]string `hcl:"bind,optional"`
	States   []*hclState       `hcl:"state,block"`
	Children []*hclComponent   `hcl:"component,block"`
}

type hclState struct {
	Name   string            `hcl:"name,label"`
	Values map[string]string `hcl:"values"`
}

// ParseHCL parses an HCL layout. filename is only used in diagnostics.
func ParseHCL(filename string, data []byte) (*Document, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse layout HCL %s: %w", filename, diags)
	}

	var root hclFile

	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode layout HCL %s: %w", filename, diags)
	}

	if len(root.Components) != 1 {
		return nil, fmt.Errorf("layout HCL %s: expected exactly one top-level component block, found %d", filename, len(root.Components))
	}

	doc := &Document{}
	if root.Version != nil {
		doc.Version = *root.Version
	}

	if o := root.Options; o != nil {
		doc.Options = Options{
			MaxFlushIterations:   o.MaxFlushIterations,
			DefaultResourceTable: o.DefaultResourceTable,
			StrictBindings:       o.StrictBindings,
		}
	}

	for _, r := range root.Resources {
		entries, err := expressionMap(r.Entries)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.Table, err)
		}

		doc.Resources = append(doc.Resources, Resource{Table: r.Table, Entries: entries})
	}

	node, err := translateComponent(root.Components[0])
	if err != nil {
		return nil, err
	}

	doc.Root = node

	applyDefaults(doc)

	return doc, nil
}

func translateComponent(c *hclComponent) (*Node, error) {
	fields, err := expressionMap(c.Fields)
	if err != nil {
		return nil, fmt.Errorf("component %s %q: fields: %w", c.Type, c.ID, err)
	}

	n := &Node{Type: c.Type, ID: c.ID, Fields: fields, Bind: c.Bind}

	for _, s := range c.States {
		if n.States == nil {
			n.States = make(map[string]map[string]string)
		}

		n.States[s.Name] = s.Values
	}

	for _, child := range c.Children {
		cn, err := translateComponent(child)
		if err != nil {
			return nil, err
		}

		n.Children = append(n.Children, cn)
	}

	return n, nil
}

// expressionMap evaluates an object expression without variables into
// native values. An omitted attribute yields nil.
func expressionMap(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}

	if val.IsNull() {
		return nil, nil
	}

	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}

	native, err := ctyToNative(val)
	if err != nil {
		return nil, err
	}

	out, _ := native.(map[string]any)

	return out, nil
}

// ctyToNative converts a cty.Value to its most natural Go counterpart.
// Whole numbers become int, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		if bf := v.AsBigFloat(); bf.IsInt() {
			var i int
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}

		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}

		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()

			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}

			slice = append(slice, native)
		}

		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)

		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()

			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in key %q: %w", key.AsString(), err)
			}

			m[key.AsString()] = native
		}

		return m, nil
	}

	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
