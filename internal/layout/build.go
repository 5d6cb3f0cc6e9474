package layout

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"fieldbind/internal/binding"
	"fieldbind/internal/component"
	"fieldbind/internal/ctxlog"
)

// Tree is a component tree built from a document.
type Tree struct {
	Root component.Component

	byID  map[string]component.Component
	order []component.Component
}

// Find returns the component with the given layout id.
func (t *Tree) Find(id string) (component.Component, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Components returns every component, parents before children.
func (t *Tree) Components() []component.Component {
	return t.order
}

// resourceLoader is implemented by resource.Tables.
type resourceLoader interface {
	Load(table string, entries map[string]any)
}

// Build validates doc, creates its components, loads its resource tables
// into the engine, writes literal fields and registers bindings and state
// values. The tree is not initialized.
//
// With Config.StrictBindings the first failure aborts the build. Otherwise
// every failure is reported to the engine's diagnostics, the returned
// error combines them and the tree is still returned.
func Build(ctx context.Context, e *binding.Engine, f *Factory, doc *Document) (*Tree, error) {
	logger := ctxlog.FromContext(ctx)

	if diags := Validate(doc, f); !diags.IsValid() {
		return nil, diags.Error()
	}

	if loader, ok := e.Resources().(resourceLoader); ok {
		for _, r := range doc.Resources {
			loader.Load(r.Table, r.Entries)
		}
	} else if len(doc.Resources) > 0 {
		logger.Warn("Engine resource tables cannot be loaded, layout resources ignored.", "tables", len(doc.Resources))
	}

	b := &builder{
		engine: e,
		ctx:    ctx,
		tree:   &Tree{byID: make(map[string]component.Component)},
		strict: e.Config().StrictBindings,
	}

	root, err := b.create(f, doc.Root, nil)
	if err != nil {
		return nil, err
	}

	b.tree.Root = root

	if err := b.wire(); err != nil {
		return nil, err
	}

	logger.Debug("Built layout.", "source", doc.Source, "components", len(b.tree.order))

	return b.tree, b.errs
}

// Mount builds doc and initializes the resulting tree.
func Mount(ctx context.Context, e *binding.Engine, f *Factory, doc *Document) (*Tree, error) {
	tree, err := Build(ctx, e, f, doc)
	if tree == nil {
		return nil, err
	}

	if initErr := e.Initialize(ctx, tree.Root); initErr != nil {
		return tree, multierr.Append(err, initErr)
	}

	return tree, err
}

type builder struct {
	engine *binding.Engine
	ctx    context.Context
	tree   *Tree
	strict bool
	errs   error

	nodes []built
}

type built struct {
	node *Node
	comp component.Component
}

// create instantiates n and its subtree and writes literal fields.
func (b *builder) create(f *Factory, n *Node, parent component.Component) (component.Component, error) {
	c, err := f.New(n.Type)
	if err != nil {
		return nil, err
	}

	if n.ID != "" {
		c.Node().SetID(n.ID)
		b.tree.byID[n.ID] = c
	}

	if parent != nil {
		component.AddChild(parent, c)
	} else {
		component.Attach(c)
	}

	b.tree.order = append(b.tree.order, c)
	b.nodes = append(b.nodes, built{node: n, comp: c})

	for _, field := range sortedKeys(n.Fields) {
		if err := b.engine.Set(c, field, n.Fields[field]); err != nil {
			if b.fail(fmt.Errorf("%s.%s: %w", c.Node().DisplayName(), field, err)) {
				return nil, b.errs
			}
		}
	}

	for _, child := range n.Children {
		if _, err := b.create(f, child, c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// wire registers bindings and states once every component exists, so
// expressions may refer to descendants declared after them.
func (b *builder) wire() error {
	for _, nb := range b.nodes {
		for _, field := range sortedKeys(nb.node.Bind) {
			if _, err := b.engine.Bind(nb.comp, field, nb.node.Bind[field]); err != nil {
				if b.fail(err) {
					return b.errs
				}
			}
		}

		if len(nb.node.States) == 0 {
			continue
		}

		states := b.engine.States(nb.comp)

		for _, state := range sortedKeys(nb.node.States) {
			values := nb.node.States[state]
			for _, path := range sortedKeys(values) {
				if err := states.AddValue(state, path, values[path]); err != nil {
					ctxlog.FromContext(b.ctx).Error("Invalid state value.",
						"component", nb.comp.Node().DisplayName(), "state", state, "field", path, "error", err)

					if b.fail(err) {
						return b.errs
					}
				}
			}
		}
	}

	return nil
}

// fail records err and reports whether building must stop.
func (b *builder) fail(err error) bool {
	b.errs = multierr.Append(b.errs, err)
	return b.strict
}
