package layout

import (
	"maps"
	"slices"

	"fieldbind/internal/binding"
)

// CurrentVersion is the only layout version understood.
const CurrentVersion = "1"

// Document is a parsed layout, independent of its source format.
type Document struct {
	// Source is the file the document was read from, if any.
	Source string `yaml:"-"`

	Version   string     `yaml:"version,omitempty"`
	Options   Options    `yaml:"options,omitempty"`
	Resources []Resource `yaml:"resources,omitempty"`
	Root      *Node      `yaml:"root"`
}

// Options override binding.DefaultConfig for engines built for the
// document. Nil fields keep the default.
type Options struct {
	MaxFlushIterations   *int    `yaml:"max_flush_iterations,omitempty"`
	DefaultResourceTable *string `yaml:"default_resource_table,omitempty"`
	StrictBindings       *bool   `yaml:"strict_bindings,omitempty"`
}

// Apply copies the options that are set into cfg.
func (o Options) Apply(cfg *binding.Config) {
	if o.MaxFlushIterations != nil {
		cfg.MaxFlushIterations = *o.MaxFlushIterations
	}

	if o.DefaultResourceTable != nil {
		cfg.DefaultResourceTable = *o.DefaultResourceTable
	}

	if o.StrictBindings != nil {
		cfg.StrictBindings = *o.StrictBindings
	}
}

// Config returns binding.DefaultConfig with the document options applied.
func (d *Document) Config() binding.Config {
	cfg := binding.DefaultConfig()
	d.Options.Apply(&cfg)

	return cfg
}

// Resource is the initial content of one resource table.
type Resource struct {
	Table   string         `yaml:"table"`
	Entries map[string]any `yaml:"entries"`
}

// Node describes one component of the tree.
type Node struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id,omitempty"`

	// Fields are literal values written before bindings are created.
	Fields map[string]any `yaml:"fields,omitempty"`
	// Bind maps a field path of this component to a binding expression.
	Bind map[string]string `yaml:"bind,omitempty"`
	// States maps a state name to path→literal overrides.
	States map[string]map[string]string `yaml:"states,omitempty"`

	Children []*Node `yaml:"children,omitempty"`
}

// Walk visits n and its descendants, parents first.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}

	visit(n)

	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// sortedKeys keeps building and validation independent of map order.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
