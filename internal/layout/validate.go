package layout

import (
	"fmt"
	"strings"

	"fieldbind/internal/diagnostic"
	"fieldbind/internal/match"
)

// Validate checks the structure of doc against the types f can create.
// Field names and binding expressions are checked when the tree is built.
func Validate(doc *Document, f *Factory) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if doc == nil {
		res.AddError(diagnostic.CodeLayout, "layout document is nil", "", "")
		return res
	}

	if doc.Version != CurrentVersion {
		res.AddError(diagnostic.CodeLayout, fmt.Sprintf("unsupported layout version %q", doc.Version), "", "")
	}

	if o := doc.Options.MaxFlushIterations; o != nil && *o <= 0 {
		res.AddError(diagnostic.CodeLayout, "max_flush_iterations must be positive", "", "")
	}

	seenTables := map[string]struct{}{}

	for _, r := range doc.Resources {
		if r.Table == "" {
			res.AddError(diagnostic.CodeLayout, "resource table without a name", "", "")
			continue
		}

		if _, dup := seenTables[r.Table]; dup {
			res.AddWarning(diagnostic.CodeLayout, fmt.Sprintf("resource table %q declared twice, the last one wins", r.Table), "", "")
		}

		seenTables[r.Table] = struct{}{}
	}

	if doc.Root == nil {
		res.AddError(diagnostic.CodeLayout, "layout has no root component", "", "")
		return res
	}

	seenIDs := map[string]struct{}{}

	doc.Root.Walk(func(n *Node) {
		name := n.displayName()

		switch {
		case n.Type == "":
			res.AddError(diagnostic.CodeLayout, "component without a type", name, "")
		case !f.Has(n.Type):
			res.Add(diagnostic.Diagnostic{
				Severity:    diagnostic.DiagnosticError,
				Code:        diagnostic.CodeLayout,
				Message:     fmt.Sprintf("unknown component type %q", n.Type),
				Component:   name,
				Suggestions: match.Suggest(n.Type, f.Names()),
			})
		}

		if n.ID != "" {
			if _, dup := seenIDs[n.ID]; dup {
				res.AddError(diagnostic.CodeLayout, fmt.Sprintf("duplicate component id %q", n.ID), name, "")
			}

			seenIDs[n.ID] = struct{}{}
		}

		for _, field := range sortedKeys(n.Bind) {
			if strings.TrimSpace(n.Bind[field]) == "" {
				res.AddError(diagnostic.CodeLayout, "empty binding expression", name, field)
			}

			if _, both := n.Fields[field]; both {
				res.AddWarning(diagnostic.CodeLayout, "field has both a literal value and a binding", name, field)
			}
		}

		for _, state := range sortedKeys(n.States) {
			if strings.TrimSpace(state) == "" {
				res.AddError(diagnostic.CodeLayout, "state without a name", name, "")
			}
		}
	})

	return res
}

func (n *Node) displayName() string {
	if n.ID == "" {
		return n.Type
	}

	return n.Type + "#" + n.ID
}
