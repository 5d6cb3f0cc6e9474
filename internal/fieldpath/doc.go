// Package fieldpath resolves dotted field paths against component schemas.
//
// A resolved Plan says how to reach a value from a root component: walk a
// chain of struct members directly, forward the rest of the path to the
// component stored in the root field (Mapped), rewrite an alias (Alias),
// or look a descendant up by identifier on every access
// (MappedToDescendant). Plans are cached per (type, path) in a Resolver
// and never change once built, except descendant plans which are resolved
// per location and not shared.
package fieldpath
