// Package component provides the component tree the binding engine walks.
//
// A component is any struct that embeds Base and is used through a
// pointer. Base keeps the tree links: the logical parent, which scopes
// binding expressions, and the layout parent, which owns the component in
// the visual tree. They are the same node unless SetLogicalParent says
// otherwise.
package component
