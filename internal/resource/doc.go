// Package resource implements named key-value tables living outside the
// component tree, such as localized strings or theme tokens. Bindings
// subscribe to a (table, key) pair and are renotified whenever that entry
// is loaded, changed, deleted or unloaded.
//
// Subpackage boltstore persists tables in a bbolt database; subpackage
// feed receives live updates over socket.io.
package resource
