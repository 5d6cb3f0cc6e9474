// Package schema builds, once per Go type, the table of bindable members
// a component exposes: struct fields, getter/setter property pairs and
// mapped aliases. Accessors are prepared reflect index paths and method
// indices so field locations never look members up by name at runtime.
package schema
