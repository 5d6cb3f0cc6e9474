// Package diagnostic provides structured warnings and errors produced while
// wiring and propagating field bindings.
//
// Every diagnostic is keyed by the component display name, the target field
// and the raw binding expression, so a markup author can find the offending
// declaration. Diagnostics are collected per engine and also written to a
// slog.Logger as they are recorded.
//
// Key capabilities:
//   - Severe resolution errors with "did you mean" suggestions
//   - Binding syntax errors and unknown transform functions
//   - Conversion failures carrying the offending value
//   - Propagation overflow reports listing pending components
package diagnostic
