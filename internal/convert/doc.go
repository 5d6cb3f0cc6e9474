// Package convert is the value converter registry used by field locations.
//
// A Converter turns an incoming value, either markup text or an already
// typed Go value, into the native type of a field, and turns a live value
// back into text so it can be stored as a state default. Converters are
// looked up per reflect.Type through an explicit Registry built at startup
// and handed to the binding engine; there is no package-level cache.
//
// Scalar conversions go through go-cty: the input is lifted into a cty
// value, converted to the cty type implied by the target kind, and decoded
// back with gocty. Durations, times, textual booleans and TextUnmarshaler
// types are handled before reaching cty. Which cross-kind conversions are
// permitted is controlled by CategoryEnum flags.
package convert
