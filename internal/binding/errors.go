package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrPropagationOverflow is returned when the change-handler flush loop
	// does not settle within Config.MaxFlushIterations.
	ErrPropagationOverflow = errors.New("change handlers did not settle")
	// ErrUnknownFunction is wrapped by transform bindings naming a function
	// that exists neither on the scope component nor in the FuncRegistry.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrTargetNotFound is wrapped when the bound field does not exist.
	ErrTargetNotFound = errors.New("target field not found")
	// ErrSourceNotFound is wrapped when no component in scope declares a
	// source path.
	ErrSourceNotFound = errors.New("source not found")
	// ErrReadOnly is wrapped when writing a property without setter.
	ErrReadOnly = errors.New("field is read-only")
)

// SyntaxError reports a malformed binding expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bad binding %q at %d: %s", e.Expr, e.Offset, e.Msg)
}

// ConversionError reports a value the field's converter rejected. The old
// value is kept.
type ConversionError struct {
	Component string
	Path      string
	Value     any
	Err       error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s.%s: cannot assign %#v: %v", e.Component, e.Path, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
