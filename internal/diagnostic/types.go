package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fieldbind/internal/common"
)

// Codes shared by the packages that record diagnostics.
const (
	CodeSevereResolution    = "severe_resolution"
	CodeBindingSyntax       = "binding_syntax"
	CodeUnknownFunction     = "unknown_function"
	CodeTargetNotFound      = "target_not_found"
	CodeSourceNotFound      = "source_not_found"
	CodeReadOnlyTarget      = "read_only_target"
	CodeConversionFailed    = "conversion_failed"
	CodeTransformFailed     = "transform_failed"
	CodePropagationOverflow = "propagation_overflow"
	CodeStateValue          = "state_value"
	CodeLayout              = "layout"
)

// Diagnostics holds all diagnostic information recorded by an engine.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Component is the display name of the component involved (if any).
	Component string
	// Field is the target field path (if any).
	Field string
	// Expression is the raw binding expression text (if any).
	Expression string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Level maps the severity onto a slog level.
func (s DiagnosticSeverity) Level() slog.Level {
	switch s {
	case DiagnosticError:
		return slog.LevelError
	case DiagnosticWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Add appends d to the bucket matching its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, component, field string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticError,
		Code:      code,
		Message:   message,
		Component: component,
		Field:     field,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, component, field string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticWarning,
		Code:      code,
		Message:   message,
		Component: component,
		Field:     field,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, component, field string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticInfo,
		Code:      code,
		Message:   message,
		Component: component,
		Field:     field,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Len returns the total number of diagnostics.
func (d Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// WithCode returns every diagnostic, of any severity, carrying code.
func (d Diagnostics) WithCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, bucket := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range bucket {
			if diag.Code == code {
				out = append(out, diag)
			}
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// Log writes diag to logger at the level matching its severity.
func Log(logger *slog.Logger, diag Diagnostic) {
	if logger == nil {
		return
	}

	logger.LogAttrs(context.Background(), diag.Severity.Level(), diag.Message, diag.Attrs()...)
}

// Attrs returns the slog attributes identifying the diagnostic.
func (d Diagnostic) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("code", d.Code)}
	if d.Component != "" {
		attrs = append(attrs, slog.String("component", d.Component))
	}

	if d.Field != "" {
		attrs = append(attrs, slog.String("field", d.Field))
	}

	if d.Expression != "" {
		attrs = append(attrs, slog.String("expression", d.Expression))
	}

	if len(d.Suggestions) > 0 {
		attrs = append(attrs, slog.Any("suggestions", d.Suggestions))
	}

	return attrs
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Component != "" {
		prefix = append(prefix, "["+d.Component+"]")
	}

	if d.Field != "" {
		prefix = append(prefix, d.Field)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if d.Expression != "" {
		msg += fmt.Sprintf(" (in %q)", d.Expression)
	}

	if len(d.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(d.Suggestions, ", ") + "?"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
