package fieldpath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSoft marks a path that exists but cannot be followed right now, for
// example because an intermediate pointer is nil. It is not reported; the
// access is retried on the next write.
var ErrSoft = errors.New("path not reachable")

// SevereError reports a path naming a member that does not exist on the
// declaring type. It is reported once and the binding stays inert.
type SevereError struct {
	Type        string   // declaring type name
	Path        string   // full path being resolved
	Member      string   // offending segment, empty for syntax errors
	Reason      error    // underlying parse error, if any
	Suggestions []string // close member names
}

func (e *SevereError) Error() string {
	var b strings.Builder

	if e.Member != "" {
		fmt.Fprintf(&b, "%s has no member %q (path %q)", e.Type, e.Member, e.Path)
	} else {
		fmt.Fprintf(&b, "%s: bad path %q", e.Type, e.Path)
	}

	if e.Reason != nil {
		b.WriteString(": ")
		b.WriteString(e.Reason.Error())
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("; did you mean ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString("?")
	}

	return b.String()
}

func (e *SevereError) Unwrap() error {
	return e.Reason
}

// IsSevere reports whether err is or wraps a *SevereError.
func IsSevere(err error) bool {
	var severe *SevereError
	return errors.As(err, &severe)
}
