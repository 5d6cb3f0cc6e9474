package fieldpath

import (
	"errors"
	"fmt"
	"strings"
)

// Path is a parsed dotted field path like "Style.Color".
type Path struct {
	Segments []string
}

// ParsePath parses a dotted path. Each segment must be an identifier.
func ParsePath(path string) (Path, error) {
	if path == "" {
		return Path{}, errors.New("empty path")
	}

	var segments []string

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		if !isValidIdent(part) {
			return Path{}, fmt.Errorf("invalid path %q: invalid identifier %q", path, part)
		}

		segments = append(segments, part)
	}

	return Path{Segments: segments}, nil
}

// MustParsePath is ParsePath for constant paths; it panics on error.
func MustParsePath(path string) Path {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the path as a string.
func (p Path) String() string {
	return strings.Join(p.Segments, ".")
}

// IsSimple returns true if the path has exactly one segment.
func (p Path) IsSimple() bool {
	return len(p.Segments) == 1
}

// Root returns the first segment.
func (p Path) Root() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[0]
}

// Rest returns the path without its first segment.
func (p Path) Rest() Path {
	if len(p.Segments) < 2 {
		return Path{}
	}

	return Path{Segments: p.Segments[1:]}
}

// Prefixes returns every prefix of the path, shortest first, the path
// itself included: "A.B.C" gives "A", "A.B", "A.B.C".
func (p Path) Prefixes() []string {
	out := make([]string, 0, len(p.Segments))
	for i := range p.Segments {
		out = append(out, strings.Join(p.Segments[:i+1], "."))
	}

	return out
}

// Equals returns true if two paths are equal.
func (p Path) Equals(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}

	for i, seg := range p.Segments {
		if seg != other.Segments[i] {
			return false
		}
	}

	return true
}

// isValidIdent checks if a string is a valid Go identifier.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
