package widgets

import (
	"fmt"
	"strings"
)

// Alignment is a primitive enum bound from text.
type Alignment string

const (
	AlignStart  Alignment = "start"
	AlignCenter Alignment = "center"
	AlignEnd    Alignment = "end"
)

// Color is an RGB color written as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if len(s) != 7 || s[0] != '#' {
		return fmt.Errorf("color %q: want #rrggbb", s)
	}

	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return fmt.Errorf("color %q: %w", s, err)
	}

	return nil
}
