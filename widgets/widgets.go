package widgets

import (
	"fmt"
	"slices"

	"fieldbind/internal/component"
	"fieldbind/internal/layout"
)

// Panel groups other widgets.
type Panel struct {
	component.Base

	Title      string
	Enabled    bool
	Background Color
	Padding    int
}

func NewPanel() component.Component {
	return &Panel{Enabled: true}
}

// Percent renders v as a share of total, for transform bindings such as
// "=Percent(#Value, #Max)".
func (p *Panel) Percent(v, total float64) string {
	if total == 0 {
		return "0%"
	}

	return fmt.Sprintf("%.0f%%", v/total*100)
}

// Label shows a line of text.
type Label struct {
	component.Base

	Text    string
	Visible bool
	Align   Alignment
	Color   Color
}

func NewLabel() component.Component {
	return &Label{Visible: true}
}

func (l *Label) ApplyDefaults() {
	if l.Align == "" {
		l.Align = AlignStart
	}
}

// Button owns a label for its caption. Caption forwards to that label's
// text.
type Button struct {
	component.Base

	Caption component.Alias `bind:",map=Label.Text"`
	Label   *Label
	Enabled bool
	Pressed bool

	presses int
}

func NewButton() component.Component {
	b := &Button{Enabled: true, Label: &Label{Visible: true}}
	component.AddChild(b, b.Label)

	return b
}

// Presses counts how often Pressed became true.
func (b *Button) Presses() int { return b.presses }

func (b *Button) FieldsChanged(fields []string) {
	if slices.Contains(fields, "Pressed") && b.Pressed {
		b.presses++
	}
}

// Slider holds a value clamped to [Min, Max] when it is written.
type Slider struct {
	component.Base

	Min  float64
	Max  float64
	Step float64

	value float64
}

func NewSlider() component.Component {
	return &Slider{Max: 100, Step: 1}
}

func (s *Slider) Value() float64 { return s.value }

func (s *Slider) SetValue(v float64) {
	s.value = min(max(v, s.Min), s.Max)
}

// Fraction is the position of Value between Min and Max, from 0 to 1.
func (s *Slider) Fraction() float64 {
	if s.Max == s.Min {
		return 0
	}

	return (s.value - s.Min) / (s.Max - s.Min)
}

// TextBox is an editable line of text.
type TextBox struct {
	component.Base

	Text        string
	Placeholder string
	Disabled    bool

	edits int
}

func NewTextBox() component.Component {
	return &TextBox{}
}

// Empty reports whether Text is empty.
func (t *TextBox) Empty() bool { return t.Text == "" }

// Edits counts the flushes in which Text changed.
func (t *TextBox) Edits() int { return t.edits }

func (t *TextBox) FieldsChanged(fields []string) {
	if !slices.Contains(fields, "Text") {
		return
	}

	t.edits++
}

// Register adds every widget type to f under its Go type name.
func Register(f *layout.Factory) {
	f.MustRegister("Panel", NewPanel)
	f.MustRegister("Label", NewLabel)
	f.MustRegister("Button", NewButton)
	f.MustRegister("Slider", NewSlider)
	f.MustRegister("TextBox", NewTextBox)
}
