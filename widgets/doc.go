// Package widgets provides a small set of bindable components used by the
// fieldbind command and by tests: Panel, Label, Button, Slider and TextBox.
// They carry data only; rendering is left to the embedding program.
package widgets
