package binding

import (
	"fmt"

	"go.uber.org/multierr"

	"fieldbind/internal/component"
	"fieldbind/internal/convert"
	"fieldbind/internal/diagnostic"
)

// DefaultState is the state every component starts in.
const DefaultState = "Default"

// wildcardState matches any previous state in an animation transition.
const wildcardState = "*"

// StateValue is one override of a field for one named state.
type StateValue struct {
	Path    string
	State   string
	Literal string

	// Default entries created on behalf of another state start
	// uncaptured; the live value is read the first time the component
	// leaves DefaultState.
	hasDefaultCaptured bool

	parsed    any
	hasParsed bool
}

// HasDefaultCaptured reports whether a Default entry holds a value.
// Entries of other states always do.
func (v *StateValue) HasDefaultCaptured() bool {
	return v.State != DefaultState || v.hasDefaultCaptured
}

// Animation takes over some state transitions. Paths it claims are handed
// over as end targets instead of being set immediately.
type Animation interface {
	Claims(path string) bool
	SetTarget(loc *Location, value any)
}

type transition struct {
	from, to string
}

// StateLayer holds the named states of one component.
type StateLayer struct {
	engine *Engine
	comp   component.Component
	state  string

	// values holds entries per state, in the order they were added.
	values     map[string][]*StateValue
	animations map[transition]Animation
}

func newStateLayer(e *Engine, c component.Component) *StateLayer {
	return &StateLayer{
		engine:     e,
		comp:       c,
		state:      DefaultState,
		values:     make(map[string][]*StateValue),
		animations: make(map[transition]Animation),
	}
}

// State returns the current state name.
func (s *StateLayer) State() string { return s.state }

// Values returns the entries registered for state.
func (s *StateLayer) Values(state string) []*StateValue {
	return append([]*StateValue(nil), s.values[state]...)
}

// AddValue stores literal as the value of path in state, replacing an
// earlier entry. For any state but DefaultState it also makes sure a
// Default entry exists for path, to be captured lazily.
func (s *StateLayer) AddValue(state, path, literal string) error {
	if _, err := s.engine.location(s.comp, path); err != nil {
		return fmt.Errorf("state %q: %w", state, err)
	}

	if state != DefaultState {
		if s.find(DefaultState, path) == nil {
			s.values[DefaultState] = append(s.values[DefaultState], &StateValue{Path: path, State: DefaultState})
		}
	}

	if v := s.find(state, path); v != nil {
		v.Literal = literal
		v.parsed, v.hasParsed = nil, false

		if state == DefaultState {
			v.hasDefaultCaptured = true
		}

		return nil
	}

	s.values[state] = append(s.values[state], &StateValue{
		Path:               path,
		State:              state,
		Literal:            literal,
		hasDefaultCaptured: state == DefaultState,
	})

	return nil
}

// SetAnimation installs a for the from→to transition. from may be "*".
func (s *StateLayer) SetAnimation(from, to string, a Animation) {
	s.animations[transition{from: from, to: to}] = a
}

// OnStateChanged moves the component to state and applies its entries
// through the ordinary write path, so dependent bindings recompute.
// Failing entries are reported and do not stop the others.
func (s *StateLayer) OnStateChanged(state string) error {
	if state == s.state {
		return nil
	}

	if s.state == DefaultState {
		s.captureDefaults()
	}

	prev := s.state
	s.state = state

	anim := s.animations[transition{from: prev, to: state}]
	if anim == nil {
		anim = s.animations[transition{from: wildcardState, to: state}]
	}

	var errs error

	for _, v := range s.values[state] {
		if !v.HasDefaultCaptured() {
			continue
		}

		if err := s.apply(v, anim); err != nil {
			s.engine.report(diagnostic.Diagnostic{
				Severity:  diagnostic.DiagnosticError,
				Code:      diagnostic.CodeStateValue,
				Message:   err.Error(),
				Component: s.comp.Node().DisplayName(),
				Field:     v.Path,
			})

			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (s *StateLayer) captureDefaults() {
	for _, v := range s.values[DefaultState] {
		if v.hasDefaultCaptured {
			continue
		}

		loc, err := s.engine.location(s.comp, v.Path)
		if err != nil {
			continue
		}

		live, ok := loc.Get()
		if !ok {
			continue
		}

		v.parsed, v.hasParsed = live, true
		v.hasDefaultCaptured = true

		if conv := loc.Converter(); conv != nil {
			v.Literal = conv.ToText(live)
		} else {
			v.Literal = fmt.Sprint(live)
		}
	}
}

func (s *StateLayer) apply(v *StateValue, anim Animation) error {
	loc, err := s.engine.location(s.comp, v.Path)
	if err != nil {
		return err
	}

	if !v.hasParsed {
		conv := loc.Converter()
		if conv == nil {
			return fmt.Errorf("%s: state %q: path cannot be followed", loc, v.State)
		}

		parsed, err := conv.Parse(v.Literal, convert.Context{Field: v.Path})
		if err != nil {
			return &ConversionError{Component: s.comp.Node().DisplayName(), Path: v.Path, Value: v.Literal, Err: err}
		}

		v.parsed, v.hasParsed = parsed, true
	}

	if anim != nil && anim.Claims(v.Path) {
		anim.SetTarget(loc, v.parsed)
		return nil
	}

	_, err = loc.Set(v.parsed, NewPass())

	return err
}

func (s *StateLayer) find(state, path string) *StateValue {
	for _, v := range s.values[state] {
		if v.Path == path {
			return v
		}
	}

	return nil
}
