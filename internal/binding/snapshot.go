package binding

import "fmt"

// Snapshot is a structural dump of an engine, for debugging.
type Snapshot struct {
	Components []ComponentSnapshot
}

type ComponentSnapshot struct {
	Name      string
	State     string
	Locations []LocationSnapshot
}

type LocationSnapshot struct {
	Path           string
	Plan           string
	Value          string
	Valid          bool
	IsSet          bool
	PropagateFirst bool
	Observers      []string
}

// Snapshot describes every live component the engine knows, in the order
// they were first seen. Locations are listed in Walk order.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot

	for _, h := range e.hostOrder {
		cs := ComponentSnapshot{Name: h.comp.Node().DisplayName(), State: DefaultState}
		if h.states != nil {
			cs.State = h.states.State()
		}

		for _, l := range e.Walk(h.comp) {
			ls := LocationSnapshot{
				Path:           l.path,
				Plan:           l.plan.Kind.String(),
				IsSet:          l.IsSet(),
				PropagateFirst: l.propagateFirst,
			}

			if v, ok := l.Get(); ok {
				ls.Valid = true
				if conv := l.Converter(); conv != nil {
					ls.Value = conv.ToText(v)
				} else {
					ls.Value = fmt.Sprint(v)
				}
			}

			for _, o := range l.observers {
				if o.Kind() == KindRelay {
					continue
				}

				ls.Observers = append(ls.Observers, describe(o))
			}

			cs.Locations = append(cs.Locations, ls)
		}

		snap.Components = append(snap.Components, cs)
	}

	return snap
}
