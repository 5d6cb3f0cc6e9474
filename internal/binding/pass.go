package binding

// Pass is the visited set of one externally triggered write. Every
// location is written at most once per pass.
type Pass struct {
	visited map[*Location]struct{}
	order   []*Location
}

func NewPass() *Pass {
	return &Pass{visited: make(map[*Location]struct{})}
}

// Visited reports whether l has already been written in this pass.
func (p *Pass) Visited(l *Location) bool {
	_, ok := p.visited[l]
	return ok
}

// enter marks l and reports whether it was not yet visited.
func (p *Pass) enter(l *Location) bool {
	if p.Visited(l) {
		return false
	}

	p.visited[l] = struct{}{}
	p.order = append(p.order, l)

	return true
}

// Visits returns the locations entered so far as "Component.Path", in
// order.
func (p *Pass) Visits() []string {
	out := make([]string, 0, len(p.order))
	for _, l := range p.order {
		out = append(out, l.String())
	}

	return out
}
