package common

// RemoveIf removes, in place, every element for which drop returns true and
// returns the shortened slice. Relative order of kept elements is preserved.
func RemoveIf[S ~[]E, E any](s S, drop func(E) bool) S {
	kept := s[:0]

	for _, e := range s {
		if !drop(e) {
			kept = append(kept, e)
		}
	}

	clear(s[len(kept):])

	return kept
}
