package match

import (
	"sort"
	"strings"
)

// DefaultMinSimilarity is the lowest similarity Suggest reports.
const DefaultMinSimilarity = 0.5

// DefaultMaxSuggestions caps the list returned by Suggest.
const DefaultMaxSuggestions = 3

type scored struct {
	name  string
	score float64
}

// Suggest ranks known against name and returns up to DefaultMaxSuggestions
// entries whose similarity is at least DefaultMinSimilarity, best first.
// A case-insensitive exact match always ranks first. Ties keep the order of
// known.
func Suggest(name string, known []string) []string {
	var ranked []scored

	for _, k := range known {
		score := Similarity(name, k)
		if strings.EqualFold(name, k) {
			score = 2
		}

		if score >= DefaultMinSimilarity {
			ranked = append(ranked, scored{name: k, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]string, 0, min(len(ranked), DefaultMaxSuggestions))
	for i := 0; i < len(ranked) && i < DefaultMaxSuggestions; i++ {
		out = append(out, ranked[i].name)
	}

	return out
}
