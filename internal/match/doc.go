// Package match provides name normalization, edit distance and ranking used
// to suggest the intended member when a binding path names something that
// does not exist.
//
// Key functions:
//   - NormalizeIdent: folds identifiers for fuzzy comparison
//   - Levenshtein: edit distance between two names
//   - Suggest: ranks known names against a misspelled one
package match
