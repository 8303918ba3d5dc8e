// Package normalize folds text for accent- and case-insensitive matching.
package normalize

import "strings"

// vowelFolds is intentionally small: only the five acute vowels are folded.
// ñ, ü, grave accents and accented consonants pass through unchanged.
var vowelFolds = strings.NewReplacer(
	"á", "a",
	"é", "e",
	"í", "i",
	"ó", "o",
	"ú", "u",
)

// Text lowercases s, folds the acute vowels and trims surrounding whitespace.
// Query terms and row text must both go through Text so they compare equal.
func Text(s string) string {
	s = strings.ToLower(s)
	s = vowelFolds.Replace(s)
	return strings.TrimSpace(s)
}
