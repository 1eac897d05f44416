// Package textsim provides character-level string similarity and display casing.
package textsim

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the SequenceMatcher similarity of a and b in [0, 1]:
// 2*M/T where M is the number of matched characters and T the total length.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Title upper-cases the first letter of every run of letters and lower-cases
// the rest, so "sunset cafe" becomes "Sunset Cafe" and "o'neil's" becomes "O'Neil'S".
func Title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
