package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining marks after decomposition, so "café" and
// "cafe" reach the same rows
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeQuery folds the raw query and splits it into matching terms.
// Terms keep their input order; duplicates are dropped.
func NormalizeQuery(raw string) []string {
	folded := NormalizeTerm(raw)
	if folded == "" {
		return nil
	}

	fields := strings.Fields(folded)
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if seen[field] {
			continue
		}
		seen[field] = true
		terms = append(terms, field)
	}
	return terms
}

// NormalizeTerm lowercases, folds diacritics and replaces every rune that
// is neither letter nor digit with a space, then collapses the whitespace
func NormalizeTerm(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	folded, _, err := transform.String(foldTransform, lowered)
	if err != nil {
		// Folding is best effort; an undecodable input still searches as typed
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
