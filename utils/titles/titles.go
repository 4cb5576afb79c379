// Package titles centralizes film-title normalization so that every place
// that tests title equality (merge dedup, recommendation filtering, fallback
// catalog lookups) agrees on what "the same film" means.
package titles

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Normalize folds a display title to its dedup key: trimmed and lowercased.
// This is the identity used when merging scraped pages.
func Normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// MatchKey reduces a title to a stricter comparison key for recommendation
// filtering: transliterated to ASCII, lowercased, and stripped of everything
// that is not a letter or digit. "WALL·E" and "Wall-E" collapse to the same
// key.
func MatchKey(title string) string {
	romanized := unidecode.Unidecode(title)
	var b strings.Builder
	b.Grow(len(romanized))
	for _, r := range strings.ToLower(romanized) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
