package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldSearchTerm lowercases a search term and strips diacritics so that
// "Crèmerie" and "cremerie" match the same rows. Falls back to simple
// lowercasing if normalization fails on malformed input.
func FoldSearchTerm(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	folded, _, err := transform.String(foldTransformer, term)
	if err != nil {
		return term
	}
	return folded
}
