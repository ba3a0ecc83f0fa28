// Package search turns free text into the normalized terms stored in the
// transaction inverted index and used to look it up.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTermLength is the longest term kept in the index, in bytes.
const MaxTermLength = 64

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "with": {},
}

// Terms tokenizes texts into distinct, case-folded, accent-stripped terms in
// first-seen order. Stop words are dropped.
func Terms(texts ...string) []string {
	seen := make(map[string]struct{})
	var terms []string

	for _, text := range texts {
		for _, token := range strings.FieldsFunc(normalize(text), isSeparator) {
			token = truncate(token)
			if _, stop := stopWords[token]; stop {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			terms = append(terms, token)
		}
	}
	return terms
}

func normalize(text string) string {
	// Transformers carry state, so build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func truncate(token string) string {
	if len(token) <= MaxTermLength {
		return token
	}
	cut := MaxTermLength
	for cut > 0 && !utf8.RuneStart(token[cut]) {
		cut--
	}
	return token[:cut]
}
