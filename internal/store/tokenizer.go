package store

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// termRegex matches maximal runs of word characters (Unicode letters, digits,
// and underscore).
var termRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize extracts index terms from text.
// It lowercases the input, splits it into word-character runs, and drops
// tokens shorter than two runes. Indexing and querying must use the same
// tokenization or matches are not guaranteed.
func Tokenize(text string) []string {
	words := termRegex.FindAllString(strings.ToLower(text), -1)

	terms := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

// DistinctTerms returns the distinct terms of a token list, preserving
// first-seen order so query scoring stays deterministic.
func DistinctTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	distinct := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}
	return distinct
}

// TermPrefix returns the first n runes of term.
// Returns the whole term when it is shorter than n runes.
func TermPrefix(term string, n int) string {
	runes := []rune(term)
	if len(runes) <= n {
		return term
	}
	return string(runes[:n])
}
