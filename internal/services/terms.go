package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	minTermLength = 4
	maxTermLength = 200
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// foldTerm is the case-insensitive identity of a term.
func foldTerm(s string) string {
	return cases.Fold().String(s)
}

// extractTerms splits text into word runs (letters, digits, underscore), keeping the
// first spelling of each case-insensitive duplicate, in order of appearance.
func extractTerms(text string) []string {
	text = norm.NFC.String(strings.TrimSpace(text))
	seen := map[string]bool{}
	var terms []string
	for _, w := range wordRe.FindAllString(text, -1) {
		key := foldTerm(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, w)
	}
	return terms
}

func isShortTerm(term string) bool {
	return utf8.RuneCountInString(term) < minTermLength
}
