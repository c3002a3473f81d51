package checklist

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonAlnumUpper = regexp.MustCompile(`[^A-Z0-9]+`)
)

// StripAccents removes combining marks after compatibility decomposition
// ("Pressão" -> "Pressao", "Nº" -> "No", "ﬁ" -> "fi").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// collapseSpace replaces every whitespace run with a single space and trims the result.
func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// LabelKey is the lookup key of a checklist label: accent-free, upper-case, A-Z/0-9 only.
func LabelKey(label string) string {
	s := strings.ToUpper(StripAccents(strings.TrimSpace(label)))
	return nonAlnumUpper.ReplaceAllString(s, "")
}

// isAllUpper reports whether w has at least one cased letter and no lower-case ones.
func isAllUpper(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// smartTitle title-cases each word but keeps short acronyms such as DEA or O2.
func smartTitle(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if isAllUpper(w) && utf8.RuneCountInString(w) <= 4 {
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
