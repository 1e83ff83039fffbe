package dedupe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a name for tolerant comparison: diacritics are stripped,
// case is folded, punctuation becomes whitespace and runs of whitespace
// collapse to a single space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	folded := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, stripped)

	return strings.Join(strings.Fields(folded), " ")
}

// TitleCase lowercases s and capitalizes the letter that starts it or
// follows a space or hyphen, the way registration forms clean names before
// saving. An apostrophe starts nothing, so possessives keep a lowercase s.
func TitleCase(s string) string {
	r := []rune(strings.Join(strings.Fields(strings.ToLower(s)), " "))
	for i := range r {
		if i == 0 || r[i-1] == ' ' || r[i-1] == '-' {
			r[i] = unicode.ToUpper(r[i])
		}
	}
	return string(r)
}
