package categorization

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block.
var combiningMarks = runes.Remove(runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
}))

var germanFold = strings.NewReplacer("ä", "a", "ö", "o", "ü", "u", "ß", "ss")

// Normalize lowercases text, strips diacritics, folds German letters and
// collapses whitespace.
func Normalize(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	if folded, _, err := transform.String(transform.Chain(norm.NFD, combiningMarks), s); err == nil {
		s = folded
	}
	s = germanFold.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
