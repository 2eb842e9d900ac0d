package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ibanPattern = regexp.MustCompile(`\b([A-Z]{2}\d{2})([A-Z0-9]{4})([A-Z0-9]{4})([A-Z0-9]{0,14})\b`)
	bicPattern  = regexp.MustCompile(`\b([A-Z]{4})([A-Z]{2})([A-Z0-9]{2})([A-Z0-9]{0,3})\b`)
	// RE2 word boundaries are ASCII-only, so the leading boundary is matched explicitly.
	namePattern = regexp.MustCompile(`(^|[^\p{L}\p{N}])([A-ZÄÖÜ][a-zäöüß]{2,}(?:\s+[A-ZÄÖÜ][a-zäöüß]+)+)`)
)

const ibanMask = "••••••••••••••••"

// Redact masks probable IBANs, BICs and personal names in text that may echo
// statement content, such as row warnings and log attributes.
func Redact(text string) string {
	if text == "" {
		return text
	}
	out := ibanPattern.ReplaceAllString(text, "${1}"+ibanMask)
	out = bicPattern.ReplaceAllString(out, "${1}${2}•••")
	out = namePattern.ReplaceAllStringFunc(out, func(m string) string {
		sub := namePattern.FindStringSubmatch(m)
		words := strings.Fields(sub[2])
		for i, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			words[i] = string(r) + "…"
		}
		return sub[1] + strings.Join(words, " ")
	})
	return out
}

// RedactError returns the redacted message of err.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return Redact(err.Error())
}
