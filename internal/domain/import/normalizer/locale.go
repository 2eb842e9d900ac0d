// Package normalizer converts locale-formatted statement cells into canonical
// values and scrubs personal data from text that leaves the import pipeline.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Locales accepted by ParseAmount.
const (
	LocaleDE = "de-DE"
	LocaleEN = "en-US"
)

// AmountScale is the number of fractional digits of every canonical amount.
const AmountScale = 2

var (
	ErrBadDate           = errors.New("bad date")
	ErrBadAmount         = errors.New("bad amount")
	ErrUnsupportedLocale = errors.New("unsupported locale")
)

var (
	dayFirstDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})$`)
	isoDate      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ].*)?$`)
)

// NormalizeDate converts DD.MM.YYYY (or DD/MM/YYYY, D.M.YY) and ISO dates to
// YYYY-MM-DD. An empty value is an error unless optional is set, in which
// case the empty string is returned.
func NormalizeDate(raw string, optional bool) (string, error) {
	t := strings.Join(strings.Fields(raw), "")
	if t == "" {
		if optional {
			return "", nil
		}
		return "", fmt.Errorf("%w: missing", ErrBadDate)
	}
	t = strings.ReplaceAll(t, "/", ".")

	var y, m, d string
	if parts := dayFirstDate.FindStringSubmatch(t); parts != nil {
		d, m, y = parts[1], parts[2], parts[3]
		if len(y) == 2 {
			y = "20" + y
		}
	} else if parts := isoDate.FindStringSubmatch(t); parts != nil {
		y, m, d = parts[1], parts[2], parts[3]
	} else {
		return "", fmt.Errorf("%w: %q", ErrBadDate, raw)
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return "", fmt.Errorf("%w: %q", ErrBadDate, raw)
	}
	return date.Format(time.DateOnly), nil
}

// NormalizeDateLayout is NormalizeDate for a column with a known Go time
// layout. Values the layout does not parse fall back to NormalizeDate.
func NormalizeDateLayout(raw, layout string, optional bool) (string, error) {
	if layout != "" {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return NormalizeDate(raw, optional)
}

// NormalizeAmount parses a German-formatted amount and returns it as a
// decimal string with two fractional digits, e.g. "1.234,56-" -> "-1234.56".
func NormalizeAmount(raw string) (string, error) {
	return NormalizeAmountLocale(raw, LocaleDE)
}

// NormalizeAmountLocale is NormalizeAmount for an explicit locale.
func NormalizeAmountLocale(raw, locale string) (string, error) {
	d, err := ParseAmount(raw, locale)
	if err != nil {
		return "", err
	}
	return FormatAmount(d), nil
}

// FormatAmount renders d with two fractional digits, rounding half to even.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(AmountScale)
}

var currencyAffixes = []string{"EUR", "USD", "GBP", "CHF", "€", "$", "£"}

// DecimalComma reports whether amounts in locale are written 1.234,56. An
// empty locale is German. English, Swiss German and Swiss Italian use a
// decimal point; locales outside Europe are rejected.
func DecimalComma(locale string) (bool, error) {
	if locale == "" {
		return true, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	switch base.String() {
	case "en":
		return false, nil
	case "de", "it":
		return region.String() != "CH", nil
	case "fr", "es", "nl", "pt", "da", "sv", "fi", "nb", "pl", "cs", "hu", "ro", "el":
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
}

// ParseAmount parses a locale-formatted amount. Thousands separators,
// currency affixes and the sign conventions of bank exports (leading or
// trailing minus, parentheses) are resolved into a signed decimal.
func ParseAmount(raw, locale string) (decimal.Decimal, error) {
	comma, err := DecimalComma(locale)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrBadAmount, err)
	}
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	s = stripCurrency(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = stripCurrency(s[1 : len(s)-1])
	}

	trailing := false
	switch {
	case strings.HasSuffix(s, "-"):
		trailing = true
		s = strings.TrimSuffix(s, "-")
	case strings.HasSuffix(s, "+"):
		s = strings.TrimSuffix(s, "+")
	}
	s = stripCurrency(s)

	leading := false
	switch {
	case strings.HasPrefix(s, "-"):
		leading = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s = stripCurrency(s)

	if leading && trailing || negative && (leading || trailing) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadAmount, raw)
	}
	negative = negative || leading || trailing

	s = canonicalDigits(s, comma)
	if s == "" || strings.ContainsAny(s, "eE+-") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadAmount, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func stripCurrency(s string) string {
	for _, affix := range currencyAffixes {
		if len(s) >= len(affix) && strings.EqualFold(s[len(s)-len(affix):], affix) {
			s = s[:len(s)-len(affix)]
		}
		if len(s) >= len(affix) && strings.EqualFold(s[:len(affix)], affix) {
			s = s[len(affix):]
		}
	}
	return s
}

// canonicalDigits rewrites grouped digits to a plain point-decimal literal.
// When both separators appear the rightmost one is the decimal mark; a lone
// separator is read according to the locale's decimal mark, except that a
// single point not followed by exactly three digits is taken as a decimal
// point in comma locales too.
func canonicalDigits(s string, comma bool) string {
	s = strings.ReplaceAll(s, "'", "")
	lastComma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && dot >= 0:
		if lastComma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if !comma {
			return strings.ReplaceAll(s, ",", "")
		}
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0:
		if !comma {
			if strings.Count(s, ".") > 1 {
				return ""
			}
			return s
		}
		if strings.Count(s, ".") > 1 || len(s)-dot-1 == 3 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}
	return s
}
