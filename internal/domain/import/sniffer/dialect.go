package sniffer

import (
	"strings"
)

// Locale tags understood by the amount normalizer.
const (
	LocaleDE = "de-DE"
	LocaleEN = "en-US"
)

// Dialect is the inferred regional formatting of a statement.
type Dialect struct {
	Locale       string  // LocaleDE (1.234,56) or LocaleEN (1,234.56)
	DayFirst     bool    // dates are DD.MM or DD/MM
	CurrencyHint string  // "EUR", "USD" or "GBP" when a symbol was seen
	Confidence   float64 // share of hints agreeing with Locale

	dateSep rune
}

// DateLayout returns a Go time layout for month-first dates, or "" when
// dates are day first or no month-first date was seen.
func (d *Dialect) DateLayout() string {
	if d.DayFirst || d.dateSep == 0 {
		return ""
	}
	sep := string(d.dateSep)
	return "01" + sep + "02" + sep + "2006"
}

// ProbeDialect inspects up to sampleSize rows of the named amount and date
// columns. Header lookups are case-insensitive; an empty name skips that column.
func ProbeDialect(t *Table, amountCol, dateCol string, sampleSize int) *Dialect {
	d := &Dialect{Locale: LocaleDE, DayFirst: true, Confidence: 0.5}
	if t == nil {
		return d
	}

	amountIdx := headerIndex(t.Headers, amountCol)
	dateIdx := headerIndex(t.Headers, dateCol)

	var de, en, dayFirst, monthFirst int
	for _, rec := range t.SampleRows(sampleSize) {
		if amountIdx >= 0 {
			switch v := separatorHint(rec[amountIdx]); {
			case v > 0:
				de++
			case v < 0:
				en++
			}
		}
		if dateIdx >= 0 {
			switch dateOrder(rec[dateIdx]) {
			case 1:
				dayFirst++
			case -1:
				monthFirst++
				if i := strings.IndexAny(rec[dateIdx], "/-."); i >= 0 {
					d.dateSep = rune(rec[dateIdx][i])
				}
			}
		}
		for _, cell := range rec {
			switch {
			case strings.Contains(cell, "€") || strings.Contains(cell, "EUR"):
				d.CurrencyHint = "EUR"
			case strings.Contains(cell, "£") || strings.Contains(cell, "GBP"):
				d.CurrencyHint = "GBP"
			case strings.Contains(cell, "$") || strings.Contains(cell, "USD"):
				if d.CurrencyHint == "" {
					d.CurrencyHint = "USD"
				}
			}
		}
	}

	if en > de {
		d.Locale = LocaleEN
		d.DayFirst = false
	}
	if total := de + en; total > 0 {
		win := max(de, en)
		d.Confidence = float64(win) / float64(total)
	}
	if dayFirst > 0 && monthFirst == 0 {
		d.DayFirst = true
	} else if monthFirst > 0 && dayFirst == 0 {
		d.DayFirst = false
	}
	return d
}

func headerIndex(headers []string, name string) int {
	if name == "" {
		return -1
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// separatorHint returns >0 for a comma decimal, <0 for a point decimal and
// 0 when the value is ambiguous.
func separatorHint(val string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, val)
	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return 1
		}
		return -1
	case comma >= 0:
		if len(cleaned)-comma-1 <= 2 {
			return 1
		}
	case dot >= 0:
		if len(cleaned)-dot-1 <= 2 {
			return -1
		}
	}
	return 0
}

// dateOrder returns 1 when the first date part can only be a day, -1 when the
// second part can only be a day and 0 otherwise. ISO dates yield 0.
func dateOrder(val string) int {
	parts := strings.FieldsFunc(strings.TrimSpace(val), func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) < 3 || len(parts[0]) == 4 {
		return 0
	}
	first, second := atoi(parts[0]), atoi(parts[1])
	switch {
	case first > 12 && first <= 31:
		return 1
	case second > 12 && second <= 31:
		return -1
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}
