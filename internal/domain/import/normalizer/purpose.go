package normalizer

import (
	"regexp"
	"strings"
)

// Purpose is a cleaned remittance text with its SEPA references split off.
type Purpose struct {
	Text       string
	References map[string]string // EREF, MREF, CRED, ...
}

// RawCode returns the most specific reference, preferring the end-to-end id.
func (p Purpose) RawCode() string {
	for _, key := range []string{"EREF", "MREF", "KREF", "CRED"} {
		if v := p.References[key]; v != "" {
			return v
		}
	}
	return ""
}

// sepaTag matches SEPA structured-remittance keys such as "EREF+" or "SVWZ+".
var sepaTag = regexp.MustCompile(`\b(EREF|KREF|MREF|CRED|SVWZ|ABWA|ABWE|IBAN|BIC)\s*[+:]\s*`)

var (
	trailingReference = regexp.MustCompile(`\s+\d{6,}$`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// bookingPrefixes are booking-type labels that some banks glue onto the
// counterparty name.
var bookingPrefixes = []string{
	"LASTSCHRIFT ", "GUTSCHRIFT ", "KARTENZAHLUNG ", "GIROCARD ", "EC-KARTE ",
	"ONLINE-UEBERWEISUNG ", "UEBERWEISUNG ", "ÜBERWEISUNG ", "DAUERAUFTRAG ",
	"SEPA-LASTSCHRIFT ", "FOLGELASTSCHRIFT ", "VISA ", "MASTERCARD ",
}

// CleanPurpose splits SEPA reference segments off a remittance text. The
// SVWZ segment, when present, becomes the text; free text before the first
// tag is kept otherwise.
func CleanPurpose(raw string) Purpose {
	raw = collapse(raw)
	locs := sepaTag.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return Purpose{Text: raw}
	}

	p := Purpose{References: make(map[string]string)}
	lead := strings.TrimSpace(raw[:locs[0][0]])
	for i, loc := range locs {
		key := raw[loc[2]:loc[3]]
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		val := strings.TrimSpace(raw[loc[1]:end])
		if key == "SVWZ" {
			p.Text = val
			continue
		}
		if _, ok := p.References[key]; !ok {
			p.References[key] = val
		}
	}
	if p.Text == "" {
		p.Text = lead
	} else if lead != "" {
		p.Text = lead + " " + p.Text
	}
	return p
}

// CleanCounterparty strips booking-type prefixes and trailing terminal
// numbers from a counterparty name.
func CleanCounterparty(raw string) string {
	result := collapse(raw)
	upper := strings.ToUpper(result)
	for _, prefix := range bookingPrefixes {
		if strings.HasPrefix(upper, prefix) {
			result = result[len(prefix):]
			break
		}
	}
	result = trailingReference.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
