// Package bank holds the built-in statement formats of German banks and
// detects which one produced a header row.
package bank

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

// ID identifies a bank profile.
type ID string

const (
	Comdirect    ID = "comdirect"
	Commerzbank  ID = "commerzbank"
	DKB          ID = "dkb"
	ING          ID = "ing"
	Sparkasse    ID = "sparkasse"
	DeutscheBank ID = "deutsche-bank"
)

var ErrUnknownBank = errors.New("unknown bank")

var aliases = map[string]ID{
	"db":           DeutscheBank,
	"deutschebank": DeutscheBank,
	"ing-diba":     ING,
	"spk":          Sparkasse,
}

// Parse resolves a user-supplied bank name to a profile ID.
func Parse(s string) (ID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	if _, ok := Lookup(ID(key)); ok {
		return ID(key), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBank, s)
}

// SignConvention describes how a bank marks outgoing amounts.
type SignConvention int

const (
	// SignLeading uses a leading minus.
	SignLeading SignConvention = iota
	// SignTrailing uses a trailing minus, as in "1.234,56-".
	SignTrailing
	// SignColumns splits credits and debits into two amount columns.
	SignColumns
	// SignIndicator marks debits in a separate text column ("S"/"H").
	// Profiles may declare it but it is not applied when mapping.
	SignIndicator
)

func (s SignConvention) String() string {
	switch s {
	case SignLeading:
		return "leading"
	case SignTrailing:
		return "trailing"
	case SignColumns:
		return "columns"
	case SignIndicator:
		return "indicator"
	}
	return fmt.Sprintf("SignConvention(%d)", int(s))
}

// Quirks are the formatting conventions of an export.
type Quirks struct {
	DecimalSeparator rune
	DateLayout       string
	Sign             SignConvention
	CreditColumn     string // with SignColumns
	DebitColumn      string // with SignColumns
}

// Locale returns the number locale implied by the decimal separator.
func (q Quirks) Locale() string {
	if q.DecimalSeparator == '.' {
		return normalizer.LocaleEN
	}
	return normalizer.LocaleDE
}

// Signature is a header predicate. Every All token and at least one Any
// token must occur in some header, and no None token may occur. Tokens are
// lowercase substrings.
type Signature struct {
	All  []string
	Any  []string
	None []string
}

func (s Signature) weight() int {
	n := len(s.All)
	if len(s.Any) > 0 {
		n++
	}
	return n
}

func (s Signature) matches(headers []string) bool {
	has := func(token string) bool {
		for _, h := range headers {
			if strings.Contains(h, token) {
				return true
			}
		}
		return false
	}
	for _, t := range s.All {
		if !has(t) {
			return false
		}
	}
	if len(s.Any) > 0 && !slices.ContainsFunc(s.Any, has) {
		return false
	}
	return !slices.ContainsFunc(s.None, has)
}

// Profile is the fixed export format of one bank.
type Profile struct {
	ID         ID
	Name       string
	Version    string
	Signatures []Signature
	Headers    map[adapter.Field][]string
	Quirks     Quirks
}

// AdapterID is the adapter ID reported for rows mapped by a profile.
func (p Profile) AdapterID() string {
	return "bank:" + string(p.ID)
}

// Adapter expresses the profile as an adapter. Each field takes the first
// non-empty cell of its header list.
func (p Profile) Adapter() adapter.Adapter {
	m := make(adapter.Map, len(p.Headers)+1)
	for f, headers := range p.Headers {
		m[f] = adapter.Fallback(slices.Clone(headers))
	}
	if p.Quirks.Sign == SignColumns && p.Quirks.CreditColumn != "" && p.Quirks.DebitColumn != "" {
		split := adapter.CreditDebit{CreditCol: p.Quirks.CreditColumn, DebitCol: p.Quirks.DebitColumn}
		if inline, ok := m[adapter.FieldAmount]; ok {
			m[adapter.FieldAmount] = adapter.AnyOf{Rules: []adapter.Rule{inline, split}}
		} else {
			m[adapter.FieldAmount] = split
		}
	}
	return adapter.Adapter{
		ID:  p.AdapterID(),
		Map: m,
		Meta: &adapter.Meta{
			Bank:       p.Name,
			Country:    "DE",
			Locale:     p.Quirks.Locale(),
			DateLayout: p.Quirks.DateLayout,
		},
	}
}

type signatureEntry struct {
	id  ID
	sig Signature
}

// detectOrder lists every signature, heaviest first. Equal weights keep
// registry order.
var detectOrder = func() []signatureEntry {
	var out []signatureEntry
	for _, p := range registry {
		for _, sig := range p.Signatures {
			out = append(out, signatureEntry{id: p.ID, sig: sig})
		}
	}
	slices.SortStableFunc(out, func(a, b signatureEntry) int {
		return b.sig.weight() - a.sig.weight()
	})
	return out
}()

// Detect returns the bank whose signature the headers satisfy, or "" when
// none does.
func Detect(headers []string) ID {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, e := range detectOrder {
		if e.sig.matches(lower) {
			return e.id
		}
	}
	return ""
}

// Lookup returns the profile for id.
func Lookup(id ID) (Profile, bool) {
	for _, p := range registry {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Profiles returns every registered profile in registry order. The header
// tables are shared and must not be modified.
func Profiles() []Profile {
	return slices.Clone(registry)
}
