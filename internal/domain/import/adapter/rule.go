package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

// Rule is a mapping rule for one canonical field. The set of rule kinds is
// closed; every kind is handled by the evaluator in engine.go.
type Rule interface {
	isRule()
}

// Column reads a single header, matched case-insensitively after trimming.
type Column string

// Fallback tries headers in order and takes the first non-empty cell.
type Fallback []string

// LocaleNumber reads a column and parses it as an amount in Locale.
type LocaleNumber struct {
	Col    string `json:"col"`
	Locale string `json:"locale,omitempty"`
}

// Concat joins the non-empty cells of Columns with Sep, a space by default.
type Concat struct {
	Columns []string `json:"concat"`
	Sep     string   `json:"sep,omitempty"`
}

// Lookup substitutes the cell of From through Table.
type Lookup struct {
	From  string            `json:"from"`
	Table map[string]string `json:"lookup"`
}

// CreditDebit combines two amount columns of which exactly one is populated.
// Credits become positive and debits negative.
type CreditDebit struct {
	CreditCol string `json:"creditCol"`
	DebitCol  string `json:"debitCol"`
	Locale    string `json:"locale,omitempty"`
}

// AnyOf evaluates Rules in order and takes the first non-empty result.
type AnyOf struct {
	Rules []Rule
}

func (Column) isRule()       {}
func (Fallback) isRule()     {}
func (LocaleNumber) isRule() {}
func (Concat) isRule()       {}
func (Lookup) isRule()       {}
func (CreditDebit) isRule()  {}
func (AnyOf) isRule()        {}

func (r AnyOf) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(r.Rules))
	for i, sub := range r.Rules {
		raw, err := json.Marshal(sub)
		if err != nil {
			return nil, err
		}
		items[i] = raw
	}
	return json.Marshal(struct {
		AnyOf []json.RawMessage `json:"anyOf"`
	}{items})
}

// Map assigns a rule to each mapped field.
type Map map[Field]Rule

func (m Map) MarshalJSON() ([]byte, error) {
	out := make(map[Field]json.RawMessage, len(m))
	for f, rule := range m {
		raw, err := json.Marshal(rule)
		if err != nil {
			return nil, fmt.Errorf("map.%s: %w", f, err)
		}
		out[f] = raw
	}
	return json.Marshal(out)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[Field]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Map, len(raw))
	for f, msg := range raw {
		rule, err := DecodeRule(msg)
		if err != nil {
			return fmt.Errorf("map.%s: %w", f, err)
		}
		out[f] = rule
	}
	*m = out
	return nil
}

// DecodeRule parses the wire form of a rule: a string, an array of strings,
// or an object discriminated by its keys.
func DecodeRule(data json.RawMessage) (Rule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRule)
	}

	switch data[0] {
	case '"':
		var col string
		if err := json.Unmarshal(data, &col); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		return Column(col), nil
	case '[':
		var cols []string
		if err := json.Unmarshal(data, &cols); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		return Fallback(cols), nil
	case '{':
		return decodeObjectRule(data)
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidRule, data[:1])
}

func decodeObjectRule(data []byte) (Rule, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	has := func(k string) bool { _, ok := keys[k]; return ok }

	var (
		rule Rule
		err  error
	)
	switch {
	case has("anyOf"):
		var items []json.RawMessage
		if err = json.Unmarshal(keys["anyOf"], &items); err != nil {
			break
		}
		anyOf := AnyOf{Rules: make([]Rule, 0, len(items))}
		for i, item := range items {
			sub, subErr := DecodeRule(item)
			if subErr != nil {
				return nil, fmt.Errorf("anyOf[%d]: %w", i, subErr)
			}
			anyOf.Rules = append(anyOf.Rules, sub)
		}
		rule = anyOf
	case has("concat"):
		var r Concat
		err = json.Unmarshal(data, &r)
		rule = r
	case has("lookup"):
		var r Lookup
		err = json.Unmarshal(data, &r)
		rule = r
	case has("creditCol") || has("debitCol"):
		var r CreditDebit
		err = json.Unmarshal(data, &r)
		rule = r
	case has("col"):
		var r LocaleNumber
		err = json.Unmarshal(data, &r)
		rule = r
	default:
		names := make([]string, 0, len(keys))
		for k := range keys {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: unknown rule with keys %s", ErrInvalidRule, strings.Join(names, ","))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return rule, nil
}

func validateRule(rule Rule) error {
	switch r := rule.(type) {
	case Column:
		if strings.TrimSpace(string(r)) == "" {
			return fmt.Errorf("%w: empty column", ErrInvalidRule)
		}
	case Fallback:
		if len(r) == 0 {
			return fmt.Errorf("%w: empty fallback list", ErrInvalidRule)
		}
	case LocaleNumber:
		if r.Col == "" {
			return fmt.Errorf("%w: col is required", ErrInvalidRule)
		}
		return validateLocale(r.Locale)
	case Concat:
		if len(r.Columns) == 0 {
			return fmt.Errorf("%w: concat needs columns", ErrInvalidRule)
		}
	case Lookup:
		if r.From == "" {
			return fmt.Errorf("%w: lookup needs from", ErrInvalidRule)
		}
	case CreditDebit:
		if r.CreditCol == "" || r.DebitCol == "" {
			return fmt.Errorf("%w: creditCol and debitCol are required", ErrInvalidRule)
		}
		return validateLocale(r.Locale)
	case AnyOf:
		if len(r.Rules) == 0 {
			return fmt.Errorf("%w: anyOf needs rules", ErrInvalidRule)
		}
		for i, sub := range r.Rules {
			if err := validateRule(sub); err != nil {
				return fmt.Errorf("anyOf[%d]: %w", i, err)
			}
		}
	case nil:
		return fmt.Errorf("%w: missing rule", ErrInvalidRule)
	default:
		return fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, rule)
	}
	return nil
}

func validateLocale(locale string) error {
	if _, err := normalizer.DecimalComma(locale); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return nil
}
