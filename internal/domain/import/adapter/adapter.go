// Package adapter implements the declarative column-mapping DSL that turns
// scanned statement rows into canonical transactions.
package adapter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

// Field is the name of a canonical transaction field.
type Field string

const (
	FieldBookingDate     Field = "bookingDate"
	FieldValueDate       Field = "valueDate"
	FieldAmount          Field = "amount"
	FieldCurrency        Field = "currency"
	FieldCounterpartName Field = "counterpartName"
	FieldCounterpartIban Field = "counterpartIban"
	FieldCounterpartBic  Field = "counterpartBic"
	FieldPurpose         Field = "purpose"
	FieldTxType          Field = "txType"
	FieldRawCode         Field = "rawCode"
)

// Fields lists every canonical field in evaluation order.
var Fields = []Field{
	FieldBookingDate, FieldValueDate, FieldAmount, FieldCurrency,
	FieldCounterpartName, FieldCounterpartIban, FieldCounterpartBic,
	FieldPurpose, FieldTxType, FieldRawCode,
}

// RequiredFields must resolve on every row.
var RequiredFields = []Field{FieldBookingDate, FieldAmount}

func (f Field) valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

var (
	ErrMapping       = errors.New("required field could not be mapped")
	ErrAmbiguousSign = errors.New("ambiguous sign: expected exactly one of credit or debit")
	ErrInvalidRule   = errors.New("invalid mapping rule")
	ErrInvalid       = errors.New("invalid adapter")
)

// Match decides whether an adapter applies to a file. Any satisfied
// criterion is enough; more satisfied criteria rank higher.
type Match struct {
	AnyHeader        []string `json:"anyHeader,omitempty"`
	AllHeaders       []string `json:"allHeaders,omitempty"`
	FilenameIncludes []string `json:"filenameIncludes,omitempty"`
}

// Meta carries descriptive information. Locale selects the number format for
// amount rules that do not declare one and defaults to de-DE.
type Meta struct {
	Bank    string `json:"bank,omitempty"`
	Country string `json:"country,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Locale  string `json:"locale,omitempty"`
	// DateLayout is a Go time layout tried before the generic date formats.
	DateLayout string `json:"dateLayout,omitempty"`
	// Currency is used for rows the mapping leaves without one.
	Currency string `json:"currency,omitempty"`
}

// Adapter is a column-to-field mapping plus its match predicate.
type Adapter struct {
	ID    string `json:"id"`
	Match Match  `json:"match"`
	Map   Map    `json:"map"`
	Meta  *Meta  `json:"meta,omitempty"`
}

// Validate checks that the adapter can be applied.
func (a Adapter) Validate() error {
	var errs []error
	if strings.TrimSpace(a.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	for _, f := range RequiredFields {
		if _, ok := a.Map[f]; !ok {
			errs = append(errs, fmt.Errorf("map.%s is required", f))
		}
	}
	for _, f := range a.Map.fields() {
		rule := a.Map[f]
		if !f.valid() {
			errs = append(errs, fmt.Errorf("map.%s: unknown field", f))
			continue
		}
		if err := validateRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("map.%s: %w", f, err))
		}
	}
	if a.Meta != nil {
		if _, err := normalizer.DecimalComma(a.Meta.Locale); err != nil {
			errs = append(errs, fmt.Errorf("meta.locale: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// fields returns the mapped fields sorted by name.
func (m Map) fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (a Adapter) locale() string {
	if a.Meta != nil && a.Meta.Locale != "" {
		return a.Meta.Locale
	}
	return defaultLocale
}

// CanonicalTransaction is a fully normalized statement line. Amount is a
// signed decimal string with exactly two fractional digits.
type CanonicalTransaction struct {
	BookingDate     string `json:"bookingDate" csv:"booking_date"`
	ValueDate       string `json:"valueDate,omitempty" csv:"value_date"`
	Amount          string `json:"amount" csv:"amount"`
	Currency        string `json:"currency" csv:"currency"`
	CounterpartName string `json:"counterpartName,omitempty" csv:"counterpart_name"`
	CounterpartIban string `json:"counterpartIban,omitempty" csv:"counterpart_iban"`
	CounterpartBic  string `json:"counterpartBic,omitempty" csv:"counterpart_bic"`
	Purpose         string `json:"purpose,omitempty" csv:"purpose"`
	TxType          string `json:"txType,omitempty" csv:"tx_type"`
	RawCode         string `json:"rawCode,omitempty" csv:"raw_code"`
}

// Decimal returns the amount as a decimal. Canonical amounts always parse.
func (t CanonicalTransaction) Decimal() decimal.Decimal {
	d, _ := decimal.NewFromString(t.Amount)
	return d
}
