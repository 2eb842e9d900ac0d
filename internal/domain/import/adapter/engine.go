package adapter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
)

const defaultLocale = normalizer.LocaleDE

// RowError is a row-scoped mapping failure. Row is the 1-based data row.
type RowError struct {
	Row   int
	Field Field
	Raw   string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Result is the outcome of applying an adapter to a table.
type Result struct {
	AdapterID string
	Rows      []CanonicalTransaction
	Errors    []*RowError
	Total     int
}

// AllFailed reports whether there were rows and none of them mapped.
func (r *Result) AllFailed() bool {
	return r.Total > 0 && len(r.Rows) == 0
}

// ProviderTx is a row after rule evaluation and before normalization. Amount
// holds the raw cell unless the rule already parsed it.
type ProviderTx struct {
	BookingDate     string
	ValueDate       string
	Amount          string
	AmountParsed    bool
	CounterpartName string
	CounterpartIban string
	CounterpartBic  string
	Currency        string
	Purpose         string
	TxType          string
	RawCode         string

	amount     decimal.Decimal
	locale     string
	dateLayout string
}

// Apply maps every row through the adapter. Rows failing a required field are
// reported in Result.Errors and left out of Result.Rows.
func Apply(a Adapter, headers []string, rows []sniffer.RawRow) *Result {
	res := &Result{AdapterID: a.ID, Total: len(rows)}
	idx := newHeaderIndex(headers)
	for i, raw := range rows {
		ptx, err := Resolve(a, idx, raw)
		if err == nil {
			var tx CanonicalTransaction
			tx, err = Normalize(ptx)
			if err == nil {
				res.Rows = append(res.Rows, tx)
				continue
			}
		}
		var rowErr *RowError
		if !errors.As(err, &rowErr) {
			rowErr = &RowError{Err: err}
		}
		rowErr.Row = i + 1
		res.Errors = append(res.Errors, rowErr)
	}
	return res
}

// HeaderIndex resolves rule column names to the headers of one table.
type HeaderIndex struct {
	byName map[string]string
}

func newHeaderIndex(headers []string) HeaderIndex {
	idx := HeaderIndex{byName: make(map[string]string, len(headers))}
	for _, h := range headers {
		key := headerKey(h)
		if _, dup := idx.byName[key]; !dup {
			idx.byName[key] = h
		}
	}
	return idx
}

// NewHeaderIndex builds the index used by Resolve.
func NewHeaderIndex(headers []string) HeaderIndex {
	return newHeaderIndex(headers)
}

// Has reports whether a header with that name exists.
func (x HeaderIndex) Has(name string) bool {
	_, ok := x.byName[headerKey(name)]
	return ok
}

func (x HeaderIndex) cell(row sniffer.RawRow, name string) string {
	h, ok := x.byName[headerKey(name)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[h])
}

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// value is the result of evaluating a rule.
type value struct {
	text    string
	amount  decimal.Decimal
	numeric bool
}

func (v value) empty() bool {
	return !v.numeric && v.text == ""
}

// Resolve evaluates the adapter's rules for one row.
func Resolve(a Adapter, idx HeaderIndex, row sniffer.RawRow) (ProviderTx, error) {
	ev := evaluator{idx: idx, row: row, locale: a.locale()}
	ptx := ProviderTx{locale: ev.locale}
	if a.Meta != nil {
		ptx.dateLayout = a.Meta.DateLayout
		ptx.Currency = a.Meta.Currency
	}

	for _, f := range Fields {
		rule, ok := a.Map[f]
		if !ok {
			if isRequired(f) {
				return ptx, &RowError{Field: f, Err: fmt.Errorf("%w: no rule", ErrMapping)}
			}
			continue
		}
		v, err := ev.eval(rule)
		if err != nil {
			if isRequired(f) {
				return ptx, &RowError{Field: f, Raw: v.text, Err: err}
			}
			continue
		}
		if v.empty() && isRequired(f) {
			return ptx, &RowError{Field: f, Err: fmt.Errorf("%w: no value", ErrMapping)}
		}
		ptx.set(f, v)
	}
	return ptx, nil
}

func (p *ProviderTx) set(f Field, v value) {
	switch f {
	case FieldBookingDate:
		p.BookingDate = v.text
	case FieldValueDate:
		p.ValueDate = v.text
	case FieldAmount:
		p.Amount = v.text
		if v.numeric {
			p.amount = v.amount
			p.AmountParsed = true
			p.Amount = normalizer.FormatAmount(v.amount)
		}
	case FieldCurrency:
		if strings.TrimSpace(v.text) != "" {
			p.Currency = v.text
		}
	case FieldCounterpartName:
		p.CounterpartName = v.text
	case FieldCounterpartIban:
		p.CounterpartIban = v.text
	case FieldCounterpartBic:
		p.CounterpartBic = v.text
	case FieldPurpose:
		p.Purpose = v.text
	case FieldTxType:
		p.TxType = v.text
	case FieldRawCode:
		p.RawCode = v.text
	}
}

// Normalize converts dates and the amount of a resolved row to canonical form.
func Normalize(p ProviderTx) (CanonicalTransaction, error) {
	booking, err := normalizer.NormalizeDateLayout(p.BookingDate, p.dateLayout, false)
	if err != nil {
		return CanonicalTransaction{}, &RowError{Field: FieldBookingDate, Raw: p.BookingDate, Err: err}
	}

	tx := CanonicalTransaction{
		BookingDate:     booking,
		Currency:        strings.ToUpper(strings.TrimSpace(p.Currency)),
		CounterpartName: collapseSpaces(p.CounterpartName),
		CounterpartIban: strings.ToUpper(strings.Join(strings.Fields(p.CounterpartIban), "")),
		CounterpartBic:  strings.ToUpper(strings.TrimSpace(p.CounterpartBic)),
		TxType:          collapseSpaces(p.TxType),
		RawCode:         strings.TrimSpace(p.RawCode),
	}

	// value dates are optional; an unparseable one is dropped
	if vd, err := normalizer.NormalizeDateLayout(p.ValueDate, p.dateLayout, true); err == nil {
		tx.ValueDate = vd
	}

	if p.AmountParsed {
		tx.Amount = normalizer.FormatAmount(p.amount)
	} else {
		locale := p.locale
		if locale == "" {
			locale = defaultLocale
		}
		amount, err := normalizer.NormalizeAmountLocale(p.Amount, locale)
		if err != nil {
			return CanonicalTransaction{}, &RowError{Field: FieldAmount, Raw: p.Amount, Err: err}
		}
		tx.Amount = amount
	}

	purpose := normalizer.CleanPurpose(p.Purpose)
	tx.Purpose = purpose.Text
	if tx.RawCode == "" {
		tx.RawCode = purpose.RawCode()
	}
	return tx, nil
}

func isRequired(f Field) bool {
	return f == FieldBookingDate || f == FieldAmount
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type evaluator struct {
	idx    HeaderIndex
	row    sniffer.RawRow
	locale string
}

func (e evaluator) eval(rule Rule) (value, error) {
	switch r := rule.(type) {
	case Column:
		return value{text: e.idx.cell(e.row, string(r))}, nil

	case Fallback:
		for _, col := range r {
			if v := e.idx.cell(e.row, col); v != "" {
				return value{text: v}, nil
			}
		}
		return value{}, nil

	case LocaleNumber:
		raw := e.idx.cell(e.row, r.Col)
		if raw == "" {
			return value{}, nil
		}
		d, err := normalizer.ParseAmount(raw, e.ruleLocale(r.Locale))
		if err != nil {
			return value{text: raw}, err
		}
		return value{text: raw, amount: d, numeric: true}, nil

	case Concat:
		sep := r.Sep
		if sep == "" {
			sep = " "
		}
		parts := make([]string, 0, len(r.Columns))
		for _, col := range r.Columns {
			if v := e.idx.cell(e.row, col); v != "" {
				parts = append(parts, v)
			}
		}
		return value{text: strings.Join(parts, sep)}, nil

	case Lookup:
		key := e.idx.cell(e.row, r.From)
		if key == "" {
			return value{}, nil
		}
		return value{text: lookup(r.Table, key)}, nil

	case CreditDebit:
		return e.creditDebit(r)

	case AnyOf:
		var firstErr error
		for _, sub := range r.Rules {
			v, err := e.eval(sub)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if !v.empty() {
				return v, nil
			}
		}
		return value{}, firstErr
	}
	return value{}, fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, rule)
}

func (e evaluator) ruleLocale(declared string) string {
	if declared != "" {
		return declared
	}
	return e.locale
}

// creditDebit treats blank and zero cells as unpopulated.
func (e evaluator) creditDebit(r CreditDebit) (value, error) {
	locale := e.ruleLocale(r.Locale)
	credit, creditRaw, err := e.amountCell(r.CreditCol, locale)
	if err != nil {
		return value{text: creditRaw}, err
	}
	debit, debitRaw, err := e.amountCell(r.DebitCol, locale)
	if err != nil {
		return value{text: debitRaw}, err
	}

	hasCredit := !credit.IsZero()
	hasDebit := !debit.IsZero()
	switch {
	case hasCredit && !hasDebit:
		return value{text: creditRaw, amount: credit.Abs(), numeric: true}, nil
	case hasDebit && !hasCredit:
		return value{text: debitRaw, amount: debit.Abs().Neg(), numeric: true}, nil
	}
	return value{text: creditRaw + "/" + debitRaw}, ErrAmbiguousSign
}

func (e evaluator) amountCell(col, locale string) (decimal.Decimal, string, error) {
	raw := e.idx.cell(e.row, col)
	if raw == "" {
		return decimal.Zero, raw, nil
	}
	d, err := normalizer.ParseAmount(raw, locale)
	return d, raw, err
}

// lookup tries the exact key, then its upper-case form, then a
// case-insensitive scan in key order.
func lookup(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	if v, ok := table[strings.ToUpper(key)]; ok {
		return v
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return table[k]
		}
	}
	return ""
}
