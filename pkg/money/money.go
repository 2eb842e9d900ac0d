// Package money wraps go-money for ISO-4217 currency handling of statement
// amounts.
package money

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	EUR = "EUR"
	USD = "USD"
	GBP = "GBP"
	CHF = "CHF"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// NormalizeCurrency upper-cases and validates an ISO-4217 code. A few
// symbols found in bank exports are accepted as well.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch code {
	case "€":
		code = EUR
	case "$":
		code = USD
	case "£":
		code = GBP
	}
	if code == "" || money.GetCurrency(code) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return code, nil
}

// Money is an amount in minor units of a currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromDecimal converts a decimal amount into minor units, rounding half
// to even at the currency's fraction.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) (*Money, error) {
	code, err := NormalizeCurrency(currencyCode)
	if err != nil {
		return nil, err
	}
	currency := money.GetCurrency(code)
	cents := amount.Shift(int32(currency.Fraction)).RoundBank(0).IntPart()
	return New(cents, code), nil
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Add adds two values of the same currency.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return &Money{m: result}, nil
}

// Display formats for humans, e.g. "1.234,56 €".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// ToDecimal converts back to a decimal amount.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// String returns the amount with the currency's fraction digits.
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// Ledger sums amounts per currency.
type Ledger map[string]*Money

// Add books amount in currency.
func (l Ledger) Add(amount decimal.Decimal, currency string) error {
	m, err := NewFromDecimal(amount, currency)
	if err != nil {
		return err
	}
	sum, err := l[m.Currency()].Add(m)
	if err != nil {
		return err
	}
	l[m.Currency()] = sum
	return nil
}

// Codes returns the booked currencies in sorted order.
func (l Ledger) Codes() []string {
	codes := make([]string, 0, len(l))
	for c := range l {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}
