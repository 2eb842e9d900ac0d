// Package categorization assigns spending categories to canonical
// transactions with a merchant dictionary and keyword patterns.
package categorization

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
)

// Category is a spending category.
type Category string

const (
	Income        Category = "Income"
	Groceries     Category = "Groceries"
	Dining        Category = "Dining"
	Transport     Category = "Transport"
	Housing       Category = "Housing"
	Utilities     Category = "Utilities"
	Health        Category = "Health"
	Subscriptions Category = "Subscriptions"
	Shopping      Category = "Shopping"
	Education     Category = "Education"
	Entertainment Category = "Entertainment"
	Fees          Category = "Fees"
	Insurance     Category = "Insurance"
	Taxes         Category = "Taxes"
	Travel        Category = "Travel"
	Gifts         Category = "Gifts"
	Savings       Category = "Savings"
	Transfers     Category = "Transfers"
	Other         Category = "Other"
)

// Source tells rule hits apart from the fallback.
type Source string

const (
	SourceRule Source = "rule"
	SourceML   Source = "ml"
)

const (
	RuleConfidence     = 0.99
	FallbackConfidence = 0.5
	FallbackRationale  = "fallback"
)

// Classification is the category decision for one text.
type Classification struct {
	Category   Category `json:"category" csv:"category"`
	Confidence float64  `json:"confidence" csv:"confidence"`
	Source     Source   `json:"source" csv:"source"`
	Rationale  string   `json:"rationale,omitempty" csv:"rationale"`
}

// CategorizedTransaction is a canonical transaction with its category.
type CategorizedTransaction struct {
	adapter.CanonicalTransaction
	Classification
}

// Categorizer classifies transactions. It holds no mutable state and is
// safe for concurrent use.
type Categorizer struct {
	merchants *Engine
	patterns  []Pattern
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// New creates a categorizer from a merchant table and a pattern list.
func New(merchants []Merchant, patterns []Pattern) *Categorizer {
	return &Categorizer{
		merchants: NewEngine(merchants),
		patterns:  patterns,
		tracer:    otel.Tracer("github.com/FACorreiaa/statement-import/categorization"),
	}
}

// WithMetrics records one counter per categorized transaction.
func (c *Categorizer) WithMetrics(m *metrics.Metrics) *Categorizer {
	c.metrics = m
	return c
}

var defaultCategorizer = sync.OnceValue(func() *Categorizer {
	return New(DefaultMerchants, DefaultPatterns)
})

// Default returns the categorizer built from the default tables.
func Default() *Categorizer {
	return defaultCategorizer()
}

// Categorize classifies txs with the default tables.
func Categorize(txs []adapter.CanonicalTransaction) []CategorizedTransaction {
	return Default().Categorize(context.Background(), txs)
}

// Categorize classifies every transaction by its purpose and counterpart.
// The output has one entry per input, in input order.
func (c *Categorizer) Categorize(ctx context.Context, txs []adapter.CanonicalTransaction) []CategorizedTransaction {
	_, span := c.tracer.Start(ctx, "categorization.Categorize",
		trace.WithAttributes(attribute.Int("transactions", len(txs))))
	defer span.End()

	out := make([]CategorizedTransaction, len(txs))
	for i, tx := range txs {
		cl := c.Classify(strings.TrimSpace(tx.Purpose + " " + tx.CounterpartName))
		out[i] = CategorizedTransaction{CanonicalTransaction: tx, Classification: cl}
		c.metrics.Categorized(string(cl.Source))
	}
	return out
}

// Classify runs the merchant table on the normalized text, then the
// patterns on the original text, then falls back to Other.
func (c *Categorizer) Classify(text string) Classification {
	if m, ok := c.merchants.Match(Normalize(text)); ok {
		return Classification{
			Category:   m.Category,
			Confidence: RuleConfidence,
			Source:     SourceRule,
			Rationale:  "merchant:" + m.Name,
		}
	}
	for _, p := range c.patterns {
		if p.Regexp.MatchString(text) {
			return Classification{
				Category:   p.Category,
				Confidence: RuleConfidence,
				Source:     SourceRule,
				Rationale:  "pattern:" + p.Reason,
			}
		}
	}
	return Classification{
		Category:   Other,
		Confidence: FallbackConfidence,
		Source:     SourceML,
		Rationale:  FallbackRationale,
	}
}
