// Package export writes canonical and categorized transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
)

// Options configures the CSV dialect.
type Options struct {
	Comma rune // defaults to ','
}

func (o Options) writer(w io.Writer) *gocsv.SafeCSVWriter {
	cw := csv.NewWriter(w)
	if o.Comma != 0 {
		cw.Comma = o.Comma
	}
	return gocsv.NewSafeCSVWriter(cw)
}

// WriteCanonical writes one line per transaction with a header row.
func WriteCanonical(w io.Writer, txs []adapter.CanonicalTransaction, opts Options) error {
	if txs == nil {
		txs = []adapter.CanonicalTransaction{}
	}
	if err := gocsv.MarshalCSV(&txs, opts.writer(w)); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}
	return nil
}

// WriteCategorized writes canonical columns followed by category,
// confidence, source and rationale.
func WriteCategorized(w io.Writer, txs []categorization.CategorizedTransaction, opts Options) error {
	if txs == nil {
		txs = []categorization.CategorizedTransaction{}
	}
	if err := gocsv.MarshalCSV(&txs, opts.writer(w)); err != nil {
		return fmt.Errorf("failed to write categorized transactions: %w", err)
	}
	return nil
}
