// Package metrics exposes Prometheus counters for the import pipeline. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stmtimport"

// Import outcomes.
const (
	OutcomeImported     = "imported"
	OutcomeNeedsMapping = "needs_mapping"
	OutcomeFailed       = "failed"
)

type Metrics struct {
	imports      *prometheus.CounterVec
	detections   *prometheus.CounterVec
	rows         prometheus.Counter
	rowWarnings  prometheus.Counter
	storeErrors  *prometheus.CounterVec
	categorized  *prometheus.CounterVec
	importTiming prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		imports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Statement uploads by outcome.",
		}, []string{"outcome"}),
		detections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "format_detections_total",
			Help:      "Resolved statement formats by source (bank, stored, adapter, none).",
		}, []string{"source", "format"}),
		rows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_imported_total",
			Help:      "Canonical transactions produced.",
		}),
		rowWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_warnings_total",
			Help:      "Rows excluded because a required field failed.",
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_store_errors_total",
			Help:      "Adapter store failures by operation.",
		}, []string{"op"}),
		categorized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "categorized_total",
			Help:      "Categorized transactions by source.",
		}, []string{"source"}),
		importTiming: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time spent processing one upload.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// ImportFinished records one upload.
func (m *Metrics) ImportFinished(outcome string, rows, warnings int, took time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
	m.rows.Add(float64(rows))
	m.rowWarnings.Add(float64(warnings))
	m.importTiming.Observe(took.Seconds())
}

// FormatResolved records how the format of an upload was identified.
func (m *Metrics) FormatResolved(source, format string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(source, format).Inc()
}

// StoreError records a failed adapter store call.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// Categorized records one categorized transaction.
func (m *Metrics) Categorized(source string) {
	if m == nil {
		return
	}
	m.categorized.WithLabelValues(source).Inc()
}
