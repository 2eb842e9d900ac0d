// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
	"github.com/FACorreiaa/statement-import/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-import/internal/domain/import/decoder"
	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/pkg/config"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

var (
	// ErrAllRowsFailed means the chosen mapping rejected every data row.
	ErrAllRowsFailed = errors.New("no row could be mapped")
	ErrFileTooLarge  = errors.New("file exceeds the upload limit")
)

// maxJoinedRowErrors bounds the row errors joined into ErrAllRowsFailed.
const maxJoinedRowErrors = 3

// Format sources reported to metrics.
const (
	sourceBank    = "bank"
	sourceStored  = "stored"
	sourceAdapter = "adapter"
	sourceNone    = "none"
)

// Options carries the optional inputs of an upload.
type Options struct {
	// Filename feeds filenameIncludes match criteria.
	Filename string
	// Bank forces a bank profile and skips detection.
	Bank bank.ID
}

// Result is either a mapped statement or, with NeedsMapping set, the preview
// the column-mapping flow needs.
type Result struct {
	AdapterID    string                         `json:"adapterId,omitempty"`
	Encoding     decoder.Encoding               `json:"encoding"`
	Rows         []adapter.CanonicalTransaction `json:"rows,omitempty"`
	Warnings     []string                       `json:"warnings,omitempty"`
	NeedsMapping bool                           `json:"needsMapping,omitempty"`
	Headers      []string                       `json:"headers,omitempty"`
	SampleRows   [][]string                     `json:"sampleRows,omitempty"`
	Fingerprint  string                         `json:"fingerprint"`
	Suggestion   *adapter.Adapter               `json:"suggestion,omitempty"`
	// Coverage is the share of core fields the suggestion could place.
	Coverage float64 `json:"coverage,omitempty"`
}

// ImportService turns uploaded statements into canonical transactions.
type ImportService struct {
	store   repository.AdapterStore
	cfg     config.ImportConfig
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewImportService creates a new import service. A nil store keeps custom
// adapters in memory.
func NewImportService(store repository.AdapterStore, cfg config.ImportConfig, logger *slog.Logger) *ImportService {
	if store == nil {
		store = repository.NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = 5
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = money.EUR
	}
	return &ImportService{
		store:  store,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/FACorreiaa/statement-import/import"),
		logger: logger,
	}
}

// WithMetrics sets the metrics sink.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer replaces the default tracer.
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// Import maps an uploaded statement. A file no profile or adapter recognizes
// yields a NeedsMapping result, not an error.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, data []byte, opts Options) (res *Result, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "import.Import", trace.WithAttributes(
		attribute.Int("bytes", len(data)),
		attribute.String("bank", string(opts.Bank)),
	))
	defer func() { s.finish(span, res, err, start) }()

	// Step 1: Decode and find the table
	table, enc, err := s.scan(data)
	if err != nil {
		return nil, err
	}
	res = &Result{Encoding: enc, Fingerprint: table.Fingerprint()}
	logger := s.logger.With("user_id", userID, "fingerprint", res.Fingerprint, "encoding", enc)

	// Step 2: Bank profile, forced or detected
	if opts.Bank != "" {
		profile, ok := bank.Lookup(opts.Bank)
		if !ok {
			return nil, fmt.Errorf("%w: %q", bank.ErrUnknownBank, opts.Bank)
		}
		logger.DebugContext(ctx, "bank profile forced", "bank", profile.ID)
		s.metrics.FormatResolved(sourceBank, string(profile.ID))
		return s.applyStrict(res, table, profile.Adapter())
	}
	if id := bank.Detect(table.Headers); id != "" {
		profile, _ := bank.Lookup(id)
		if mapped := s.apply(res, table, profile.Adapter()); mapped != nil {
			logger.DebugContext(ctx, "bank profile detected", "bank", profile.ID)
			s.metrics.FormatResolved(sourceBank, string(profile.ID))
			return mapped, nil
		}
		// A signature hit on a generic German header is not proof of the bank.
		logger.DebugContext(ctx, "detected bank profile rejected every row", "bank", profile.ID)
	}

	// Step 3: Adapter saved for this exact file shape
	stored, err := s.store.Lookup(ctx, userID, res.Fingerprint)
	switch {
	case err == nil:
		logger.DebugContext(ctx, "stored adapter matched fingerprint", "adapter_id", stored.Adapter.ID)
		s.metrics.FormatResolved(sourceStored, stored.Adapter.ID)
		return s.applyStrict(res, table, stored.Adapter)
	case errors.Is(err, repository.ErrAdapterNotFound):
	default:
		s.storeFailed(ctx, "lookup", err)
		return s.needsMapping(res, table), nil
	}

	// Step 4: User adapters and built-ins by match criteria
	saved, err := s.store.List(ctx, userID)
	if err != nil {
		s.storeFailed(ctx, "list", err)
		return s.needsMapping(res, table), nil
	}
	candidates := make([]adapter.Candidate, 0, len(saved)+2)
	for _, sa := range saved {
		candidates = append(candidates, adapter.Candidate{Adapter: sa.Adapter, UpdatedAt: sa.UpdatedAt})
	}
	candidates = append(candidates, adapter.BuiltinCandidates()...)

	if c, ok := adapter.Choose(candidates, table.Headers, opts.Filename); ok {
		logger.DebugContext(ctx, "adapter matched headers", "adapter_id", c.Adapter.ID, "builtin", c.Builtin)
		if !c.Builtin {
			s.metrics.FormatResolved(sourceAdapter, c.Adapter.ID)
			return s.applyStrict(res, table, c.Adapter)
		}
		if mapped := s.apply(res, table, c.Adapter); mapped != nil {
			s.metrics.FormatResolved(sourceAdapter, c.Adapter.ID)
			return mapped, nil
		}
		logger.DebugContext(ctx, "built-in adapter rejected every row", "adapter_id", c.Adapter.ID)
	}

	// Step 5: Nothing fits; ask for a mapping
	s.metrics.FormatResolved(sourceNone, "")
	return s.needsMapping(res, table), nil
}

// SubmitMapping applies a user-authored adapter to the upload and saves it
// under the file's fingerprint. A failed save is reported as a warning.
func (s *ImportService) SubmitMapping(ctx context.Context, userID uuid.UUID, data []byte, a adapter.Adapter, name string) (res *Result, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "import.SubmitMapping", trace.WithAttributes(
		attribute.String("adapter_id", a.ID),
	))
	defer func() { s.finish(span, res, err, start) }()

	if err := a.Validate(); err != nil {
		return nil, err
	}

	table, enc, err := s.scan(data)
	if err != nil {
		return nil, err
	}
	res = &Result{Encoding: enc, Fingerprint: table.Fingerprint()}

	res, err = s.applyStrict(res, table, a)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = a.ID
	}
	if err := s.store.Save(ctx, userID, res.Fingerprint, name, a); err != nil {
		s.storeFailed(ctx, "save", err)
		res.Warnings = append(res.Warnings, "mapping could not be saved and will be requested again")
		return res, nil
	}
	s.logger.InfoContext(ctx, "custom adapter saved",
		"user_id", userID, "fingerprint", res.Fingerprint, "adapter_id", a.ID)
	return res, nil
}

// Inspect scans data without mapping it. AdapterID names the detected bank
// profile, if any.
func (s *ImportService) Inspect(data []byte) (*Result, error) {
	table, enc, err := s.scan(data)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Encoding:    enc,
		Fingerprint: table.Fingerprint(),
		Headers:     table.Headers,
		SampleRows:  table.SampleRows(s.cfg.SampleRows),
	}
	if id := bank.Detect(table.Headers); id != "" {
		if p, ok := bank.Lookup(id); ok {
			res.AdapterID = p.AdapterID()
		}
	}
	return res, nil
}

func (s *ImportService) scan(data []byte) (*sniffer.Table, decoder.Encoding, error) {
	if s.cfg.MaxBytes > 0 && len(data) > s.cfg.MaxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	opts := &sniffer.ScanOptions{Lookahead: s.cfg.HeaderLookahead}

	if sniffer.IsWorkbook(data) {
		table, err := sniffer.ScanWorkbook(data, opts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan workbook: %w", err)
		}
		return table, decoder.UTF8, nil
	}

	text, enc := decoder.Decode(data)
	table, err := sniffer.ScanWithOptions(text, opts)
	if err != nil {
		return nil, enc, fmt.Errorf("failed to scan statement: %w", err)
	}
	return table, enc, nil
}

// apply maps the table with a. It returns nil when every row was rejected,
// leaving res untouched.
func (s *ImportService) apply(res *Result, table *sniffer.Table, a adapter.Adapter) *Result {
	out := adapter.Apply(a, table.Headers, table.Rows)
	if out.AllFailed() {
		return nil
	}
	s.accept(res, table, out)
	return res
}

// applyStrict maps the table with a and fails when every row was rejected.
func (s *ImportService) applyStrict(res *Result, table *sniffer.Table, a adapter.Adapter) (*Result, error) {
	out := adapter.Apply(a, table.Headers, table.Rows)
	if out.AllFailed() {
		return nil, allRowsFailed(out)
	}
	s.accept(res, table, out)
	return res, nil
}

func (s *ImportService) accept(res *Result, table *sniffer.Table, out *adapter.Result) {
	res.AdapterID = out.AdapterID
	res.Rows = out.Rows
	for _, e := range out.Errors {
		res.Warnings = append(res.Warnings, rowWarning(table, e))
	}
	s.fillCurrency(res)
}

// fillCurrency defaults empty currencies and replaces codes that are not
// ISO-4217.
func (s *ImportService) fillCurrency(res *Result) {
	for i := range res.Rows {
		tx := &res.Rows[i]
		if tx.Currency == "" {
			tx.Currency = s.cfg.DefaultCurrency
			continue
		}
		code, err := money.NormalizeCurrency(tx.Currency)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("transaction %d: %s, using %s",
				i+1, normalizer.RedactError(err), s.cfg.DefaultCurrency))
			code = s.cfg.DefaultCurrency
		}
		tx.Currency = code
	}
}

func (s *ImportService) needsMapping(res *Result, table *sniffer.Table) *Result {
	res.NeedsMapping = true
	res.Headers = table.Headers
	res.SampleRows = table.SampleRows(s.cfg.SampleRows)

	var first sniffer.RawRow
	if len(table.Rows) > 0 {
		first = table.Rows[0]
	}
	draft := adapter.Suggest(table.Headers, first)
	if len(draft.Adapter.Map) == 0 {
		return res
	}

	dateCol, amountCol := suggestedColumns(draft.Adapter)
	dialect := sniffer.ProbeDialect(table, amountCol, dateCol, s.cfg.SampleRows)
	meta := &adapter.Meta{Locale: dialect.Locale, DateLayout: dialect.DateLayout()}
	if _, mapped := draft.Adapter.Map[adapter.FieldCurrency]; !mapped {
		meta.Currency = dialect.CurrencyHint
	}
	draft.Adapter.Meta = meta
	res.Suggestion = &draft.Adapter
	res.Coverage = draft.Coverage
	return res
}

func suggestedColumns(a adapter.Adapter) (dateCol, amountCol string) {
	if c, ok := a.Map[adapter.FieldBookingDate].(adapter.Column); ok {
		dateCol = string(c)
	}
	switch r := a.Map[adapter.FieldAmount].(type) {
	case adapter.LocaleNumber:
		amountCol = r.Col
	case adapter.Column:
		amountCol = string(r)
	case adapter.CreditDebit:
		amountCol = r.CreditCol
	}
	return dateCol, amountCol
}

func (s *ImportService) storeFailed(ctx context.Context, op string, err error) {
	s.metrics.StoreError(op)
	s.logger.WarnContext(ctx, "adapter store unavailable, falling back to mapping",
		"op", op, "error", err)
}

func (s *ImportService) finish(span trace.Span, res *Result, err error, start time.Time) {
	defer span.End()

	outcome := metrics.OutcomeImported
	var rows, warnings int
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, normalizer.RedactError(err))
		s.logger.Warn("statement import failed", "error", normalizer.RedactError(err))
	case res.NeedsMapping:
		outcome = metrics.OutcomeNeedsMapping
		span.SetAttributes(attribute.Bool("needs_mapping", true))
		s.logger.Info("statement needs a mapping", "fingerprint", res.Fingerprint, "headers", len(res.Headers))
	default:
		rows, warnings = len(res.Rows), len(res.Warnings)
		span.SetAttributes(
			attribute.String("adapter_id", res.AdapterID),
			attribute.Int("rows", rows),
			attribute.Int("warnings", warnings),
		)
		s.logger.Info("statement imported",
			"adapter_id", res.AdapterID, "rows", rows, "warnings", warnings, "encoding", res.Encoding)
	}
	s.metrics.ImportFinished(outcome, rows, warnings, time.Since(start))
}

// rowWarning renders a row error with its 1-based file line. Blank lines
// skipped inside the table are not counted.
func rowWarning(table *sniffer.Table, e *adapter.RowError) string {
	line := table.SkipLines + 1 + e.Row
	return fmt.Sprintf("line %d: %s", line, normalizer.Redact(fmt.Sprintf("%s: %v", e.Field, e.Err)))
}

// redactedError hides cell values in the message and keeps the chain.
type redactedError struct {
	err error
}

func (e redactedError) Error() string { return normalizer.RedactError(e.err) }
func (e redactedError) Unwrap() error { return e.err }

func allRowsFailed(out *adapter.Result) error {
	errs := []error{fmt.Errorf("%w: %d rows with %s", ErrAllRowsFailed, out.Total, out.AdapterID)}
	for _, e := range out.Errors[:min(len(out.Errors), maxJoinedRowErrors)] {
		errs = append(errs, redactedError{e})
	}
	return errors.Join(errs...)
}
