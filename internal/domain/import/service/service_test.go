package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
	"github.com/FACorreiaa/statement-import/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-import/internal/domain/import/decoder"
	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/pkg/config"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
)

// ============================================================================
// Fixtures
// ============================================================================

const comdirectExport = "Umsätze Girokonto;Zeitraum: 30 Tage\n" +
	"Neuer Kontostand;1.000,00 EUR\n" +
	"\n" +
	"Buchungstag;Wertstellung;Buchungstext;Umsatz in EUR\n" +
	"01.10.2025;01.10.2025;REWE Markt;1.234,56-\n"

const unknownExport = "Zeitpunkt;Wert;Gegenpartei;Notiz\n" +
	"01.10.2025;-12,50;Foo GmbH;Test\n" +
	"02.10.2025;100,00;Bar AG;Gutschrift\n"

const splitExport = "Tag;Eingang;Ausgang;Text\n" +
	"01.10.2025;100,00;;Gehalt\n" +
	"02.10.2025;;12,50;Bäcker\n" +
	"03.10.2025;5,00;5,00;Doppelt\n"

// the Verwendungszweck header alone satisfies a Deutsche Bank signature
const purposeOnlyExport = "Zeitpunkt;Verwendungszweck;Wert;Gegenpartei\n" +
	"01.10.2025;Miete;-850,00;Hausverwaltung\n" +
	"02.10.2025;Gehalt;2.500,00;Arbeitgeber\n"

const genericExport = "Datum;Betrag;Beschreibung;Konto\n" +
	"01.10.2025;-12,50;Kaffee;1\n" +
	"02.10.2025;1.000,00;Gehalt;1\n"

var splitAdapter = adapter.Adapter{
	ID:    "giro_split",
	Match: adapter.Match{AllHeaders: []string{"Eingang", "Ausgang"}},
	Map: adapter.Map{
		adapter.FieldBookingDate: adapter.Column("Tag"),
		adapter.FieldAmount:      adapter.CreditDebit{CreditCol: "Eingang", DebitCol: "Ausgang"},
		adapter.FieldPurpose:     adapter.Column("Text"),
	},
}

type failingStore struct {
	err error
}

func (f failingStore) Lookup(context.Context, uuid.UUID, string) (*repository.StoredAdapter, error) {
	return nil, f.err
}

func (f failingStore) Save(context.Context, uuid.UUID, string, string, adapter.Adapter) error {
	return f.err
}

func (f failingStore) List(context.Context, uuid.UUID) ([]*repository.StoredAdapter, error) {
	return nil, f.err
}

func testConfig() config.ImportConfig {
	return config.ImportConfig{
		HeaderLookahead: 50,
		SampleRows:      5,
		DefaultCurrency: "EUR",
		MaxBytes:        1 << 20,
	}
}

func newTestService(store repository.AdapterStore) *ImportService {
	return NewImportService(store, testConfig(), nil)
}

var errUnavailable = fmt.Errorf("%w: connection refused", repository.ErrAdapterStoreUnavailable)

// ============================================================================
// Import
// ============================================================================

func TestImport_DetectedBankWithPreamble(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(comdirectExport), Options{})
	require.NoError(t, err)

	assert.False(t, res.NeedsMapping)
	assert.Equal(t, "bank:comdirect", res.AdapterID)
	assert.Equal(t, decoder.UTF8, res.Encoding)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2025-10-01", res.Rows[0].BookingDate)
	assert.Equal(t, "-1234.56", res.Rows[0].Amount)
	assert.Equal(t, "EUR", res.Rows[0].Currency)
	assert.Empty(t, res.Warnings)
}

func TestImport_UnknownFormatNeedsMapping(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(unknownExport), Options{})
	require.NoError(t, err)

	assert.True(t, res.NeedsMapping)
	assert.Empty(t, res.AdapterID)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"Zeitpunkt", "Wert", "Gegenpartei", "Notiz"}, res.Headers)
	assert.Equal(t, [][]string{
		{"01.10.2025", "-12,50", "Foo GmbH", "Test"},
		{"02.10.2025", "100,00", "Bar AG", "Gutschrift"},
	}, res.SampleRows)
	assert.Regexp(t, `^[0-9a-f]{8}$`, res.Fingerprint)
}

func TestImport_SampleRowsAreCapped(t *testing.T) {
	cfg := testConfig()
	cfg.SampleRows = 1
	svc := NewImportService(nil, cfg, nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(unknownExport), Options{})
	require.NoError(t, err)
	assert.Len(t, res.SampleRows, 1)
}

func TestImport_SuggestionForSplitColumns(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(splitExport), Options{})
	require.NoError(t, err)
	require.True(t, res.NeedsMapping)
	require.NotNil(t, res.Suggestion)

	assert.Equal(t, adapter.SuggestedID, res.Suggestion.ID)
	assert.IsType(t, adapter.CreditDebit{}, res.Suggestion.Map[adapter.FieldAmount])
	require.NotNil(t, res.Suggestion.Meta)
	assert.Equal(t, normalizer.LocaleDE, res.Suggestion.Meta.Locale)
	assert.Greater(t, res.Coverage, 0.0)
}

func TestImport_SuggestionUsesSampledLocale(t *testing.T) {
	// the first amount alone reads as a point decimal
	const data = "Date;Amount;Payee;Memo\n" +
		"01.10.2025;1.000;Foo;a\n" +
		"02.10.2025;-12,50;Bar;b\n" +
		"03.10.2025;-3,20;Baz;c\n"
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(data), Options{})
	require.NoError(t, err)
	require.True(t, res.NeedsMapping)
	require.NotNil(t, res.Suggestion)
	require.NotNil(t, res.Suggestion.Meta)
	assert.Equal(t, normalizer.LocaleDE, res.Suggestion.Meta.Locale)
	assert.Equal(t, adapter.LocaleNumber{Col: "Amount"}, res.Suggestion.Map[adapter.FieldAmount])

	mapped, err := svc.SubmitMapping(context.Background(), uuid.New(), []byte(data), *res.Suggestion, "")
	require.NoError(t, err)
	require.Len(t, mapped.Rows, 3)
	assert.Equal(t, "1000.00", mapped.Rows[0].Amount)
	assert.Equal(t, "-12.50", mapped.Rows[1].Amount)
}

func TestImport_SuggestionFromUSExport(t *testing.T) {
	const data = "Date,Amount,Payee\n" +
		"12/24/2025,$1.50,Foo\n" +
		"01/13/2026,$-3.25,Bar\n"
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(data), Options{})
	require.NoError(t, err)
	require.True(t, res.NeedsMapping)
	require.NotNil(t, res.Suggestion)
	assert.Equal(t, &adapter.Meta{Locale: normalizer.LocaleEN, DateLayout: "01/02/2006", Currency: "USD"}, res.Suggestion.Meta)

	mapped, err := svc.SubmitMapping(context.Background(), uuid.New(), []byte(data), *res.Suggestion, "")
	require.NoError(t, err)
	require.Len(t, mapped.Rows, 2)
	assert.Equal(t, "2025-12-24", mapped.Rows[0].BookingDate)
	assert.Equal(t, "USD", mapped.Rows[0].Currency)
	assert.Equal(t, "-3.25", mapped.Rows[1].Amount)
}

func TestImport_BuiltinAdapter(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Import(context.Background(), uuid.New(), []byte(genericExport), Options{})
	require.NoError(t, err)

	assert.Equal(t, adapter.GenericDEID, res.AdapterID)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "-12.50", res.Rows[0].Amount)
	assert.Equal(t, "1000.00", res.Rows[1].Amount)
	assert.Equal(t, "Kaffee", res.Rows[0].Purpose)
}

func TestImport_BuiltinRejectingEveryRowNeedsMapping(t *testing.T) {
	svc := newTestService(nil)
	data := "Datum;Betrag;Beschreibung;Konto\n" +
		"gestern;-12,50;Kaffee;1\n" +
		"heute;-3,00;Brot;1\n"

	res, err := svc.Import(context.Background(), uuid.New(), []byte(data), Options{})
	require.NoError(t, err)
	assert.True(t, res.NeedsMapping)
	assert.Empty(t, res.Rows)
}

func TestImport_LegacyEncoding(t *testing.T) {
	svc := newTestService(nil)
	data := []byte("Datum;Betrag;Beschreibung;Konto\n01.10.2025;-4,20;Caf\xe9 Central;1\n")

	res, err := svc.Import(context.Background(), uuid.New(), data, Options{})
	require.NoError(t, err)

	assert.Equal(t, decoder.ISO88591, res.Encoding)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Café Central", res.Rows[0].Purpose)
}

func TestImport_Currency(t *testing.T) {
	svc := newTestService(nil)
	data := "Datum;Betrag;Währung;Beschreibung\n" +
		"01.10.2025;-12,50;usd;Kaffee\n" +
		"02.10.2025;-1,00;XYZ;Brot\n" +
		"03.10.2025;-2,00;;Milch\n"

	res, err := svc.Import(context.Background(), uuid.New(), []byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	assert.Equal(t, "USD", res.Rows[0].Currency)
	assert.Equal(t, "EUR", res.Rows[1].Currency)
	assert.Equal(t, "EUR", res.Rows[2].Currency)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "transaction 2")
	assert.Contains(t, res.Warnings[0], "unknown currency")
}

func TestImport_BankOverride(t *testing.T) {
	svc := newTestService(nil)
	data := "Buchungstag;Betrag;Verwendungszweck;Name\n" +
		"01.10.2025;-9,99;Abo;Streaming GmbH\n"

	tests := []struct {
		name      string
		bank      bank.ID
		adapterID string
	}{
		{name: "detected", adapterID: "bank:deutsche-bank"},
		{name: "forced", bank: bank.Sparkasse, adapterID: "bank:sparkasse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Import(context.Background(), uuid.New(), []byte(data), Options{Bank: tt.bank})
			require.NoError(t, err)
			assert.Equal(t, tt.adapterID, res.AdapterID)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, "-9.99", res.Rows[0].Amount)
		})
	}
}

func TestImport_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBytes = 64
	svc := NewImportService(nil, cfg, nil)

	tests := []struct {
		name string
		data string
		opts Options
		want error
	}{
		{name: "empty", data: "  \n", want: sniffer.ErrEmptyFile},
		{name: "no header", data: "just some text\nwithout delimiters\n", want: sniffer.ErrNoHeaderFound},
		{name: "too large", data: strings.Repeat("x", 65), want: ErrFileTooLarge},
		{name: "unknown bank", data: "A;B;C\n1;2;3\n", opts: Options{Bank: "postbank"}, want: bank.ErrUnknownBank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Import(context.Background(), uuid.New(), []byte(tt.data), tt.opts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, res)
		})
	}
}

func TestImport_StoreUnavailableFallsBackToMapping(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(failingStore{err: errUnavailable}).WithMetrics(metrics.New(reg))

	res, err := svc.Import(context.Background(), uuid.New(), []byte(genericExport), Options{})
	require.NoError(t, err)
	assert.True(t, res.NeedsMapping)

	expected := `
# HELP stmtimport_adapter_store_errors_total Adapter store failures by operation.
# TYPE stmtimport_adapter_store_errors_total counter
stmtimport_adapter_store_errors_total{op="lookup"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stmtimport_adapter_store_errors_total"))
}

func TestImport_BankProfileIgnoresStore(t *testing.T) {
	svc := newTestService(failingStore{err: errUnavailable})

	res, err := svc.Import(context.Background(), uuid.New(), []byte(comdirectExport), Options{})
	require.NoError(t, err)
	assert.Equal(t, "bank:comdirect", res.AdapterID)
}

func TestImport_DetectedBankRejectingEveryRowFallsThrough(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()
	data := []byte(purposeOnlyExport)

	table, err := sniffer.Scan(purposeOnlyExport)
	require.NoError(t, err)
	require.Equal(t, bank.DeutscheBank, bank.Detect(table.Headers))

	first, err := svc.Import(ctx, userID, data, Options{})
	require.NoError(t, err)
	assert.True(t, first.NeedsMapping)
	assert.Empty(t, first.AdapterID)

	mine := adapter.Adapter{
		ID: "mine",
		Map: adapter.Map{
			adapter.FieldBookingDate:     adapter.Column("Zeitpunkt"),
			adapter.FieldAmount:          adapter.Column("Wert"),
			adapter.FieldCounterpartName: adapter.Column("Gegenpartei"),
			adapter.FieldPurpose:         adapter.Column("Verwendungszweck"),
		},
	}
	_, err = svc.SubmitMapping(ctx, userID, data, mine, "Mine")
	require.NoError(t, err)

	again, err := svc.Import(ctx, userID, data, Options{})
	require.NoError(t, err)
	assert.False(t, again.NeedsMapping)
	assert.Equal(t, "mine", again.AdapterID)
	require.Len(t, again.Rows, 2)
	assert.Equal(t, "-850.00", again.Rows[0].Amount)
	assert.Equal(t, "2500.00", again.Rows[1].Amount)

	// a forced profile still fails loudly
	_, err = svc.Import(ctx, userID, data, Options{Bank: bank.DeutscheBank})
	assert.ErrorIs(t, err, ErrAllRowsFailed)
}

func TestImport_UserAdapterByHeaders(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	custom := adapter.Adapter{
		ID:    "my_bank",
		Match: adapter.Match{AnyHeader: []string{"Gegenpartei"}},
		Map: adapter.Map{
			adapter.FieldBookingDate:     adapter.Column("Zeitpunkt"),
			adapter.FieldAmount:          adapter.Column("Wert"),
			adapter.FieldCounterpartName: adapter.Column("Gegenpartei"),
		},
	}
	// saved for a different file shape, so only the header match applies
	require.NoError(t, store.Save(context.Background(), userID, "0badc0de", "Mine", custom))

	res, err := svc.Import(context.Background(), userID, []byte(unknownExport), Options{})
	require.NoError(t, err)
	assert.Equal(t, "my_bank", res.AdapterID)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Foo GmbH", res.Rows[0].CounterpartName)

	other, err := svc.Import(context.Background(), uuid.New(), []byte(unknownExport), Options{})
	require.NoError(t, err)
	assert.True(t, other.NeedsMapping, "adapters are scoped to their user")
}

func TestImport_StoredAdapterRejectingEveryRow(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	broken := adapter.Adapter{
		ID: "broken",
		Map: adapter.Map{
			adapter.FieldBookingDate: adapter.Column("Gegenpartei"),
			adapter.FieldAmount:      adapter.Column("Wert"),
		},
	}
	table, err := sniffer.Scan(unknownExport)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), userID, table.Fingerprint(), "Broken", broken))

	res, err := svc.Import(context.Background(), userID, []byte(unknownExport), Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAllRowsFailed)
	assert.ErrorIs(t, err, normalizer.ErrBadDate)
	assert.NotContains(t, err.Error(), "Foo GmbH")
}

// ============================================================================
// SubmitMapping
// ============================================================================

func TestSubmitMapping_PartialSuccessAndReuse(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	res, err := svc.SubmitMapping(context.Background(), userID, []byte(splitExport), splitAdapter, "Giro")
	require.NoError(t, err)

	assert.Equal(t, "giro_split", res.AdapterID)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "100.00", res.Rows[0].Amount)
	assert.Equal(t, "-12.50", res.Rows[1].Amount)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "line 4")
	assert.Contains(t, res.Warnings[0], "ambiguous sign")

	stored, err := store.Lookup(context.Background(), userID, res.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "Giro", stored.Name)

	again, err := svc.Import(context.Background(), userID, []byte(splitExport), Options{})
	require.NoError(t, err)
	assert.False(t, again.NeedsMapping)
	assert.Equal(t, "giro_split", again.AdapterID)
	assert.Len(t, again.Rows, 2)
}

func TestSubmitMapping_InvalidAdapter(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store)

	_, err := svc.SubmitMapping(context.Background(), uuid.New(), []byte(splitExport), adapter.Adapter{ID: "x"}, "")
	assert.ErrorIs(t, err, adapter.ErrInvalid)
}

func TestSubmitMapping_AllRowsFailedIsNotSaved(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	wrong := splitAdapter
	wrong.Map = adapter.Map{
		adapter.FieldBookingDate: adapter.Column("Text"),
		adapter.FieldAmount:      adapter.Column("Eingang"),
	}

	_, err := svc.SubmitMapping(context.Background(), userID, []byte(splitExport), wrong, "Wrong")
	assert.ErrorIs(t, err, ErrAllRowsFailed)

	saved, err := store.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSubmitMapping_SaveFailureIsAWarning(t *testing.T) {
	svc := newTestService(failingStore{err: errUnavailable})

	res, err := svc.SubmitMapping(context.Background(), uuid.New(), []byte(splitExport), splitAdapter, "Giro")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.Contains(t, res.Warnings, "mapping could not be saved and will be requested again")
}

// ============================================================================
// Inspect
// ============================================================================

func TestInspect(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Inspect([]byte(comdirectExport))
	require.NoError(t, err)
	assert.Equal(t, "bank:comdirect", res.AdapterID)
	assert.Equal(t, []string{"Buchungstag", "Wertstellung", "Buchungstext", "Umsatz in EUR"}, res.Headers)
	assert.Len(t, res.SampleRows, 1)
	assert.Empty(t, res.Rows)

	table, err := sniffer.Scan(comdirectExport)
	require.NoError(t, err)
	assert.Equal(t, table.Fingerprint(), res.Fingerprint)

	unknown, err := svc.Inspect([]byte(unknownExport))
	require.NoError(t, err)
	assert.Empty(t, unknown.AdapterID)
}
