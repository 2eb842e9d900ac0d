package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
)

func scan(t *testing.T, text string) *sniffer.Table {
	t.Helper()
	table, err := sniffer.Scan(text)
	require.NoError(t, err)
	return table
}

func TestApply_RuleKinds(t *testing.T) {
	table := scan(t, "Buchungstag ; BETRAG;Name;Zweck 1;Zweck 2;Art;Haben;Soll\n"+
		"01.10.2025;1.234,56-;Stadtwerke;Strom;Oktober;LS;;12,00\n")
	row := table.Rows[0]
	idx := NewHeaderIndex(table.Headers)
	ev := evaluator{idx: idx, row: row, locale: normalizer.LocaleDE}

	tests := []struct {
		name    string
		rule    Rule
		text    string
		amount  string
		wantErr error
	}{
		{name: "column is case and space insensitive", rule: Column("buchungstag"), text: "01.10.2025"},
		{name: "missing column is empty", rule: Column("Valuta"), text: ""},
		{name: "fallback skips missing and empty", rule: Fallback{"Valuta", "Haben", "Name"}, text: "Stadtwerke"},
		{name: "locale number", rule: LocaleNumber{Col: "Betrag"}, text: "1.234,56-", amount: "-1234.56"},
		{name: "locale number bad value", rule: LocaleNumber{Col: "Name"}, text: "Stadtwerke", wantErr: normalizer.ErrBadAmount},
		{name: "concat default separator", rule: Concat{Columns: []string{"Zweck 1", "Missing", "Zweck 2"}}, text: "Strom Oktober"},
		{name: "concat custom separator", rule: Concat{Columns: []string{"Name", "Zweck 1"}, Sep: " - "}, text: "Stadtwerke - Strom"},
		{name: "lookup uppercases key", rule: Lookup{From: "Art", Table: map[string]string{"LS": "Lastschrift"}}, text: "Lastschrift"},
		{name: "lookup miss is empty", rule: Lookup{From: "Art", Table: map[string]string{"UE": "Überweisung"}}, text: ""},
		{name: "debit column is negative", rule: CreditDebit{CreditCol: "Haben", DebitCol: "Soll"}, amount: "-12.00"},
		{name: "any of takes first non-empty", rule: AnyOf{Rules: []Rule{Column("Valuta"), Concat{Columns: []string{"Haben"}}, Column("Art")}}, text: "LS"},
		{name: "any of skips failing rule", rule: AnyOf{Rules: []Rule{LocaleNumber{Col: "Name"}, LocaleNumber{Col: "Soll"}}}, amount: "12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ev.eval(tt.rule)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.amount != "" {
				require.True(t, v.numeric)
				assert.Equal(t, tt.amount, normalizer.FormatAmount(v.amount))
				return
			}
			assert.Equal(t, tt.text, v.text)
		})
	}
}

func TestApply_CreditDebit(t *testing.T) {
	table := scan(t, "Datum;Haben;Soll;Text\n"+
		"01.01.2025;100,00;;Gehalt\n"+
		"02.01.2025;;25,50;Miete\n"+
		"03.01.2025;10,00;5,00;beides\n"+
		"04.01.2025;;;keins\n"+
		"05.01.2025;0,00;7,00;null ist leer\n")

	a := Adapter{
		ID: "cd",
		Map: Map{
			FieldBookingDate: Column("Datum"),
			FieldAmount:      CreditDebit{CreditCol: "Haben", DebitCol: "Soll"},
			FieldPurpose:     Column("Text"),
		},
	}

	res := Apply(a, table.Headers, table.Rows)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "100.00", res.Rows[0].Amount)
	assert.Equal(t, "-25.50", res.Rows[1].Amount)
	assert.Equal(t, "-7.00", res.Rows[2].Amount)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.ErrorIs(t, res.Errors[0], ErrAmbiguousSign)
	assert.Equal(t, FieldAmount, res.Errors[0].Field)
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.ErrorIs(t, res.Errors[1], ErrAmbiguousSign)
	assert.False(t, res.AllFailed())
}

func TestApply_RowScopedFailures(t *testing.T) {
	table := scan(t, "Datum;Betrag;Wertstellung\n"+
		"01.01.2025;-5,00;kaputt\n"+
		"gestern;1,00;\n"+
		"03.01.2025;abc;\n"+
		";2,00;\n")

	a := Adapter{ID: "x", Map: Map{
		FieldBookingDate: Column("Datum"),
		FieldValueDate:   Column("Wertstellung"),
		FieldAmount:      Column("Betrag"),
	}}

	res := Apply(a, table.Headers, table.Rows)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2025-01-01", res.Rows[0].BookingDate)
	assert.Equal(t, "", res.Rows[0].ValueDate)
	assert.Equal(t, "-5.00", res.Rows[0].Amount)

	require.Len(t, res.Errors, 3)
	assert.ErrorIs(t, res.Errors[0], normalizer.ErrBadDate)
	assert.ErrorIs(t, res.Errors[1], normalizer.ErrBadAmount)
	assert.ErrorIs(t, res.Errors[2], ErrMapping)
	assert.Equal(t, FieldBookingDate, res.Errors[2].Field)
}

func TestApply_MissingRequiredRule(t *testing.T) {
	table := scan(t, "Datum;Betrag;Text\n01.01.2025;1,00;x\n")
	res := Apply(Adapter{ID: "no-amount", Map: Map{FieldBookingDate: Column("Datum")}}, table.Headers, table.Rows)

	assert.True(t, res.AllFailed())
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrMapping)
	assert.Equal(t, FieldAmount, res.Errors[0].Field)
}

func TestApply_CanonicalCleanup(t *testing.T) {
	table := scan(t, "Datum;Betrag;IBAN;BIC;Zweck;Währung\n"+
		"01.01.2025;-9,99;de89 3704 0044 0532 0130 00;cobadeffxxx;EREF+E2E-1 SVWZ+Rechnung 42;eur\n")

	a := Adapter{ID: "x", Map: Map{
		FieldBookingDate:     Column("Datum"),
		FieldAmount:          Column("Betrag"),
		FieldCounterpartIban: Column("IBAN"),
		FieldCounterpartBic:  Column("BIC"),
		FieldPurpose:         Column("Zweck"),
		FieldCurrency:        Column("Währung"),
	}}

	res := Apply(a, table.Headers, table.Rows)
	require.Len(t, res.Rows, 1)
	tx := res.Rows[0]
	assert.Equal(t, "DE89370400440532013000", tx.CounterpartIban)
	assert.Equal(t, "COBADEFFXXX", tx.CounterpartBic)
	assert.Equal(t, "Rechnung 42", tx.Purpose)
	assert.Equal(t, "E2E-1", tx.RawCode)
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, "-9.99", tx.Decimal().StringFixed(2))
}

func TestApply_LocaleFromMeta(t *testing.T) {
	table := scan(t, "Date,Amount,Payee\n2025-03-01,\"1,234.50\",ACME\n")
	a := Adapter{
		ID:   "en",
		Map:  Map{FieldBookingDate: Column("Date"), FieldAmount: Column("Amount")},
		Meta: &Meta{Locale: normalizer.LocaleEN},
	}

	res := Apply(a, table.Headers, table.Rows)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "1234.50", res.Rows[0].Amount)
}

func TestApply_DateLayoutFromMeta(t *testing.T) {
	table := scan(t, "Date,Amount,Payee\n10/13/2025,\"1,234\",ACME\n2025-10-14,5,ACME\n")
	a := Adapter{
		ID:   "us_export",
		Map:  Map{FieldBookingDate: Column("Date"), FieldAmount: Column("Amount")},
		Meta: &Meta{Locale: "en-GB", DateLayout: "01/02/2006"},
	}

	res := Apply(a, table.Headers, table.Rows)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2025-10-13", res.Rows[0].BookingDate)
	assert.Equal(t, "1234.00", res.Rows[0].Amount)
	assert.Equal(t, "2025-10-14", res.Rows[1].BookingDate)

	a.Meta.DateLayout = ""
	res = Apply(a, table.Headers, table.Rows)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], normalizer.ErrBadDate)
}

func TestResolve_ProviderTx(t *testing.T) {
	table := scan(t, "Datum;Betrag;Soll;Haben\n01.01.2025;1.234,56;;3,00\n")
	idx := NewHeaderIndex(table.Headers)

	raw, err := Resolve(Adapter{Map: Map{FieldBookingDate: Column("Datum"), FieldAmount: Column("Betrag")}}, idx, table.Rows[0])
	require.NoError(t, err)
	assert.False(t, raw.AmountParsed)
	assert.Equal(t, "1.234,56", raw.Amount)

	parsed, err := Resolve(Adapter{Map: Map{
		FieldBookingDate: Column("Datum"),
		FieldAmount:      CreditDebit{CreditCol: "Haben", DebitCol: "Soll"},
	}}, idx, table.Rows[0])
	require.NoError(t, err)
	assert.True(t, parsed.AmountParsed)
	assert.Equal(t, "3.00", parsed.Amount)
}

func BenchmarkApply(b *testing.B) {
	text := "Buchungstag;Wertstellung;Buchungstext;Umsatz in EUR\n"
	for i := 0; i < 1000; i++ {
		text += "01.10.2025;01.10.2025;REWE Markt;1.234,56-\n"
	}
	table, err := sniffer.Scan(text)
	if err != nil {
		b.Fatal(err)
	}
	a := Builtins()[1]
	a.Map[FieldAmount] = Column("Umsatz in EUR")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Apply(a, table.Headers, table.Rows)
	}
}
