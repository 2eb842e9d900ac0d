package adapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wireAdapter = `{
  "id": "user_csv_1",
  "match": {"anyHeader": ["Buchungstag"], "filenameIncludes": ["umsaetze"]},
  "map": {
    "bookingDate": "Buchungstag",
    "valueDate": ["Valuta", "Wertstellung"],
    "amount": {"creditCol": "Haben", "debitCol": "Soll", "locale": "de-DE"},
    "purpose": {"concat": ["Zweck 1", "Zweck 2"], "sep": " | "},
    "txType": {"from": "Art", "lookup": {"LS": "Lastschrift"}},
    "counterpartName": {"anyOf": ["Empfänger", {"col": "Auftraggeber"}]},
    "rawCode": {"col": "Code", "locale": "en-US"}
  },
  "meta": {"bank": "Testbank", "country": "DE"}
}`

func TestAdapterJSON_Decode(t *testing.T) {
	var a Adapter
	require.NoError(t, json.Unmarshal([]byte(wireAdapter), &a))

	assert.Equal(t, "user_csv_1", a.ID)
	assert.Equal(t, []string{"Buchungstag"}, a.Match.AnyHeader)
	assert.Equal(t, "Testbank", a.Meta.Bank)

	assert.Equal(t, Column("Buchungstag"), a.Map[FieldBookingDate])
	assert.Equal(t, Fallback{"Valuta", "Wertstellung"}, a.Map[FieldValueDate])
	assert.Equal(t, CreditDebit{CreditCol: "Haben", DebitCol: "Soll", Locale: "de-DE"}, a.Map[FieldAmount])
	assert.Equal(t, Concat{Columns: []string{"Zweck 1", "Zweck 2"}, Sep: " | "}, a.Map[FieldPurpose])
	assert.Equal(t, Lookup{From: "Art", Table: map[string]string{"LS": "Lastschrift"}}, a.Map[FieldTxType])
	assert.Equal(t, AnyOf{Rules: []Rule{Column("Empfänger"), LocaleNumber{Col: "Auftraggeber"}}}, a.Map[FieldCounterpartName])
	assert.Equal(t, LocaleNumber{Col: "Code", Locale: "en-US"}, a.Map[FieldRawCode])

	require.NoError(t, a.Validate())
}

func TestAdapterJSON_RoundTrip(t *testing.T) {
	var a Adapter
	require.NoError(t, json.Unmarshal([]byte(wireAdapter), &a))

	encoded, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, wireAdapter, string(encoded))
}

func TestDecodeRule_Invalid(t *testing.T) {
	tests := map[string]string{
		"number":       `42`,
		"unknown keys": `{"regex": "x"}`,
		"bad fallback": `[1, 2]`,
		"bad nested":   `{"anyOf": [{"nope": true}]}`,
		"empty":        ``,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRule(json.RawMessage(raw))
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestAdapter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		adapter Adapter
		wantErr bool
	}{
		{
			name:    "minimal",
			adapter: Adapter{ID: "a", Map: Map{FieldBookingDate: Column("Datum"), FieldAmount: Column("Betrag")}},
		},
		{
			name:    "missing id",
			adapter: Adapter{Map: Map{FieldBookingDate: Column("Datum"), FieldAmount: Column("Betrag")}},
			wantErr: true,
		},
		{
			name:    "missing amount",
			adapter: Adapter{ID: "a", Map: Map{FieldBookingDate: Column("Datum")}},
			wantErr: true,
		},
		{
			name: "half credit debit",
			adapter: Adapter{ID: "a", Map: Map{
				FieldBookingDate: Column("Datum"),
				FieldAmount:      CreditDebit{CreditCol: "Haben"},
			}},
			wantErr: true,
		},
		{
			name: "british rule locale",
			adapter: Adapter{ID: "a", Map: Map{
				FieldBookingDate: Column("Date"),
				FieldAmount:      CreditDebit{CreditCol: "In", DebitCol: "Out", Locale: "en-GB"},
			}},
		},
		{
			name: "unsupported rule locale",
			adapter: Adapter{ID: "a", Map: Map{
				FieldBookingDate: Column("Date"),
				FieldAmount:      LocaleNumber{Col: "Amount", Locale: "ja-JP"},
			}},
			wantErr: true,
		},
		{
			name: "unsupported meta locale",
			adapter: Adapter{
				ID:   "a",
				Map:  Map{FieldBookingDate: Column("Datum"), FieldAmount: Column("Betrag")},
				Meta: &Meta{Locale: "zh-CN"},
			},
			wantErr: true,
		},
		{
			name: "unknown field",
			adapter: Adapter{ID: "a", Map: Map{
				FieldBookingDate: Column("Datum"),
				FieldAmount:      Column("Betrag"),
				Field("balance"): Column("Saldo"),
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adapter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}
