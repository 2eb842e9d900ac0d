package bank

import "github.com/FACorreiaa/statement-import/internal/domain/import/adapter"

const dotDate = "02.01.2006"

var deQuirks = Quirks{DecimalSeparator: ',', DateLayout: dotDate, Sign: SignLeading}

// registry order breaks ties between signatures of equal weight.
var registry = []Profile{
	{
		ID:      Comdirect,
		Name:    "comdirect",
		Version: "1",
		Signatures: []Signature{
			{All: []string{"buchungstag", "buchungstext", "umsatz in eur"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungstag", "Buchungsdatum", "Date"},
			adapter.FieldValueDate:       {"Wertstellung", "Valuta", "Wertstellung (Valuta)"},
			adapter.FieldAmount:          {"Umsatz in EUR", "Umsatz (EUR)", "Betrag (EUR)", "Betrag", "Umsatz"},
			adapter.FieldPurpose:         {"Buchungstext", "Verwendungszweck", "Text"},
			adapter.FieldCounterpartName: {"Gegenkonto", "Empfänger", "Name", "Begünstigter/Zahlungspflichtiger"},
			adapter.FieldCounterpartIban: {"IBAN", "Auftragskonto"},
			adapter.FieldCounterpartBic:  {"BIC"},
			adapter.FieldTxType:          {"Vorgang"},
		},
		Quirks: Quirks{DecimalSeparator: ',', DateLayout: dotDate, Sign: SignTrailing},
	},
	{
		ID:      Sparkasse,
		Name:    "Sparkasse",
		Version: "1",
		Signatures: []Signature{
			{All: []string{"auftragskonto", "buchungstag", "valutadatum"}},
			{Any: []string{"valuta", "saldo", "primanota"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungstag", "Buchungsdatum", "Date"},
			adapter.FieldValueDate:       {"Valutadatum", "Valuta", "Wertstellung", "Wertstellung (Valuta)"},
			adapter.FieldAmount:          {"Betrag", "Umsatz", "Betrag (EUR)"},
			adapter.FieldCurrency:        {"Waehrung", "Währung"},
			adapter.FieldPurpose:         {"Verwendungszweck", "Buchungstext", "Text"},
			adapter.FieldCounterpartName: {"Beguenstigter/Zahlungspflichtiger", "Auftraggeber/Empfänger", "Begünstigter/Zahlungspflichtiger", "Empfänger", "Name"},
			adapter.FieldCounterpartIban: {"Kontonummer/IBAN", "IBAN", "Kontonummer"},
			adapter.FieldCounterpartBic:  {"BIC (SWIFT-Code)", "BIC", "BLZ"},
			adapter.FieldTxType:          {"Buchungstext"},
		},
		Quirks: deQuirks,
	},
	{
		ID:      DKB,
		Name:    "DKB",
		Version: "2",
		Signatures: []Signature{
			{
				All:  []string{"buchungstag", "wertstellung", "buchungstext", "betrag"},
				Any:  []string{"buchungsart", "begünstigter", "auftraggeber"},
				None: []string{"umsatzart"},
			},
			{All: []string{"buchungstag", "wertstellung", "verwendungszweck", "betrag (eur)"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungstag", "Buchungsdatum"},
			adapter.FieldValueDate:       {"Wertstellung"},
			adapter.FieldAmount:          {"Betrag (EUR)", "Betrag (€)", "Betrag"},
			adapter.FieldPurpose:         {"Verwendungszweck", "Buchungstext"},
			adapter.FieldCounterpartName: {"Auftraggeber / Begünstigter", "Begünstigter", "Auftraggeber", "Zahlungsempfänger*in", "Zahlungspflichtige*r"},
			adapter.FieldCounterpartIban: {"IBAN", "Kontonummer"},
			adapter.FieldCounterpartBic:  {"BIC", "BLZ"},
			adapter.FieldRawCode:         {"Buchungsart", "Buchungstext"},
			adapter.FieldTxType:          {"Umsatztyp", "Buchungstext"},
		},
		Quirks: deQuirks,
	},
	{
		ID:      ING,
		Name:    "ING",
		Version: "1",
		Signatures: []Signature{
			{All: []string{"buchung", "auftraggeber/empfänger", "währung"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungsdatum", "Buchungstag", "Buchung"},
			adapter.FieldValueDate:       {"Wertstellung", "Valutadatum", "Valuta"},
			adapter.FieldAmount:          {"Betrag", "Betrag (EUR)"},
			adapter.FieldCurrency:        {"Währung"},
			adapter.FieldPurpose:         {"Verwendungszweck", "Text"},
			adapter.FieldCounterpartName: {"Auftraggeber/Empfänger", "Begünstigter/Zahlungspflichtiger", "Name"},
			adapter.FieldTxType:          {"Buchungstext"},
		},
		Quirks: Quirks{
			DecimalSeparator: ',',
			DateLayout:       dotDate,
			Sign:             SignColumns,
			CreditColumn:     "Haben",
			DebitColumn:      "Soll",
		},
	},
	{
		ID:      Commerzbank,
		Name:    "Commerzbank",
		Version: "1",
		Signatures: []Signature{
			{All: []string{"buchungstag", "valuta"}},
			{All: []string{"buchungstag", "umsatzart"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungstag", "Buchungsdatum", "Datum"},
			adapter.FieldValueDate:       {"Valuta", "Wertstellung", "Valutadatum"},
			adapter.FieldAmount:          {"Betrag", "Umsatz", "Betrag (EUR)"},
			adapter.FieldCurrency:        {"Währung"},
			adapter.FieldPurpose:         {"Verwendungszweck", "Buchungstext", "Beschreibung"},
			adapter.FieldCounterpartName: {"Auftraggeber", "Empfänger", "Begünstigter", "Name"},
			adapter.FieldCounterpartIban: {"IBAN", "Gegenkonto IBAN", "IBAN Auftraggeberkonto"},
			adapter.FieldCounterpartBic:  {"BIC", "Gegenkonto BIC"},
			adapter.FieldTxType:          {"Umsatzart"},
		},
		Quirks: deQuirks,
	},
	{
		ID:      DeutscheBank,
		Name:    "Deutsche Bank",
		Version: "1",
		Signatures: []Signature{
			{All: []string{"buchungsdatum", "vorgang"}},
			{Any: []string{"vorgang", "verwendungszweck", "buchungsdatum"}},
		},
		Headers: map[adapter.Field][]string{
			adapter.FieldBookingDate:     {"Buchungstag", "Buchungsdatum", "Date"},
			adapter.FieldValueDate:       {"Wert", "Valutadatum", "Valuta", "Wertstellung"},
			adapter.FieldAmount:          {"Betrag", "Umsatz", "Betrag (EUR)", "Betrag (Eur)", "Soll/Haben"},
			adapter.FieldCurrency:        {"Währung"},
			adapter.FieldPurpose:         {"Verwendungszweck", "Buchungstext", "Text", "Vorgang"},
			adapter.FieldCounterpartName: {"Begünstigter / Auftraggeber", "Auftraggeber", "Empfänger", "Name", "Begünstigter/Zahlungspflichtiger"},
			adapter.FieldCounterpartIban: {"IBAN", "Kontonummer"},
			adapter.FieldCounterpartBic:  {"BIC", "BLZ"},
			adapter.FieldTxType:          {"Umsatzart", "Vorgang"},
		},
		Quirks: deQuirks,
	},
}
