package adapter

// Builtin IDs.
const (
	GenericDEID = "generic_de"
	N26ID       = "n26_en"
)

// Builtins returns the adapters shipped with the system, in priority order.
func Builtins() []Adapter {
	return []Adapter{
		{
			ID: N26ID,
			Match: Match{
				AllHeaders:       []string{"Date", "Amount (EUR)"},
				FilenameIncludes: []string{"n26"},
			},
			Map: Map{
				FieldBookingDate:     Column("Date"),
				FieldValueDate:       Column("Value Date"),
				FieldAmount:          LocaleNumber{Col: "Amount (EUR)", Locale: "en-US"},
				FieldCounterpartName: Column("Payee"),
				FieldCounterpartIban: Column("Account number"),
				FieldPurpose:         Column("Payment reference"),
				FieldTxType:          Column("Transaction type"),
			},
			Meta: &Meta{Bank: "N26", Country: "DE", Locale: "en-US"},
		},
		{
			ID: GenericDEID,
			Match: Match{
				AnyHeader: []string{"Buchungstag", "Buchungsdatum", "Valuta", "Datum"},
			},
			Map: Map{
				FieldBookingDate:     Fallback{"Buchungstag", "Buchungsdatum", "Valuta", "Booking Date", "Datum"},
				FieldValueDate:       Fallback{"Wertstellung", "Valutadatum", "Valuta"},
				FieldAmount:          Fallback{"Betrag", "Betrag (EUR)", "Umsatz", "Amount"},
				FieldCurrency:        Fallback{"Währung", "Waehrung", "Currency"},
				FieldCounterpartName: Fallback{"Auftraggeber/Empfänger", "Begünstigter/Zahlungspflichtiger", "Empfänger", "Auftraggeber", "Name"},
				FieldCounterpartIban: Fallback{"IBAN", "Kontonummer/IBAN", "Kontonummer"},
				FieldCounterpartBic:  Fallback{"BIC", "BIC (SWIFT-Code)"},
				FieldPurpose:         Fallback{"Verwendungszweck", "Beschreibung", "Buchungstext", "Purpose"},
				FieldTxType:          Fallback{"Buchungstext", "Umsatzart", "Vorgang"},
			},
			Meta: &Meta{Country: "DE", Locale: "de-DE"},
		},
	}
}

// BuiltinCandidates wraps Builtins for Choose.
func BuiltinCandidates() []Candidate {
	builtins := Builtins()
	out := make([]Candidate, len(builtins))
	for i, a := range builtins {
		out[i] = Candidate{Adapter: a, Builtin: true}
	}
	return out
}
