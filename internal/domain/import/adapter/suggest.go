package adapter

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SuggestedID identifies adapters drafted by Suggest.
const SuggestedID = "auto_csv_v1"

// Suggestion is a draft adapter for the column-mapping flow.
type Suggestion struct {
	Adapter  Adapter
	Coverage float64  // share of core fields found, 0..1
	Reasons  []string // "field:header" for each pick
}

type fieldHint struct {
	field Field
	names []string // exact names, tried first
	fuzzy []string // fuzzy needles, tried when no exact name exists
}

var fieldHints = []fieldHint{
	{FieldBookingDate, []string{"buchungstag", "buchungsdatum", "date", "completed date", "datum", "posting date", "booking date"}, []string{"buchung", "booking", "posting", "datum", "date"}},
	{FieldValueDate, []string{"valuta", "wertstellung", "valutadatum", "value date"}, []string{"valuta", "wertstell", "value"}},
	{FieldCurrency, []string{"währung", "waehrung", "currency", "currency code", "ccy"}, []string{"währ", "currenc"}},
	{FieldPurpose, []string{"verwendungszweck", "reference", "beschreibung", "description", "payment reference", "vorgang/verwendungszweck"}, []string{"zweck", "beschreib", "descr", "referenc"}},
	{FieldCounterpartName, []string{"auftraggeber/empfänger", "begünstigter/zahlungspflichtiger", "payee", "counterparty", "name", "beneficiary", "merchant", "empfänger"}, []string{"empf", "auftraggeb", "begünst", "payee"}},
	{FieldCounterpartIban, []string{"iban", "account number", "kontonummer"}, []string{"iban"}},
	{FieldCounterpartBic, []string{"bic", "swift"}, []string{"bic", "swift"}},
	{FieldTxType, []string{"buchungstext", "transaction type", "type", "umsatzart"}, []string{"umsatzart", "type"}},
}

var (
	creditNames = []string{"paid in (eur)", "paid in", "credit amount", "haben", "gutschrift", "eingang"}
	debitNames  = []string{"paid out (eur)", "paid out", "debit amount", "soll", "belastung", "ausgang"}
	amountNames = []string{"betrag (eur)", "betrag", "amount", "umsatz (eur)", "umsatz in eur", "umsatz", "amount (eur)"}
	commaCents  = regexp.MustCompile(`,\d{1,2}-?$`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9äöüß/]+`)
)

// Suggest drafts an adapter from header names and the first data row. The
// number locale guessed from that row goes to Meta so a caller with more
// rows can refine it.
func Suggest(headers []string, sample map[string]string) Suggestion {
	s := Suggestion{Adapter: Adapter{ID: SuggestedID, Map: Map{}}}
	taken := make(map[string]bool)

	pick := func(names, needles []string) string {
		if h := pickExact(headers, names, taken); h != "" {
			return h
		}
		return pickFuzzy(headers, needles, taken)
	}

	var core int
	if h := pick(fieldHints[0].names, fieldHints[0].fuzzy); h != "" {
		taken[h] = true
		s.Adapter.Map[FieldBookingDate] = Column(h)
		s.Reasons = append(s.Reasons, "bookingDate:"+h)
		core++
	}

	credit := pickExact(headers, creditNames, taken)
	debit := pickExact(headers, debitNames, taken)
	if credit != "" && debit != "" {
		taken[credit], taken[debit] = true, true
		s.Adapter.Meta = &Meta{Locale: guessLocale(sample[credit] + sample[debit])}
		s.Adapter.Map[FieldAmount] = CreditDebit{CreditCol: credit, DebitCol: debit}
		s.Reasons = append(s.Reasons, "amount:creditDebit("+credit+","+debit+")")
		core++
	} else if h := pick(amountNames, []string{"betrag", "amount", "umsatz"}); h != "" {
		taken[h] = true
		s.Adapter.Meta = &Meta{Locale: guessLocale(sample[h])}
		s.Adapter.Map[FieldAmount] = LocaleNumber{Col: h}
		s.Reasons = append(s.Reasons, "amount:"+h)
		core++
	}

	for _, hint := range fieldHints[1:] {
		h := pick(hint.names, hint.fuzzy)
		if h == "" {
			continue
		}
		taken[h] = true
		s.Adapter.Map[hint.field] = Column(h)
		s.Reasons = append(s.Reasons, string(hint.field)+":"+h)
		switch hint.field {
		case FieldCurrency, FieldPurpose, FieldCounterpartName, FieldTxType:
			core++
		}
	}

	s.Coverage = float64(core) / 6
	if _, ok := s.Adapter.Map[FieldValueDate]; ok {
		s.Coverage += 0.5 / 6
	}
	s.Coverage = min(s.Coverage, 1)

	anyHeader := headers
	if len(anyHeader) > 10 {
		anyHeader = anyHeader[:10]
	}
	s.Adapter.Match.AnyHeader = append([]string(nil), anyHeader...)
	return s
}

func pickExact(headers, names []string, taken map[string]bool) string {
	for _, n := range names {
		want := suggestKey(n)
		for _, h := range headers {
			if !taken[h] && suggestKey(h) == want {
				return h
			}
		}
	}
	return ""
}

// maxFuzzyRank bounds the edit distance of a fuzzy header match.
const maxFuzzyRank = 12

// pickFuzzy returns the untaken header that contains a needle as a
// case- and accent-insensitive subsequence with the lowest rank.
func pickFuzzy(headers, needles []string, taken map[string]bool) string {
	for _, needle := range needles {
		best, bestRank := "", -1
		for _, h := range headers {
			if taken[h] {
				continue
			}
			rank := fuzzy.RankMatchNormalizedFold(needle, h)
			if rank < 0 || rank > maxFuzzyRank {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				best, bestRank = h, rank
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

func guessLocale(v string) string {
	if commaCents.MatchString(strings.TrimSpace(v)) {
		return "de-DE"
	}
	if strings.Contains(v, ".") && !strings.Contains(v, ",") {
		return "en-US"
	}
	return "de-DE"
}

func suggestKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSpace(nonAlnum.ReplaceAllString(s, " "))
}
