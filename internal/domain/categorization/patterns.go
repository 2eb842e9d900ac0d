package categorization

import (
	"regexp"
	"strings"
)

// Pattern is a keyword rule evaluated against the original text.
type Pattern struct {
	Category Category
	Regexp   *regexp.Regexp
	Reason   string
}

func pattern(c Category, expr string) Pattern {
	return Pattern{
		Category: c,
		Regexp:   regexp.MustCompile(`(?i)` + expr),
		Reason:   strings.ToLower(string(c)) + " pattern",
	}
}

// DefaultPatterns is evaluated in order; the first match wins.
var DefaultPatterns = []Pattern{
	pattern(Income, `(gehalt|lohn|besoldung|rentenzahlung|steuerrückzahlung|dividende)`),
	pattern(Groceries, `(supermarkt|lebensmittel|einkauf.*lebensmittel|bäckerei|metzgerei|obst|gemüse)`),
	pattern(Dining, `(restaurant|café|cafe|bäckerei.*frühstück|imbiss|fast.?food|pizzeria|döner|kebab)`),
	pattern(Transport, `(tankstelle|benzin|diesel|kraftstoff|ticket|fahrkarte|bahn|zug|bus|ubahn|sbahn|taxi|mietwagen)`),
	pattern(Housing, `(miete|mietzins|hausgeld|nebenkosten|hausverwaltung|immobilien|wohngeld)`),
	pattern(Utilities, `(strom|gas|wasser|heizung|telefon|internet|mobilfunk|vertrag|gebühr.*telekom)`),
	pattern(Health, `(apotheke|arzt|zahnarzt|krankenhaus|krankenversicherung|medikament|rezept)`),
	pattern(Subscriptions, `(abo|subscription|mitgliedschaft|beitrag.*verein|spenden)`),
	pattern(Shopping, `(online.*shop|versand|bestellung|waren|kauf|einkauf)`),
	pattern(Education, `(schule|universität|studium|seminar|kurs|bildung|bücher|buchhandlung)`),
	pattern(Entertainment, `(kino|theater|konzert|musik|spiel|spiele|event|veranstaltung)`),
	pattern(Fees, `(gebühr|entgelt|bearbeitungsgebühr|kartengebühr|kontoführungsgebühr|spesen)`),
	pattern(Insurance, `(versicherung|prämie|beitrag.*versicherung|krankenversicherung|haftpflicht|kasko)`),
	pattern(Taxes, `(steuer|finanzamt|steuerberater|steuerbescheid|vorauszahlung)`),
	pattern(Travel, `(hotel|reise|flug|flughafen|reisebüro|urlaub|ferien|booking|airbnb)`),
	pattern(Gifts, `(geschenk|spende|spenden|spendenaktion)`),
	pattern(Savings, `(sparen|sparbuch|depot|anlage|investment|fonds|sparplan)`),
	pattern(Transfers, `(überweisung|dauerauftrag|lastschrift|transfer|gutschrift|auftrag)`),
}
