package categorization

// Merchant maps a literal name to a category. Names are compared after
// Normalize.
type Merchant struct {
	Name     string
	Category Category
}

// DefaultMerchants is checked in order; more specific names come first.
var DefaultMerchants = []Merchant{
	// groceries
	{"rewe", Groceries},
	{"edeka", Groceries},
	{"aldi", Groceries},
	{"lidl", Groceries},
	{"netto marken-discount", Groceries},
	{"netto", Groceries},
	{"penny", Groceries},
	{"kaufland", Groceries},
	{"norma", Groceries},
	{"tegut", Groceries},
	{"globus", Groceries},
	{"alnatura", Groceries},

	// subscriptions before the shops that sell them
	{"amazon prime", Subscriptions},
	{"netflix", Subscriptions},
	{"spotify", Subscriptions},
	{"disney plus", Subscriptions},
	{"audible", Subscriptions},
	{"youtube premium", Subscriptions},
	{"dazn", Subscriptions},
	{"apple.com/bill", Subscriptions},

	// shopping
	{"amazon", Shopping},
	{"zalando", Shopping},
	{"ikea", Shopping},
	{"mediamarkt", Shopping},
	{"saturn", Shopping},
	{"otto versand", Shopping},
	{"dm drogerie", Shopping},
	{"dm-drogerie", Shopping},
	{"rossmann", Shopping},
	{"müller drogerie", Shopping},
	{"douglas", Shopping},
	{"tchibo", Shopping},

	// dining
	{"lieferando", Dining},
	{"mcdonalds", Dining},
	{"mc donalds", Dining},
	{"burger king", Dining},
	{"starbucks", Dining},
	{"vapiano", Dining},

	// transport
	{"deutsche bahn", Transport},
	{"db vertrieb", Transport},
	{"flixbus", Transport},
	{"bvg", Transport},
	{"mvg", Transport},
	{"hvv", Transport},
	{"free now", Transport},
	{"uber", Transport},
	{"aral", Transport},
	{"shell", Transport},
	{"esso", Transport},
	{"jet tankstelle", Transport},

	// utilities
	{"telekom", Utilities},
	{"vodafone", Utilities},
	{"telefonica", Utilities},
	{"1&1", Utilities},
	{"vattenfall", Utilities},
	{"stadtwerke", Utilities},
	{"e.on", Utilities},

	// health
	{"docmorris", Health},
	{"shop apotheke", Health},
	{"techniker krankenkasse", Health},

	// insurance
	{"allianz", Insurance},
	{"huk-coburg", Insurance},
	{"ergo versicherung", Insurance},
	{"debeka", Insurance},

	// travel
	{"lufthansa", Travel},
	{"eurowings", Travel},
	{"ryanair", Travel},
	{"booking.com", Travel},
	{"airbnb", Travel},

	// entertainment
	{"eventim", Entertainment},
	{"cinemaxx", Entertainment},
	{"steam games", Entertainment},

	// transfers
	{"paypal", Transfers},
}
