package categorization

import (
	"github.com/cloudflare/ahocorasick"
)

// Engine finds merchant names in normalized text with a single Aho-Corasick
// pass, independent of the number of merchants.
type Engine struct {
	matcher   *ahocorasick.Matcher
	merchants []Merchant // in table order
}

// NewEngine builds the matcher over normalized names. Duplicates keep their
// first entry.
func NewEngine(merchants []Merchant) *Engine {
	e := &Engine{}
	seen := make(map[string]bool, len(merchants))
	patterns := make([][]byte, 0, len(merchants))
	for _, m := range merchants {
		name := Normalize(m.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		e.merchants = append(e.merchants, m)
		patterns = append(patterns, []byte(name))
	}
	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewMatcher(patterns)
	}
	return e
}

// Match returns the earliest table entry contained in normalized, or false.
// Safe for concurrent use.
func (e *Engine) Match(normalized string) (Merchant, bool) {
	if e.matcher == nil || normalized == "" {
		return Merchant{}, false
	}
	hits := e.matcher.MatchThreadSafe([]byte(normalized))
	if len(hits) == 0 {
		return Merchant{}, false
	}
	best := hits[0]
	for _, idx := range hits[1:] {
		if idx < best {
			best = idx
		}
	}
	return e.merchants[best], true
}

// Len returns the number of merchants loaded.
func (e *Engine) Len() int {
	return len(e.merchants)
}
