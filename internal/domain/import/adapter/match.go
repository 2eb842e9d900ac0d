package adapter

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Candidate is an adapter offered for matching. UpdatedAt breaks ties
// between equally specific adapters, newest first; built-ins leave it zero.
type Candidate struct {
	Adapter   Adapter
	UpdatedAt time.Time
	Builtin   bool
}

// Score returns how many declared match criteria the file satisfies.
// Headers compare case- and accent-insensitively by substring.
func (m Match) Score(headers []string, filename string) int {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldHeader(h)
	}
	contains := func(want string) bool {
		w := foldHeader(want)
		if w == "" {
			return false
		}
		for _, h := range folded {
			if strings.Contains(h, w) {
				return true
			}
		}
		return false
	}

	score := 0
	if len(m.AnyHeader) > 0 {
		for _, h := range m.AnyHeader {
			if contains(h) {
				score++
				break
			}
		}
	}
	if len(m.AllHeaders) > 0 {
		all := true
		for _, h := range m.AllHeaders {
			if !contains(h) {
				all = false
				break
			}
		}
		if all {
			score++
		}
	}
	if len(m.FilenameIncludes) > 0 && filename != "" {
		name := strings.ToLower(filename)
		for _, part := range m.FilenameIncludes {
			if part != "" && strings.Contains(name, strings.ToLower(part)) {
				score++
				break
			}
		}
	}
	return score
}

// Choose returns the candidate satisfying the most criteria. Ties go to the
// most recently updated candidate, then to list order. ok is false when no
// candidate satisfies any criterion.
func Choose(candidates []Candidate, headers []string, filename string) (Candidate, bool) {
	var (
		best      Candidate
		bestScore int
	)
	for _, c := range candidates {
		score := c.Adapter.Match.Score(headers, filename)
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && c.UpdatedAt.After(best.UpdatedAt)) {
			best, bestScore = c, score
		}
	}
	return best, bestScore > 0
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// foldHeader lowercases, trims and removes combining marks.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
