package sniffer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// fingerprintSampleSize is how many sample values feed the fingerprint.
const fingerprintSampleSize = 3

type fingerprintShape struct {
	H []string `json:"h"`
	S []string `json:"s"`
}

// Fingerprint hashes a row shape with 32-bit FNV-1a and returns eight
// lowercase hex digits. Headers are trimmed, lowercased and sorted, so header
// order, case and surrounding whitespace do not change the result. Only the
// first three trimmed sample values are used.
func Fingerprint(headers, sampleValues []string) string {
	h := make([]string, len(headers))
	for i, v := range headers {
		h[i] = strings.ToLower(strings.TrimSpace(v))
	}
	sort.Strings(h)

	n := min(len(sampleValues), fingerprintSampleSize)
	s := make([]string, n)
	for i := 0; i < n; i++ {
		s[i] = strings.TrimSpace(sampleValues[i])
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a struct of string slices always encodes
	_ = enc.Encode(fingerprintShape{H: h, S: s})

	hash := fnv.New32a()
	hash.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return fmt.Sprintf("%08x", hash.Sum32())
}

// SampleValues returns the representative values of the first data row,
// ordered by normalized header name so a re-export with reordered columns
// yields the same values.
func (t *Table) SampleValues() []string {
	if len(t.Records) == 0 {
		return nil
	}
	type pair struct{ key, val string }
	pairs := make([]pair, len(t.Headers))
	for i, h := range t.Headers {
		pairs[i] = pair{strings.ToLower(strings.TrimSpace(h)), t.Records[0][i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	out := make([]string, 0, fingerprintSampleSize)
	for _, p := range pairs {
		if len(out) == fingerprintSampleSize {
			break
		}
		out = append(out, strings.TrimSpace(p.val))
	}
	return out
}

// Fingerprint returns the shape hash of the table.
func (t *Table) Fingerprint() string {
	return Fingerprint(t.Headers, t.SampleValues())
}
