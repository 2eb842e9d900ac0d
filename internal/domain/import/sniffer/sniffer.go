// Package sniffer finds the real table inside a decoded bank export.
// It skips letterhead preambles, votes on the delimiter, locates the header
// row and zips every following line into a RawRow.
package sniffer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// DefaultLookahead is how many lines are searched for the header row.
const DefaultLookahead = 50

// minHeaderCells is the smallest number of cells a header row may have.
const minHeaderCells = 3

// voteLines bounds how many table-like lines take part in the delimiter vote.
const voteLines = 12

var candidateDelimiters = []rune{';', ',', '\t'}

// headerHints are lowercase tokens that mark a line as a likely header row.
var headerHints = []string{
	// German
	"buchungstag", "buchungsdatum", "wertstellung", "valuta", "betrag", "umsatz",
	"verwendungszweck", "buchungstext", "auftraggeber", "empfänger", "begünstigter",
	"name", "iban", "bic", "währung",
	// English
	"date", "amount", "payee", "description", "currency",
}

var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrNoHeaderFound = errors.New("no delimited header row found")
)

// RawRow maps an original header, as it appeared in the file, to its cell.
type RawRow map[string]string

// Table is the scanned tabular content of a statement.
type Table struct {
	Headers   []string
	Rows      []RawRow
	Records   [][]string // cells aligned with Headers, padded or truncated
	Delimiter rune
	SkipLines int // lines before the header row
}

// ScanOptions overrides parts of the detection.
type ScanOptions struct {
	// Lookahead bounds the header search window. Zero means DefaultLookahead.
	Lookahead int
	// Delimiter forces the field delimiter when non-zero.
	Delimiter rune
	// HeaderLine forces the 1-based line of the header row. Zero auto-detects.
	HeaderLine int
}

// Scan detects delimiter and header row in text and returns the table.
func Scan(text string) (*Table, error) {
	return ScanWithOptions(text, nil)
}

// ScanWithOptions is Scan with optional overrides.
func ScanWithOptions(text string, opts *ScanOptions) (*Table, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	lookahead := DefaultLookahead
	if opts != nil && opts.Lookahead > 0 {
		lookahead = opts.Lookahead
	}

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	window := lines
	if len(window) > lookahead {
		window = window[:lookahead]
	}

	delimiter, width := voteDelimiter(window)
	if opts != nil && opts.Delimiter != 0 {
		delimiter = opts.Delimiter
		width = modalWidth(window, delimiter)
	}
	if delimiter == 0 {
		return nil, ErrNoHeaderFound
	}

	var headerIdx int
	if opts != nil && opts.HeaderLine > 0 {
		headerIdx = opts.HeaderLine - 1
		if headerIdx >= len(lines) || countCells(lines[headerIdx], delimiter) < minHeaderCells {
			return nil, ErrNoHeaderFound
		}
	} else {
		headerIdx = findHeaderRow(window, delimiter, width)
	}
	if headerIdx < 0 {
		return nil, ErrNoHeaderFound
	}

	records := readRecords(strings.Join(lines[headerIdx:], "\n"), delimiter)
	if len(records) == 0 {
		return nil, ErrNoHeaderFound
	}

	headers := records[0]
	table := &Table{
		Headers:   headers,
		Delimiter: delimiter,
		SkipLines: headerIdx,
	}
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		cells := fitRecord(rec, len(headers))
		table.Records = append(table.Records, cells)
		table.Rows = append(table.Rows, zip(headers, cells))
	}
	return table, nil
}

// SampleRows returns up to n aligned records for previews.
func (t *Table) SampleRows(n int) [][]string {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = append([]string(nil), t.Records[i]...)
	}
	return out
}

// voteDelimiter picks the candidate whose most common cell count repeats on
// the most lines. It returns that count as the table width.
func voteDelimiter(lines []string) (rune, int) {
	var (
		best      rune
		bestScore int
		bestWidth int
	)
	for _, d := range candidateDelimiters {
		width, score := modalCount(lines, d)
		if width < minHeaderCells {
			continue
		}
		if score > bestScore || (score == bestScore && width > bestWidth) {
			best, bestScore, bestWidth = d, score, width
		}
	}
	return best, bestWidth
}

func modalWidth(lines []string, d rune) int {
	width, _ := modalCount(lines, d)
	return width
}

// modalCount returns the most frequent cell count among the first voteLines
// lines that split into at least minHeaderCells cells, and how many lines
// share it. Ties go to the narrower count so ragged rows cannot outvote the
// header.
func modalCount(lines []string, d rune) (int, int) {
	freq := make(map[int]int)
	seen := 0
	for _, line := range lines {
		if seen == voteLines {
			break
		}
		n := countCells(line, d)
		if n < minHeaderCells {
			continue
		}
		freq[n]++
		seen++
	}
	width, score := 0, 0
	for n, c := range freq {
		if c > score || (c == score && n < width) {
			width, score = n, c
		}
	}
	return width, score
}

// findHeaderRow returns the first line carrying header hints that is about
// as wide as the table (one trailing delimiter on data rows is tolerated),
// else the first line that is at least as wide as the table.
func findHeaderRow(lines []string, d rune, width int) int {
	width = max(width, minHeaderCells)
	fallback := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := countCells(line, d)
		if n < minHeaderCells {
			continue
		}
		if n >= width-1 && hintScore(line) >= 2 {
			return i
		}
		if n >= width && fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

func hintScore(line string) int {
	lower := strings.ToLower(line)
	score := 0
	for _, h := range headerHints {
		if strings.Contains(lower, h) {
			score++
		}
	}
	return score
}

// countCells counts the fields of a single line, honoring quotes.
func countCells(line string, d rune) int {
	if strings.TrimSpace(line) == "" {
		return 0
	}
	r := newReader(strings.NewReader(line), d)
	rec, err := r.Read()
	if err != nil {
		return strings.Count(line, string(d)) + 1
	}
	return len(rec)
}

func readRecords(text string, d rune) [][]string {
	r := newReader(strings.NewReader(text), d)
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func newReader(r io.Reader, d rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = d
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fitRecord pads short records with empty cells and drops extra trailing ones.
func fitRecord(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}

func zip(headers, cells []string) RawRow {
	row := make(RawRow, len(headers))
	for i, h := range headers {
		if _, dup := row[h]; dup {
			continue
		}
		row[h] = cells[i]
	}
	return row
}
