package sniffer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// preferredSheets are sheet names checked before falling back to the first
// non-empty sheet.
var preferredSheets = []string{
	"umsätze", "umsaetze", "kontoumsätze", "transaktionen", "buchungen",
	"transactions", "statement", "sheet1", "tabelle1",
}

// IsWorkbook reports whether data looks like an .xlsx archive.
func IsWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// ScanWorkbook reads the transaction sheet of an .xlsx file and scans it
// like a semicolon-delimited export.
func ScanWorkbook(data []byte, opts *ScanOptions) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, rows, err := transactionSheet(f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to flatten sheet %s: %w", sheet, err)
	}

	scanOpts := ScanOptions{Delimiter: ';'}
	if opts != nil {
		scanOpts.Lookahead = opts.Lookahead
		scanOpts.HeaderLine = opts.HeaderLine
	}
	return ScanWithOptions(buf.String(), &scanOpts)
}

func transactionSheet(f *excelize.File) (string, [][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, ErrEmptyFile
	}

	ordered := make([]string, 0, len(sheets))
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				ordered = append(ordered, sheet)
			}
		}
	}
	ordered = append(ordered, sheets...)

	for _, sheet := range ordered {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) > 0 {
			return sheet, rows, nil
		}
	}
	return "", nil, ErrEmptyFile
}
