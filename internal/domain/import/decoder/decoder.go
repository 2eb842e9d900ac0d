// Package decoder turns raw statement bytes into text, resolving the
// UTF-8 versus legacy single-byte ambiguity of German bank exports.
package decoder

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding identifies the character set used to decode a buffer.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1252 Encoding = "windows-1252"
	ISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns the text of data and the encoding it was decoded with.
// It never fails: legacy single-byte decoding is total over all byte values.
func Decode(data []byte) (string, Encoding) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) && !bytes.ContainsRune(data, utf8.RuneError) {
		text := string(data)
		if !hasC1Runes(text) {
			return text, UTF8
		}
	}

	return decodeLegacy(data)
}

// hasC1Runes reports whether text decodes to a C1 control character
// (U+0080-U+009F). Valid UTF-8 carrying those is legacy text that was
// transcoded byte by byte, e.g. a Windows-1252 euro sign stored as C2 80.
func hasC1Runes(text string) bool {
	for _, r := range text {
		if r >= 0x80 && r <= 0x9F {
			return true
		}
	}
	return false
}

// hasC1Bytes reports whether data contains a raw byte in 0x80-0x9F, which
// ISO-8859-1 leaves unassigned and Windows-1252 uses for the euro sign and
// typographic quotes.
func hasC1Bytes(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return true
		}
	}
	return false
}

func decodeLegacy(data []byte) (string, Encoding) {
	enc := ISO88591
	cm := charmap.ISO8859_1
	if hasC1Bytes(data) {
		enc = Windows1252
		cm = charmap.Windows1252
	}

	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		// charmap decoders map every byte; keep a byte-wise fallback anyway
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return string(runes), ISO88591
	}
	return string(out), enc
}
