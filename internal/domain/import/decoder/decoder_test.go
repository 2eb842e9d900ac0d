package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		want     string
		encoding Encoding
	}{
		{
			name:     "plain ascii",
			input:    []byte("Buchungstag;Betrag"),
			want:     "Buchungstag;Betrag",
			encoding: UTF8,
		},
		{
			name:     "utf-8 with umlauts and sharp s",
			input:    []byte("Empfänger;Straße;Überweisung"),
			want:     "Empfänger;Straße;Überweisung",
			encoding: UTF8,
		},
		{
			name:     "utf-8 bom is stripped",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("Datum;Betrag")...),
			want:     "Datum;Betrag",
			encoding: UTF8,
		},
		{
			name:     "latin-1 umlaut",
			input:    []byte{'E', 'm', 'p', 'f', 0xE4, 'n', 'g', 'e', 'r'},
			want:     "Empfänger",
			encoding: ISO88591,
		},
		{
			name:     "windows-1252 euro sign",
			input:    []byte{'1', '2', ',', '5', '0', ' ', 0x80, ';', 'W', 0xE4, 'h', 'r', 'u', 'n', 'g'},
			want:     "12,50 €;Währung",
			encoding: Windows1252,
		},
		{
			name:     "utf-8 carrying c1 controls is treated as legacy",
			input:    []byte{'5', ' ', 0xC2, 0x80},
			want:     "5 Â€",
			encoding: Windows1252,
		},
		{
			name:     "empty input",
			input:    nil,
			want:     "",
			encoding: UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc := Decode(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.encoding, enc)
		})
	}
}

func TestDecode_NeverFails(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}

	text, enc := Decode(all)
	assert.Equal(t, Windows1252, enc)
	assert.NotEmpty(t, text)
}
