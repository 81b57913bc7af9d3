package fic

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const labelLength = 16

const (
	charsetEBULatin = 0x00
	charsetUCS2     = 0x06
	charsetUTF8     = 0x0F
)

// decodeLabel converts a 16-byte label field to a trimmed string.
func decodeLabel(raw []byte, charset byte) string {
	var text string
	switch charset {
	case charsetUTF8:
		text = strings.ToValidUTF8(string(raw), "")
	case charsetUCS2:
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return ""
		}
		text = string(decoded)
	default:
		// The EBU Latin repertoire matches ASCII in the printable range;
		// the upper half is approximated by Latin-1.
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return ""
		}
		text = string(decoded)
	}
	text = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || r < 0x20 {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
