package urllist

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts file content to UTF-8. A byte-order mark wins, valid
// UTF-8 is kept as is, and anything else is decoded with the named fallback
// encoding (for example "windows-1258"), or a detected legacy code page when
// fallback is empty.
func DecodeText(data []byte, fallback string) (string, error) {
	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("decode unicode text: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	var enc encoding.Encoding
	if fallback != "" {
		if enc, _ = charset.Lookup(fallback); enc == nil {
			return "", fmt.Errorf("unknown text encoding %q", fallback)
		}
	} else {
		enc, _, _ = charset.DetermineEncoding(data, "text/plain")
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode legacy text: %w", err)
	}
	return string(out), nil
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
}
