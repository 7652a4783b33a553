package nodeui

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextSize bounds the bytes a text control accepts.
const MaxTextSize = 64 << 10

// cleanText rejects oversized or invalid UTF-8 input and drops control
// characters other than newline, tab and carriage return.
func cleanText(s string) (string, error) {
	if len(s) > MaxTextSize {
		return "", fmt.Errorf("text is %d bytes, limit is %d: %w", len(s), MaxTextSize, ErrInvalidValue)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("text is not valid UTF-8: %w", ErrInvalidValue)
	}
	if strings.IndexFunc(s, unsafeControl) < 0 {
		return s, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, s), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
