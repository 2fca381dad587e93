// Package encoding normalizes the names that end up in files and file paths.
package encoding

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns s as trimmed NFC text. Invalid UTF-8 bytes become U+FFFD.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

// FileName turns a display name into a single path element. Path
// separators, reserved punctuation and control characters become '_'.
// An empty result is replaced by fallback.
func FileName(name, fallback string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, Normalize(name))

	clean = strings.Trim(clean, ". ")
	if clean == "" {
		return fallback
	}
	return clean
}

// Token joins the words of name with '_' so it survives whitespace
// separated formats.
func Token(name, fallback string) string {
	fields := strings.Fields(Normalize(name))
	if len(fields) == 0 {
		return fallback
	}
	return strings.Join(fields, "_")
}
