// Package normalize turns arbitrary spreadsheet headers and cell text into
// stable canonical forms: slugs for column keys, folded text for search.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Header converts an original column header into its canonical key:
// accents stripped, lowercased, every run of characters outside [a-z0-9_]
// collapsed to a single underscore, no leading or trailing underscore.
// It is total and idempotent; an empty input yields an empty key and the
// caller assigns a positional placeholder.
func Header(s string) string {
	ascii, _, err := transform.String(stripAccents, s)
	if err != nil {
		// The chain only fails on invalid UTF-8; keep the raw bytes and let
		// the rune sweep below discard them.
		ascii = s
	}
	ascii = strings.ToLower(ascii)

	var b strings.Builder
	b.Grow(len(ascii))
	lastUnderscore := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			// '_' and every other separator collapse together, so "a__b"
			// and "a _ b" normalize identically.
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Fold lowercases and strips accents without slugging, for
// locale-independent substring search ("Produção" matches "producao").
func Fold(s string) string {
	folded, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}
