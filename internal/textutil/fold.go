package textutil

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics strips combining marks after canonical decomposition so
// "Beyoncé" and "Beyonce" compare equal. Input that fails to transform is
// returned unchanged.
func FoldDiacritics(value string) string {
	if value == "" {
		return value
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
