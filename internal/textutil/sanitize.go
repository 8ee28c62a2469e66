package textutil

import "strings"

// unsafePathChars are removed from every generated path segment.
const unsafePathChars = `<>:"/\|?*`

// SanitizeFileName removes filesystem-unsafe characters from a single path
// segment, collapses internal whitespace to one space, and trims surrounding
// spaces and dots. The result may be empty.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafePathChars, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, ". ")
}
