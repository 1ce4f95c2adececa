package internal

import (
	"strings"
	"unicode"
)

// maxPrefixRunes bounds the filename prefix derived from a search query
const maxPrefixRunes = 30

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FilenamePrefix turns a search query into the prefix used for downloaded
// files: spaces become underscores, unsafe characters are replaced and the
// result is cut to 30 characters. An empty query yields "image".
func FilenamePrefix(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "image"
	}

	prefix := SanitizeFilename(strings.ReplaceAll(query, " ", "_"))
	runes := []rune(prefix)
	if len(runes) > maxPrefixRunes {
		runes = runes[:maxPrefixRunes]
	}
	return string(runes)
}

// isAlphaNumeric checks if a rune is a letter or digit in any script
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
