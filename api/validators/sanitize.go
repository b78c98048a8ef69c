package validators

import "strings"

// SanitizeString trims input and caps it at maxRunes characters. Product
// codes and payment labels carry accents, so the cut never splits a rune.
func SanitizeString(input string, maxRunes int) string {
	trimmed := strings.TrimSpace(input)
	if maxRunes <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return trimmed
}
