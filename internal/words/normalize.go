package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for comparison: lowercase, ç→c, and accents stripped.
// Display code keeps the original letters.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ç", "c")

	// transform chains carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeRune folds a single letter the same way as Normalize.
func NormalizeRune(r rune) rune {
	for _, n := range Normalize(string(r)) {
		return n
	}
	return r
}
