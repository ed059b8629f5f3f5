// Package transcript normalizes recognized speech into an editable query.
package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options controls transcript normalization.
type Options struct {
	Capitalize bool
}

// Normalize collapses whitespace and optionally upper-cases the first letter.
//
// Leading opening marks (¿, ¡, quotes, brackets) are kept and skipped over
// when looking for the first letter.
func Normalize(text string, opts Options) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" || !opts.Capitalize {
		return normalized
	}
	return capitalizeFirstLetter(normalized)
}

func capitalizeFirstLetter(text string) string {
	for i, r := range text {
		if isOpeningMark(r) {
			continue
		}
		if !unicode.IsLetter(r) || unicode.IsUpper(r) {
			return text
		}
		upper := unicode.ToUpper(r)
		return text[:i] + string(upper) + text[i+utf8.RuneLen(r):]
	}
	return text
}

func isOpeningMark(r rune) bool {
	switch r {
	case '¿', '¡', '"', '\'', '«', '“', '‘', '(', '[':
		return true
	default:
		return false
	}
}
