package candidates

import (
	"strings"
	"unicode"
)

// Deny lists for the metadata usefulness predicate. Kept as static tables so
// the filter stays auditable and testable in isolation.
var (
	errorIndicators = []string{
		"error", "exception", "warning", "failed", "cannot",
		"invalid", "undefined", "null", "errno", "traceback",
		"fatal", "critical",
	}

	deviceIndicators = []string{
		"canon", "printer", "scanner", "ipr", "epson", "hp",
		"brother", "xerox", "kyocera", "ricoh", "lexmark",
		"dell", "fujitsu",
	}

	genericIndicators = []string{
		"untitled", "new document", "document1", "image1",
		"noname", "unnamed", "temp", "test", "sample",
		"copy of", "draft",
	}
)

// IsUsefulMetadata decides whether a metadata value is worth proposing as a
// filename. It rejects empty or tiny values, scanner/printer device names,
// generic placeholders, error text, date-only strings, mostly-punctuation
// strings, and strings with excessive character repetition.
func IsUsefulMetadata(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	if len(lower) < 3 {
		return false
	}

	for _, indicator := range errorIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	for _, indicator := range deviceIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	for _, indicator := range genericIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}

	if IsDateOnly(lower) {
		return false
	}

	// Mostly punctuation or symbols.
	alnum := 0
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum < len([]rune(value))/3 {
		return false
	}

	return !hasExcessiveRepetition(lower)
}

// IsDateOnly reports whether a string is nothing but a date pattern
// (YYYY, YYYYMM, YYYYMMDD once separators are stripped).
func IsDateOnly(s string) bool {
	var cleaned []rune
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return false
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	switch len(cleaned) {
	case 4, 6, 8:
		return true
	}
	return false
}

// hasExcessiveRepetition detects runs of more than 3 identical characters,
// which usually means OCR noise rather than a name.
func hasExcessiveRepetition(s string) bool {
	if len(s) < 4 {
		return false
	}

	var prev rune
	count := 0
	for _, r := range s {
		if r == prev {
			count++
			if count > 3 {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}
	return false
}
