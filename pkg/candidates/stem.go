package candidates

import (
	"path/filepath"
	"strings"
	"unicode"
)

// commonPrefixes are camera/device/app prefixes stripped from filename stems
// before analysis. Matching is case-insensitive and repeats until no prefix
// applies, so "Copy_of_Draft_Report" loses both prefixes.
var commonPrefixes = []string{
	"IMG_", "DSC_", "SCAN_", "Screenshot_", "Capture_",
	"VID_", "Screen_Shot_", "Photo_", "Video_",
	"Document_", "Copy_of_", "Draft_", "New_",
	"Untitled_", "image_", "video_", "file_",
}

// MeaningfulStem analyzes the original filename stem and returns the parts
// that could serve as a name, with device prefixes and date/time/version
// tokens removed. Returns ("", false) when nothing meaningful remains.
func MeaningfulStem(path string) (string, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", false
	}

	cleaned := removeCommonPrefixes(stem)

	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})

	meaningful := make([]string, 0, len(parts))
	for _, p := range parts {
		if isMeaningfulPart(p) {
			meaningful = append(meaningful, p)
		}
	}

	switch {
	case len(meaningful) >= 2:
		return strings.Join(meaningful, "_"), true
	case len(meaningful) == 1 && len(meaningful[0]) >= 5:
		return meaningful[0], true
	}
	return "", false
}

func removeCommonPrefixes(name string) string {
	result := name
	for {
		changed := false
		for _, prefix := range commonPrefixes {
			if len(result) >= len(prefix) && strings.EqualFold(result[:len(prefix)], prefix) {
				result = result[len(prefix):]
				changed = true
				break
			}
		}
		if !changed {
			return result
		}
	}
}

func isMeaningfulPart(part string) bool {
	if len(part) < 2 {
		return false
	}
	if isAllDigits(part) {
		return false
	}
	if isDatePart(part) || isTimePart(part) || isVersionPart(part) {
		return false
	}
	for _, r := range part {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func isDatePart(s string) bool {
	var digits []rune
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	switch len(digits) {
	case 4, 6, 8:
		return true
	}
	return false
}

func isTimePart(s string) bool {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if !isAllDigits(cleaned) {
		return false
	}

	// HHMM or HHMMSS, bounded by 23:59:59.
	if len(cleaned) == 4 || len(cleaned) == 6 {
		n := 0
		for _, r := range cleaned {
			n = n*10 + int(r-'0')
		}
		return n < 240000
	}
	return false
}

func isVersionPart(s string) bool {
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "v") && isAllDigits(lower[1:]) {
		return true
	}
	if strings.HasPrefix(lower, "final") {
		return true
	}
	if rest, ok := strings.CutPrefix(lower, "rev"); ok {
		return rest == "" || isAllDigits(rest)
	}
	if rest, ok := strings.CutPrefix(lower, "copy"); ok {
		return rest == "" || isAllDigits(rest)
	}
	return false
}
