package candidates

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// genericDirNames are directory names too generic to contribute naming
// context (user folders, temp/work dirs, build output, etc.).
var genericDirNames = map[string]struct{}{
	"documents": {}, "downloads": {}, "desktop": {}, "pictures": {}, "videos": {},
	"music": {}, "photos": {}, "files": {}, "mydocuments": {},
	"tmp": {}, "temp": {}, "temporary": {}, "cache": {}, "data": {},
	"misc": {}, "miscellaneous": {}, "other": {}, "stuff": {}, "things": {},
	"new": {}, "old": {}, "archive": {}, "backup": {},
	"src": {}, "lib": {}, "bin": {}, "build": {}, "dist": {}, "output": {},
}

// DirectoryContext derives a candidate from the parent (and grandparent)
// directory names, skipping generic ones. Returns ("", false) when no
// meaningful context exists.
func DirectoryContext(path string) (string, bool) {
	parent := filepath.Dir(path)
	parentName := filepath.Base(parent)
	if parentName == "." || parentName == string(filepath.Separator) {
		return "", false
	}

	var parts []string
	if !isGenericDirName(parentName) {
		parts = append(parts, parentName)
	}

	grandparent := filepath.Dir(parent)
	gpName := filepath.Base(grandparent)
	if gpName != "." && gpName != string(filepath.Separator) &&
		gpName != parentName && !isGenericDirName(gpName) {
		parts = append([]string{gpName}, parts...)
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "_"), true
}

func isGenericDirName(name string) bool {
	lower := strings.ToLower(name)

	if _, ok := genericDirNames[lower]; ok {
		return true
	}

	// Bare years and months are too broad to identify content.
	if len(lower) == 4 && allDigits(lower) {
		if year, err := strconv.Atoi(lower); err == nil && year >= 1900 && year <= 2100 {
			return true
		}
	}
	if len(lower) == 2 && allDigits(lower) {
		if month, err := strconv.Atoi(lower); err == nil && month >= 1 && month <= 12 {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
