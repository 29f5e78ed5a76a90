package namegen

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// maxStemLength bounds the generated stem so the full name stays well under
// filesystem limits even after the extension and a counter suffix.
const maxStemLength = 200

// fallbackStem is used when sanitization eats the entire candidate.
const fallbackStem = "renamed_file"

var (
	illegalChars = regexp.MustCompile(`[/\\:*?"<>|()\[\]]`)
	multiSep     = regexp.MustCompile(`_{2,}`)
)

// Sanitize turns candidate text into a filesystem-safe stem: illegal and
// control characters and whitespace become underscores, separator runs
// collapse, and leading/trailing underscores are trimmed.
func Sanitize(name string) string {
	s := illegalChars.ReplaceAllString(name, "_")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	s = multiSep.ReplaceAllString(b.String(), "_")
	return strings.Trim(s, "_")
}

// Parts is everything that can contribute to a final filename besides the
// winning candidate text. Location and Timestamp are pre-formatted strings.
// Ordinal is the zero-padded series suffix with its separator included; it
// is appended after sanitization so the series' own separator style
// (underscore, parentheses, hyphen, space) survives.
type Parts struct {
	Location  string
	Timestamp string
	Ordinal   string
	Extension string // with leading dot, or empty
}

// Allocator is the directory-scoped uniqueness authority. It is the only
// shared mutable state in the batch, so all access is behind one mutex.
// Pre-seed it with every name already present in the directory before
// generating anything.
type Allocator struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewAllocator() *Allocator {
	return &Allocator{taken: make(map[string]struct{})}
}

// Seed marks names as taken without allocating them to a plan. Call once per
// directory scan with the full existing listing.
func (a *Allocator) Seed(names ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range names {
		a.taken[n] = struct{}{}
	}
}

// Release frees a previously seeded or allocated name, used when a planned
// rename frees its source slot.
func (a *Allocator) Release(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.taken, name)
}

// Claim marks an exact name as taken, reporting whether it was free. Used to
// replay names produced by an earlier run without re-sanitizing them.
func (a *Allocator) Claim(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.taken[name]; exists {
		return false
	}
	a.taken[name] = struct{}{}
	return true
}

// Generate builds the final unique filename for a candidate. Suffix order is
// fixed: stem, location, timestamp, series ordinal, then a numeric counter
// only when needed for uniqueness. The returned name is recorded as taken.
func (a *Allocator) Generate(candidate string, parts Parts) string {
	stem := Sanitize(candidate)

	var extras []string
	if parts.Location != "" {
		extras = append(extras, Sanitize(parts.Location))
	}
	if parts.Timestamp != "" {
		extras = append(extras, Sanitize(parts.Timestamp))
	}
	if len(extras) > 0 {
		stem = stem + "_" + strings.Join(extras, "_")
		stem = strings.Trim(stem, "_")
	}

	stem = truncate(stem, maxStemLength)
	if stem == "" {
		stem = fallbackStem
	}

	if parts.Ordinal != "" {
		stem = stem + parts.Ordinal
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	name := stem + parts.Extension
	for counter := 1; ; counter++ {
		if _, exists := a.taken[name]; !exists {
			break
		}
		name = stem + "_" + strconv.Itoa(counter) + parts.Extension
	}
	a.taken[name] = struct{}{}
	return name
}

// Taken reports whether a name is already seeded or allocated.
func (a *Allocator) Taken(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.taken[name]
	return ok
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
