package series

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind is the separator style a numbered group uses.
type Kind string

const (
	KindUnderscore    Kind = "underscore"    // vacation_001
	KindParenthesized Kind = "parenthesized" // vacation (1)
	KindHyphen        Kind = "hyphen"        // vacation-1
	KindSpace         Kind = "space"         // vacation 1
)

// minMembers is the smallest group size that counts as a series. Two files
// sharing a number is coincidence; three is a sequence.
const minMembers = 3

// Pattern is a materialized numbered group within one directory. Immutable
// once detected; the filename generator reads it to re-apply ordinals.
type Pattern struct {
	Prefix     string
	Kind       Kind
	DigitWidth int
	// Members holds original paths in ascending ordinal order.
	Members []string
	// Ordinals maps each member path to its original number.
	Ordinals map[string]int
}

// PadWidth is the zero-padding applied to ordinals when renaming: at least
// 3, wider when the series itself needs more digits.
func (p *Pattern) PadWidth() int {
	max := 0
	for _, n := range p.Ordinals {
		if n > max {
			max = n
		}
	}
	digits := len(strconv.Itoa(max))
	if digits < 3 {
		return 3
	}
	return digits
}

// FormatOrdinal renders a member's ordinal suffix in the series' own
// separator style, zero-padded to the series pad width. The separator is part
// of the suffix so the generator can append it verbatim.
func (p *Pattern) FormatOrdinal(path string) (string, bool) {
	n, ok := p.Ordinals[path]
	if !ok {
		return "", false
	}
	num := fmt.Sprintf("%0*d", p.PadWidth(), n)
	switch p.Kind {
	case KindParenthesized:
		return "(" + num + ")", true
	case KindHyphen:
		return "-" + num, true
	case KindSpace:
		return " " + num, true
	default:
		return "_" + num, true
	}
}

type matcher struct {
	kind Kind
	re   *regexp.Regexp
}

// Ordered by separator strength; a stem matching several classes is resolved
// per file by longest numeric group, then by group population.
var matchers = []matcher{
	{KindUnderscore, regexp.MustCompile(`^(.+?)_(\d+)$`)},
	{KindParenthesized, regexp.MustCompile(`^(.+?)\s*\((\d+)\)$`)},
	{KindHyphen, regexp.MustCompile(`^(.+?)-(\d+)$`)},
	{KindSpace, regexp.MustCompile(`^(.+?)\s+(\d+)$`)},
}

type match struct {
	path    string
	prefix  string
	kind    Kind
	width   int
	ordinal int
}

type groupKey struct {
	prefix string
	kind   Kind
	width  int
}

// Detect scans a directory's file list for numbered groups and returns every
// group with at least 3 members. Paths that are not series members simply
// never appear in the result. Detection runs once per directory, before any
// individual rename decision is made.
func Detect(paths []string) []*Pattern {
	// First pass: every pattern-class match for every file, so group sizes
	// are known before per-file disambiguation.
	all := make(map[groupKey][]match)
	perFile := make(map[string][]match)
	for _, path := range paths {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, m := range matchers {
			groups := m.re.FindStringSubmatch(stem)
			if groups == nil {
				continue
			}
			n, err := strconv.Atoi(groups[2])
			if err != nil {
				continue
			}
			mt := match{
				path:    path,
				prefix:  groups[1],
				kind:    m.kind,
				width:   len(groups[2]),
				ordinal: n,
			}
			key := groupKey{mt.prefix, mt.kind, mt.width}
			all[key] = append(all[key], mt)
			perFile[path] = append(perFile[path], mt)
		}
	}

	// Second pass: each file commits to one pattern class. Prefer the longest
	// numeric group, then the class with the most members directory-wide.
	chosen := make(map[groupKey][]match)
	for _, path := range paths {
		ms := perFile[path]
		if len(ms) == 0 {
			continue
		}
		best := ms[0]
		for _, m := range ms[1:] {
			if m.width > best.width {
				best = m
				continue
			}
			if m.width == best.width {
				bKey := groupKey{best.prefix, best.kind, best.width}
				mKey := groupKey{m.prefix, m.kind, m.width}
				if len(all[mKey]) > len(all[bKey]) {
					best = m
				}
			}
		}
		key := groupKey{best.prefix, best.kind, best.width}
		chosen[key] = append(chosen[key], best)
	}

	var out []*Pattern
	for key, ms := range chosen {
		if len(ms) < minMembers {
			continue
		}
		sort.Slice(ms, func(i, j int) bool {
			if ms[i].ordinal != ms[j].ordinal {
				return ms[i].ordinal < ms[j].ordinal
			}
			return ms[i].path < ms[j].path
		})
		p := &Pattern{
			Prefix:     key.prefix,
			Kind:       key.kind,
			DigitWidth: key.width,
			Ordinals:   make(map[string]int, len(ms)),
		}
		for _, m := range ms {
			p.Members = append(p.Members, m.path)
			p.Ordinals[m.path] = m.ordinal
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Prefix != out[j].Prefix {
			return out[i].Prefix < out[j].Prefix
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Lookup builds a path-to-pattern index over detected patterns.
func Lookup(patterns []*Pattern) map[string]*Pattern {
	idx := make(map[string]*Pattern)
	for _, p := range patterns {
		for _, member := range p.Members {
			idx[member] = p
		}
	}
	return idx
}
