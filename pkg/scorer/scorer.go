package scorer

import (
	"strings"
	"unicode"

	"github.com/securityronin/nameback/pkg/candidates"
	"github.com/securityronin/nameback/pkg/config"
)

// Scored pairs a candidate with its computed quality score.
type Scored struct {
	Candidate candidates.Candidate
	Score     float64
}

// Scorer evaluates candidate quality with weights taken from configuration,
// so thresholds and penalties can be tuned without rebuilding.
type Scorer struct {
	cfg config.Scoring
}

func New(cfg config.Scoring) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the additive quality score for a candidate, then applies
// penalty multipliers. Scoring is pure: same candidate, same score.
func (s *Scorer) Score(c candidates.Candidate) float64 {
	name := c.Text
	if name == "" {
		return 0
	}

	score := lengthScore(len(name)) * s.cfg.LengthWeight
	score += c.Source.Reliability()

	words := len(strings.Fields(name))
	if words > s.cfg.WordCap {
		words = s.cfg.WordCap
	}
	score += float64(words) * s.cfg.WordBonus

	score += charDiversity(name) * s.cfg.DiversityWeight

	return s.applyPenalties(name, score)
}

// SelectBest scores every candidate and returns the winner, or ok=false when
// no candidate reaches the acceptance threshold. Ties break on source
// reliability, then on input order, keeping selection deterministic.
func (s *Scorer) SelectBest(list []candidates.Candidate) (Scored, bool) {
	return s.SelectBestWith(list, nil)
}

// SelectBestWith is SelectBest with an optional adjustment step applied after
// the built-in formula. adjust may rescore a candidate or drop it entirely by
// returning ok=false.
func (s *Scorer) SelectBestWith(list []candidates.Candidate, adjust func(Scored) (Scored, bool)) (Scored, bool) {
	var best Scored
	found := false
	for _, c := range list {
		sc := Scored{Candidate: c, Score: s.Score(c)}
		if adjust != nil {
			adjusted, keep := adjust(sc)
			if !keep {
				continue
			}
			sc = adjusted
		}
		if !found || better(sc, best) {
			best = sc
			found = true
		}
	}
	if !found || best.Score < s.cfg.MinAcceptableScore {
		return Scored{}, false
	}
	return best, true
}

func better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Candidate.Source.Reliability() > b.Candidate.Source.Reliability()
}

// lengthScore favors descriptive names in the 20-60 char band; very short
// and very long names degrade.
func lengthScore(n int) float64 {
	switch {
	case n <= 10:
		return 0.2
	case n <= 19:
		return 0.6
	case n <= 60:
		return 1.0
	case n <= 100:
		return 0.7
	default:
		return 0.4
	}
}

// charDiversity is the ratio of distinct characters to total length, which
// punishes OCR garbage like "aaaa" or "1111".
func charDiversity(name string) float64 {
	seen := make(map[rune]struct{}, len(name))
	total := 0
	for _, r := range name {
		seen[r] = struct{}{}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(len(seen)) / float64(total)
}

func (s *Scorer) applyPenalties(name string, score float64) float64 {
	lower := strings.ToLower(name)

	if isDateOnlyPattern(lower) {
		score *= s.cfg.DateOnlyPenalty
	}

	for _, e := range errorWords {
		if strings.Contains(lower, e) {
			score *= s.cfg.ErrorPenalty
			break
		}
	}

	if looksLikeTechnicalID(name) {
		score *= s.cfg.TechnicalIDPenalty
	}

	if looksLikeInstaller(lower) {
		score *= s.cfg.InstallerPenalty
	}

	alpha := 0
	numeric := 0
	total := 0
	for _, r := range name {
		if unicode.IsLetter(r) {
			alpha++
		}
		if unicode.IsDigit(r) {
			numeric++
		}
		total++
	}
	if alpha < 3 || float64(numeric)/float64(total) > 0.7 {
		score *= s.cfg.NumericPenalty
	}

	// Symbol-heavy strings are OCR noise (bars, boxes, stray punctuation).
	if float64(alpha+numeric)/float64(total) < 0.5 {
		score *= s.cfg.SymbolPenalty
	}

	return score
}

var errorWords = []string{
	"error", "exception", "warning", "failed", "cannot",
	"invalid", "traceback",
}

func isDateOnlyPattern(s string) bool {
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

// looksLikeTechnicalID matches UUIDs (8-4-4-4-12) and long hex hashes.
func looksLikeTechnicalID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) == 5 &&
		len(parts[0]) == 8 && len(parts[1]) == 4 && len(parts[2]) == 4 &&
		len(parts[3]) == 4 && len(parts[4]) == 12 {
		return true
	}

	if len(s) >= 32 {
		hex := true
		for _, r := range s {
			if !isHexDigit(r) {
				hex = false
				break
			}
		}
		if hex {
			return true
		}
	}
	return false
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

var (
	installerPlatforms = []string{
		"windows", "win32", "win64", "macos", "osx", "darwin",
		"linux", "ubuntu", "debian", "x86", "x64", "amd64", "arm64",
	}
	installerVendors  = []string{"adobe", "microsoft", "google", "apple", "oracle"}
	installerKeywords = []string{"setup", "install", "installer", "package", "release"}
)

// looksLikeInstaller detects software package filenames by counting
// independent indicators: platform names, decimal version numbers, vendor
// names, recent years, and installer keywords. Three or more means the name
// describes a download, not the user's content.
func looksLikeInstaller(lower string) bool {
	indicators := 0

	for _, p := range installerPlatforms {
		if strings.Contains(lower, p) {
			indicators++
			break
		}
	}

	if strings.Contains(lower, ".") {
		for _, part := range strings.FieldsFunc(lower, func(r rune) bool {
			return r == ' ' || r == '_' || r == '-'
		}) {
			if isDecimalVersion(part) {
				indicators++
				break
			}
		}
	}

	for _, v := range installerVendors {
		if strings.Contains(lower, v) {
			indicators++
			break
		}
	}

	if containsRecentYear(lower) {
		indicators++
	}

	for _, k := range installerKeywords {
		if strings.Contains(lower, k) {
			indicators++
			break
		}
	}

	return indicators >= 3
}

func isDecimalVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func containsRecentYear(s string) bool {
	for i := 0; i+4 <= len(s); i++ {
		if s[i] == '2' && s[i+1] == '0' {
			d3, d4 := s[i+2], s[i+3]
			if d3 < '0' || d3 > '9' || d4 < '0' || d4 > '9' {
				continue
			}
			year := 2000 + int(d3-'0')*10 + int(d4-'0')
			if year >= 2010 && year <= 2030 {
				return true
			}
		}
	}
	return false
}
