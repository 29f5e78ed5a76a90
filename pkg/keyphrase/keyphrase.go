package keyphrase

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultMaxPhrases bounds how many phrases make it into the result.
	DefaultMaxPhrases = 3
	// maxOutputLength keeps results filename-sized.
	maxOutputLength = 80
	// positionDecay controls how quickly later text loses weight.
	positionDecay = 0.05
	// lengthBonus rewards multi-word phrases.
	lengthBonus = 0.3
)

type ngram struct {
	text  string
	start int // token index of the first word
	words int
	score float64
}

// Extract reduces a long text blob to a short representative phrase. It
// tokenizes the text, drops stop words, scores 1-3 word n-grams by frequency
// and position (earlier text weighs more, since titles and headers come
// first), then joins the top non-overlapping n-grams in their original
// left-to-right order. Returns "" when nothing usable remains.
func Extract(text string, maxPhrases int) string {
	if maxPhrases <= 0 {
		maxPhrases = DefaultMaxPhrases
	}

	words := tokenize(text)
	if len(words) == 0 {
		return ""
	}

	// Accumulate scores per distinct n-gram text; remember the earliest
	// occurrence so selection is deterministic and ties break on first seen.
	scores := map[string]*ngram{}
	idx := 0
	for i := range words {
		for size := 1; size <= 3 && i+size <= len(words); size++ {
			phrase := strings.Join(words[i:i+size], " ")
			positionScore := 1.0 / (1.0 + float64(idx)*positionDecay)
			score := positionScore + float64(size)*lengthBonus

			key := strings.ToLower(phrase)
			if existing, ok := scores[key]; ok {
				existing.score += score
			} else {
				scores[key] = &ngram{text: phrase, start: i, words: size, score: score}
			}
			idx++
		}
	}

	ranked := make([]*ngram, 0, len(scores))
	for _, n := range scores {
		ranked = append(ranked, n)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].start < ranked[j].start
	})

	// Greedily pick the highest scoring n-grams whose token ranges don't
	// overlap an already chosen one.
	var selected []*ngram
	for _, n := range ranked {
		if len(selected) >= maxPhrases {
			break
		}
		overlaps := false
		for _, s := range selected {
			if n.start < s.start+s.words && s.start < n.start+n.words {
				overlaps = true
				break
			}
		}
		if !overlaps {
			selected = append(selected, n)
		}
	}

	// Re-emit in original text order.
	sort.Slice(selected, func(i, j int) bool { return selected[i].start < selected[j].start })

	var b strings.Builder
	for _, n := range selected {
		if b.Len() > 0 && b.Len()+1+len(n.text) > maxOutputLength {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.text)
	}
	return b.String()
}

// tokenize splits on whitespace, trims surrounding punctuation, and drops
// stop words. Original casing is preserved for output.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w == "" || isStopWord(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"can": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"it": {}, "we": {}, "they": {}, "what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {},
	"how": {},
}

func isStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}
