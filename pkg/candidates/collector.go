package candidates

import (
	"unicode/utf8"

	"github.com/securityronin/nameback/pkg/detector"
	"github.com/securityronin/nameback/pkg/keyphrase"
)

// Metadata is the subset of extracted metadata fields the collector considers
// as name candidates.
type Metadata struct {
	Title            string
	Artist           string
	Album            string
	DateTimeOriginal string
	Description      string
	Subject          string
	Author           string
	CreationDate     string
}

// Content is a free-text blob produced by a content collaborator (PDF body,
// OCR pass, plain-text excerpt) along with its provenance.
type Content struct {
	Text   string
	Source Source
}

// directUseLimit is the character count below which content text is used
// as-is instead of being reduced by the key-phrase extractor.
const directUseLimit = 150

type metadataField struct {
	name string
	get  func(Metadata) string
}

// categoryFields defines, per file category, which metadata fields are even
// attempted and in what priority order.
var categoryFields = map[detector.Category][]metadataField{
	detector.CategoryImage: {
		{"title", func(m Metadata) string { return m.Title }},
		{"description", func(m Metadata) string { return m.Description }},
		{"date_time_original", func(m Metadata) string { return m.DateTimeOriginal }},
	},
	detector.CategoryDocument: {
		{"title", func(m Metadata) string { return m.Title }},
		{"subject", func(m Metadata) string { return m.Subject }},
		{"author", func(m Metadata) string { return m.Author }},
	},
	detector.CategoryAudio: {
		{"title", func(m Metadata) string { return m.Title }},
		{"artist", func(m Metadata) string { return m.Artist }},
		{"album", func(m Metadata) string { return m.Album }},
	},
	detector.CategoryVideo: {
		{"title", func(m Metadata) string { return m.Title }},
		{"creation_date", func(m Metadata) string { return m.CreationDate }},
	},
	detector.CategoryWeb: {
		{"title", func(m Metadata) string { return m.Title }},
	},
	detector.CategoryEmail: {
		{"subject", func(m Metadata) string { return m.Subject }},
		{"title", func(m Metadata) string { return m.Title }},
	},
	detector.CategorySourceCode: {
		{"title", func(m Metadata) string { return m.Title }},
	},
	detector.CategoryArchive: {
		{"title", func(m Metadata) string { return m.Title }},
	},
}

// Collect gathers every candidate for a file in deterministic order: metadata
// fields first (per-category priority), then content-derived candidates in
// the order their collaborators ran, then the filename stem, then directory
// context. Long content is reduced to a key phrase before becoming a
// candidate. The result can be empty; the caller maps that to a skip, never
// an error.
func Collect(category detector.Category, meta Metadata, contents []Content, path string) []Candidate {
	var out []Candidate

	for _, field := range categoryFields[category] {
		value := field.get(meta)
		if !IsUsefulMetadata(value) {
			continue
		}
		if c, ok := New(value, Source{Kind: KindMetadata}); ok {
			out = append(out, c)
		}
	}

	for _, content := range contents {
		text := content.Text
		source := content.Source
		if utf8.RuneCountInString(text) >= directUseLimit {
			text = keyphrase.Extract(text, keyphrase.DefaultMaxPhrases)
			source = Source{Kind: KindKeyPhrase, Language: content.Source.Language}
		}
		if c, ok := New(text, source); ok {
			out = append(out, c)
		}
	}

	if stem, ok := MeaningfulStem(path); ok {
		if c, ok := New(stem, Source{Kind: KindFilenameStem}); ok {
			out = append(out, c)
		}
	}

	if context, ok := DirectoryContext(path); ok {
		if c, ok := New(context, Source{Kind: KindDirectoryContext}); ok {
			out = append(out, c)
		}
	}

	return out
}
