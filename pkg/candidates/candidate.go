package candidates

import "strings"

// Kind identifies where a candidate name came from. The scorer weighs kinds
// by how trustworthy their text tends to be.
type Kind string

const (
	KindMetadata         Kind = "metadata"
	KindTextExtract      Kind = "text_extract"
	KindPdfBody          Kind = "pdf_body"
	KindOcrImage         Kind = "ocr_image"
	KindOcrVideo         Kind = "ocr_video"
	KindDirectoryContext Kind = "directory_context"
	KindFilenameStem     Kind = "filename_stem"
	KindKeyPhrase        Kind = "key_phrase"
)

// Source is a candidate's provenance. Language is only set for OCR kinds and
// records which recognition language produced the text.
type Source struct {
	Kind     Kind
	Language string
}

// reliability weights are fixed policy: author-provided metadata beats
// extracted body text beats OCR.
var reliabilities = map[Kind]float64{
	KindMetadata:         3.0,
	KindTextExtract:      2.5,
	KindPdfBody:          2.0,
	KindKeyPhrase:        2.0,
	KindDirectoryContext: 1.8,
	KindFilenameStem:     1.5,
	KindOcrImage:         1.5,
	KindOcrVideo:         1.2,
}

// Reliability returns the fixed source weight used as an additive scoring
// term and as the first tie-breaker during selection.
func (s Source) Reliability() float64 {
	return reliabilities[s.Kind]
}

// Candidate is a proposed filename fragment with known provenance, not yet
// scored. Candidates are immutable once created.
type Candidate struct {
	Text   string
	Source Source
}

// New builds a candidate, rejecting empty or whitespace-only text.
func New(text string, source Source) (Candidate, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Candidate{}, false
	}
	return Candidate{Text: trimmed, Source: source}, true
}
