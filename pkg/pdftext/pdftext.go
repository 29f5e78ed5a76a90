package pdftext

import (
	"os"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"

	"github.com/securityronin/nameback/pkg/keyphrase"
)

const (
	// maxPages bounds body extraction; titles live on the first pages.
	maxPages = 2
	// maxExcerpt is the longest excerpt returned for direct use as a name.
	maxExcerpt = 80
)

// Reader extracts body text from PDFs using an embedded pdfium runtime, so
// no system poppler/pdftotext install is needed.
type Reader struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewReader starts a single-worker pdfium WebAssembly instance. Callers own
// the reader for the life of the batch and must Close it.
func NewReader() (*Reader, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize pdfium")
	}

	instance, err := pool.GetInstance(30 * time.Second)
	if err != nil {
		pool.Close() //nolint:errcheck
		return nil, errors.Wrap(err, "failed to acquire pdfium instance")
	}

	return &Reader{pool: pool, instance: instance}, nil
}

func (r *Reader) Close() error {
	if r.instance != nil {
		r.instance.Close() //nolint:errcheck
	}
	if r.pool != nil {
		return errors.WithStack(r.pool.Close())
	}
	return nil
}

// BodyExcerpt returns a name-worthy excerpt from the document body: the
// combined opening lines when they look like a title block, otherwise a key
// phrase from the first pages, otherwise a plain truncation. Empty result
// means the document has no usable text layer (scanned PDFs fall back to OCR
// upstream).
func (r *Reader) BodyExcerpt(path string) (string, error) {
	doc, err := r.instance.OpenDocument(&requests.OpenDocument{FilePath: &path})
	if err != nil {
		return "", errors.Wrapf(err, "failed to open pdf: %s", path)
	}
	defer r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document}) //nolint:errcheck

	count, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return "", errors.WithStack(err)
	}

	pages := count.PageCount
	if pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 0; i < pages; i++ {
		text, err := r.instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i},
			},
		})
		if err != nil {
			continue
		}
		b.WriteString(text.Text)
		b.WriteByte('\n')
	}

	return ExcerptFromText(b.String()), nil
}

// ExcerptFromText reduces raw extracted page text to a candidate excerpt.
// Split out from BodyExcerpt so the heuristics are testable without pdfium.
func ExcerptFromText(text string) string {
	if combined := combineTitleLines(text); combined != "" {
		return combined
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > 150 {
		if phrase := keyphrase.Extract(cleaned, keyphrase.DefaultMaxPhrases); phrase != "" {
			return phrase
		}
	}
	if len(cleaned) > 10 {
		if len(cleaned) > maxExcerpt {
			return cleaned[:maxExcerpt]
		}
		return cleaned
	}
	return ""
}

// combineTitleLines builds a title from the document's opening lines: the
// first non-trivial line, extended with following short lines until the
// result is long enough. Long continuation lines are skipped since they tend
// to be subtitles or body text.
func combineTitleLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 3 {
			lines = append(lines, trimmed)
		}
		if len(lines) == 4 {
			break
		}
	}
	if len(lines) == 0 {
		return ""
	}

	combined := lines[0]
	for _, line := range lines[1:] {
		if len(combined) >= 30 {
			break
		}
		if len(line) > 30 {
			continue
		}
		test := combined + " " + line
		if len(test) > maxExcerpt {
			break
		}
		combined = test
	}

	if len(combined) >= 10 {
		return combined
	}
	return ""
}

// Info is the PDF document information dictionary subset used for naming.
type Info struct {
	Title   string
	Author  string
	Subject string
}

// ReadInfo extracts the information dictionary without loading pdfium.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.WithStack(err)
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, model.NewDefaultConfiguration())
	if err != nil {
		return Info{}, errors.Wrapf(err, "failed to read pdf info: %s", path)
	}

	return Info{
		Title:   info.Title,
		Author:  info.Author,
		Subject: info.Subject,
	}, nil
}
