package textcontent

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/securityronin/nameback/pkg/htmlutil"
	"github.com/securityronin/nameback/pkg/keyphrase"
)

// maxOutput is the longest excerpt returned for direct use as a name.
const maxOutput = 80

// Extract pulls a name-worthy excerpt out of a text-based file, dispatching
// on extension. Returns ("", nil) when the file has nothing usable.
func Extract(path string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "md", "markdown":
		return fromMarkdown(path)
	case "csv":
		return fromCSV(path)
	case "json":
		return fromJSON(path)
	case "yaml", "yml":
		return fromYAML(path)
	case "html", "htm", "xhtml":
		return fromHTML(path)
	case "go", "py", "rs", "js", "ts", "c", "cc", "cpp", "h", "hpp", "java", "rb", "sh", "pl", "swift", "kt":
		return fromSourceCode(path)
	default:
		return fromPlainText(path)
	}
}

// fromHTML prefers the document title; otherwise the stripped body text runs
// through the plain-text reduction.
func fromHTML(path string) (string, error) {
	raw, err := readHead(path, 16*1024)
	if err != nil {
		return "", err
	}

	if title := htmlutil.Title(string(raw)); len(title) > 3 {
		return truncate(cleanText(title), maxOutput), nil
	}

	text := cleanText(htmlutil.StripTags(string(raw)))
	if len(text) <= 10 {
		return "", nil
	}
	if len(text) > 150 {
		if phrase := keyphrase.Extract(text, keyphrase.DefaultMaxPhrases); phrase != "" {
			return phrase, nil
		}
	}
	return truncate(text, maxOutput), nil
}

// fromSourceCode uses the leading doc comment block, when one exists, as the
// name source. Shebang lines and license-free blank lines before the comment
// are skipped; the block ends at the first non-comment line.
func fromSourceCode(path string) (string, error) {
	lines, err := readLines(path, 30)
	if err != nil {
		return "", err
	}

	var parts []string
	inBlock := false

loop:
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if i == 0 && strings.HasPrefix(trimmed, "#!") {
			continue
		}
		if trimmed == "" {
			if len(parts) == 0 {
				continue
			}
			break
		}

		if inBlock {
			end := strings.Contains(trimmed, "*/")
			text := trimmed
			if idx := strings.Index(text, "*/"); idx >= 0 {
				text = text[:idx]
			}
			text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "*"))
			if text != "" {
				parts = append(parts, text)
			}
			if end {
				break
			}
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "//"):
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "/"))
			if text != "" {
				parts = append(parts, text)
			}
		case strings.HasPrefix(trimmed, "#"):
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if text != "" {
				parts = append(parts, text)
			}
		case strings.HasPrefix(trimmed, "/*"):
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, "/*"))
			if idx := strings.Index(text, "*/"); idx >= 0 {
				if inner := strings.TrimSpace(text[:idx]); inner != "" {
					parts = append(parts, inner)
				}
				break loop
			}
			if text != "" {
				parts = append(parts, text)
			}
			inBlock = true
		default:
			break loop
		}
	}

	text := cleanText(strings.Join(parts, " "))
	if len(text) <= 3 {
		return "", nil
	}
	if len(text) > 150 {
		if phrase := keyphrase.Extract(text, keyphrase.DefaultMaxPhrases); phrase != "" {
			return phrase, nil
		}
	}
	return truncate(text, maxOutput), nil
}

var genericHeadings = map[string]struct{}{
	"introduction": {}, "overview": {}, "table of contents": {},
	"contents": {}, "summary": {}, "conclusion": {}, "abstract": {},
	"preface": {}, "foreword": {},
}

// fromMarkdown prefers a frontmatter title, then the first non-generic
// heading, then the plain-text fallback.
func fromMarkdown(path string) (string, error) {
	lines, err := readLines(path, 100)
	if err != nil {
		return "", err
	}

	inFrontmatter := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if i == 0 && trimmed == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if trimmed == "---" {
				inFrontmatter = false
				continue
			}
			if value, ok := strings.CutPrefix(trimmed, "title:"); ok {
				cleaned := strings.Trim(strings.TrimSpace(value), `"'`)
				if len(cleaned) > 3 {
					return truncate(cleaned, maxOutput), nil
				}
			}
			continue
		}

		if heading, ok := strings.CutPrefix(trimmed, "#"); ok {
			cleaned := strings.TrimSpace(strings.TrimLeft(heading, "#"))
			if _, generic := genericHeadings[strings.ToLower(cleaned)]; generic {
				continue
			}
			if len(cleaned) > 3 {
				return truncate(cleaned, maxOutput), nil
			}
		}
	}

	return fromPlainText(path)
}

var semanticColumns = map[string]struct{}{
	"name": {}, "title": {}, "description": {}, "subject": {},
	"label": {}, "product": {}, "item": {},
}

// fromCSV derives a name from up to two meaningful column headers, skipping
// identifier, timestamp, and numeric columns.
func fromCSV(path string) (string, error) {
	lines, err := readLines(path, 2)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	headers := splitCSVRow(lines[0])
	var data []string
	if len(lines) > 1 {
		data = splitCSVRow(lines[1])
	}

	var cols []string
	for idx, header := range headers {
		if header == "" {
			continue
		}
		lower := strings.ToLower(header)

		if _, semantic := semanticColumns[lower]; semantic {
			cols = append([]string{header}, cols...)
		} else if !isIdentifierColumn(lower) && !isTimestampColumn(lower) && len(cols) < 2 {
			if idx < len(data) && !isNumeric(data[idx]) {
				cols = append(cols, header)
			}
		}

		if len(cols) >= 2 {
			break
		}
	}

	if len(cols) == 0 {
		return "", nil
	}
	name := cleanText(strings.Join(cols, "_"))
	if len(name) <= 3 {
		return "", nil
	}
	return truncate(name, maxOutput), nil
}

func splitCSVRow(row string) []string {
	parts := strings.Split(row, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return out
}

func isIdentifierColumn(lower string) bool {
	return strings.Contains(lower, "id") || lower == "index" ||
		strings.Contains(lower, "key") || strings.Contains(lower, "guid")
}

func isTimestampColumn(lower string) bool {
	return strings.Contains(lower, "date") || strings.Contains(lower, "time") ||
		strings.Contains(lower, "created") || strings.Contains(lower, "modified")
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// fromPlainText gathers the first few hundred characters of non-empty lines;
// long multi-line text is reduced by the key-phrase extractor, short text is
// truncated directly.
func fromPlainText(path string) (string, error) {
	lines, err := readLines(path, 100)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	lineCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		b.WriteString(trimmed)
		b.WriteByte(' ')
		lineCount++
		if b.Len() > 500 {
			break
		}
	}

	if b.Len() <= 10 {
		return "", nil
	}
	cleaned := cleanText(b.String())

	if len(cleaned) > 150 && lineCount > 3 {
		if phrase := keyphrase.Extract(cleaned, keyphrase.DefaultMaxPhrases); phrase != "" {
			return phrase, nil
		}
	}
	return truncate(cleaned, maxOutput), nil
}

// jsonFieldPaths are tried in order against the decoded document.
var jsonFieldPaths = [][]string{
	{"title"}, {"name"}, {"displayName"}, {"label"}, {"description"},
	{"metadata", "title"}, {"data", "title"}, {"data", "name"},
	{"config", "name"}, {"package", "name"}, {"project", "name"},
}

func fromJSON(path string) (string, error) {
	raw, err := readHead(path, 4096)
	if err != nil {
		return "", err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err == nil {
		for _, fieldPath := range jsonFieldPaths {
			if text, ok := lookupJSONPath(doc, fieldPath); ok {
				cleaned := cleanText(text)
				if len(cleaned) > 3 {
					return truncate(cleaned, maxOutput), nil
				}
			}
		}
	}

	return fromPlainText(path)
}

func lookupJSONPath(doc map[string]interface{}, path []string) (string, bool) {
	var current interface{} = doc
	for _, component := range path {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current, ok = obj[component]
		if !ok {
			return "", false
		}
	}
	s, ok := current.(string)
	return s, ok
}

var yamlTitleKeys = []string{"title:", "name:", "description:", "label:"}

func fromYAML(path string) (string, error) {
	lines, err := readLines(path, 50)
	if err != nil {
		return "", err
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, key := range yamlTitleKeys {
			if value, ok := strings.CutPrefix(trimmed, key); ok {
				cleaned := cleanText(strings.Trim(strings.TrimSpace(value), `"'`))
				if len(cleaned) > 3 {
					return truncate(cleaned, maxOutput), nil
				}
			}
		}
	}

	return fromPlainText(path)
}

func readLines(path string, max int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < max {
		lines = append(lines, scanner.Text())
	}
	return lines, errors.WithStack(scanner.Err())
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if read == 0 && err != nil {
		return nil, errors.WithStack(err)
	}
	return buf[:read], nil
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate cuts at the last word boundary before max when one exists past
// the halfway point, without splitting a multi-byte rune.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	if idx := strings.LastIndexByte(head, ' '); idx > max/2 {
		return head[:idx]
	}
	return head
}
