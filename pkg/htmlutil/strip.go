package htmlutil

import (
	"regexp"
	"strings"
)

var (
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacesRun    = regexp.MustCompile(`\s{2,}`)
)

// Title returns the text of the first <title> element, entity-decoded and
// whitespace-normalized, or "" when the document has none.
func Title(html string) string {
	m := titlePattern.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	title := decodeEntities(m[1])
	return strings.TrimSpace(spacesRun.ReplaceAllString(title, " "))
}

// StripTags removes all HTML markup from a string. Block-level closers become
// newlines so headings and paragraphs stay on separate lines.
func StripTags(html string) string {
	if html == "" {
		return ""
	}

	blockTags := []string{"</p>", "</div>", "<br>", "<br/>", "<br />", "</li>", "</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>"}
	result := html
	for _, tag := range blockTags {
		result = strings.ReplaceAll(result, tag, "\n")
		result = strings.ReplaceAll(result, strings.ToUpper(tag), "\n")
	}

	result = tagPattern.ReplaceAllString(result, "")
	result = decodeEntities(result)

	lines := strings.Split(result, "\n")
	var nonEmpty []string
	for _, line := range lines {
		line = strings.TrimSpace(spacesRun.ReplaceAllString(line, " "))
		if line != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&mdash;", "—",
	"&ndash;", "–",
	"&hellip;", "…",
	"&rsquo;", "’",
	"&lsquo;", "‘",
	"&rdquo;", "”",
	"&ldquo;", "“",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
