package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    `<html><head><title>Quarterly Sales Report</title></head><body></body></html>`,
			expected: "Quarterly Sales Report",
		},
		{
			name:     "title with attributes",
			input:    `<title data-testid="page-title">Trip Photos</title>`,
			expected: "Trip Photos",
		},
		{
			name:     "multiline title",
			input:    "<title>\n  Annual\n  Review\n</title>",
			expected: "Annual Review",
		},
		{
			name:     "entities decoded",
			input:    "<title>Tom &amp; Jerry</title>",
			expected: "Tom & Jerry",
		},
		{
			name:     "uppercase tag",
			input:    "<TITLE>Shouting</TITLE>",
			expected: "Shouting",
		},
		{
			name:     "no title element",
			input:    "<html><body><h1>Heading</h1></body></html>",
			expected: "",
		},
		{
			name:     "empty title",
			input:    "<title></title>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Title(tt.input))
		})
	}
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text no tags",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "multiple paragraphs",
			input:    "<p>First paragraph</p><p>Second paragraph</p>",
			expected: "First paragraph\nSecond paragraph",
		},
		{
			name:     "nested tags",
			input:    "<p><strong>Bold</strong> and <em>italic</em></p>",
			expected: "Bold and italic",
		},
		{
			name:     "br tags",
			input:    "Line one<br>Line two<br/>Line three<br />Line four",
			expected: "Line one\nLine two\nLine three\nLine four",
		},
		{
			name:     "tags with attributes",
			input:    `<p style="font-weight: 600">Styled text</p>`,
			expected: "Styled text",
		},
		{
			name:     "html entities",
			input:    "Tom &amp; Jerry &mdash; the classic",
			expected: "Tom & Jerry — the classic",
		},
		{
			name:     "multiple spaces collapsed",
			input:    "Too    many    spaces",
			expected: "Too many spaces",
		},
		{
			name:     "list items",
			input:    "<ul><li>Item one</li><li>Item two</li></ul>",
			expected: "Item one\nItem two",
		},
		{
			name:     "headings",
			input:    "<h1>Title</h1><p>Content</p>",
			expected: "Title\nContent",
		},
		{
			name:     "self-closing tags",
			input:    "Text <img src='test.jpg'/> more text",
			expected: "Text more text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, StripTags(tt.input))
		})
	}
}
