package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUsefulMetadata(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"real title", "Quarterly Budget Report", true},
		{"short cjk title", "年度報告書", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"too short", "ab", false},
		{"error text", "Error: could not read stream", false},
		{"traceback", "Traceback (most recent call)", false},
		{"scanner device", "Canon MG3600 series", false},
		{"printer device", "EPSON Scan", false},
		{"generic untitled", "Untitled", false},
		{"generic new document", "New Document", false},
		{"generic draft", "draft proposal", false},
		{"date only compact", "20240115", false},
		{"date only dashed", "2024-01-15", false},
		{"mostly punctuation", "!!! ??? ---", false},
		{"ocr noise repetition", "aaaaaaa report", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUsefulMetadata(tt.value))
		})
	}
}

func TestIsDateOnly(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"2024", true},
		{"202401", true},
		{"20240115", true},
		{"2024-01-15", true},
		{"2024_01_15", true},
		{"report 2024", false},
		{"12345", false},
		{"", false},
		{"abcd", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateOnly(tt.value))
		})
	}
}
