package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeaningfulStem(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{"two meaningful parts", "/tmp/beach_sunset.jpg", "beach_sunset", true},
		{"camera prefix stripped", "/tmp/IMG_beach_sunset.jpg", "beach_sunset", true},
		{"stacked prefixes stripped", "/tmp/Copy_of_Draft_project_plan.docx", "project_plan", true},
		{"date parts dropped", "/tmp/vacation_photos_20240115.jpg", "vacation_photos", true},
		{"time part dropped", "/tmp/meeting_notes_1430.txt", "meeting_notes", true},
		{"version part dropped", "/tmp/thesis_final_v2.pdf", "thesis", true},
		{"single long word kept", "/tmp/screenshot.png", "screenshot", true},
		{"single short word rejected", "/tmp/memo.txt", "", false},
		{"pure camera name", "/tmp/IMG_20240115_093045.jpg", "", false},
		{"pure digits", "/tmp/00001234.dat", "", false},
		{"hyphen separators", "/tmp/annual-report-2024.pdf", "annual_report", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MeaningfulStem(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveCommonPrefixesCaseInsensitive(t *testing.T) {
	assert.Equal(t, "holiday", removeCommonPrefixes("img_holiday"))
	assert.Equal(t, "holiday", removeCommonPrefixes("IMG_holiday"))
	assert.Equal(t, "holiday", removeCommonPrefixes("Screenshot_holiday"))
}
