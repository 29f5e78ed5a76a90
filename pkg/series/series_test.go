package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectUnderscoreSeries(t *testing.T) {
	paths := []string{
		"/d/img_001.jpg",
		"/d/img_002.jpg",
		"/d/img_003.jpg",
		"/d/notes.txt",
	}

	got := Detect(paths)

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "img", p.Prefix)
	assert.Equal(t, KindUnderscore, p.Kind)
	assert.Equal(t, 3, p.DigitWidth)
	assert.Equal(t, []string{"/d/img_001.jpg", "/d/img_002.jpg", "/d/img_003.jpg"}, p.Members)
	assert.Equal(t, 2, p.Ordinals["/d/img_002.jpg"])
}

func TestDetectParenthesizedSeries(t *testing.T) {
	paths := []string{
		"/d/scan (1).pdf",
		"/d/scan (2).pdf",
		"/d/scan (3).pdf",
		"/d/scan (4).pdf",
	}

	got := Detect(paths)

	require.Len(t, got, 1)
	assert.Equal(t, KindParenthesized, got[0].Kind)
	assert.Equal(t, "scan", got[0].Prefix)
	assert.Len(t, got[0].Members, 4)
}

func TestDetectHyphenAndSpaceSeries(t *testing.T) {
	paths := []string{
		"/d/track-1.mp3", "/d/track-2.mp3", "/d/track-3.mp3",
		"/d/page 1.png", "/d/page 2.png", "/d/page 3.png",
	}

	got := Detect(paths)

	require.Len(t, got, 2)
	assert.Equal(t, "page", got[0].Prefix)
	assert.Equal(t, KindSpace, got[0].Kind)
	assert.Equal(t, "track", got[1].Prefix)
	assert.Equal(t, KindHyphen, got[1].Kind)
}

func TestDetectRequiresThreeMembers(t *testing.T) {
	paths := []string{"/d/img_001.jpg", "/d/img_002.jpg"}
	assert.Empty(t, Detect(paths))
}

func TestDetectSeparatesDigitWidths(t *testing.T) {
	// img_1 and img_001 are different width classes and neither reaches 3.
	paths := []string{
		"/d/img_1.jpg", "/d/img_2.jpg",
		"/d/img_001.jpg", "/d/img_002.jpg",
	}
	assert.Empty(t, Detect(paths))
}

func TestDetectAmbiguousPrefersLongestNumericGroup(t *testing.T) {
	// The hyphen class cannot match "shoot-2024_01" (digits must be
	// terminal), so the underscore class wins with the trailing group.
	paths := []string{
		"/d/shoot-2024_01.jpg",
		"/d/shoot-2024_02.jpg",
		"/d/shoot-2024_03.jpg",
	}

	got := Detect(paths)

	require.Len(t, got, 1)
	assert.Equal(t, "shoot-2024", got[0].Prefix)
	assert.Equal(t, KindUnderscore, got[0].Kind)
	assert.Equal(t, 2, got[0].DigitWidth)
}

func TestPadWidth(t *testing.T) {
	small := &Pattern{Ordinals: map[string]int{"a": 1, "b": 2, "c": 3}}
	assert.Equal(t, 3, small.PadWidth())

	large := &Pattern{Ordinals: map[string]int{"a": 998, "b": 9999}}
	assert.Equal(t, 4, large.PadWidth())
}

func TestFormatOrdinal(t *testing.T) {
	p := &Pattern{Kind: KindUnderscore, Ordinals: map[string]int{"/d/img_007.jpg": 7}}

	got, ok := p.FormatOrdinal("/d/img_007.jpg")
	require.True(t, ok)
	assert.Equal(t, "_007", got)

	_, ok = p.FormatOrdinal("/d/other.jpg")
	assert.False(t, ok)
}

func TestFormatOrdinalKeepsSeparatorStyle(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnderscore, "_007"},
		{KindParenthesized, "(007)"},
		{KindHyphen, "-007"},
		{KindSpace, " 007"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := &Pattern{Kind: tt.kind, Ordinals: map[string]int{"/d/f.jpg": 7}}
			got, ok := p.FormatOrdinal("/d/f.jpg")
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLookup(t *testing.T) {
	patterns := Detect([]string{
		"/d/img_001.jpg", "/d/img_002.jpg", "/d/img_003.jpg",
	})
	idx := Lookup(patterns)

	require.Contains(t, idx, "/d/img_002.jpg")
	assert.Equal(t, patterns[0], idx["/d/img_002.jpg"])
	assert.NotContains(t, idx, "/d/other.jpg")
}
