package ocr

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRecognizeImagePicksLongestResult(t *testing.T) {
	// The eng pass returns more characters than the chi passes, so it wins.
	orig := tesseractBinary
	tesseractBinary = writeScript(t, `
case "$4" in
  chi_tra) echo "short" ;;
  chi_sim) echo "" ;;
  eng) echo "Quarterly Budget Review Meeting Notes" ;;
esac
`)
	defer func() { tesseractBinary = orig }()

	e := &Engine{tesseractOK: true}
	got, ok := e.RecognizeImage(context.Background(), "/tmp/img.png")

	require.True(t, ok)
	assert.Equal(t, "eng", got.Language)
	assert.Equal(t, "Quarterly Budget Review Meeting Notes", got.Text)
}

func TestRecognizeImageNoText(t *testing.T) {
	orig := tesseractBinary
	tesseractBinary = writeScript(t, `echo ""`)
	defer func() { tesseractBinary = orig }()

	e := &Engine{tesseractOK: true}
	_, ok := e.RecognizeImage(context.Background(), "/tmp/img.png")
	assert.False(t, ok)
}

func TestRecognizeImageUnavailable(t *testing.T) {
	e := &Engine{tesseractOK: false}
	_, ok := e.RecognizeImage(context.Background(), "/tmp/img.png")
	assert.False(t, ok)
}

func TestRecognizeVideoUnavailable(t *testing.T) {
	e := &Engine{tesseractOK: true, ffmpegOK: false}
	assert.Nil(t, e.RecognizeVideo(context.Background(), "/tmp/clip.mp4", true))
}

func TestExtractFrameUniquePaths(t *testing.T) {
	orig := ffmpegBinary
	ffmpegBinary = writeScript(t, `printf 'frame' > "${10}"`)
	defer func() { ffmpegBinary = orig }()

	e := &Engine{tesseractOK: true, ffmpegOK: true}
	a, err := e.extractFrame(context.Background(), "/tmp/a.mp4", "00:00:01")
	require.NoError(t, err)
	defer os.Remove(a)
	b, err := e.extractFrame(context.Background(), "/tmp/b.mp4", "00:00:01")
	require.NoError(t, err)
	defer os.Remove(b)

	assert.NotEqual(t, a, b)
}

func TestRecognizeVideoConcurrentAttribution(t *testing.T) {
	// ffmpeg writes the source video's basename into the frame file and
	// tesseract echoes the frame back, so any frame sharing between workers
	// would surface as one video's text under the other's results.
	origFF, origTess := ffmpegBinary, tesseractBinary
	ffmpegBinary = writeScript(t, `basename "$4" | tr -d '\n' > "${10}"`)
	tesseractBinary = writeScript(t, `cat "$1"`)
	defer func() { ffmpegBinary, tesseractBinary = origFF, origTess }()

	e := &Engine{tesseractOK: true, ffmpegOK: true}

	videos := []string{
		"/tmp/quarterly_review_recording.mp4",
		"/tmp/onboarding_walkthrough_clip.mp4",
	}
	results := make([][]Result, len(videos))
	var wg sync.WaitGroup
	for i, v := range videos {
		wg.Add(1)
		go func(i int, v string) {
			defer wg.Done()
			results[i] = e.RecognizeVideo(context.Background(), v, true)
		}(i, v)
	}
	wg.Wait()

	for i, v := range videos {
		require.NotEmpty(t, results[i])
		for _, r := range results[i] {
			assert.Equal(t, filepath.Base(v), r.Text)
		}
	}
}

func TestRecognizeImageCollapsesWhitespace(t *testing.T) {
	orig := tesseractBinary
	tesseractBinary = writeScript(t, `printf 'line one\n\nline   two\n'`)
	defer func() { tesseractBinary = orig }()

	e := &Engine{tesseractOK: true}
	got, ok := e.RecognizeImage(context.Background(), "/tmp/img.png")

	require.True(t, ok)
	assert.Equal(t, "line one line two", got.Text)
}
