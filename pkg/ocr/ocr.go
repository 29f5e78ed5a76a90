package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/robinjoseph08/golib/logger"
)

// Binary names, overridable in tests to substitute mock commands.
var (
	tesseractBinary = "tesseract"
	ffmpegBinary    = "ffmpeg"
)

var defaultTimeout = 2 * time.Minute

// languages is the recognition priority order. CJK models are tried first
// because eng-model output on CJK text is garbage that still "succeeds";
// the best result is picked by recognized character count.
var languages = []string{"chi_tra", "chi_sim", "eng"}

// frameTimes are the video offsets probed in multiframe mode.
var frameTimes = []string{"00:00:01", "00:00:05", "00:00:10"}

// Result is recognized text plus the language model that produced it.
type Result struct {
	Text     string
	Language string
}

// Engine shells out to tesseract (and ffmpeg for videos). Availability is
// probed once; an absent binary degrades to empty results.
type Engine struct {
	tesseractOK bool
	ffmpegOK    bool
}

func NewEngine() *Engine {
	return &Engine{
		tesseractOK: binaryAvailable(tesseractBinary, "--version"),
		ffmpegOK:    binaryAvailable(ffmpegBinary, "-version"),
	}
}

func binaryAvailable(name string, arg string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, name, arg).Run() == nil
}

// RecognizeImage runs OCR over an image with every configured language and
// keeps the result with the most recognized characters. ok=false when
// tesseract is unavailable or nothing was recognized.
func (e *Engine) RecognizeImage(ctx context.Context, path string) (Result, bool) {
	if !e.tesseractOK {
		return Result{}, false
	}
	log := logger.FromContext(ctx)

	best := Result{}
	bestCount := 0
	for _, lang := range languages {
		text, err := e.runTesseract(ctx, path, lang)
		if err != nil {
			log.Err(err).Debug("ocr attempt failed", logger.Data{"path": path, "language": lang})
			continue
		}
		cleaned := strings.Join(strings.Fields(text), " ")
		if count := utf8.RuneCountInString(cleaned); count > bestCount {
			bestCount = count
			best = Result{Text: cleaned, Language: lang}
		}
	}
	return best, bestCount > 0
}

// RecognizeVideo extracts frames and OCRs each, returning one result per
// frame that yielded usable text. With multiframe disabled only the first
// offset is probed. The caller scores the results like any other candidates.
func (e *Engine) RecognizeVideo(ctx context.Context, path string, multiframe bool) []Result {
	if !e.tesseractOK || !e.ffmpegOK {
		return nil
	}
	log := logger.FromContext(ctx)

	times := frameTimes
	if !multiframe {
		times = frameTimes[:1]
	}

	var results []Result
	for _, offset := range times {
		frame, err := e.extractFrame(ctx, path, offset)
		if err != nil {
			log.Err(err).Debug("frame extraction failed", logger.Data{"path": path, "offset": offset})
			continue
		}

		result, ok := e.RecognizeImage(ctx, frame)
		os.Remove(frame) //nolint:errcheck
		if ok && utf8.RuneCountInString(result.Text) > 10 {
			results = append(results, result)
		}
	}
	return results
}

func (e *Engine) runTesseract(ctx context.Context, path, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// "stdout" makes tesseract print recognized text instead of writing a
	// sidecar file.
	cmd := exec.CommandContext(ctx, tesseractBinary, path, "stdout", "-l", lang)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s failed: %w: %s", lang, err, stderr.String())
	}
	return stdout.String(), nil
}

func (e *Engine) extractFrame(ctx context.Context, path, offset string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Each extraction gets its own frame file; pool workers probing the same
	// offset of different videos must never share one.
	tmp, err := os.CreateTemp("", "nameback_frame_*.png")
	if err != nil {
		return "", err
	}
	frame := tmp.Name()
	tmp.Close() //nolint:errcheck

	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-ss", offset,
		"-i", path,
		"-vframes", "1",
		"-f", "image2",
		"-y", frame,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(frame) //nolint:errcheck
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}
	if fi, err := os.Stat(frame); err != nil || fi.Size() == 0 {
		os.Remove(frame) //nolint:errcheck
		return "", fmt.Errorf("frame not produced at %s", offset)
	}
	return frame, nil
}
