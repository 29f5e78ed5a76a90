package metadata

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// exiftoolBinary is the name/path of the exiftool binary to use.
// Can be overridden in tests to substitute a mock command.
var exiftoolBinary = "exiftool"

// defaultTimeout bounds a single exiftool invocation.
var defaultTimeout = 30 * time.Second

// Fields is the metadata surface the pipeline consumes. Everything else
// exiftool reports is discarded.
type Fields struct {
	Title            string `json:"Title"`
	Artist           string `json:"Artist"`
	Album            string `json:"Album"`
	DateTimeOriginal string `json:"DateTimeOriginal"`
	Description      string `json:"Description"`
	Subject          string `json:"Subject"`
	Author           string `json:"Author"`
	Creator          string `json:"Creator"`
	CreationDate     string `json:"CreationDate"`
	CreateDate       string `json:"CreateDate"`
	GPSLatitude      string `json:"GPSLatitude"`
	GPSLatitudeRef   string `json:"GPSLatitudeRef"`
	GPSLongitude     string `json:"GPSLongitude"`
	GPSLongitudeRef  string `json:"GPSLongitudeRef"`
}

// BestAuthor folds the Author/Creator aliases different formats use.
func (f Fields) BestAuthor() string {
	if f.Author != "" {
		return f.Author
	}
	return f.Creator
}

// BestCreationDate folds the CreationDate/CreateDate aliases.
func (f Fields) BestCreationDate() string {
	if f.CreationDate != "" {
		return f.CreationDate
	}
	return f.CreateDate
}

// Extractor shells out to exiftool for per-file metadata.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the metadata fields for a file. Unreadable files and
// exiftool failures degrade to empty fields rather than errors; the pipeline
// treats missing metadata as "fewer candidates", never as a file failure.
func (e *Extractor) Extract(ctx context.Context, path string) Fields {
	log := logger.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, exiftoolBinary, "-json", "-charset", "utf8", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Err(err).Warn("exiftool failed", logger.Data{"path": path, "stderr": stderr.String()})
		return Fields{}
	}

	// exiftool emits a one-element array per file.
	var parsed []Fields
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		log.Err(err).Warn("failed to parse exiftool output", logger.Data{"path": path})
		return Fields{}
	}
	if len(parsed) == 0 {
		return Fields{}
	}
	return parsed[0]
}
