package detector

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Category is the coarse file classification the naming pipeline branches on.
type Category string

const (
	CategoryImage      Category = "image"
	CategoryDocument   Category = "document"
	CategoryAudio      Category = "audio"
	CategoryVideo      Category = "video"
	CategoryEmail      Category = "email"
	CategoryWeb        Category = "web"
	CategoryArchive    Category = "archive"
	CategorySourceCode Category = "source_code"
	CategoryUnknown    Category = "unknown"
)

// Detect classifies a file by its magic bytes, falling back to the extension
// table when the content is not recognized. Unreadable files are reported as
// errors; callers treat that as CategoryUnknown.
func Detect(path string) (Category, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return CategoryUnknown, errors.WithStack(err)
		}
		return DetectByExtension(path), nil
	}

	if category, ok := categoryFromMIME(mtype.String()); ok {
		return category, nil
	}
	return DetectByExtension(path), nil
}

func categoryFromMIME(mime string) (Category, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImage, true
	case strings.HasPrefix(mime, "audio/"):
		return CategoryAudio, true
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideo, true
	case mime == "application/pdf",
		mime == "application/msword",
		mime == "application/rtf",
		strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(mime, "application/vnd.ms-"),
		strings.HasPrefix(mime, "application/vnd.oasis.opendocument"):
		return CategoryDocument, true
	case mime == "text/html":
		return CategoryWeb, true
	case mime == "message/rfc822":
		return CategoryEmail, true
	case mime == "application/zip",
		mime == "application/x-tar",
		mime == "application/gzip",
		mime == "application/x-bzip2",
		mime == "application/x-xz",
		mime == "application/x-7z-compressed",
		mime == "application/x-rar-compressed":
		return CategoryArchive, true
	case strings.HasPrefix(mime, "text/"):
		return CategoryDocument, true
	}
	return CategoryUnknown, false
}

// DetectByExtension is the fallback classification used when magic-byte
// detection is inconclusive.
func DetectByExtension(path string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp", "heic", "heif", "ico", "svg":
		return CategoryImage
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf",
		"txt", "md", "markdown", "csv", "json", "yaml", "yml":
		return CategoryDocument
	case "eml", "msg":
		return CategoryEmail
	case "html", "htm", "mhtml":
		return CategoryWeb
	case "zip", "tar", "gz", "tgz", "bz2", "xz", "7z", "rar":
		return CategoryArchive
	case "py", "js", "ts", "rs", "go", "java", "c", "cpp", "cc", "cxx", "h", "hpp", "hxx":
		return CategorySourceCode
	case "mp3", "wav", "flac", "aac", "ogg", "m4a", "wma", "opus":
		return CategoryAudio
	case "mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v", "mpg", "mpeg":
		return CategoryVideo
	}
	return CategoryUnknown
}
