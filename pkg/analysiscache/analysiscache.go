package analysiscache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Entry is one cached analysis result, keyed by absolute file path. Size and
// mtime gate reuse cheaply; the partial content hash catches files that were
// rewritten in place with identical size and timestamp.
type Entry struct {
	bun.BaseModel `bun:"table:analysis_cache"`

	Path         string    `bun:"path,pk"`
	FileSize     int64     `bun:"file_size,notnull"`
	ModifiedTime int64     `bun:"modified_time,notnull"`
	FileHash     string    `bun:"file_hash,notnull"`
	ProposedName string    `bun:"proposed_name"`
	Category     string    `bun:"category,notnull"`
	CachedAt     time.Time `bun:"cached_at,notnull"`
}

// Store persists analysis results between runs so unchanged files skip the
// expensive extractor work (exiftool, OCR, PDF parsing) entirely.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the cache table when missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Entry)(nil)).
		IfNotExists().
		Exec(ctx)
	return errors.WithStack(err)
}

// Get returns the cached entry for path when it is still valid for the
// file's current size, mtime, and (when those moved) content hash.
// ok=false means analyze from scratch.
func (s *Store) Get(ctx context.Context, path string) (Entry, bool) {
	entry := Entry{}
	err := s.db.NewSelect().
		Model(&entry).
		Where("path = ?", path).
		Scan(ctx)
	if err != nil {
		return Entry{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, false
	}

	if entry.FileSize == info.Size() && entry.ModifiedTime == info.ModTime().Unix() {
		return entry, true
	}

	hash, err := fileHash(path)
	if err != nil || hash != entry.FileHash {
		return Entry{}, false
	}
	return entry, true
}

// Put records the analysis outcome for path, replacing any previous entry.
func (s *Store) Put(ctx context.Context, path, proposedName, category string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.WithStack(err)
	}
	hash, err := fileHash(path)
	if err != nil {
		return err
	}

	entry := &Entry{
		Path:         path,
		FileSize:     info.Size(),
		ModifiedTime: info.ModTime().Unix(),
		FileHash:     hash,
		ProposedName: proposedName,
		Category:     category,
		CachedAt:     time.Now(),
	}

	_, err = s.db.NewInsert().
		Model(entry).
		On("CONFLICT (path) DO UPDATE").
		Set("file_size = EXCLUDED.file_size").
		Set("modified_time = EXCLUDED.modified_time").
		Set("file_hash = EXCLUDED.file_hash").
		Set("proposed_name = EXCLUDED.proposed_name").
		Set("category = EXCLUDED.category").
		Set("cached_at = EXCLUDED.cached_at").
		Exec(ctx)
	return errors.WithStack(err)
}

// CleanupStale drops entries whose paths are no longer part of the scanned
// set, keeping the cache from growing without bound across runs.
func (s *Store) CleanupStale(ctx context.Context, validPaths []string) (int64, error) {
	if len(validPaths) == 0 {
		res, err := s.db.NewDelete().
			Model((*Entry)(nil)).
			Where("1 = 1").
			Exec(ctx)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		return rowsAffected(res), nil
	}

	res, err := s.db.NewDelete().
		Model((*Entry)(nil)).
		Where("path NOT IN (?)", bun.In(validPaths)).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return rowsAffected(res), nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// chunkSize is how much of each end of a file contributes to the hash; full
// hashing of large media files would cost more than the re-analysis it
// avoids.
const chunkSize = 64 * 1024

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.WithStack(err)
	}

	h := sha256.New()
	size := info.Size()

	if size <= 2*chunkSize {
		if _, err := io.Copy(h, f); err != nil {
			return "", errors.WithStack(err)
		}
	} else {
		head := make([]byte, chunkSize)
		if _, err := io.ReadFull(f, head); err != nil {
			return "", errors.WithStack(err)
		}
		h.Write(head)

		if _, err := f.Seek(-chunkSize, io.SeekEnd); err != nil {
			return "", errors.WithStack(err)
		}
		tail := make([]byte, chunkSize)
		if _, err := io.ReadFull(f, tail); err != nil {
			return "", errors.WithStack(err)
		}
		h.Write(tail)
	}

	// Mix in the size so same-prefix/suffix files of different lengths
	// cannot collide.
	var sizeBytes [8]byte
	for i := 0; i < 8; i++ {
		sizeBytes[i] = byte(size >> (8 * i))
	}
	h.Write(sizeBytes[:])

	return hex.EncodeToString(h.Sum(nil)), nil
}
