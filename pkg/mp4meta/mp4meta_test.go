package mp4meta

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func dataBox(dataType byte, payload string) []byte {
	size := 16 + len(payload)
	box := []byte{
		byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size),
		'd', 'a', 't', 'a',
		0, 0, 0, dataType, // version + 3-byte data type
		0, 0, 0, 0, // locale
	}
	return append(box, payload...)
}

func TestDataBoxText(t *testing.T) {
	assert.Equal(t, "Beach Trip", dataBoxText(dataBox(1, "Beach Trip")))
	assert.Equal(t, "", dataBoxText(dataBox(21, "binary")), "non-text data types are ignored")
	assert.Equal(t, "", dataBoxText(nil))
	assert.Equal(t, "", dataBoxText([]byte{0, 0, 0, 2, 'x', 'y'}), "truncated box")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}
