package mp4meta

import (
	"bytes"
	"os"
	"time"

	gomp4 "github.com/abema/go-mp4"
	"github.com/pkg/errors"
)

// Tags is the naming-relevant subset of MP4/M4A/MOV metadata. CreationTime
// is formatted as an EXIF-style datetime string so it flows through the same
// timestamp handling as image metadata.
type Tags struct {
	Title        string
	Artist       string
	Album        string
	Day          string
	CreationTime string
}

// ilst child atoms carrying the tags above.
var (
	atomTitle  = gomp4.StrToBoxType("\xa9nam")
	atomArtist = gomp4.StrToBoxType("\xa9ART")
	atomAlbum  = gomp4.StrToBoxType("\xa9alb")
	atomDay    = gomp4.StrToBoxType("\xa9day")
)

// mp4Epoch is the QuickTime epoch; mvhd timestamps count seconds from it.
var mp4Epoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// Read walks the box structure of an MP4 container and returns its tags.
// Files without a moov/udta/meta/ilst tree return zero tags, not an error.
func Read(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, errors.WithStack(err)
	}
	defer f.Close()

	tags := Tags{}

	_, err = gomp4.ReadBoxStructure(f, func(h *gomp4.ReadHandle) (interface{}, error) {
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeUdta(), gomp4.BoxTypeMeta(), gomp4.BoxTypeIlst():
			return h.Expand()

		case gomp4.BoxTypeMvhd():
			payload, _, err := h.ReadPayload()
			if err != nil {
				return nil, errors.WithStack(err)
			}
			mvhd, ok := payload.(*gomp4.Mvhd)
			if !ok {
				return nil, nil
			}
			var secs uint64
			if mvhd.Version == 0 {
				secs = uint64(mvhd.CreationTimeV0)
			} else {
				secs = mvhd.CreationTimeV1
			}
			if secs > 0 {
				t := mp4Epoch.Add(time.Duration(secs) * time.Second)
				tags.CreationTime = t.Format("2006:01:02 15:04:05")
			}
			return nil, nil

		case atomTitle, atomArtist, atomAlbum, atomDay:
			var buf bytes.Buffer
			if _, err := h.ReadData(&buf); err != nil {
				return nil, errors.WithStack(err)
			}
			value := dataBoxText(buf.Bytes())
			switch h.BoxInfo.Type {
			case atomTitle:
				tags.Title = value
			case atomArtist:
				tags.Artist = value
			case atomAlbum:
				tags.Album = value
			case atomDay:
				tags.Day = value
			}
			return nil, nil

		default:
			return nil, nil
		}
	})
	if err != nil {
		return Tags{}, errors.Wrapf(err, "failed to read mp4 boxes: %s", path)
	}

	return tags, nil
}

// dataBoxText extracts UTF-8 text from the nested "data" box inside an ilst
// child atom. Layout: [size][type "data"][1 byte version][3 bytes data type]
// [4 bytes locale][payload].
func dataBoxText(raw []byte) string {
	offset := 0
	for offset+16 <= len(raw) {
		size := int(raw[offset])<<24 | int(raw[offset+1])<<16 |
			int(raw[offset+2])<<8 | int(raw[offset+3])
		if size < 16 || offset+size > len(raw) {
			return ""
		}
		if string(raw[offset+4:offset+8]) == "data" {
			dataType := int(raw[offset+9])<<16 | int(raw[offset+10])<<8 | int(raw[offset+11])
			// Type 1 is UTF-8, the only encoding tag writers emit for these
			// atoms in practice.
			if dataType != 1 {
				return ""
			}
			return string(raw[offset+16 : offset+size])
		}
		offset += size
	}
	return ""
}
