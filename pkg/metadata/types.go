package metadata

import (
	"encoding/json"
	"time"
)

// Kind selects how Timestamp reads a media item.
type Kind int

const (
	// KindOther covers video, audio and anything that is not an image.
	KindOther Kind = iota
	KindImage
)

// ParseKind maps "image" to KindImage and every other value to KindOther.
func ParseKind(s string) Kind {
	if s == "image" {
		return KindImage
	}
	return KindOther
}

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	default:
		return "other"
	}
}

// TimestampKind tags the variant held by a Timestamp.
type TimestampKind int

const (
	// TimestampExif holds the raw EXIF DateTimeOriginal of an image.
	TimestampExif TimestampKind = iota + 1
	// TimestampModified holds a formatted filesystem modification date.
	TimestampModified
	// TimestampCreated holds the library creation date of an asset.
	TimestampCreated
)

func (k TimestampKind) String() string {
	switch k {
	case TimestampExif:
		return "exif"
	case TimestampModified:
		return "modified"
	case TimestampCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Timestamp is the result of Accessor.Timestamp. Only the fields of the
// variant named by Kind are set.
type Timestamp struct {
	Kind TimestampKind

	// ExifDateTimeOriginal is the raw EXIF value, e.g. "2012:11:04 05:42:02".
	// ExifPresent is false when the image has no such tag.
	ExifDateTimeOriginal string
	ExifPresent          bool

	// Modified is formatted as 2006-01-02T15:04:05.000Z in UTC.
	Modified string

	Created time.Time
}

type timestampJSON struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	out := timestampJSON{Kind: t.Kind.String()}
	switch t.Kind {
	case TimestampExif:
		if t.ExifPresent {
			out.Value = t.ExifDateTimeOriginal
		}
	case TimestampModified:
		out.Value = t.Modified
	case TimestampCreated:
		out.Value = t.Created
	}
	return json.Marshal(out)
}

// Dimensions is the natural pixel size of a video track.
type Dimensions struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}
