package createdat

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ExifLayout is the layout of EXIF date/time values.
const ExifLayout = "2006:01:02 15:04:05"

// ErrNotImage is returned by OpenImage when the data is neither a decodable
// image nor an EXIF container.
var ErrNotImage = errors.New("data is not a readable image")

// Image is an opened image handle with its embedded EXIF properties, if any.
type Image struct {
	// Format is the decoder name ("jpeg", "png", ...), empty when only EXIF
	// data could be read.
	Format string
	Width  int
	Height int

	exif *exif.Exif
}

// OpenImage opens an image handle over raw file bytes. It succeeds when the
// bytes hold a known image format or an EXIF block.
func OpenImage(b []byte) (*Image, error) {
	img := &Image{}

	cfg, format, cfgErr := image.DecodeConfig(bytes.NewReader(b))
	if cfgErr == nil {
		img.Format = format
		img.Width = cfg.Width
		img.Height = cfg.Height
	}

	x, exifErr := exif.Decode(bytes.NewReader(b))
	if exifErr == nil || (x != nil && !exif.IsCriticalError(exifErr)) {
		img.exif = x
	}

	if cfgErr != nil && img.exif == nil {
		return nil, ErrNotImage
	}
	return img, nil
}

// HasExif reports whether an EXIF block was found.
func (img *Image) HasExif() bool {
	return img.exif != nil
}

// OriginalDateTime returns the raw EXIF DateTimeOriginal value, e.g.
// "2012:11:04 05:42:02". ok is false when the tag is absent.
func (img *Image) OriginalDateTime() (raw string, ok bool) {
	if img.exif == nil {
		return "", false
	}
	return stringTag(img.exif, exif.DateTimeOriginal)
}

// CaptureTime returns the best EXIF capture time: DateTimeOriginal, then
// DateTimeDigitized, then DateTime. Values without a zone use loc.
func (img *Image) CaptureTime(loc *time.Location) (time.Time, bool) {
	if img.exif == nil {
		return time.Time{}, false
	}
	return captureTime(img.exif, loc)
}

func captureTime(x *exif.Exif, loc *time.Location) (time.Time, bool) {
	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		s, ok := stringTag(x, tag)
		if !ok {
			continue
		}
		if tm, err := time.ParseInLocation(ExifLayout, s, loc); err == nil {
			return tm, true
		}
	}
	if tm, err := x.DateTime(); err == nil {
		return tm, true
	}
	return time.Time{}, false
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimRight(s, "\x00 ")
	if s == "" {
		return "", false
	}
	return s, true
}

type exifExtractor struct {
	loc *time.Location
}

func (e exifExtractor) CreatedAt(path string, r io.Reader) (time.Time, bool, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		// Videos and images without EXIF simply have no embedded timestamp.
		return time.Time{}, false, nil
	}
	loc := e.loc
	if loc == nil {
		loc = time.Local
	}
	tm, ok := captureTime(x, loc)
	return tm, ok, nil
}
