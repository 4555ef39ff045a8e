package createdat

import (
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Source describes where a best-guess capture timestamp was derived from.
//
// The priority order is:
//  1. metadata
//  2. filename
//  3. mtime
//  4. unknown
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceFilename Source = "filename"
	SourceMtime    Source = "mtime"
	SourceUnknown  Source = "unknown"
)

// Result contains a best-effort capture timestamp and its source.
type Result struct {
	CreatedAt time.Time
	Source    Source
}

// MetadataExtractor extracts an embedded capture timestamp from a media stream.
//
// Implementations return (t, true, nil) when a timestamp is found and
// (time.Time{}, false, nil) when none exists. Errors are ignored by Determine.
type MetadataExtractor interface {
	CreatedAt(path string, r io.Reader) (time.Time, bool, error)
}

// Options configures Determine.
type Options struct {
	// Location is used for timestamps without a zone. If nil, time.Local is used.
	Location *time.Location

	// Metadata optionally extracts embedded timestamps. If nil, EXIF is used.
	Metadata MetadataExtractor
}

// Determine returns the best-effort capture timestamp for a path in fsys.
func Determine(fsys fs.FS, path string, opts Options) (Result, error) {
	path = filepath.ToSlash(filepath.Clean(path))

	info, err := fs.Stat(fsys, path)
	if err != nil {
		return Result{}, err
	}
	if info.IsDir() {
		return Result{}, fs.ErrInvalid
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = exifExtractor{loc: loc}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return Result{}, err
	}
	tm, ok, metaErr := metadata.CreatedAt(path, f)
	_ = f.Close()
	if metaErr == nil && ok {
		return Result{CreatedAt: tm, Source: SourceMetadata}, nil
	}

	if tm, ok := parseFromFilename(filepath.Base(path), loc); ok {
		return Result{CreatedAt: tm, Source: SourceFilename}, nil
	}

	if mtime := info.ModTime(); !mtime.IsZero() {
		return Result{CreatedAt: mtime, Source: SourceMtime}, nil
	}
	return Result{Source: SourceUnknown}, nil
}

// Each pattern captures year, month, day, hour, minute, second in order.
// Date-only patterns capture the first three.
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:IMG|VID)_(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})`),
	regexp.MustCompile(`(?i)^PXL_(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})\d{3,}`),
	regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[ _](\d{2})\.(\d{2})\.(\d{2})`),
	regexp.MustCompile(`(?i)^IMG-(\d{4})(\d{2})(\d{2})-WA\d+`),
	regexp.MustCompile(`(?i)^Screenshot_(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})-(\d{2})`),
}

func parseFromFilename(filename string, loc *time.Location) (time.Time, bool) {
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		var f [6]int
		for i, s := range m[1:] {
			n, err := strconv.Atoi(s)
			if err != nil {
				return time.Time{}, false
			}
			f[i] = n
		}
		return time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], 0, loc), true
	}
	return time.Time{}, false
}
