package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quidome/media-metadata-go/pkg/metadata"
)

// Kind classifies a scanned file by its extension.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// MediaKind is the metadata kind used to read a file's timestamp: photos are
// images, everything else is not.
func (k Kind) MediaKind() metadata.Kind {
	if k == KindPhoto {
		return metadata.KindImage
	}
	return metadata.KindOther
}

// Options configures a scan. MaxDepth -1 means unlimited, 0 only the root.
type Options struct {
	MaxDepth int

	PhotoExtensions []string
	VideoExtensions []string
}

// DefaultOptions returns the common photo and video extensions.
func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		PhotoExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".tif", ".tiff", ".bmp",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".m4v", ".mkv", ".avi", ".webm", ".mts", ".3gp",
		},
	}
}

// Record is a media file found by a scan. Path is slash-separated and
// relative to the scan root.
type Record struct {
	Path          string    `json:"path"`
	Kind          Kind      `json:"kind"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
}

// Scan returns the relative paths of media files under root, sorted.
func Scan(fsys fs.FS, root string, opts Options) ([]string, error) {
	records, err := ScanRecords(fsys, root, opts)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(records))
	for _, r := range records {
		matches = append(matches, r.Path)
	}
	return matches, nil
}

// ScanRecords is Scan with size, mtime and kind of every file.
func ScanRecords(fsys fs.FS, root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	kinds := kindsByExt(opts)
	var matches []Record

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		tooDeep := opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth
		if d.IsDir() {
			if tooDeep {
				return fs.SkipDir
			}
			return nil
		}
		if tooDeep {
			return nil
		}

		kind, ok := kinds[strings.ToLower(filepath.Ext(rel))]
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		matches = append(matches, Record{
			Path:          filepath.ToSlash(rel),
			Kind:          kind,
			FileSizeBytes: info.Size(),
			ModTime:       info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	return matches, nil
}

// kindsByExt maps every configured extension to its kind. An extension listed
// as both photo and video is a photo.
func kindsByExt(opts Options) map[string]Kind {
	m := make(map[string]Kind)
	for ext := range normalizeExts(opts.VideoExtensions) {
		m[ext] = KindVideo
	}
	for ext := range normalizeExts(opts.PhotoExtensions) {
		m[ext] = KindPhoto
	}
	return m
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

func depth(rel string) int {
	rel = filepath.Clean(rel)
	if rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/")
}
