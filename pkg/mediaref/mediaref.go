// Package mediaref parses the string references callers use to point at a
// media item: either a media library identifier or a file:// URL.
package mediaref

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// FilePrefix marks a reference as a filesystem URL.
const FilePrefix = "file://"

// ErrMalformed is returned when a reference is neither a file URL nor a
// library identifier.
var ErrMalformed = errors.New("malformed media reference")

// Ref is a parsed media reference. Exactly one of Identifier and Path is set.
type Ref struct {
	raw string

	// Identifier is the media library local identifier.
	Identifier string

	// Path is the absolute filesystem path of a file:// reference.
	Path string
}

// IsLibrary reports whether the reference names a library asset.
func (r Ref) IsLibrary() bool {
	return r.Identifier != ""
}

// String returns the reference as it was given to Parse.
func (r Ref) String() string {
	return r.raw
}

// Parse classifies s by its prefix. Strings starting with file:// are file
// URLs, everything else is treated as a library identifier. Parse never
// touches the filesystem or the library.
func Parse(s string) (Ref, error) {
	if strings.HasPrefix(s, FilePrefix) {
		return parseFileURL(s)
	}
	return parseIdentifier(s)
}

// FileURL builds a file:// reference for a filesystem path.
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func parseFileURL(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, ErrMalformed
	}
	// file://localhost/path is the only host form accepted.
	if u.Host != "" && u.Host != "localhost" {
		return Ref{}, ErrMalformed
	}
	if u.Path == "" || u.Path == "/" || !strings.HasPrefix(u.Path, "/") {
		return Ref{}, ErrMalformed
	}
	return Ref{raw: s, Path: filepath.FromSlash(u.Path)}, nil
}

// parseIdentifier accepts local identifiers of the form
// <UUID>[/<suffix>...], e.g. 9F983DBA-EC35-42B8-8773-B597CF782EDD/L0/001.
func parseIdentifier(s string) (Ref, error) {
	if s == "" || strings.Contains(s, "://") {
		return Ref{}, ErrMalformed
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return Ref{}, ErrMalformed
	}

	head, _, _ := strings.Cut(s, "/")
	if _, err := uuid.Parse(head); err != nil {
		return Ref{}, ErrMalformed
	}
	return Ref{raw: s, Identifier: s}, nil
}
