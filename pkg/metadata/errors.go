package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPath is returned when a reference cannot be parsed or its
	// extension does not resolve to a type.
	ErrMalformedPath = errors.New("malformed path")

	// ErrInvalidDuration is returned when a media item has no finite duration.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrAssetNotFound is returned when a library identifier names no asset.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrUnreadableImage is returned when image bytes cannot be read or opened.
	ErrUnreadableImage = errors.New("unreadable image")
)

// ContentModificationDateError reports a failed filesystem date lookup.
type ContentModificationDateError struct {
	Path string
	Err  error
}

func (e *ContentModificationDateError) Error() string {
	return fmt.Sprintf("content modification date of %s: %v", e.Path, e.Err)
}

func (e *ContentModificationDateError) Unwrap() error {
	return e.Err
}

// Error codes used on the wire.
const (
	CodeMalformedPath           = "MalformedPathError"
	CodeInvalidDuration         = "InvalidDurationError"
	CodeContentModificationDate = "ContentModificationDateError"
	CodeAssetNotFound           = "AssetNotFoundError"
	CodeUnreadableImage         = "UnreadableImageError"
	CodeInternal                = "InternalError"
)

// ErrorCode maps err to its wire code.
func ErrorCode(err error) string {
	var cmd *ContentModificationDateError
	switch {
	case errors.As(err, &cmd):
		return CodeContentModificationDate
	case errors.Is(err, ErrMalformedPath):
		return CodeMalformedPath
	case errors.Is(err, ErrInvalidDuration):
		return CodeInvalidDuration
	case errors.Is(err, ErrAssetNotFound):
		return CodeAssetNotFound
	case errors.Is(err, ErrUnreadableImage):
		return CodeUnreadableImage
	default:
		return CodeInternal
	}
}
