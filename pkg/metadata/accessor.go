// Package metadata answers duration, MIME type, timestamp and video size
// questions about a media item named by a library identifier or a file://
// URL.
//
// Every call is independent: the Accessor holds only its collaborators and
// keeps no state between calls.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/quidome/media-metadata-go/pkg/createdat"
	"github.com/quidome/media-metadata-go/pkg/library"
	"github.com/quidome/media-metadata-go/pkg/mediaref"
	"github.com/quidome/media-metadata-go/pkg/mimetype"
	"github.com/quidome/media-metadata-go/pkg/probe"
)

// Options configures an Accessor.
type Options struct {
	// Prober loads media containers. Defaults to ffprobe on PATH.
	Prober probe.Prober

	// Library resolves library identifiers. Nil means every identifier is
	// reported as ErrAssetNotFound.
	Library library.Library

	// Stat reads file metadata. Defaults to os.Stat.
	Stat createdat.StatFunc

	// ReadFile reads whole files. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	Logger *zap.Logger
}

// Accessor implements the four metadata operations.
type Accessor struct {
	prober   probe.Prober
	lib      library.Library
	stat     createdat.StatFunc
	readFile func(string) ([]byte, error)
	log      *zap.Logger
}

// New returns an Accessor with defaults filled in.
func New(opts Options) *Accessor {
	a := &Accessor{
		prober:   opts.Prober,
		lib:      opts.Library,
		stat:     opts.Stat,
		readFile: opts.ReadFile,
		log:      opts.Logger,
	}
	if a.prober == nil {
		a.prober = probe.NewFFprobe("ffprobe")
	}
	if a.stat == nil {
		a.stat = os.Stat
	}
	if a.readFile == nil {
		a.readFile = os.ReadFile
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Duration returns the duration of a media item in seconds.
func (a *Accessor) Duration(ctx context.Context, path string) (float64, error) {
	ref, err := parse(path)
	if err != nil {
		return 0, err
	}

	local, err := a.localPath(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return 0, err
		}
		return 0, unloadable(ctx, err)
	}

	res, err := a.prober.Probe(ctx, local)
	if err != nil {
		return 0, unloadable(ctx, err)
	}

	seconds, ok := res.Duration()
	if !ok {
		a.log.Debug("duration not finite", zap.String("path", path), zap.String("raw", res.Format.Duration))
		return 0, ErrInvalidDuration
	}
	a.log.Debug("duration", zap.String("path", path), zap.Float64("seconds", seconds))
	return seconds, nil
}

// MimeType returns the MIME type implied by a media item's file extension.
func (a *Accessor) MimeType(ctx context.Context, path string) (string, error) {
	ref, err := parse(path)
	if err != nil {
		return "", err
	}

	name := ref.Path
	if ref.IsLibrary() {
		asset, err := a.asset(ctx, ref)
		if err != nil {
			return "", err
		}
		name = asset.Filename
	}

	id, ok := mimetype.TypeIdentifier(filepath.Ext(name))
	if !ok {
		return "", fmt.Errorf("%w: no type for %q", ErrMalformedPath, filepath.Base(name))
	}
	mt, ok := mimetype.FromTypeIdentifier(id)
	if !ok {
		return "", fmt.Errorf("%w: no MIME type for %s", ErrMalformedPath, id)
	}
	a.log.Debug("mime type", zap.String("path", path), zap.String("uti", id), zap.String("mime", mt))
	return mt, nil
}

// Timestamp returns the capture or modification timestamp of a media item.
//
// Library assets yield the EXIF DateTimeOriginal for images and the library
// creation date otherwise. Files yield the EXIF DateTimeOriginal for images
// and the filesystem content-modification date otherwise.
func (a *Accessor) Timestamp(ctx context.Context, path string, kind Kind) (Timestamp, error) {
	ref, err := parse(path)
	if err != nil {
		return Timestamp{}, err
	}

	if ref.IsLibrary() {
		asset, err := a.asset(ctx, ref)
		if err != nil {
			return Timestamp{}, err
		}
		switch kind {
		case KindImage:
			return a.libraryImageTimestamp(ctx, asset)
		default:
			return Timestamp{Kind: TimestampCreated, Created: asset.CreationDate}, nil
		}
	}

	switch kind {
	case KindImage:
		b, err := a.readFile(ref.Path)
		if err != nil {
			return Timestamp{}, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
		}
		return exifTimestamp(b)
	default:
		mtime, err := createdat.ModificationDate(a.stat, ref.Path)
		if err != nil {
			return Timestamp{}, &ContentModificationDateError{Path: ref.Path, Err: err}
		}
		return Timestamp{Kind: TimestampModified, Modified: createdat.FormatModificationDate(mtime)}, nil
	}
}

// VideoDimensions returns the natural size of the first video track. Items
// that cannot be resolved or loaded, and items without a video track, report
// zero dimensions without an error.
func (a *Accessor) VideoDimensions(ctx context.Context, path string) (Dimensions, error) {
	ref, err := mediaref.Parse(path)
	if err != nil {
		return Dimensions{}, nil
	}

	local, err := a.localPath(ctx, ref)
	if err != nil {
		a.log.Debug("video dimensions: unresolved", zap.String("path", path), zap.Error(err))
		return Dimensions{}, ctx.Err()
	}

	res, err := a.prober.Probe(ctx, local)
	if err != nil {
		a.log.Debug("video dimensions: probe failed", zap.String("path", path), zap.Error(err))
		return Dimensions{}, ctx.Err()
	}

	tracks := res.VideoStreams()
	if len(tracks) == 0 {
		return Dimensions{}, nil
	}
	return Dimensions{Height: tracks[0].Height, Width: tracks[0].Width}, nil
}

func (a *Accessor) libraryImageTimestamp(ctx context.Context, asset library.Asset) (Timestamp, error) {
	ch := a.lib.RequestImageData(ctx, asset, library.ImageRequestOptions{NetworkAccessAllowed: true})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Timestamp{}, fmt.Errorf("%w: request image data for %s: %w", ErrUnreadableImage, asset.ID, res.Err)
		}
		return exifTimestamp(res.Data)
	case <-ctx.Done():
		return Timestamp{}, ctx.Err()
	}
}

// unloadable reports an asset that could not be loaded as having no usable
// duration, unless the caller gave up first.
func unloadable(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrInvalidDuration, err)
}

func exifTimestamp(b []byte) (Timestamp, error) {
	img, err := createdat.OpenImage(b)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
	}
	raw, ok := img.OriginalDateTime()
	return Timestamp{Kind: TimestampExif, ExifDateTimeOriginal: raw, ExifPresent: ok}, nil
}

func (a *Accessor) asset(ctx context.Context, ref mediaref.Ref) (library.Asset, error) {
	if a.lib == nil {
		return library.Asset{}, fmt.Errorf("%w: %s: no media library configured", ErrAssetNotFound, ref.Identifier)
	}
	asset, err := a.lib.Asset(ctx, ref.Identifier)
	if errors.Is(err, library.ErrNotFound) {
		return library.Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, ref.Identifier)
	}
	return asset, err
}

func (a *Accessor) localPath(ctx context.Context, ref mediaref.Ref) (string, error) {
	if !ref.IsLibrary() {
		return ref.Path, nil
	}
	asset, err := a.asset(ctx, ref)
	if err != nil {
		return "", err
	}
	return a.lib.LocalPath(ctx, asset, true)
}

func parse(path string) (mediaref.Ref, error) {
	ref, err := mediaref.Parse(path)
	if err != nil {
		return mediaref.Ref{}, fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	return ref, nil
}
