// Package library resolves media library identifiers to assets.
//
// A Library is the read-only device media library: it knows every asset by
// its local identifier, records when the asset was created, and hands out
// the original file, downloading it first when only a cloud copy exists.
package library

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no asset has the requested identifier.
	ErrNotFound = errors.New("asset not found")

	// ErrNotResident is returned when an asset's original is not on this
	// device and cannot be downloaded.
	ErrNotResident = errors.New("asset original is not resident")
)

// MediaType is the library's classification of an asset.
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeUnknown MediaType = "unknown"
)

// Asset is a single library item.
type Asset struct {
	ID           string    `yaml:"id"`
	Filename     string    `yaml:"filename"`
	MediaType    MediaType `yaml:"media_type"`
	CreationDate time.Time `yaml:"creation_date"`

	// Path is the on-device original. Empty when the asset lives only in
	// cloud storage.
	Path string `yaml:"path"`

	// RemoteKey is the object key of the cloud copy.
	RemoteKey string `yaml:"remote_key"`
}

// Resident reports whether the original is stored on this device.
func (a Asset) Resident() bool {
	return a.Path != ""
}

// ImageRequestOptions configures RequestImageData.
type ImageRequestOptions struct {
	// NetworkAccessAllowed permits downloading non-resident originals.
	NetworkAccessAllowed bool
}

// ImageDataResult is the single outcome of an image data request.
type ImageDataResult struct {
	Data []byte
	Err  error
}

// Library is the media library collaborator.
type Library interface {
	// Asset returns the asset with the given local identifier.
	Asset(ctx context.Context, id string) (Asset, error)

	// LocalPath returns a local path to the asset's original.
	LocalPath(ctx context.Context, asset Asset, allowNetwork bool) (string, error)

	// RequestImageData asynchronously loads the full-size original. The
	// returned channel yields exactly one result and is then closed.
	RequestImageData(ctx context.Context, asset Asset, opts ImageRequestOptions) <-chan ImageDataResult
}
