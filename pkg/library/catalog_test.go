package library

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	photoID = "9F983DBA-EC35-42B8-8773-B597CF782EDD/L0/001"
	videoID = "1B0E2C4A-7D3F-4E21-9C55-0A6B8D1E2F30/L0/001"
	cloudID = "C7A1F0E2-3B4D-4C5E-8F6A-7B8C9D0E1F2A/L0/001"
)

const manifestYAML = `
assets:
  - id: 9F983DBA-EC35-42B8-8773-B597CF782EDD/L0/001
    media_type: image
    creation_date: 2023-05-01T10:00:00Z
    path: originals/IMG_0001.JPG
  - id: 1B0E2C4A-7D3F-4E21-9C55-0A6B8D1E2F30/L0/001
    filename: IMG_0002.MOV
    media_type: video
    creation_date: 2023-06-02T11:30:00Z
    path: /abs/IMG_0002.MOV
  - id: C7A1F0E2-3B4D-4C5E-8F6A-7B8C9D0E1F2A/L0/001
    filename: IMG_0003.HEIC
    media_type: image
    creation_date: 2023-07-03T12:00:00Z
    remote_key: originals/IMG_0003.HEIC
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "library.yaml")
	if err := os.WriteFile(path, []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeManifest(t)

	c, err := LoadCatalog(path, CatalogOptions{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 assets, got %d", c.Len())
	}

	photo, err := c.Asset(context.Background(), photoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPath := filepath.Join(filepath.Dir(path), "originals", "IMG_0001.JPG")
	if photo.Path != wantPath {
		t.Fatalf("unexpected path\n got: %q\nwant: %q", photo.Path, wantPath)
	}
	if photo.Filename != "IMG_0001.JPG" {
		t.Fatalf("expected filename from path, got %q", photo.Filename)
	}
	if photo.MediaType != MediaTypeImage {
		t.Fatalf("unexpected media type %q", photo.MediaType)
	}
	if want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC); !photo.CreationDate.Equal(want) {
		t.Fatalf("unexpected creation date %v", photo.CreationDate)
	}

	video, err := c.Asset(context.Background(), videoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.Path != "/abs/IMG_0002.MOV" {
		t.Fatalf("absolute path rewritten: %q", video.Path)
	}

	cloud, err := c.Asset(context.Background(), cloudID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cloud.Resident() {
		t.Fatalf("expected cloud asset to be non-resident")
	}
}

func TestCatalog_AssetNotFound(t *testing.T) {
	c, err := NewCatalog(nil, CatalogOptions{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Asset(context.Background(), photoID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewCatalog_RejectsBadIdentifiers(t *testing.T) {
	testCases := []struct {
		name   string
		assets []Asset
	}{
		{name: "not a uuid", assets: []Asset{{ID: "photo-1"}}},
		{name: "file url", assets: []Asset{{ID: "file:///a.jpg"}}},
		{name: "duplicate", assets: []Asset{{ID: photoID}, {ID: photoID}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCatalog(tc.assets, CatalogOptions{CacheDir: t.TempDir()}); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestCatalog_LocalPath_NonResidentWithoutNetwork(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("heic")}
	c := cloudCatalog(t, fetcher)

	a, _ := c.Asset(context.Background(), cloudID)
	_, err := c.LocalPath(context.Background(), a, false)
	if !errors.Is(err, ErrNotResident) {
		t.Fatalf("expected ErrNotResident, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch, got %d", fetcher.calls)
	}
}

func TestCatalog_LocalPath_DownloadsOnceAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("heic bytes")}
	c := cloudCatalog(t, fetcher)
	a, _ := c.Asset(context.Background(), cloudID)

	for i := 0; i < 2; i++ {
		path, err := c.LocalPath(context.Background(), a, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Ext(path) != ".heic" {
			t.Fatalf("expected .heic cache file, got %q", path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read cached file: %v", err)
		}
		if string(b) != "heic bytes" {
			t.Fatalf("unexpected cached content %q", b)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
	if fetcher.key != "originals/IMG_0003.HEIC" {
		t.Fatalf("unexpected key %q", fetcher.key)
	}
}

func TestCatalog_LocalPath_FailedDownloadLeavesNoCacheFile(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &fakeFetcher{err: boom}
	c := cloudCatalog(t, fetcher)
	a, _ := c.Asset(context.Background(), cloudID)

	_, err := c.LocalPath(context.Background(), a, true)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty cache dir, got %d entries", len(entries))
	}
}

func TestCatalog_RequestImageData_DeliversExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.JPG")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := NewCatalog([]Asset{{ID: photoID, MediaType: MediaTypeImage, Path: path}}, CatalogOptions{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := c.Asset(context.Background(), photoID)

	ch := c.RequestImageData(context.Background(), a, ImageRequestOptions{NetworkAccessAllowed: true})

	res, ok := <-ch
	if !ok {
		t.Fatalf("expected a result")
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if string(res.Data) != "jpeg bytes" {
		t.Fatalf("unexpected data %q", res.Data)
	}

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after one result")
	}
}

func TestCatalog_RequestImageData_ReportsError(t *testing.T) {
	c := cloudCatalog(t, nil)
	a, _ := c.Asset(context.Background(), cloudID)

	res := <-c.RequestImageData(context.Background(), a, ImageRequestOptions{NetworkAccessAllowed: true})
	if !errors.Is(res.Err, ErrNotResident) {
		t.Fatalf("expected ErrNotResident, got %v", res.Err)
	}
	if res.Data != nil {
		t.Fatalf("expected no data")
	}
}

func cloudCatalog(t *testing.T, fetcher Fetcher) *Catalog {
	t.Helper()
	opts := CatalogOptions{CacheDir: t.TempDir()}
	if fetcher != nil {
		opts.Fetcher = fetcher
	}
	c, err := NewCatalog([]Asset{{
		ID:        cloudID,
		Filename:  "IMG_0003.HEIC",
		MediaType: MediaTypeImage,
		RemoteKey: "originals/IMG_0003.HEIC",
	}}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

type fakeFetcher struct {
	data []byte
	err  error

	calls int
	key   string
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string, w io.Writer) error {
	f.calls++
	f.key = key
	if f.err != nil {
		return f.err
	}
	_, err := io.Copy(w, bytes.NewReader(f.data))
	return err
}
