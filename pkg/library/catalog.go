package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quidome/media-metadata-go/pkg/mediaref"
)

// Fetcher downloads a cloud copy identified by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string, w io.Writer) error
}

// CatalogOptions configures LoadCatalog.
type CatalogOptions struct {
	// Fetcher downloads non-resident originals. Nil disables downloads.
	Fetcher Fetcher

	// CacheDir stores downloaded originals. Defaults to
	// <user cache dir>/media-metadata.
	CacheDir string
}

type manifest struct {
	Assets []Asset `yaml:"assets"`
}

// Catalog is a Library backed by a YAML manifest.
//
// The manifest is read once. Relative asset paths are resolved against the
// manifest's directory.
type Catalog struct {
	assets   map[string]Asset
	fetcher  Fetcher
	cacheDir string
}

var _ Library = (*Catalog)(nil)

// LoadCatalog reads a manifest file.
func LoadCatalog(path string, opts CatalogOptions) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse library manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Assets {
		if p := m.Assets[i].Path; p != "" && !filepath.IsAbs(p) {
			m.Assets[i].Path = filepath.Join(base, filepath.FromSlash(p))
		}
	}
	return NewCatalog(m.Assets, opts)
}

// NewCatalog builds a catalog from assets. Identifiers must be valid local
// identifiers and unique.
func NewCatalog(assets []Asset, opts CatalogOptions) (*Catalog, error) {
	c := &Catalog{
		assets:   make(map[string]Asset, len(assets)),
		fetcher:  opts.Fetcher,
		cacheDir: opts.CacheDir,
	}
	if c.cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.cacheDir = filepath.Join(dir, "media-metadata")
	}

	for _, a := range assets {
		ref, err := mediaref.Parse(a.ID)
		if err != nil || !ref.IsLibrary() {
			return nil, fmt.Errorf("asset %q: invalid identifier", a.ID)
		}
		if _, dup := c.assets[a.ID]; dup {
			return nil, fmt.Errorf("asset %q: duplicate identifier", a.ID)
		}
		if a.MediaType == "" {
			a.MediaType = MediaTypeUnknown
		}
		if a.Filename == "" && a.Path != "" {
			a.Filename = filepath.Base(a.Path)
		}
		c.assets[a.ID] = a
	}
	return c, nil
}

// Len returns the number of assets.
func (c *Catalog) Len() int {
	return len(c.assets)
}

func (c *Catalog) Asset(ctx context.Context, id string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	a, ok := c.assets[id]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

func (c *Catalog) LocalPath(ctx context.Context, asset Asset, allowNetwork bool) (string, error) {
	if asset.Resident() {
		return asset.Path, nil
	}
	if !allowNetwork || c.fetcher == nil || asset.RemoteKey == "" {
		return "", fmt.Errorf("%w: %s", ErrNotResident, asset.ID)
	}

	dst := filepath.Join(c.cacheDir, cacheName(asset))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if err := c.download(ctx, asset.RemoteKey, dst); err != nil {
		return "", fmt.Errorf("download %s: %w", asset.ID, err)
	}
	return dst, nil
}

func (c *Catalog) RequestImageData(ctx context.Context, asset Asset, opts ImageRequestOptions) <-chan ImageDataResult {
	ch := make(chan ImageDataResult, 1)
	go func() {
		defer close(ch)

		path, err := c.LocalPath(ctx, asset, opts.NetworkAccessAllowed)
		if err != nil {
			ch <- ImageDataResult{Err: err}
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			ch <- ImageDataResult{Err: err}
			return
		}
		ch <- ImageDataResult{Data: data}
	}()
	return ch
}

// download writes to a temporary file and renames it into place so a
// cancelled download never leaves a partial original in the cache.
func (c *Catalog) download(ctx context.Context, key, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.fetcher.Fetch(ctx, key, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func cacheName(a Asset) string {
	name := strings.ReplaceAll(a.ID, "/", "_")
	return name + strings.ToLower(filepath.Ext(a.Filename))
}
