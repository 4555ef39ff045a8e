package library

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings of the cloud bucket that stores
// non-resident originals.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioFetcher downloads originals from an S3-compatible bucket.
type MinioFetcher struct {
	client *minio.Client
	bucket string
}

var _ Fetcher = (*MinioFetcher)(nil)

// NewMinioFetcher creates a client for cfg. No request is made until Fetch.
func NewMinioFetcher(cfg MinioConfig) (*MinioFetcher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioFetcher{client: client, bucket: cfg.Bucket}, nil
}

func (f *MinioFetcher) Fetch(ctx context.Context, key string, w io.Writer) error {
	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get object %s/%s: %w", f.bucket, key, err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		return fmt.Errorf("read object %s/%s: %w", f.bucket, key, err)
	}
	return nil
}
