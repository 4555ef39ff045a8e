package library

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewMinioFetcher_RequiresEndpointAndBucket(t *testing.T) {
	if _, err := NewMinioFetcher(MinioConfig{Bucket: "photos"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
	if _, err := NewMinioFetcher(MinioConfig{Endpoint: "127.0.0.1:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestMinioFetcher_Fetch(t *testing.T) {
	body := []byte("original bytes")
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2023, 7, 3, 12, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f, err := NewMinioFetcher(MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "photos",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := f.Fetch(context.Background(), "originals/IMG_0003.HEIC", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != string(body) {
		t.Fatalf("unexpected body %q", out.String())
	}
	if gotPath != "/photos/originals/IMG_0003.HEIC" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
}
