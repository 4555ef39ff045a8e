package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/quidome/media-metadata-go/pkg/metadata"
)

type fakeAccessor struct {
	duration   float64
	mime       string
	timestamp  metadata.Timestamp
	dimensions metadata.Dimensions
	err        error

	gotPath string
	gotKind metadata.Kind
}

func (f *fakeAccessor) Duration(ctx context.Context, path string) (float64, error) {
	f.gotPath = path
	return f.duration, f.err
}

func (f *fakeAccessor) MimeType(ctx context.Context, path string) (string, error) {
	f.gotPath = path
	return f.mime, f.err
}

func (f *fakeAccessor) Timestamp(ctx context.Context, path string, kind metadata.Kind) (metadata.Timestamp, error) {
	f.gotPath = path
	f.gotKind = kind
	return f.timestamp, f.err
}

func (f *fakeAccessor) VideoDimensions(ctx context.Context, path string) (metadata.Dimensions, error) {
	f.gotPath = path
	return f.dimensions, f.err
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Success(t *testing.T) {
	acc := &fakeAccessor{
		duration:   12.5,
		mime:       "video/quicktime",
		timestamp:  metadata.Timestamp{Kind: metadata.TimestampModified, Modified: "2023-05-01T10:00:00.000Z"},
		dimensions: metadata.Dimensions{Height: 1080, Width: 1920},
	}
	s := New(acc, nil)
	ref := url.QueryEscape("file:///a/b/clip.mov")

	testCases := []struct {
		target string
		want   string
	}{
		{target: "/v1/duration?path=" + ref, want: `{"value":12.5}`},
		{target: "/v1/mime-type?path=" + ref, want: `{"value":"video/quicktime"}`},
		{target: "/v1/timestamp?type=video&path=" + ref, want: `{"value":{"kind":"modified","value":"2023-05-01T10:00:00.000Z"}}`},
		{target: "/v1/video-dimensions?path=" + ref, want: `{"value":{"height":1080,"width":1920}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(t, s, tc.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tc.want {
				t.Fatalf("unexpected body\n got: %s\nwant: %s", got, tc.want)
			}
			if acc.gotPath != "file:///a/b/clip.mov" {
				t.Fatalf("unexpected path %q", acc.gotPath)
			}
		})
	}
}

func TestServer_TimestampKind(t *testing.T) {
	acc := &fakeAccessor{timestamp: metadata.Timestamp{Kind: metadata.TimestampExif}}
	s := New(acc, nil)

	get(t, s, "/v1/timestamp?type=image&path=x")
	if acc.gotKind != metadata.KindImage {
		t.Fatalf("expected image kind, got %v", acc.gotKind)
	}
	get(t, s, "/v1/timestamp?path=x")
	if acc.gotKind != metadata.KindOther {
		t.Fatalf("expected other kind, got %v", acc.gotKind)
	}
}

func TestServer_Errors(t *testing.T) {
	testCases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{err: fmt.Errorf("%w: %q", metadata.ErrMalformedPath, ""), wantStatus: http.StatusBadRequest, wantCode: metadata.CodeMalformedPath},
		{err: metadata.ErrInvalidDuration, wantStatus: http.StatusUnprocessableEntity, wantCode: metadata.CodeInvalidDuration},
		{err: metadata.ErrAssetNotFound, wantStatus: http.StatusNotFound, wantCode: metadata.CodeAssetNotFound},
		{err: &metadata.ContentModificationDateError{Path: "/a", Err: fs.ErrNotExist}, wantStatus: http.StatusUnprocessableEntity, wantCode: metadata.CodeContentModificationDate},
		{err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: metadata.CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.wantCode, func(t *testing.T) {
			s := New(&fakeAccessor{err: tc.err}, nil)
			rec := get(t, s, "/v1/duration?path=x")

			if rec.Code != tc.wantStatus {
				t.Fatalf("unexpected status %d", rec.Code)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error.Code != tc.wantCode {
				t.Fatalf("unexpected code %q", body.Error.Code)
			}
			if body.Error.Message != tc.err.Error() {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
		})
	}
}

func TestServer_UnroutedRequestsAnswerJSON(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrong method",
			method:     http.MethodPost,
			target:     "/v1/duration?path=x",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   CodeMethodNotAllowed,
		},
		{
			name:       "unknown endpoint",
			method:     http.MethodGet,
			target:     "/v1/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
		{
			name:       "outside the API",
			method:     http.MethodGet,
			target:     "/",
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			acc := &fakeAccessor{}
			s := New(acc, nil)

			req := httptest.NewRequest(tc.method, tc.target, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("unexpected content type %q", ct)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
			}
			if body.Error.Code != tc.wantCode || body.Error.Message == "" {
				t.Fatalf("unexpected error body %+v", body.Error)
			}
			if acc.gotPath != "" {
				t.Fatalf("accessor should not be called, got path %q", acc.gotPath)
			}
		})
	}
}
