// Package server exposes the metadata operations over HTTP.
//
// Every request produces exactly one JSON response: {"value": ...} on
// success or {"error": {"code": ..., "message": ...}} on failure.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quidome/media-metadata-go/pkg/metadata"
)

// Accessor is the subset of *metadata.Accessor the server calls.
type Accessor interface {
	Duration(ctx context.Context, path string) (float64, error)
	MimeType(ctx context.Context, path string) (string, error)
	Timestamp(ctx context.Context, path string, kind metadata.Kind) (metadata.Timestamp, error)
	VideoDimensions(ctx context.Context, path string) (metadata.Dimensions, error)
}

// Server routes metadata requests to an Accessor.
type Server struct {
	acc    Accessor
	log    *zap.Logger
	router *mux.Router
}

// New builds a Server. A nil logger discards logs.
func New(acc Accessor, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{acc: acc, log: log, router: mux.NewRouter()}

	// Routes hang off the root router: a subrouter would report a method
	// mismatch as 404.
	s.router.HandleFunc("/v1/duration", s.handleDuration).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/mime-type", s.handleMimeType).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/timestamp", s.handleTimestamp).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/video-dimensions", s.handleVideoDimensions).Methods(http.MethodGet)
	s.router.Use(s.logRequests)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, CodeNotFound, "no such endpoint: "+r.URL.Path)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	v, err := s.acc.Duration(r.Context(), r.URL.Query().Get("path"))
	s.respond(w, v, err)
}

func (s *Server) handleMimeType(w http.ResponseWriter, r *http.Request) {
	v, err := s.acc.MimeType(r.Context(), r.URL.Query().Get("path"))
	s.respond(w, v, err)
}

func (s *Server) handleTimestamp(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := s.acc.Timestamp(r.Context(), q.Get("path"), metadata.ParseKind(q.Get("type")))
	s.respond(w, v, err)
}

func (s *Server) handleVideoDimensions(w http.ResponseWriter, r *http.Request) {
	v, err := s.acc.VideoDimensions(r.Context(), r.URL.Query().Get("path"))
	s.respond(w, v, err)
}

// Error codes for requests that never reach an operation.
const (
	CodeNotFound         = "NotFoundError"
	CodeMethodNotAllowed = "MethodNotAllowedError"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, value any, err error) {
	if err != nil {
		code := metadata.ErrorCode(err)
		status := statusFor(code)
		if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
			s.log.Error("request failed", zap.String("code", code), zap.Error(err))
		}
		s.writeError(w, status, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]errorBody{
		"error": {Code: code, Message: message},
	})
}

func statusFor(code string) int {
	switch code {
	case metadata.CodeMalformedPath:
		return http.StatusBadRequest
	case metadata.CodeAssetNotFound:
		return http.StatusNotFound
	case metadata.CodeInvalidDuration, metadata.CodeUnreadableImage, metadata.CodeContentModificationDate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ref", r.URL.Query().Get("path")),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
