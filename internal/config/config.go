// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/quidome/media-metadata-go/internal/logger"
	"github.com/quidome/media-metadata-go/pkg/library"
)

// DefaultHTTPAddr is where `serve` listens unless HTTP_ADDR is set.
const DefaultHTTPAddr = "127.0.0.1:8089"

// Config holds every setting of the CLI and the HTTP bridge.
type Config struct {
	// LibraryPath is the media library manifest. Empty disables library
	// identifiers.
	LibraryPath     string
	LibraryCacheDir string
	FFprobePath     string
	HTTPAddr        string

	Log   logger.Config
	Minio library.MinioConfig
}

// MinioEnabled reports whether cloud downloads are configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.Bucket != ""
}

// Load reads envFiles (default ".env") without overriding variables that are
// already set, then builds a Config from the environment. Missing env files
// are not an error.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		LibraryPath:     getEnv("MEDIA_LIBRARY", ""),
		LibraryCacheDir: getEnv("LIBRARY_CACHE_DIR", ""),
		FFprobePath:     getEnv("FFPROBE_PATH", "ffprobe"),
		HTTPAddr:        getEnv("HTTP_ADDR", DefaultHTTPAddr),
		Log: logger.Config{
			Level:      getEnv("LOG_LEVEL", "warn"),
			OutputPath: getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
			Compress:   getEnvBool("LOG_COMPRESS", false),
		},
		Minio: library.MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			Region:    getEnv("MINIO_REGION", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
