package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quidome/media-metadata-go/internal/config"
	"github.com/quidome/media-metadata-go/internal/logger"
	"github.com/quidome/media-metadata-go/internal/server"
	"github.com/quidome/media-metadata-go/pkg/createdat"
	"github.com/quidome/media-metadata-go/pkg/library"
	"github.com/quidome/media-metadata-go/pkg/mediaref"
	"github.com/quidome/media-metadata-go/pkg/metadata"
	"github.com/quidome/media-metadata-go/pkg/probe"
	"github.com/quidome/media-metadata-go/pkg/scan"
)

const version = "0.2.0"

type options struct {
	verbose     bool
	envFile     string
	libraryPath string
	ffprobePath string
	logLevel    string
	logFile     string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "media-metadata",
		Short:        "Read duration, MIME type, timestamp and video size of media items",
		Long:         "Media Metadata reads metadata of media items named by a file:// URL or a media library identifier.",
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Media Metadata CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&opts.libraryPath, "library", "", "media library manifest (overrides MEDIA_LIBRARY)")
	flags.StringVar(&opts.ffprobePath, "ffprobe", "", "ffprobe executable (overrides FFPROBE_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this rotated file (overrides LOG_FILE)")

	rootCmd.AddCommand(newDurationCmd(opts))
	rootCmd.AddCommand(newMimeTypeCmd(opts))
	rootCmd.AddCommand(newTimestampCmd(opts))
	rootCmd.AddCommand(newDimensionsCmd(opts))
	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

func newDurationCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "duration [ref]",
		Short: "Print the duration of a media item in seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, log, err := setup(cmd, loadConfig(opts))
			if err != nil {
				return err
			}
			defer log.Sync()

			v, err := acc.Duration(cmd.Context(), args[0])
			if err != nil {
				return coded(err)
			}
			return writeJSON(cmd, v)
		},
	}
}

func newMimeTypeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mime-type [ref]",
		Short: "Print the MIME type implied by a media item's extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, log, err := setup(cmd, loadConfig(opts))
			if err != nil {
				return err
			}
			defer log.Sync()

			v, err := acc.MimeType(cmd.Context(), args[0])
			if err != nil {
				return coded(err)
			}
			return writeJSON(cmd, v)
		},
	}
}

func newTimestampCmd(opts *options) *cobra.Command {
	var kind string

	timestampCmd := &cobra.Command{
		Use:   "timestamp [ref]",
		Short: "Print the capture or modification timestamp of a media item",
		Long:  "Print the EXIF DateTimeOriginal of an image (--type image), or the library creation date / file modification date of anything else.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, log, err := setup(cmd, loadConfig(opts))
			if err != nil {
				return err
			}
			defer log.Sync()

			v, err := acc.Timestamp(cmd.Context(), args[0], metadata.ParseKind(kind))
			if err != nil {
				return coded(err)
			}
			return writeJSON(cmd, v)
		},
	}

	timestampCmd.Flags().StringVar(&kind, "type", "video", `media kind: "image" or anything else`)

	return timestampCmd
}

func newDimensionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions [ref]",
		Short: "Print the natural size of the first video track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, log, err := setup(cmd, loadConfig(opts))
			if err != nil {
				return err
			}
			defer log.Sync()

			v, err := acc.VideoDimensions(cmd.Context(), args[0])
			if err != nil {
				return coded(err)
			}
			return writeJSON(cmd, v)
		},
	}
}

type inspectRecord struct {
	Path       string               `json:"path"`
	Ref        string               `json:"ref"`
	Kind       scan.Kind            `json:"kind"`
	MimeType   string               `json:"mime_type,omitempty"`
	Duration   *float64             `json:"duration,omitempty"`
	Dimensions *metadata.Dimensions `json:"dimensions,omitempty"`
	Timestamp  *metadata.Timestamp  `json:"timestamp,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	CreatedBy  createdat.Source     `json:"created_at_source"`
	Errors     map[string]string    `json:"errors,omitempty"`
}

func newInspectCmd(opts *options) *cobra.Command {
	var maxDepth int

	inspectCmd := &cobra.Command{
		Use:   "inspect [directory]",
		Short: "Print metadata of every media file in a directory",
		Long:  "Scan a directory for photos and videos and print one JSON object per file with all metadata that could be read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, log, err := setup(cmd, loadConfig(opts))
			if err != nil {
				return err
			}
			defer log.Sync()

			directory := args[0]
			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = maxDepth

			fsys := os.DirFS(directory)
			records, err := scan.ScanRecords(fsys, ".", scanOpts)
			if err != nil {
				return err
			}

			for _, rec := range records {
				out := inspect(cmd.Context(), acc, fsys, directory, rec)
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			}

			if opts.verbose {
				cmd.PrintErrf("inspected %d media files\n", len(records))
			}
			return nil
		},
	}

	inspectCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")

	return inspectCmd
}

func inspect(ctx context.Context, acc *metadata.Accessor, fsys fs.FS, dir string, rec scan.Record) inspectRecord {
	ref := mediaref.FileURL(filepath.Join(dir, filepath.FromSlash(rec.Path)))
	out := inspectRecord{Path: rec.Path, Ref: ref, Kind: rec.Kind}
	fail := func(op string, err error) {
		if out.Errors == nil {
			out.Errors = make(map[string]string)
		}
		out.Errors[op] = metadata.ErrorCode(err)
	}

	if mt, err := acc.MimeType(ctx, ref); err == nil {
		out.MimeType = mt
	} else {
		fail("mime_type", err)
	}

	if ts, err := acc.Timestamp(ctx, ref, rec.Kind.MediaKind()); err == nil {
		out.Timestamp = &ts
	} else {
		fail("timestamp", err)
	}

	if rec.Kind == scan.KindVideo {
		if d, err := acc.Duration(ctx, ref); err == nil {
			out.Duration = &d
		} else {
			fail("duration", err)
		}
		if dims, err := acc.VideoDimensions(ctx, ref); err == nil {
			out.Dimensions = &dims
		} else {
			fail("dimensions", err)
		}
	}

	if best, err := createdat.Determine(fsys, rec.Path, createdat.Options{}); err == nil {
		out.CreatedAt = best.CreatedAt
		out.CreatedBy = best.Source
	}
	return out
}

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metadata operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(opts)
			acc, log, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(acc, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return serveCmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *options) *config.Config {
	cfg := config.Load(opts.envFile)
	if opts.libraryPath != "" {
		cfg.LibraryPath = opts.libraryPath
	}
	if opts.ffprobePath != "" {
		cfg.FFprobePath = opts.ffprobePath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.OutputPath = opts.logFile
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg
}

func setup(cmd *cobra.Command, cfg *config.Config) (*metadata.Accessor, *zap.Logger, error) {
	log, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	var lib library.Library
	if cfg.LibraryPath != "" {
		var catalogOpts library.CatalogOptions
		catalogOpts.CacheDir = cfg.LibraryCacheDir
		if cfg.MinioEnabled() {
			fetcher, err := library.NewMinioFetcher(cfg.Minio)
			if err != nil {
				return nil, nil, err
			}
			catalogOpts.Fetcher = fetcher
		}
		catalog, err := library.LoadCatalog(cfg.LibraryPath, catalogOpts)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("library loaded", zap.String("path", cfg.LibraryPath), zap.Int("assets", catalog.Len()))
		lib = catalog
	}

	acc := metadata.New(metadata.Options{
		Prober:  probe.NewFFprobe(cfg.FFprobePath),
		Library: lib,
		Logger:  log,
	})
	return acc, log, nil
}

func coded(err error) error {
	return fmt.Errorf("%s: %w", metadata.ErrorCode(err), err)
}

func writeJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}
