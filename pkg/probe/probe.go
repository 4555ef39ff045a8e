// Package probe reads container and stream properties of media files.
//
// The FFprobe prober runs ffprobe and decodes its JSON output. Only the
// fields needed for duration and video track size are requested.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Stream is a single elementary stream of a container.
type Stream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format holds container-level properties.
type Format struct {
	// Duration is ffprobe's decimal seconds string, "N/A" or empty when unknown.
	Duration string `json:"duration"`
}

// Result is the parsed ffprobe output.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Duration returns the container duration in seconds. ok is false when the
// duration is missing, indefinite, not finite or negative.
func (r Result) Duration() (seconds float64, ok bool) {
	s := strings.TrimSpace(r.Format.Duration)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}
	return d, true
}

// VideoStreams returns the video streams in container order.
func (r Result) VideoStreams() []Stream {
	var out []Stream
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			out = append(out, s)
		}
	}
	return out
}

// Prober probes a media file on the local filesystem.
type Prober interface {
	Probe(ctx context.Context, path string) (Result, error)
}

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	// Path is the ffprobe executable. Defaults to "ffprobe".
	Path string

	// Runner defaults to ExecRunner.
	Runner Runner
}

// NewFFprobe returns an FFprobe using the given executable path.
func NewFFprobe(path string) *FFprobe {
	return &FFprobe{Path: path}
}

func (p *FFprobe) Probe(ctx context.Context, path string) (Result, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		"-of", "json",
		path,
	}

	out, err := runner.Run(ctx, bin, args...)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var res Result
	if err := json.Unmarshal(out, &res); err != nil {
		return Result{}, fmt.Errorf("decode ffprobe output for %s: %w", path, err)
	}
	return res, nil
}
