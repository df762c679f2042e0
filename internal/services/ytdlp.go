// yt-dlp implementation of [Extractor] and [Searcher]
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/shared"
)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// YtDlp drives the yt-dlp binary for audio extraction and key-less search.
type YtDlp struct {
	path   string
	run    CommandRunner
	logger *log.Logger
}

// YtDlpOption configures a [YtDlp].
type YtDlpOption func(*YtDlp)

// WithRunner replaces the process runner.
func WithRunner(run CommandRunner) YtDlpOption {
	return func(y *YtDlp) { y.run = run }
}

// WithYtDlpLogger sets the logger used for command tracing.
func WithYtDlpLogger(l *log.Logger) YtDlpOption {
	return func(y *YtDlp) { y.logger = l }
}

// NewYtDlp creates a driver for the binary at path ("yt-dlp" resolves through $PATH).
func NewYtDlp(path string, opts ...YtDlpOption) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	y := &YtDlp{path: path, run: execRunner, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the service name.
func (y *YtDlp) Name() string {
	return "yt-dlp"
}

// Extract downloads the best audio stream of mediaURL and transcodes it to MP3 at outputPath.
//
// outputPath must end in ".mp3"; yt-dlp picks the intermediate extension itself.
// A literal "%" in the path is escaped so the output template does not expand it.
func (y *YtDlp) Extract(ctx context.Context, mediaURL, outputPath string) error {
	if !strings.HasSuffix(outputPath, ".mp3") {
		return fmt.Errorf("%w: output path %q must end in .mp3", shared.ErrInvalidArgument, outputPath)
	}
	template := strings.ReplaceAll(strings.TrimSuffix(outputPath, ".mp3"), "%", "%%") + ".%(ext)s"

	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-progress",
		"--output", template,
		mediaURL,
	}
	y.logger.Debug("running yt-dlp extract", "url", mediaURL, "output", outputPath)

	if _, err := y.run(ctx, y.path, args...); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	return nil
}

// Search returns the watch URL of the first YouTube result for query, or "" when there is none.
func (y *YtDlp) Search(ctx context.Context, query string) (string, error) {
	args := []string{
		"--flat-playlist",
		"--no-warnings",
		"--print", "id",
		"ytsearch1:" + query,
	}
	y.logger.Debug("running yt-dlp search", "query", query)

	out, err := y.run(ctx, y.path, args...)
	if err != nil {
		return "", fmt.Errorf("%w: yt-dlp search: %v", shared.ErrAPIRequest, err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			return youtubeWatchURL + id, nil
		}
	}
	return "", nil
}
