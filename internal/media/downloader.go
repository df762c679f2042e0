package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/services"
	"github.com/desertthunder/spotdl/internal/shared"
)

const audioExt = ".mp3"

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*.\x00-\x1f]`)

// Sanitize turns a track title into a file name stem.
//
// Reserved characters and every "." are removed and surrounding whitespace is trimmed; inner spacing is kept.
// A title with nothing left becomes [models.UnknownTitle].
func Sanitize(title string) string {
	cleaned := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, ""))
	if cleaned == "" {
		return models.UnknownTitle
	}
	return cleaned
}

// Downloader writes the audio behind a media URL to a uniquely named MP3 file.
//
// Safe for concurrent use: file names are reserved under a lock before extraction starts, so two downloads
// with the same title never pick the same path.
type Downloader struct {
	extractor services.Extractor
	logger    *log.Logger

	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewDownloader creates a Downloader backed by extractor.
func NewDownloader(extractor services.Extractor, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Downloader{
		extractor: extractor,
		logger:    logger,
		reserved:  make(map[string]struct{}),
	}
}

// Download extracts mediaURL into destDir as "<title>.mp3", "<title> (1).mp3", ...
//
// The result is successful only if the extractor reported success and the file exists afterwards.
// Failures return a non-nil result describing the attempt and an error wrapping [shared.ErrDownloadFailed].
func (d *Downloader) Download(ctx context.Context, mediaURL, destDir, desiredTitle string) (*models.DownloadResult, error) {
	if mediaURL == "" {
		return &models.DownloadResult{Detail: "no media url"}, fmt.Errorf("%w: %w: empty media url", shared.ErrDownloadFailed, shared.ErrInvalidArgument)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return &models.DownloadResult{Detail: err.Error()}, fmt.Errorf("%w: failed to create %s: %v", shared.ErrDownloadFailed, destDir, err)
	}

	path, release := d.reserve(destDir, Sanitize(desiredTitle))
	defer release()

	d.logger.Debug("extracting audio", "url", mediaURL, "path", path)
	if err := d.extractor.Extract(ctx, mediaURL, path); err != nil {
		result := &models.DownloadResult{FilePath: path, Detail: err.Error()}
		if errors.Is(err, shared.ErrDownloadFailed) {
			return result, err
		}
		return result, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	if _, err := os.Stat(path); err != nil {
		detail := "extractor reported success but no file was written"
		return &models.DownloadResult{FilePath: path, Detail: detail}, fmt.Errorf("%w: %s: %s", shared.ErrDownloadFailed, detail, path)
	}

	return &models.DownloadResult{FilePath: path, Succeeded: true}, nil
}

// reserve picks the first free path for stem and holds it until release is called.
func (d *Downloader) reserve(dir, stem string) (string, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for n := 0; ; n++ {
		name := stem + audioExt
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, audioExt)
		}
		path := filepath.Join(dir, name)

		if _, taken := d.reserved[path]; taken {
			continue
		}
		if _, err := os.Lstat(path); err == nil {
			continue
		}

		d.reserved[path] = struct{}{}
		return path, func() {
			d.mu.Lock()
			delete(d.reserved, path)
			d.mu.Unlock()
		}
	}
}
