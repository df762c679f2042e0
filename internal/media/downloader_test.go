package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/spotdl/internal/shared"
	tu "github.com/desertthunder/spotdl/internal/testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "plain", title: "Song", want: "Song"},
		{name: "reserved characters", title: `A<b>c:d"e/f\g|h?i*j`, want: "Abcdefghij"},
		{name: "dots removed", title: "Mr. Brightside...", want: "Mr Brightside"},
		{name: "ends trimmed", title: "  Hello   World  ", want: "Hello   World"},
		{name: "trim after removal", title: ". Song .", want: "Song"},
		{name: "control characters", title: "Tab\tNew\nLine", want: "TabNewLine"},
		{name: "only reserved", title: `???...`, want: "Unknown Title"},
		{name: "empty", title: "", want: "Unknown Title"},
		{name: "unicode kept", title: "Café – Noël", want: "Café – Noël"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.title); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDownloader(t *testing.T) {
	t.Run("writes sanitized file name", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "downloads")
		d := NewDownloader(&tu.FakeExtractor{}, nil)

		result, err := d.Download(context.Background(), "https://yt/1", dir, "Mr. Brightside")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Succeeded {
			t.Error("expected success")
		}
		if want := filepath.Join(dir, "Mr Brightside.mp3"); result.FilePath != want {
			t.Errorf("expected %s, got %s", want, result.FilePath)
		}
		tu.AssertFileExists(t, result.FilePath)
	})

	t.Run("inner spacing keeps titles apart", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDownloader(&tu.FakeExtractor{}, nil)

		for _, tc := range []struct{ title, file string }{
			{"A B", "A B.mp3"},
			{"A  B", "A  B.mp3"},
		} {
			result, err := d.Download(context.Background(), "https://yt/1", dir, tc.title)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if want := filepath.Join(dir, tc.file); result.FilePath != want {
				t.Errorf("%q: expected %s, got %s", tc.title, want, result.FilePath)
			}
		}
	})

	t.Run("collisions get numeric suffixes", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDownloader(&tu.FakeExtractor{}, nil)

		want := []string{"Song.mp3", "Song (1).mp3", "Song (2).mp3"}
		for _, name := range want {
			result, err := d.Download(context.Background(), "https://yt/1", dir, "Song")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.FilePath != filepath.Join(dir, name) {
				t.Errorf("expected %s, got %s", name, filepath.Base(result.FilePath))
			}
		}
	})

	t.Run("pre-existing file is never overwritten", func(t *testing.T) {
		dir := t.TempDir()
		existing := filepath.Join(dir, "Song.mp3")
		if err := os.WriteFile(existing, []byte("original"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		result, err := NewDownloader(&tu.FakeExtractor{}, nil).Download(context.Background(), "https://yt/1", dir, "Song")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(result.FilePath) != "Song (1).mp3" {
			t.Errorf("expected Song (1).mp3, got %s", filepath.Base(result.FilePath))
		}
		if got := tu.MustReadFile(t, existing); got != "original" {
			t.Errorf("existing file was modified: %q", got)
		}
	})

	t.Run("concurrent downloads pick distinct names", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDownloader(&tu.FakeExtractor{}, nil)

		const n = 8
		paths := make([]string, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := d.Download(context.Background(), fmt.Sprintf("https://yt/%d", i), dir, "Same Title")
				if err != nil {
					t.Errorf("download %d: %v", i, err)
					return
				}
				paths[i] = result.FilePath
			}(i)
		}
		wg.Wait()

		seen := make(map[string]bool)
		for _, p := range paths {
			if seen[p] {
				t.Errorf("duplicate path %s", p)
			}
			seen[p] = true
		}
	})

	t.Run("reservation is held while extracting", func(t *testing.T) {
		dir := t.TempDir()
		var inner string
		var d *Downloader
		extractor := &tu.FakeExtractor{}
		extractor.Hook = func(outputPath string) {
			if inner != "" {
				return
			}
			inner = "started"
			result, err := d.Download(context.Background(), "https://yt/2", dir, "Song")
			if err != nil {
				t.Errorf("nested download: %v", err)
				return
			}
			inner = filepath.Base(result.FilePath)
		}
		d = NewDownloader(extractor, nil)

		result, err := d.Download(context.Background(), "https://yt/1", dir, "Song")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(result.FilePath) != "Song.mp3" {
			t.Errorf("expected Song.mp3, got %s", filepath.Base(result.FilePath))
		}
		if inner != "Song (1).mp3" {
			t.Errorf("expected nested download to get Song (1).mp3, got %s", inner)
		}
	})

	t.Run("extractor failure", func(t *testing.T) {
		dir := t.TempDir()
		extractor := &tu.FakeExtractor{Fail: map[string]error{"https://yt/bad": errors.New("video unavailable")}}

		result, err := NewDownloader(extractor, nil).Download(context.Background(), "https://yt/bad", dir, "Song")
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}
		if result == nil || result.Succeeded {
			t.Errorf("expected failed result, got %+v", result)
		}
		tu.AssertNoFile(t, filepath.Join(dir, "Song.mp3"))
	})

	t.Run("missing output file is a failure", func(t *testing.T) {
		dir := t.TempDir()
		result, err := NewDownloader(&tu.FakeExtractor{SkipWrite: true}, nil).Download(context.Background(), "https://yt/1", dir, "Song")
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}
		if result.Succeeded {
			t.Error("expected Succeeded=false")
		}
	})

	t.Run("empty media url", func(t *testing.T) {
		_, err := NewDownloader(&tu.FakeExtractor{}, nil).Download(context.Background(), "", t.TempDir(), "Song")
		if !errors.Is(err, shared.ErrDownloadFailed) || !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrDownloadFailed and ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("failed download releases its name", func(t *testing.T) {
		dir := t.TempDir()
		extractor := &tu.FakeExtractor{Fail: map[string]error{"https://yt/bad": errors.New("boom")}}
		d := NewDownloader(extractor, nil)

		if _, err := d.Download(context.Background(), "https://yt/bad", dir, "Song"); err == nil {
			t.Fatal("expected failure")
		}
		result, err := d.Download(context.Background(), "https://yt/good", dir, "Song")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(result.FilePath) != "Song.mp3" {
			t.Errorf("expected Song.mp3 to be reusable, got %s", filepath.Base(result.FilePath))
		}
	})
}
