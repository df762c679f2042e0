package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/spotdl/internal/shared"
)

type recordedCall struct {
	name string
	args []string
}

func recordingRunner(out string, err error, calls *[]recordedCall) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

func TestYtDlp(t *testing.T) {
	t.Run("Extract", func(t *testing.T) {
		t.Run("Builds Arguments", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("/usr/local/bin/yt-dlp", WithRunner(recordingRunner("", nil, &calls)))

			if err := y.Extract(context.Background(), "https://www.youtube.com/watch?v=abc", "/music/Song (1).mp3"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			call := calls[0]
			if call.name != "/usr/local/bin/yt-dlp" {
				t.Errorf("unexpected binary %s", call.name)
			}
			for _, want := range []string{"--extract-audio", "mp3", "0", "--no-playlist", "/music/Song (1).%(ext)s"} {
				if !slices.Contains(call.args, want) {
					t.Errorf("expected argument %q in %v", want, call.args)
				}
			}
			if call.args[len(call.args)-1] != "https://www.youtube.com/watch?v=abc" {
				t.Errorf("expected url as last argument, got %v", call.args)
			}
		})

		t.Run("Escapes Percent In Output Template", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("", nil, &calls)))

			if err := y.Extract(context.Background(), "u", "/music/50% Off (100%).mp3"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !slices.Contains(calls[0].args, "/music/50%% Off (100%%).%(ext)s") {
				t.Errorf("expected escaped template in %v", calls[0].args)
			}
		})

		t.Run("Rejects Non-MP3 Output", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("", nil, &calls)))
			if err := y.Extract(context.Background(), "u", "/music/song.m4a"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if len(calls) != 0 {
				t.Errorf("expected no process to run, got %d", len(calls))
			}
		})

		t.Run("Process Failure", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("", errors.New("exit status 1"), &calls)))
			if err := y.Extract(context.Background(), "u", "/music/song.mp3"); !errors.Is(err, shared.ErrDownloadFailed) {
				t.Errorf("expected ErrDownloadFailed, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("First Result", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("\nabc123\n", nil, &calls)))

			url, err := y.Search(context.Background(), "Song: A, Artist: B")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if url != "https://www.youtube.com/watch?v=abc123" {
				t.Errorf("unexpected url %s", url)
			}
			if calls[0].name != "yt-dlp" {
				t.Errorf("expected default binary, got %s", calls[0].name)
			}
			if !slices.Contains(calls[0].args, "ytsearch1:Song: A, Artist: B") {
				t.Errorf("expected ytsearch1 query in %v", calls[0].args)
			}
		})

		t.Run("No Result", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("", nil, &calls)))
			url, err := y.Search(context.Background(), "q")
			if err != nil || url != "" {
				t.Errorf("expected empty result, got %q, %v", url, err)
			}
		})

		t.Run("Failure", func(t *testing.T) {
			var calls []recordedCall
			y := NewYtDlp("", WithRunner(recordingRunner("", errors.New("boom"), &calls)))
			if _, err := y.Search(context.Background(), "q"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
