package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/spotdl/internal/models"
	tu "github.com/desertthunder/spotdl/internal/testing"
)

var song = models.Track{
	ID:        "t1",
	Title:     "Song",
	Artists:   []string{"X", "Y"},
	SourceURL: "https://open.spotify.com/track/t1",
}

func TestQueries(t *testing.T) {
	if got := PrimaryQuery(song); got != "Song: Song, Artist: X, https://open.spotify.com/track/t1" {
		t.Errorf("unexpected primary query %q", got)
	}
	if got := SecondaryQuery(song); got != "Song: X" {
		t.Errorf("unexpected secondary query %q", got)
	}
	if got := PrimaryQuery(models.Track{Title: "Song", Artists: []string{"X"}}); got != "Song: Song, Artist: X" {
		t.Errorf("expected url segment to be omitted, got %q", got)
	}
}

func TestLocator(t *testing.T) {
	tests := []struct {
		name        string
		searcher    *tu.FakeSearcher
		override    string
		wantURL     string
		wantErr     bool
		wantQueries []string
	}{
		{
			name:        "primary hit",
			searcher:    &tu.FakeSearcher{Results: map[string]string{PrimaryQuery(song): "https://yt/1"}},
			wantURL:     "https://yt/1",
			wantQueries: []string{PrimaryQuery(song)},
		},
		{
			name:        "primary miss, secondary hit",
			searcher:    &tu.FakeSearcher{Results: map[string]string{SecondaryQuery(song): "https://yt/2"}},
			wantURL:     "https://yt/2",
			wantQueries: []string{PrimaryQuery(song), SecondaryQuery(song)},
		},
		{
			name:        "both miss",
			searcher:    &tu.FakeSearcher{},
			wantURL:     "",
			wantQueries: []string{PrimaryQuery(song), SecondaryQuery(song)},
		},
		{
			name:        "override replaces primary",
			searcher:    &tu.FakeSearcher{Results: map[string]string{"custom": "https://yt/3"}},
			override:    "custom",
			wantURL:     "https://yt/3",
			wantQueries: []string{"custom"},
		},
		{
			name:        "override miss still falls back",
			searcher:    &tu.FakeSearcher{Results: map[string]string{SecondaryQuery(song): "https://yt/2"}},
			override:    "custom",
			wantURL:     "https://yt/2",
			wantQueries: []string{"custom", SecondaryQuery(song)},
		},
		{
			name: "primary error, secondary hit",
			searcher: &tu.FakeSearcher{
				Results: map[string]string{SecondaryQuery(song): "https://yt/2"},
				Errs:    map[string]error{PrimaryQuery(song): errors.New("quota")},
			},
			wantURL:     "https://yt/2",
			wantQueries: []string{PrimaryQuery(song), SecondaryQuery(song)},
		},
		{
			name:        "both error",
			searcher:    &tu.FakeSearcher{Err: errors.New("offline")},
			wantErr:     true,
			wantQueries: []string{PrimaryQuery(song), SecondaryQuery(song)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := NewLocator(tt.searcher, 0, nil)
			media, err := locator.Locate(context.Background(), song, tt.override)

			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if media.URL != tt.wantURL {
				t.Errorf("expected url %q, got %q", tt.wantURL, media.URL)
			}
			if media.Found() != (tt.wantURL != "") {
				t.Errorf("Found() inconsistent with url %q", media.URL)
			}
			if media.Track.ID != song.ID {
				t.Errorf("expected track to be carried, got %+v", media.Track)
			}

			queries := tt.searcher.Calls()
			if len(queries) != len(tt.wantQueries) {
				t.Fatalf("expected queries %v, got %v", tt.wantQueries, queries)
			}
			for i := range queries {
				if queries[i] != tt.wantQueries[i] {
					t.Errorf("query %d: expected %q, got %q", i, tt.wantQueries[i], queries[i])
				}
			}
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		locator := NewLocator(&tu.FakeSearcher{}, 1, nil)
		if _, err := locator.Search(ctx, "q"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
