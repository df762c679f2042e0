// package services defines the external capabilities the download pipeline depends on
//
// Spotify (catalog), YouTube Data API and yt-dlp (search, extraction), HTTP (cover art)
package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/shared"
)

// MetadataProvider reads track metadata from a music catalog.
type MetadataProvider interface {
	// Authenticate obtains a fresh credential.
	// Returns an error wrapping [shared.ErrAuthFailed] if the client credentials are rejected.
	Authenticate(ctx context.Context) (models.Credential, error)

	// FetchPage returns one page of tracks for the collection.
	// An empty pageToken requests the first page.
	FetchPage(ctx context.Context, collection models.Collection, pageToken string) (*models.TrackPage, error)
}

// Searcher finds a media URL for a free-text query.
//
// An empty URL with a nil error means the search returned nothing.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Extractor fetches the audio behind a media URL and writes it, transcoded to MP3, to outputPath.
type Extractor interface {
	Extract(ctx context.Context, mediaURL, outputPath string) error
}

// Fetcher retrieves raw bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

var collectionPattern = regexp.MustCompile(`(playlist|track)[/:]([A-Za-z0-9]+)`)

// ParseCollection extracts a collection reference from a catalog URL or URI.
//
// Accepts "https://open.spotify.com/playlist/<id>?si=...", "spotify:track:<id>" and similar.
// Input that does not name a playlist or track is treated as a raw playlist id.
func ParseCollection(raw string) (models.Collection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Collection{}, fmt.Errorf("%w: collection url is empty", shared.ErrInvalidInput)
	}

	target := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		target = u.Path
	}

	if m := collectionPattern.FindStringSubmatch(target); m != nil {
		kind := models.KindPlaylist
		if m[1] == "track" {
			kind = models.KindTrack
		}
		return models.Collection{Kind: kind, ID: m[2]}, nil
	}

	return models.Collection{Kind: models.KindPlaylist, ID: raw}, nil
}
