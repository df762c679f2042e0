// YouTube Data API implementation of [Searcher]
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/spotdl/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// YouTubeSearcher searches videos with the YouTube Data API v3 using an API key.
type YouTubeSearcher struct {
	svc *youtube.Service
}

// NewYouTubeSearcher creates a searcher authenticated with apiKey.
//
// Extra client options (endpoint, transport) are appended after the key.
func NewYouTubeSearcher(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeSearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api key is required", shared.ErrMissingCredentials)
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create youtube client: %v", shared.ErrServiceUnavailable, err)
	}
	return &YouTubeSearcher{svc: svc}, nil
}

// Name returns the service name.
func (y *YouTubeSearcher) Name() string {
	return "YouTube"
}

// Search returns the watch URL of the first video matching query, or "" when there is none.
func (y *YouTubeSearcher) Search(ctx context.Context, query string) (string, error) {
	resp, err := y.svc.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: youtube search: %v", shared.ErrAPIRequest, err)
	}
	if resp.HTTPStatusCode != 0 && resp.HTTPStatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: youtube search returned %d", shared.ErrAPIRequest, resp.HTTPStatusCode)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return youtubeWatchURL + item.Id.VideoId, nil
		}
	}
	return "", nil
}
