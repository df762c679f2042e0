// Spotify catalog implementation of [MetadataProvider]
//
// Uses the client-credentials grant; no user authorization is involved.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyPageSize = 100
)

// SpotifyOptions configures a [SpotifyProvider].
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	TokenURL     string       // defaults to the Spotify accounts endpoint
	APIBaseURL   string       // defaults to https://api.spotify.com/v1
	HTTPClient   *http.Client // base client for token and catalog requests
	Logger       *log.Logger
}

// SpotifyProvider implements [MetadataProvider] against the Spotify Web API.
//
// Credentials are fetched lazily and replaced reactively: a 401 from the catalog triggers a single
// re-authentication shared by every caller holding the same stale token.
type SpotifyProvider struct {
	config     clientcredentials.Config
	httpClient *http.Client
	client     *spotify.Client
	logger     *log.Logger

	mu    sync.RWMutex
	cred  models.Credential
	group singleflight.Group
}

// NewSpotifyProvider creates a provider with the given client credentials.
func NewSpotifyProvider(opts SpotifyOptions) (*SpotifyProvider, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret are required", shared.ErrMissingCredentials)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	p := &SpotifyProvider{
		config: clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		},
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}

	base := opts.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	apiClient := &http.Client{
		Timeout:   opts.HTTPClient.Timeout,
		Transport: &oauth2.Transport{Source: credentialSource{p}, Base: base},
	}
	p.client = spotify.New(apiClient, spotify.WithBaseURL(strings.TrimSuffix(opts.APIBaseURL, "/")+"/"))

	return p, nil
}

// Name returns the service name.
func (p *SpotifyProvider) Name() string {
	return "Spotify"
}

// Authenticate fetches a new access token, replacing the cached one.
func (p *SpotifyProvider) Authenticate(ctx context.Context) (models.Credential, error) {
	return p.reauthenticate(ctx, p.current().AccessToken)
}

// Credential returns a usable credential, authenticating first if none is cached.
func (p *SpotifyProvider) Credential(ctx context.Context) (models.Credential, error) {
	if cred := p.current(); cred.AccessToken != "" {
		return cred, nil
	}
	return p.reauthenticate(ctx, "")
}

// FetchPage returns one page of tracks.
//
// A rejected credential is refreshed and the same page is retried once. A second rejection returns an
// error wrapping [shared.ErrAuthFailed].
func (p *SpotifyProvider) FetchPage(ctx context.Context, collection models.Collection, pageToken string) (*models.TrackPage, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		return nil, err
	}

	page, err := p.fetch(ctx, collection, pageToken)
	if isUnauthorized(err) {
		p.logger.Warn("catalog rejected credential, re-authenticating", "collection", collection.ID)
		if _, err := p.reauthenticate(ctx, cred.AccessToken); err != nil {
			return nil, err
		}
		page, err = p.fetch(ctx, collection, pageToken)
		if isUnauthorized(err) {
			return nil, fmt.Errorf("%w: refreshed credential was rejected: %v", shared.ErrAuthFailed, err)
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return page, nil
}

func (p *SpotifyProvider) fetch(ctx context.Context, collection models.Collection, pageToken string) (*models.TrackPage, error) {
	switch collection.Kind {
	case models.KindTrack:
		if pageToken != "" {
			return &models.TrackPage{}, nil
		}
		track, err := p.client.GetTrack(ctx, spotify.ID(collection.ID))
		if err != nil {
			return nil, err
		}
		return &models.TrackPage{Tracks: []models.Track{convertTrack(track)}}, nil
	default:
		var items *spotify.PlaylistItemPage
		if pageToken == "" {
			var err error
			items, err = p.client.GetPlaylistItems(ctx, spotify.ID(collection.ID), spotify.Limit(spotifyPageSize))
			if err != nil {
				return nil, err
			}
		} else {
			items = &spotify.PlaylistItemPage{}
			items.Next = pageToken
			if err := p.client.NextPage(ctx, items); err != nil {
				return nil, err
			}
		}

		page := &models.TrackPage{Next: items.Next}
		for _, item := range items.Items {
			// Episodes and removed tracks have no track object
			if item.Track.Track == nil {
				continue
			}
			page.Tracks = append(page.Tracks, convertTrack(item.Track.Track))
		}
		return page, nil
	}
}

func (p *SpotifyProvider) current() models.Credential {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cred
}

// reauthenticate replaces the credential unless another caller already replaced stale.
func (p *SpotifyProvider) reauthenticate(ctx context.Context, stale string) (models.Credential, error) {
	v, err, _ := p.group.Do("credential", func() (any, error) {
		if cur := p.current(); cur.AccessToken != "" && cur.AccessToken != stale {
			return cur, nil
		}
		return p.fetchToken(ctx)
	})
	if err != nil {
		return models.Credential{}, err
	}
	return v.(models.Credential), nil
}

func (p *SpotifyProvider) fetchToken(ctx context.Context) (models.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.config.Token(ctx)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	cred := models.Credential{AccessToken: tok.AccessToken, ObtainedAt: time.Now()}
	p.mu.Lock()
	p.cred = cred
	p.mu.Unlock()

	p.logger.Debug("obtained spotify credential")
	return cred, nil
}

// credentialSource feeds the provider's cached credential to [oauth2.Transport].
type credentialSource struct {
	p *SpotifyProvider
}

func (s credentialSource) Token() (*oauth2.Token, error) {
	cred := s.p.current()
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: no credential", shared.ErrAuthFailed)
	}
	return &oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}, nil
}

func isUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return strings.Contains(err.Error(), "HTTP 401")
}

func convertTrack(t *spotify.FullTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	track := models.Track{
		ID:        string(t.ID),
		Title:     t.Name,
		Artists:   artists,
		Album:     t.Album.Name,
		Year:      models.ParseYear(t.Album.ReleaseDate),
		SourceURL: t.ExternalURLs["spotify"],
	}
	if len(t.Album.Images) > 0 {
		track.CoverURL = t.Album.Images[0].URL
	}
	return track
}
