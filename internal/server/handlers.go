package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/formatter"
	"github.com/desertthunder/spotdl/internal/metrics"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/tasks"
)

// MediaLocator resolves tracks and raw queries to video URLs. Implemented by services.Locator.
type MediaLocator interface {
	Locate(ctx context.Context, track models.Track, override string) (models.ResolvedMedia, error)
	Search(ctx context.Context, query string) (string, error)
}

// Authenticator issues catalog access tokens. Implemented by services.SpotifyProvider.
type Authenticator interface {
	Authenticate(ctx context.Context) (models.Credential, error)
}

// Deps are the collaborators the API handlers call.
type Deps struct {
	Pipeline *tasks.PlaylistPipeline
	Locator  MediaLocator
	Auth     Authenticator
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

// API serves the download endpoints.
type API struct {
	pipeline *tasks.PlaylistPipeline
	locator  MediaLocator
	auth     Authenticator
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// NewAPI creates an [API] from deps.
func NewAPI(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &API{
		pipeline: deps.Pipeline,
		locator:  deps.Locator,
		auth:     deps.Auth,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Register adds every route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/download", http.HandlerFunc(a.Download))
	r.Handle(http.MethodGet, "/youtube_search", http.HandlerFunc(a.YouTubeSearch))
	r.Handle(http.MethodPost, "/log-failed-downloads", http.HandlerFunc(a.LogFailedDownloads))
	r.Handle(http.MethodGet, "/get/spotify-token", http.HandlerFunc(a.SpotifyToken))
	r.Handle(http.MethodPost, "/playlist", http.HandlerFunc(a.Playlist))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.Health))
	r.Handler(metricsRoute{a.metrics.Handler()})
}

// metricsRoute serves the Prometheus registry for every method on /metrics.
type metricsRoute struct{ http.Handler }

func (metricsRoute) Routes() []string { return []string{"/metrics"} }

// NewRouter builds a [BasicRouter] with logging, recovery and CORS middleware and every API route.
//
// Logging wraps Recover so a recovered panic is logged with its 500 status.
func NewRouter(deps Deps) *BasicRouter {
	api := NewAPI(deps)
	r := NewBasicRouter()
	r.Use(Logging(api.logger), Recover(api.logger), CORS())
	api.Register(r)
	return r
}

// Download handles GET /download?url&title&artist&album&year&imageUrl.
//
// The video at url is downloaded into the downloads directory and tagged with the query metadata.
// A failed download is recorded in the failure ledger.
func (a *API) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mediaURL := q.Get("url")
	if mediaURL == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter", "")
		return
	}

	track := models.Track{
		Title:    q.Get("title"),
		Artists:  artistParam(q.Get("artist")),
		Album:    q.Get("album"),
		Year:     q.Get("year"),
		CoverURL: q.Get("imageUrl"),
	}

	res, err := a.pipeline.DownloadTrack(r.Context(), mediaURL, track)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error downloading", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Download completed",
		"filePath": res.FilePath,
		"tagged":   res.Tagged,
	})
}

// YouTubeSearch handles GET /youtube_search.
//
// With a title parameter the track is located with the primary and fallback queries (override replaces the primary).
// Otherwise override, or query, is searched as-is.
func (a *API) YouTubeSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		videoURL string
		err      error
	)
	if title := q.Get("title"); title != "" {
		track := models.Track{Title: title, Artists: artistParam(q.Get("artist")), SourceURL: q.Get("spotifyUrl")}
		var media models.ResolvedMedia
		media, err = a.locator.Locate(r.Context(), track, q.Get("override"))
		videoURL = media.URL
	} else {
		query := q.Get("override")
		if query == "" {
			query = q.Get("query")
		}
		if query == "" {
			writeError(w, http.StatusBadRequest, "Missing query parameter", "")
			return
		}
		videoURL, err = a.locator.Search(r.Context(), query)
	}

	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to search YouTube", err.Error())
	case videoURL == "":
		writeError(w, http.StatusNotFound, "Video not found", "")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"videoUrl": videoURL})
	}
}

// LogFailedDownloads handles POST /log-failed-downloads by flushing the failure ledger.
func (a *API) LogFailedDownloads(w http.ResponseWriter, r *http.Request) {
	n, err := a.pipeline.FlushLedger()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log download failures", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Failed downloads logged successfully",
		"logged":  n,
	})
}

// SpotifyToken handles GET /get/spotify-token with a freshly issued token.
func (a *API) SpotifyToken(w http.ResponseWriter, r *http.Request) {
	cred, err := a.auth.Authenticate(r.Context())
	if err != nil {
		a.logger.Error("failed to get Spotify token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get the Spotify token", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": cred.AccessToken})
}

// Playlist handles POST /playlist?url&override&concurrency by running the whole pipeline for the request.
func (a *API) Playlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	collectionURL := q.Get("url")
	if collectionURL == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter", "")
		return
	}

	opts := tasks.RunOptions{QueryOverride: q.Get("override")}
	if c := q.Get("concurrency"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid concurrency parameter", c)
			return
		}
		opts.Concurrency = n
	}

	result, err := a.pipeline.Run(r.Context(), collectionURL, opts, nil)
	summary := formatter.Summarize(result)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Error processing playlist",
			"details": err.Error(),
			"summary": summary,
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Health handles GET /healthz.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// artistParam keeps the artist parameter as one credit; "A, B" is already display form.
func artistParam(raw string) []string {
	if raw = strings.TrimSpace(raw); raw == "" {
		return nil
	}
	return []string{raw}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
