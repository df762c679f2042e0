// Package services defines the external capabilities of the download pipeline and implements them.
//
// # Interfaces
//
// The pipeline only depends on narrow interfaces:
//   - [MetadataProvider] : authenticate and page through a catalog collection
//   - [Searcher] : free-text query to media URL
//   - [Extractor] : media URL to MP3 file
//   - [Fetcher] : URL to bytes (cover art)
//
// # Spotify Implementation
//
// [SpotifyProvider] uses the client-credentials grant through [clientcredentials.Config] and the
// github.com/zmb3/spotify/v2 client for catalog calls. The cached credential is injected into every request
// by an [oauth2.Transport]. A 401 response triggers one single-flight re-authentication followed by one retry
// of the same page.
//
// # Search
//
// [Locator] wraps a [Searcher] with a primary descriptive query, a shorter fallback query and a rate limiter.
// Two backends exist: [YouTubeSearcher] (YouTube Data API, needs an API key) and [YtDlp] ("ytsearch1:").
//
// # Extraction
//
// [YtDlp] shells out to yt-dlp to extract audio as MP3 at the best quality. Tests replace the process runner
// with [WithRunner].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthFailed] : client credentials rejected, or a refreshed credential rejected again
//   - [shared.ErrAPIRequest] : catalog, search or HTTP request failed
//   - [shared.ErrDownloadFailed] : extractor process failed
//   - [shared.ErrMissingCredentials] : constructor called without credentials
package services
