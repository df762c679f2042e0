// Package server exposes the download pipeline over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Recover], [Logging] and [CORS] are installed by [NewRouter].
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
//	GET  /download              → download + tag one resolved video (url, title, artist, album, year, imageUrl)
//	GET  /youtube_search        → resolve a query, or a title/artist pair with fallback, to a video URL
//	POST /log-failed-downloads  → append pending failures to failed_downloads.txt
//	GET  /get/spotify-token     → fresh client-credentials token
//	POST /playlist              → run the whole pipeline for a playlist or track URL
//	GET  /healthz               → liveness
//	GET  /metrics               → Prometheus exposition
//
// Errors are JSON objects with an "error" message and, where useful, "details".
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
