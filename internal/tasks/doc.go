// Package tasks runs the playlist download pipeline with real-time progress reporting.
//
// # Pipeline
//
// [PlaylistPipeline.Run] walks a collection through these states:
//
//	Idle → Authenticating → FetchingPage → ResolvingTrack → Downloading → Tagging → NextTrack | NextPage | Done
//
// with [Error] as the terminal state when the provider fails or the context is cancelled.
//
//  1. Authenticate against the metadata provider
//  2. Fetch pages, following the next pointer until it is empty
//  3. For each track: resolve a media URL (primary query, then fallback), download it, tag it
//  4. Flush the failure ledger once, when the run returns
//
// Per-track failures (no media found, download error) become ledger records and the run moves on.
// A tag failure keeps the file and is only counted. Pages are processed one track at a time unless
// [RunOptions.Concurrency] is above one, in which case a bounded errgroup works through the page and
// results keep collection order.
//
// [PlaylistPipeline.DownloadTrack] is the single-track path used by the HTTP surface: it downloads a
// URL the caller already resolved and never flushes.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends never block; updates are dropped when the
// channel is full.
package tasks
