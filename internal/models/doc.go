// Package models defines the value types passed between the download pipeline's stages.
//
// The package contains three groups of types:
//
// 1. Catalog data: what the metadata provider returns
//   - [Track] : Song metadata taken from a catalog item
//   - [Collection] : A parsed playlist or single-track reference
//   - [TrackPage] : One page of tracks plus an opaque continuation token
//   - [Credential] : A short-lived bearer token
//
// 2. Stage results
//   - [ResolvedMedia] : A track paired with a media URL, or with nothing when search missed
//   - [DownloadResult] : The file a download produced
//   - [Tags] : Metadata written into the downloaded file
//
// 3. Failure reporting
//   - [FailureRecord] : A track that never produced a file
//
// None of these types are persisted. The only durable artifacts are the audio files themselves and the
// append-only failure log written by the ledger package.
package models
