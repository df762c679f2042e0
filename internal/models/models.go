// package models defines the data model for the playlist download pipeline
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Placeholders written into tags when the catalog left a field empty.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownYear   = "Unknown Year"
)

// CollectionKind distinguishes a playlist reference from a single-track reference.
type CollectionKind int

const (
	KindPlaylist CollectionKind = iota
	KindTrack
)

func (k CollectionKind) String() string {
	switch k {
	case KindPlaylist:
		return "playlist"
	case KindTrack:
		return "track"
	default:
		return ""
	}
}

// Collection is a parsed catalog reference.
type Collection struct {
	Kind CollectionKind
	ID   string
}

// Track represents song metadata read from the catalog.
//
// A Track is immutable once built; stages only read from it.
type Track struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists"`
	Album     string   `json:"album,omitempty"`
	Year      string   `json:"year,omitempty"`
	CoverURL  string   `json:"cover_url,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "" when none is credited.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistDisplay joins all credited artists for display and tagging.
func (t Track) ArtistDisplay() string {
	return strings.Join(t.Artists, ", ")
}

// TrackPage is one page of a collection.
//
// Next is an opaque continuation token. Empty means the collection is exhausted.
type TrackPage struct {
	Tracks []Track
	Next   string
}

// Credential is a bearer token obtained from the metadata provider.
//
// Expiry is not tracked; an invalid token is detected when a request is rejected.
type Credential struct {
	AccessToken string    `json:"token"`
	ObtainedAt  time.Time `json:"obtained_at"`
}

// ResolvedMedia pairs a track with the media URL search found for it.
type ResolvedMedia struct {
	Track Track
	URL   string
}

// Found reports whether search produced a URL.
func (r ResolvedMedia) Found() bool {
	return r.URL != ""
}

// DownloadResult describes the outcome of a single download.
type DownloadResult struct {
	FilePath  string `json:"filePath"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// FailureRecord identifies a track that did not produce a file.
type FailureRecord struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (f FailureRecord) String() string {
	return fmt.Sprintf("%s - %s", f.Artist, f.Title)
}

// Tags is the metadata written into a downloaded file.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Year   string
	Cover  []byte
}

// TagsFor builds [Tags] from a track with an optional cover image.
func TagsFor(t Track, cover []byte) Tags {
	return Tags{
		Title:  t.Title,
		Artist: t.ArtistDisplay(),
		Album:  t.Album,
		Year:   t.Year,
		Cover:  cover,
	}
}

// WithDefaults returns a copy with every empty text field replaced by its placeholder.
func (t Tags) WithDefaults() Tags {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = UnknownTitle
	}
	if strings.TrimSpace(t.Artist) == "" {
		t.Artist = UnknownArtist
	}
	if strings.TrimSpace(t.Album) == "" {
		t.Album = UnknownAlbum
	}
	if strings.TrimSpace(t.Year) == "" {
		t.Year = UnknownYear
	}
	return t
}

// ParseYear extracts the year from a catalog release date ("2021", "2021-04", "2021-04-09").
//
// Returns "" when the date does not start with four digits.
func ParseYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	year := releaseDate[:4]
	for _, r := range year {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return year
}
