// Package media turns a resolved media URL into a tagged MP3 on disk.
//
// [Downloader] picks a collision-free file name and delegates extraction to a [services.Extractor].
// [TagWriter] writes ID3v2 frames with github.com/bogem/id3v2/v2, normalising cover art to JPEG through
// [ImageService] first.
package media
