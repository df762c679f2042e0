package media

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/shared"
)

// TagWriter writes ID3v2 tags and front-cover art into MP3 files.
type TagWriter struct {
	images   *ImageService
	coverMax int
}

// NewTagWriter creates a TagWriter that shrinks cover art to coverMax pixels on its longest side.
func NewTagWriter(coverMax int) *TagWriter {
	if coverMax <= 0 {
		coverMax = DefaultCoverSize
	}
	return &TagWriter{images: NewImageService(), coverMax: coverMax}
}

// WriteTags sets title, artist, album, year and, when tags.Cover is non-empty, the front cover.
//
// Empty text fields are written as placeholders. Cover bytes that cannot be decoded fail the whole call
// before the file is opened, leaving it untouched. All errors wrap [shared.ErrTagWrite].
func (w *TagWriter) WriteTags(path string, tags models.Tags) error {
	tags = tags.WithDefaults()

	var cover []byte
	if len(tags.Cover) > 0 {
		normalized, err := w.images.Normalize(tags.Cover, w.coverMax)
		if err != nil {
			return fmt.Errorf("%w: cover art: %v", shared.ErrTagWrite, err)
		}
		cover = normalized
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", shared.ErrTagWrite, path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)
	tag.SetYear(tags.Year)

	if cover != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: failed to save %s: %v", shared.ErrTagWrite, path, err)
	}
	return nil
}
