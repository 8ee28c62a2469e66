package tags

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"

	"tunekeep/internal/services"
)

// Edit is a partial tag update. Nil fields are left untouched.
type Edit struct {
	Artist      *string
	Title       *string
	Album       *string
	Genre       *string
	Year        *int
	TrackNumber *int
	Artwork     *Artwork
}

// Artwork is a front cover image. An empty MIMEType is sniffed from Data.
type Artwork struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return e.Artist == nil && e.Title == nil && e.Album == nil && e.Genre == nil &&
		e.Year == nil && e.TrackNumber == nil && e.Artwork == nil
}

func (a *Artwork) mimeType() string {
	if a.MIMEType != "" {
		return a.MIMEType
	}
	return http.DetectContentType(a.Data)
}

// Write applies edit to the tags stored in path.
func Write(path string, edit Edit) error {
	if edit.Empty() {
		return nil
	}
	switch FormatOf(path) {
	case "mp3":
		return writeID3(path, edit)
	case "flac":
		return writeVorbis(path, edit)
	default:
		return services.Wrap(services.ErrUnsupported, "tags", "write", fmt.Sprintf("format %q is read-only", FormatOf(path)), nil)
	}
}

func writeID3(path string, edit Edit) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 %s: %w", path, err)
	}
	defer tag.Close()

	if edit.Artist != nil {
		tag.SetArtist(strings.TrimSpace(*edit.Artist))
	}
	if edit.Title != nil {
		tag.SetTitle(strings.TrimSpace(*edit.Title))
	}
	if edit.Album != nil {
		tag.SetAlbum(strings.TrimSpace(*edit.Album))
	}
	if edit.Genre != nil {
		tag.SetGenre(strings.TrimSpace(*edit.Genre))
	}
	if edit.Year != nil {
		if year := intText(*edit.Year); year != "" {
			tag.SetYear(year)
		} else {
			tag.DeleteFrames(tag.CommonID("Year"))
		}
	}
	if edit.TrackNumber != nil {
		id := tag.CommonID("Track number/Position in set")
		tag.DeleteFrames(id)
		if *edit.TrackNumber > 0 {
			tag.AddTextFrame(id, tag.DefaultEncoding(), strconv.Itoa(*edit.TrackNumber))
		}
	}
	if edit.Artwork != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		if len(edit.Artwork.Data) > 0 {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    edit.Artwork.mimeType(),
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     edit.Artwork.Data,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 %s: %w", path, err)
	}
	return nil
}

// parseFLAC reads path with go-flac, which indexes the audio frames without
// a length check and panics on a stream that ends after its metadata.
func parseFLAC(path string) (f *goflac.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = services.Wrap(services.ErrValidation, "tags", "parse flac",
				fmt.Sprintf("%s has no audio frames after its metadata", path), fmt.Errorf("%v", r))
		}
	}()
	f, err = goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse flac %s: %w", path, err)
	}
	return f, nil
}

func writeVorbis(path string, edit Edit) error {
	f, err := parseFLAC(path)
	if err != nil {
		return err
	}

	var (
		comments *flacvorbis.MetaDataBlockVorbisComment
		idx      = -1
	)
	for i, block := range f.Meta {
		if block.Type == goflac.VorbisComment {
			comments, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return fmt.Errorf("parse vorbis comment %s: %w", path, err)
			}
			idx = i
			break
		}
	}
	if comments == nil {
		comments = flacvorbis.New()
	}

	if edit.Artist != nil {
		setComment(comments, flacvorbis.FIELD_ARTIST, strings.TrimSpace(*edit.Artist))
	}
	if edit.Title != nil {
		setComment(comments, flacvorbis.FIELD_TITLE, strings.TrimSpace(*edit.Title))
	}
	if edit.Album != nil {
		setComment(comments, flacvorbis.FIELD_ALBUM, strings.TrimSpace(*edit.Album))
	}
	if edit.Genre != nil {
		setComment(comments, flacvorbis.FIELD_GENRE, strings.TrimSpace(*edit.Genre))
	}
	if edit.Year != nil {
		setComment(comments, flacvorbis.FIELD_DATE, intText(*edit.Year))
	}
	if edit.TrackNumber != nil {
		setComment(comments, flacvorbis.FIELD_TRACKNUMBER, intText(*edit.TrackNumber))
	}

	block := comments.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if edit.Artwork != nil {
		kept := f.Meta[:0]
		for _, b := range f.Meta {
			if b.Type != goflac.Picture {
				kept = append(kept, b)
			}
		}
		f.Meta = kept
		if len(edit.Artwork.Data) > 0 {
			picture, err := flacpicture.NewFromImageData(
				flacpicture.PictureTypeFrontCover,
				"Front cover",
				edit.Artwork.Data,
				edit.Artwork.mimeType(),
			)
			if err != nil {
				return fmt.Errorf("build flac picture: %w", err)
			}
			pictureBlock := picture.Marshal()
			f.Meta = append(f.Meta, &pictureBlock)
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac %s: %w", path, err)
	}
	return nil
}

// setComment replaces every value of field. An empty value removes the field.
func setComment(c *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	prefix := strings.ToUpper(field) + "="
	kept := c.Comments[:0]
	for _, entry := range c.Comments {
		if !strings.HasPrefix(strings.ToUpper(entry), prefix) {
			kept = append(kept, entry)
		}
	}
	c.Comments = kept
	if value != "" {
		_ = c.Add(field, value)
	}
}

func intText(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
