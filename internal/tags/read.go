package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"tunekeep/internal/services"
)

// Info is everything Read learns about an audio file.
type Info struct {
	Format      string  `json:"format"`
	Artist      string  `json:"artist,omitempty"`
	Title       string  `json:"title,omitempty"`
	Album       string  `json:"album,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Year        int     `json:"year,omitempty"`
	TrackNumber int     `json:"track_number,omitempty"`
	HasArtwork  bool    `json:"has_artwork"`
	Duration    float64 `json:"duration"`
	Bitrate     int     `json:"bitrate"`
	SampleRate  int     `json:"sample_rate,omitempty"`
	Channels    int     `json:"channels,omitempty"`
}

var readable = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".mp4":  {},
	".ogg":  {},
	".wav":  {},
}

var writable = map[string]struct{}{
	".mp3":  {},
	".flac": {},
}

// Supported reports whether Read understands the file extension.
func Supported(path string) bool {
	_, ok := readable[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Writable reports whether Write can edit tags for the file extension.
func Writable(path string) bool {
	_, ok := writable[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FormatOf returns the lower-cased extension without the dot.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Read extracts tags and audio properties from path. A file without any tag
// block yields empty tag fields rather than an error.
func Read(path string) (Info, error) {
	info := Info{Format: FormatOf(path)}
	if !Supported(path) {
		return info, services.Wrap(services.ErrUnsupported, "tags", "read", fmt.Sprintf("format %q", info.Format), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return info, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Format != "wav" {
		meta, err := tag.ReadFrom(file)
		switch {
		case errors.Is(err, tag.ErrNoTagsFound):
		case err != nil:
			return info, fmt.Errorf("read tags %s: %w", path, err)
		default:
			applyMetadata(&info, meta)
		}
	}

	props, err := readProperties(path, info.Format)
	if err != nil {
		return info, fmt.Errorf("read properties %s: %w", path, err)
	}
	info.Duration = props.Duration
	info.SampleRate = props.SampleRate
	info.Channels = props.Channels
	info.Bitrate = props.Bitrate
	if info.Bitrate == 0 && info.Duration > 0 {
		info.Bitrate = int(float64(stat.Size()) * 8 / info.Duration)
	}
	return info, nil
}

func applyMetadata(info *Info, meta tag.Metadata) {
	info.Artist = strings.TrimSpace(meta.Artist())
	if info.Artist == "" {
		info.Artist = strings.TrimSpace(meta.AlbumArtist())
	}
	info.Title = strings.TrimSpace(meta.Title())
	info.Album = strings.TrimSpace(meta.Album())
	info.Genre = strings.TrimSpace(meta.Genre())
	info.Year = meta.Year()
	info.TrackNumber, _ = meta.Track()
	info.HasArtwork = meta.Picture() != nil
}
