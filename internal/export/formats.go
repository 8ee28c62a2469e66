package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"tunekeep/internal/catalog"
	"tunekeep/internal/services"
)

// DefaultCSVFields are the columns written when no field list is given.
var DefaultCSVFields = []string{
	"file_path", "filename", "artist", "title", "album",
	"year", "genre", "track_number", "duration", "bitrate",
	"format", "file_size",
}

// ErrNothingToExport is returned when an export that needs rows gets none.
var ErrNothingToExport = errors.New("no files to export")

// WriteCSV writes a header and one row per track. Unknown field names
// produce empty columns.
func WriteCSV(w io.Writer, tracks []catalog.Track, fields []string) error {
	if len(tracks) == 0 {
		return services.Wrap(services.ErrValidation, "export", "csv", "", ErrNothingToExport)
	}
	if len(fields) == 0 {
		fields = DefaultCSVFields
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return err
	}
	row := make([]string, len(fields))
	for _, t := range tracks {
		for i, field := range fields {
			row[i] = FieldValue(t, field)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes tracks to a CSV file.
func ExportCSV(path string, tracks []catalog.Track, fields []string) error {
	if len(tracks) == 0 {
		return services.Wrap(services.ErrValidation, "export", "csv", "", ErrNothingToExport)
	}
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, tracks, fields) })
}

// FieldValue renders one track field as text. Zero year and track number
// render empty.
func FieldValue(t catalog.Track, field string) string {
	switch field {
	case "id":
		return strconv.FormatInt(t.ID, 10)
	case "file_path":
		return t.Path
	case "filename":
		if t.Filename != "" {
			return t.Filename
		}
		return filepath.Base(t.Path)
	case "file_size":
		return strconv.FormatInt(t.Size, 10)
	case "file_hash":
		return t.Hash
	case "format":
		return t.Format
	case "artist":
		return t.Artist
	case "title":
		return t.Title
	case "album":
		return t.Album
	case "year":
		return optionalInt(t.Year)
	case "genre":
		return t.Genre
	case "track_number":
		return optionalInt(t.TrackNumber)
	case "duration":
		return strconv.FormatFloat(t.Duration, 'f', -1, 64)
	case "bitrate":
		return strconv.Itoa(t.Bitrate)
	case "sample_rate":
		return strconv.Itoa(t.SampleRate)
	case "channels":
		return strconv.Itoa(t.Channels)
	case "has_artwork":
		return strconv.FormatBool(t.HasArtwork)
	default:
		return ""
	}
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// DefaultPlaylistName is used when WriteM3U gets an empty name.
const DefaultPlaylistName = "My Playlist"

// WriteM3U writes an extended M3U playlist. Durations are truncated to whole
// seconds and missing artist or title render as "Unknown".
func WriteM3U(w io.Writer, tracks []catalog.Track, name string) error {
	if name == "" {
		name = DefaultPlaylistName
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#EXTM3U\n#PLAYLIST:%s\n\n", name)
	for _, t := range tracks {
		fmt.Fprintf(bw, "#EXTINF:%d,%s - %s\n%s\n", int(t.Duration), orUnknown(t.Artist), orUnknown(t.Title), t.Path)
	}
	return bw.Flush()
}

// ExportM3U writes tracks to a playlist file.
func ExportM3U(path string, tracks []catalog.Track, name string) error {
	return writeFile(path, func(w io.Writer) error { return WriteM3U(w, tracks, name) })
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// WriteYAML encodes tracks as a YAML export document.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// ExportYAML writes tracks to a YAML file.
func ExportYAML(path string, doc Document) error {
	return writeFile(path, func(w io.Writer) error { return WriteYAML(w, doc) })
}
