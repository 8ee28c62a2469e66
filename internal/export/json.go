package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"tunekeep/internal/catalog"
	"tunekeep/internal/services"
)

// FormatVersion is written into every export header.
const FormatVersion = "1.0"

// Metadata is the export header.
type Metadata struct {
	ExportDate time.Time `json:"export_date" yaml:"export_date"`
	TotalFiles int       `json:"total_files" yaml:"total_files"`
	Version    string    `json:"version" yaml:"version"`
}

// Document is the top-level export shape.
type Document struct {
	Metadata Metadata        `json:"metadata" yaml:"metadata"`
	Files    []catalog.Track `json:"files" yaml:"files"`
}

// NewDocument wraps tracks with a header stamped at now.
func NewDocument(tracks []catalog.Track, now time.Time) Document {
	if tracks == nil {
		tracks = []catalog.Track{}
	}
	return Document{
		Metadata: Metadata{ExportDate: now, TotalFiles: len(tracks), Version: FormatVersion},
		Files:    tracks,
	}
}

// WriteJSON encodes tracks as an export document. Non-ASCII text is written
// as-is rather than escaped.
func WriteJSON(w io.Writer, tracks []catalog.Track, pretty bool, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewDocument(tracks, now))
}

// ExportJSON writes an export document to path, creating parent directories.
func ExportJSON(path string, tracks []catalog.Track, pretty bool) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, tracks, pretty, time.Now())
	})
}

// ReadJSON decodes tracks from an export document or a bare array of tracks.
// Entries without a file_path are dropped.
func ReadJSON(r io.Reader) ([]catalog.Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, services.Wrap(services.ErrValidation, "import", "decode", "invalid JSON", nil)
	}
	root := gjson.ParseBytes(data)
	var files gjson.Result
	switch {
	case root.IsArray():
		files = root
	case root.IsObject() && root.Get("files").IsArray():
		files = root.Get("files")
	default:
		return nil, services.Wrap(services.ErrValidation, "import", "decode", "invalid JSON format: expected an object with \"files\" or an array", nil)
	}

	var tracks []catalog.Track
	files.ForEach(func(_, entry gjson.Result) bool {
		if t, ok := trackFromJSON(entry); ok {
			tracks = append(tracks, t)
		}
		return true
	})
	return tracks, nil
}

// ImportJSON reads tracks from a JSON file.
func ImportJSON(path string) ([]catalog.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "import", "open", fmt.Sprintf("file %q not found", path), nil)
		}
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// trackFromJSON decodes one entry. Numbers may be JSON numbers or numeric
// strings; booleans may be true/false, 0/1 or "true"/"false".
func trackFromJSON(entry gjson.Result) (catalog.Track, bool) {
	if !entry.IsObject() {
		return catalog.Track{}, false
	}
	path := strings.TrimSpace(entry.Get("file_path").String())
	if path == "" {
		return catalog.Track{}, false
	}
	t := catalog.Track{
		ID:          entry.Get("id").Int(),
		Path:        path,
		Filename:    entry.Get("filename").String(),
		Size:        entry.Get("file_size").Int(),
		Hash:        entry.Get("file_hash").String(),
		Format:      entry.Get("format").String(),
		Artist:      entry.Get("artist").String(),
		Title:       entry.Get("title").String(),
		Album:       entry.Get("album").String(),
		Year:        int(entry.Get("year").Int()),
		Genre:       entry.Get("genre").String(),
		TrackNumber: int(entry.Get("track_number").Int()),
		Duration:    entry.Get("duration").Float(),
		Bitrate:     int(entry.Get("bitrate").Int()),
		SampleRate:  int(entry.Get("sample_rate").Int()),
		Channels:    int(entry.Get("channels").Int()),
		HasArtwork:  entry.Get("has_artwork").Bool(),
	}
	if t.Filename == "" {
		t.Filename = filepath.Base(path)
	}
	if t.Format == "" {
		t.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	t.DateAdded = parseTime(entry.Get("date_added").String())
	t.LastModified = parseTime(entry.Get("last_modified").String())
	return t, true
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ValidateJSONFile reports whether path holds well-formed JSON, with the
// decoder's position on failure. Files ending in .xz are decompressed first.
func ValidateJSONFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := maybeDecompress(path, f)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return services.Wrap(services.ErrValidation, "validate", "json", "Invalid JSON", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
