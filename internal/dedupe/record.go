package dedupe

import "strings"

// FileRecord is the read-only view of a catalog track used for detection.
// Records with ID 0 are never grouped.
type FileRecord struct {
	ID       int64   `json:"id"`
	Path     string  `json:"file_path"`
	Size     int64   `json:"file_size"`
	Hash     string  `json:"file_hash,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	Title    string  `json:"title,omitempty"`
	Album    string  `json:"album,omitempty"`
	Genre    string  `json:"genre,omitempty"`
	Duration float64 `json:"duration"`
	Bitrate  int     `json:"bitrate"`
}

// Field names a comparable text attribute of a FileRecord.
type Field string

const (
	FieldArtist Field = "artist"
	FieldTitle  Field = "title"
	FieldAlbum  Field = "album"
	FieldGenre  Field = "genre"
)

// DefaultFields are compared when MetadataOptions.Fields is empty.
var DefaultFields = []Field{FieldArtist, FieldTitle, FieldAlbum}

// Value returns the record's text for field, or "" for unknown fields.
func (r FileRecord) Value(field Field) string {
	switch field {
	case FieldArtist:
		return r.Artist
	case FieldTitle:
		return r.Title
	case FieldAlbum:
		return r.Album
	case FieldGenre:
		return r.Genre
	default:
		return ""
	}
}

// ParseFields converts configuration strings to fields, ignoring unknown names.
func ParseFields(names []string) []Field {
	out := make([]Field, 0, len(names))
	for _, name := range names {
		switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
		case FieldArtist, FieldTitle, FieldAlbum, FieldGenre:
			out = append(out, f)
		}
	}
	return out
}

// Method identifies the strategy that produced a group.
type Method string

const (
	MethodMetadata Method = "metadata"
	MethodHash     Method = "hash"
	MethodSize     Method = "size"
)

// Group is an ordered set of at least two records believed to be the same
// recording. Method lists the contributing strategies joined with "+".
type Group struct {
	Method Method       `json:"method"`
	Files  []FileRecord `json:"files"`
}

// Len returns the number of records in the group.
func (g Group) Len() int { return len(g.Files) }

// IDs returns the record identifiers in group order.
func (g Group) IDs() []int64 {
	ids := make([]int64, len(g.Files))
	for i, f := range g.Files {
		ids[i] = f.ID
	}
	return ids
}

func (m Method) parts() []Method {
	if m == "" {
		return nil
	}
	raw := strings.Split(string(m), "+")
	out := make([]Method, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, Method(p))
		}
	}
	return out
}

// eligible drops records without an ID and collapses repeated IDs to their
// first occurrence.
func eligible(records []FileRecord) []FileRecord {
	out := make([]FileRecord, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if r.ID == 0 {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
