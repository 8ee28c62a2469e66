package catalog

import (
	"errors"
	"time"

	"tunekeep/internal/dedupe"
)

// ErrTrackNotFound is returned when an operation targets a missing track ID.
var ErrTrackNotFound = errors.New("track not found")

// Track is a catalogued audio file with its tag metadata and audio properties.
type Track struct {
	ID           int64     `json:"id" yaml:"id"`
	Path         string    `json:"file_path" yaml:"file_path"`
	Filename     string    `json:"filename" yaml:"filename"`
	Size         int64     `json:"file_size" yaml:"file_size"`
	Hash         string    `json:"file_hash,omitempty" yaml:"file_hash,omitempty"`
	Format       string    `json:"format,omitempty" yaml:"format,omitempty"`
	Artist       string    `json:"artist,omitempty" yaml:"artist,omitempty"`
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	Album        string    `json:"album,omitempty" yaml:"album,omitempty"`
	Year         int       `json:"year,omitempty" yaml:"year,omitempty"`
	Genre        string    `json:"genre,omitempty" yaml:"genre,omitempty"`
	TrackNumber  int       `json:"track_number,omitempty" yaml:"track_number,omitempty"`
	Duration     float64   `json:"duration" yaml:"duration"`
	Bitrate      int       `json:"bitrate" yaml:"bitrate"`
	SampleRate   int       `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	Channels     int       `json:"channels,omitempty" yaml:"channels,omitempty"`
	HasArtwork   bool      `json:"has_artwork" yaml:"has_artwork"`
	DateAdded    time.Time `json:"date_added" yaml:"date_added"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Record converts the track to the detection view.
func (t Track) Record() dedupe.FileRecord {
	return dedupe.FileRecord{
		ID:       t.ID,
		Path:     t.Path,
		Size:     t.Size,
		Hash:     t.Hash,
		Artist:   t.Artist,
		Title:    t.Title,
		Album:    t.Album,
		Genre:    t.Genre,
		Duration: t.Duration,
		Bitrate:  t.Bitrate,
	}
}

// TrackUpdate carries a partial tag edit. Nil fields are left unchanged.
type TrackUpdate struct {
	Artist      *string
	Title       *string
	Album       *string
	Genre       *string
	Year        *int
	TrackNumber *int
	HasArtwork  *bool
}

// Empty reports whether the update changes nothing.
func (u TrackUpdate) Empty() bool {
	return u.Artist == nil && u.Title == nil && u.Album == nil && u.Genre == nil &&
		u.Year == nil && u.TrackNumber == nil && u.HasArtwork == nil
}

// Apply copies the set fields onto t.
func (u TrackUpdate) Apply(t *Track) {
	if u.Artist != nil {
		t.Artist = *u.Artist
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Album != nil {
		t.Album = *u.Album
	}
	if u.Genre != nil {
		t.Genre = *u.Genre
	}
	if u.Year != nil {
		t.Year = *u.Year
	}
	if u.TrackNumber != nil {
		t.TrackNumber = *u.TrackNumber
	}
	if u.HasArtwork != nil {
		t.HasArtwork = *u.HasArtwork
	}
}

// ListOptions pages through the catalog. A zero Limit returns every row.
type ListOptions struct {
	Limit  int
	Offset int
}

// BatchOptions bounds the number of rows committed per transaction.
type BatchOptions struct {
	Min int
	Max int
}

// BatchFailure records a track that could not be stored.
type BatchFailure struct {
	Path string
	Err  error
}

// BatchResult summarizes an UpsertBatch call.
type BatchResult struct {
	Stored   int
	Batches  int
	Failures []BatchFailure
}

// LibraryStats aggregates catalog totals.
type LibraryStats struct {
	TotalFiles    int            `json:"total_files"`
	TotalArtists  int            `json:"total_artists"`
	TotalAlbums   int            `json:"total_albums"`
	TotalDuration float64        `json:"total_duration"`
	TotalSize     int64          `json:"total_size"`
	Formats       map[string]int `json:"formats"`
}

// StoredGroup is a persisted duplicate group with its member tracks in rank order.
type StoredGroup struct {
	ID        int64     `json:"id"`
	Method    string    `json:"detection_method"`
	CreatedAt time.Time `json:"created_at"`
	Tracks    []Track   `json:"tracks"`
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	MissingColumns   []string `json:"missing_columns,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalTracks      int      `json:"total_tracks"`
	TotalGroups      int      `json:"total_groups"`
	Error            string   `json:"error,omitempty"`
}
