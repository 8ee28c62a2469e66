package catalog

import (
	"database/sql"
	"errors"
	"time"
)

const trackColumns = "id, file_path, filename, file_size, file_hash, format, artist, title, album, year, genre, track_number, duration, bitrate, sample_rate, channels, has_artwork, date_added, last_modified"

// trackOrder is the catalog's canonical listing order.
const trackOrder = "ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE, track_number, id"

// searchableFields whitelists the columns Search may filter on.
var searchableFields = []string{"artist", "title", "album", "genre"}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		t           Track
		hash        sql.NullString
		format      sql.NullString
		artist      sql.NullString
		title       sql.NullString
		album       sql.NullString
		year        sql.NullInt64
		genre       sql.NullString
		trackNumber sql.NullInt64
		sampleRate  sql.NullInt64
		channels    sql.NullInt64
		hasArtwork  int64
		addedRaw    string
		modifiedRaw string
	)
	if err := scanner.Scan(
		&t.ID,
		&t.Path,
		&t.Filename,
		&t.Size,
		&hash,
		&format,
		&artist,
		&title,
		&album,
		&year,
		&genre,
		&trackNumber,
		&t.Duration,
		&t.Bitrate,
		&sampleRate,
		&channels,
		&hasArtwork,
		&addedRaw,
		&modifiedRaw,
	); err != nil {
		return nil, err
	}
	t.Hash = hash.String
	t.Format = format.String
	t.Artist = artist.String
	t.Title = title.String
	t.Album = album.String
	t.Year = int(year.Int64)
	t.Genre = genre.String
	t.TrackNumber = int(trackNumber.Int64)
	t.SampleRate = int(sampleRate.Int64)
	t.Channels = int(channels.Int64)
	t.HasArtwork = hasArtwork != 0
	if added, err := parseTimeString(addedRaw); err == nil {
		t.DateAdded = added
	}
	if modified, err := parseTimeString(modifiedRaw); err == nil {
		t.LastModified = modified
	}
	return &t, nil
}

func scanTracks(rows *sql.Rows) ([]Track, error) {
	defer rows.Close()
	var out []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(values []int64) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
