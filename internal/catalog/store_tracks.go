package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tunekeep/internal/dedupe"
)

const upsertTrackSQL = `INSERT INTO tracks (
    file_path, filename, file_size, file_hash, format, artist, title, album, year, genre,
    track_number, duration, bitrate, sample_rate, channels, has_artwork, date_added, last_modified
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_path) DO UPDATE SET
    filename = excluded.filename,
    file_size = excluded.file_size,
    file_hash = excluded.file_hash,
    format = excluded.format,
    artist = excluded.artist,
    title = excluded.title,
    album = excluded.album,
    year = excluded.year,
    genre = excluded.genre,
    track_number = excluded.track_number,
    duration = excluded.duration,
    bitrate = excluded.bitrate,
    sample_rate = excluded.sample_rate,
    channels = excluded.channels,
    has_artwork = excluded.has_artwork,
    last_modified = excluded.last_modified
RETURNING id`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertArgs(t Track, now time.Time) []any {
	filename := t.Filename
	if filename == "" {
		filename = filepath.Base(t.Path)
	}
	added := t.DateAdded
	if added.IsZero() {
		added = now
	}
	return []any{
		t.Path,
		filename,
		t.Size,
		nullableString(t.Hash),
		nullableString(strings.ToLower(t.Format)),
		nullableString(t.Artist),
		nullableString(t.Title),
		nullableString(t.Album),
		nullableInt(t.Year),
		nullableString(t.Genre),
		nullableInt(t.TrackNumber),
		t.Duration,
		t.Bitrate,
		nullableInt(t.SampleRate),
		nullableInt(t.Channels),
		boolToInt(t.HasArtwork),
		formatTime(added),
		formatTime(now),
	}
}

func upsertOne(ctx context.Context, q queryRower, t Track, now time.Time) (int64, error) {
	if strings.TrimSpace(t.Path) == "" {
		return 0, errors.New("track path is empty")
	}
	var id int64
	if err := q.QueryRowContext(ctx, upsertTrackSQL, upsertArgs(t, now)...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Upsert inserts a track or refreshes the existing row with the same path.
// The track ID and date_added of an existing row are preserved.
func (s *Store) Upsert(ctx context.Context, t Track) (*Track, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := retryOnBusy(ctx, func() error {
		var upsertErr error
		id, upsertErr = upsertOne(ctx, s.db, t, time.Now().UTC())
		return upsertErr
	})
	if err != nil {
		return nil, fmt.Errorf("upsert track %q: %w", t.Path, err)
	}
	return s.GetByID(ctx, id)
}

// BatchSize returns the rows-per-transaction for n tracks: one percent of
// the input, clamped to [opts.Min, opts.Max].
func BatchSize(n int, opts BatchOptions) int {
	lo, hi := opts.Min, opts.Max
	if lo <= 0 {
		lo = 100
	}
	if hi < lo {
		hi = lo
	}
	return min(hi, max(lo, n/100))
}

// UpsertBatch stores tracks in transactions of BatchSize rows. A row that
// fails is recorded in the result and skipped; earlier batches stay committed
// when a later transaction fails.
func (s *Store) UpsertBatch(ctx context.Context, tracks []Track, opts BatchOptions) (BatchResult, error) {
	ctx = ensureContext(ctx)
	var result BatchResult
	if len(tracks) == 0 {
		return result, nil
	}
	size := BatchSize(len(tracks), opts)

	for start := 0; start < len(tracks); start += size {
		end := min(start+size, len(tracks))
		chunk := tracks[start:end]

		var (
			stored   int
			failures []BatchFailure
		)
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			stored, failures = 0, nil
			now := time.Now().UTC()
			for _, t := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := upsertOne(ctx, tx, t, now); err != nil {
					if isSQLiteBusy(err) {
						return err
					}
					failures = append(failures, BatchFailure{Path: t.Path, Err: err})
					continue
				}
				stored++
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("store batch %d-%d: %w", start, end, err)
		}
		result.Stored += stored
		result.Failures = append(result.Failures, failures...)
		result.Batches++
	}
	return result, nil
}

// GetByID fetches a track by identifier. A missing track yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return t, nil
}

// GetByPath fetches a track by its file path. A missing track yields (nil, nil).
func (s *Store) GetByPath(ctx context.Context, path string) (*Track, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+trackColumns+` FROM tracks WHERE file_path = ?`, path)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track by path: %w", err)
	}
	return t, nil
}

// GetMany fetches tracks by ID in catalog order. Unknown IDs are skipped.
func (s *Store) GetMany(ctx context.Context, ids []int64) ([]Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+trackColumns+` FROM tracks WHERE id IN (`+makePlaceholders(len(ids))+`) `+trackOrder,
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get tracks: %w", err)
	}
	return scanTracks(rows)
}

// List returns tracks ordered by artist, album, and track number.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Track, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := max(opts.Offset, 0)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+trackColumns+` FROM tracks `+trackOrder+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return scanTracks(rows)
}

// Count returns the number of catalogued tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}

// Search returns tracks whose selected fields contain term, case-insensitively.
// An empty field list searches artist, title, album, and genre.
func (s *Store) Search(ctx context.Context, term string, fields []string) ([]Track, error) {
	if len(fields) == 0 {
		fields = searchableFields
	}
	clauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	for _, field := range fields {
		column := strings.ToLower(strings.TrimSpace(field))
		if !isSearchable(column) {
			return nil, fmt.Errorf("search field %q is not searchable (use %s)", field, strings.Join(searchableFields, ", "))
		}
		clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+trackColumns+` FROM tracks WHERE `+strings.Join(clauses, " OR ")+` `+trackOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	return scanTracks(rows)
}

func isSearchable(column string) bool {
	for _, f := range searchableFields {
		if f == column {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// Update applies a partial tag edit and bumps last_modified.
func (s *Store) Update(ctx context.Context, id int64, update TrackUpdate) error {
	if update.Empty() {
		return nil
	}
	var (
		sets []string
		args []any
	)
	addString := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, nullableString(strings.TrimSpace(*v)))
		}
	}
	addInt := func(column string, v *int) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, nullableInt(*v))
		}
	}
	addString("artist", update.Artist)
	addString("title", update.Title)
	addString("album", update.Album)
	addString("genre", update.Genre)
	addInt("year", update.Year)
	addInt("track_number", update.TrackNumber)
	if update.HasArtwork != nil {
		sets = append(sets, "has_artwork = ?")
		args = append(args, boolToInt(*update.HasArtwork))
	}
	sets = append(sets, "last_modified = ?")
	args = append(args, formatTime(time.Now()), id)

	res, err := s.execWithRetry(ctx, `UPDATE tracks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update track %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// UpdatePath records a moved or renamed file.
func (s *Store) UpdatePath(ctx context.Context, id int64, newPath string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE tracks SET file_path = ?, filename = ?, last_modified = ? WHERE id = ?`,
		newPath, filepath.Base(newPath), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update track %d path: %w", id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrTrackNotFound, id)
	}
	return nil
}

// Remove deletes a track and its duplicate-group memberships.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove track %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RemoveMany deletes the given tracks and returns how many rows were removed.
func (s *Store) RemoveMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM tracks WHERE id IN (`+makePlaceholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return 0, fmt.Errorf("remove tracks: %w", err)
	}
	return res.RowsAffected()
}

// Snapshot returns every track as a detection record in catalog order.
func (s *Store) Snapshot(ctx context.Context) ([]dedupe.FileRecord, error) {
	tracks, err := s.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	records := make([]dedupe.FileRecord, len(tracks))
	for i, t := range tracks {
		records[i] = t.Record()
	}
	return records, nil
}
