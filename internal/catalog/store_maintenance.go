package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns catalog totals. Artists and albums count distinct non-empty values.
func (s *Store) Stats(ctx context.Context) (LibraryStats, error) {
	ctx = ensureContext(ctx)
	stats := LibraryStats{Formats: make(map[string]int)}
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(1),
        COUNT(DISTINCT NULLIF(artist, '')),
        COUNT(DISTINCT NULLIF(album, '')),
        COALESCE(SUM(duration), 0),
        COALESCE(SUM(file_size), 0)
    FROM tracks`)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalArtists, &stats.TotalAlbums, &stats.TotalDuration, &stats.TotalSize); err != nil {
		return stats, fmt.Errorf("catalog stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(format, ''), COUNT(1) FROM tracks GROUP BY format`)
	if err != nil {
		return stats, fmt.Errorf("format stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			format string
			count  int
		)
		if err := rows.Scan(&format, &count); err != nil {
			return stats, err
		}
		if format == "" {
			format = "unknown"
		}
		stats.Formats[format] += count
	}
	return stats, rows.Err()
}

var expectedTrackColumns = strings.Split(trackColumns, ", ")

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("catalog database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	rows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(tracks)")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("table info: %w", err)
	}
	present := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			health.Error = err.Error()
			return health, fmt.Errorf("scan table info: %w", err)
		}
		present[name] = struct{}{}
	}
	rows.Close()
	for _, col := range expectedTrackColumns {
		if _, ok := present[col]; !ok {
			health.MissingColumns = append(health.MissingColumns, col)
		}
	}

	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM tracks").Scan(&health.TotalTracks); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count tracks: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM duplicate_groups").Scan(&health.TotalGroups); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count duplicate groups: %w", err)
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	return health, nil
}
