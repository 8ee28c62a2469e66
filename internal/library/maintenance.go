package library

import (
	"context"
	"time"

	"tunekeep/internal/catalog"
	"tunekeep/internal/export"
	"tunekeep/internal/logging"
	"tunekeep/internal/services"
	"tunekeep/internal/trash"
)

// PurgeTrash removes trash day directories older than maxAge. A zero maxAge
// uses duplicates.trash_retention_days; a retention of zero days keeps
// everything.
func (s *Service) PurgeTrash(ctx context.Context, maxAge time.Duration) (trash.CleanStaleResult, error) {
	ctx, logger := s.loggerFor(ctx, "trash")
	if maxAge <= 0 {
		days := s.cfg.Duplicates.TrashRetentionDays
		if days <= 0 {
			return trash.CleanStaleResult{}, nil
		}
		maxAge = time.Duration(days) * 24 * time.Hour
	}
	return trash.CleanStale(ctx, s.cfg.Paths.TrashDir, maxAge, logger), nil
}

// Backup writes a backup of the whole catalog to backup_dir and prunes old
// backups beyond backup.keep_count.
func (s *Service) Backup(ctx context.Context) (string, int, error) {
	ctx, logger := s.loggerFor(ctx, "backup")
	tracks, err := s.store.List(ctx, catalog.ListOptions{})
	if err != nil {
		return "", 0, err
	}
	path, err := export.CreateBackup(s.cfg.Paths.BackupDir, tracks, s.cfg.Backup.Compress, s.now())
	if err != nil {
		return "", 0, err
	}
	removed, err := export.CleanupOldBackups(s.cfg.Paths.BackupDir, s.cfg.Backup.KeepCount)
	if err != nil {
		logging.WarnWithContext(logger, "failed to prune old backups", "backup_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the backup directory"),
			logging.String(logging.FieldImpact, "older backups were kept"),
		)
	}
	logger.Info("backup created",
		logging.Path(path),
		logging.Int("tracks", len(tracks)),
		logging.Int("pruned", removed),
	)
	return path, removed, nil
}

// ImportOptions control Restore and Import. Replace clears the catalog
// before loading.
type ImportOptions struct {
	Replace bool
}

// ImportReport summarizes a catalog load.
type ImportReport struct {
	Read     int                    `json:"read"`
	Stored   int                    `json:"stored"`
	Cleared  int64                  `json:"cleared"`
	Failures []catalog.BatchFailure `json:"-"`
}

// Restore loads a backup file into the catalog.
func (s *Service) Restore(ctx context.Context, path string, opts ImportOptions) (ImportReport, error) {
	tracks, err := export.RestoreBackup(path)
	if err != nil {
		return ImportReport{}, err
	}
	return s.load(ctx, "restore", tracks, opts)
}

// Import loads a JSON export into the catalog.
func (s *Service) Import(ctx context.Context, path string, opts ImportOptions) (ImportReport, error) {
	tracks, err := export.ImportJSON(path)
	if err != nil {
		return ImportReport{}, err
	}
	return s.load(ctx, "import", tracks, opts)
}

func (s *Service) load(ctx context.Context, stage string, tracks []catalog.Track, opts ImportOptions) (ImportReport, error) {
	ctx, logger := s.loggerFor(ctx, stage)
	report := ImportReport{Read: len(tracks)}
	if len(tracks) == 0 {
		return report, services.Wrap(services.ErrValidation, stage, "load", "no tracks found in file", nil)
	}
	if opts.Replace {
		existing, err := s.store.List(ctx, catalog.ListOptions{})
		if err != nil {
			return report, err
		}
		ids := make([]int64, len(existing))
		for i, t := range existing {
			ids[i] = t.ID
		}
		cleared, err := s.store.RemoveMany(ctx, ids)
		if err != nil {
			return report, err
		}
		report.Cleared = cleared
	}
	// Imported IDs belong to another catalog; rows are keyed by path here.
	for i := range tracks {
		tracks[i].ID = 0
	}
	batch, err := s.store.UpsertBatch(ctx, tracks, catalog.BatchOptions{Min: s.cfg.Scan.BatchMin, Max: s.cfg.Scan.BatchMax})
	report.Stored = batch.Stored
	report.Failures = batch.Failures
	if err != nil {
		return report, err
	}
	logger.Info("catalog loaded",
		logging.Int("read", report.Read),
		logging.Int("stored", report.Stored),
		logging.Int64("cleared", report.Cleared),
		logging.Int("failed", len(report.Failures)),
	)
	return report, nil
}
