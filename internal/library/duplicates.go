package library

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tunekeep/internal/catalog"
	"tunekeep/internal/config"
	"tunekeep/internal/dedupe"
	"tunekeep/internal/logging"
	"tunekeep/internal/services"
	"tunekeep/internal/trash"
)

// DetectOverrides adjust detection for a single run. Nil fields keep the
// configured value.
type DetectOverrides struct {
	Tolerance   *float64
	UseMetadata *bool
	UseHash     *bool
	UseSize     *bool
	Fields      []string
}

// DuplicateReport is the outcome of FindDuplicates. Groups are ranked with
// the file to keep first.
type DuplicateReport struct {
	Groups    []dedupe.Group `json:"groups"`
	Stats     dedupe.Stats   `json:"stats"`
	Persisted bool           `json:"persisted"`
}

// DetectionConfig maps the duplicates configuration onto detector settings.
func DetectionConfig(d config.Duplicates) (dedupe.Config, error) {
	scorer, err := dedupe.ScorerByName(d.Similarity)
	if err != nil {
		return dedupe.Config{}, services.Wrap(services.ErrConfiguration, "duplicates", "similarity", "", err)
	}
	return dedupe.Config{
		UseMetadata: d.UseMetadata,
		UseHash:     d.UseHash,
		UseSize:     d.UseSize,
		Metadata: dedupe.MetadataOptions{
			Fields:            dedupe.ParseFields(d.CompareFields),
			Tolerance:         dedupe.Tolerance(d.Tolerance),
			DurationTolerance: d.DurationToleranceSeconds,
			Scorer:            scorer,
			FoldDiacritics:    d.FoldDiacritics,
		},
		PartitionByArtist: d.PartitionByArtist,
	}, nil
}

func (o DetectOverrides) apply(d config.Duplicates) (config.Duplicates, error) {
	if o.Tolerance != nil {
		if *o.Tolerance < 0 || *o.Tolerance > 1 {
			return d, services.Wrap(services.ErrValidation, "duplicates", "tolerance", "tolerance must be between 0 and 1", nil)
		}
		d.Tolerance = *o.Tolerance
	}
	if o.UseMetadata != nil {
		d.UseMetadata = *o.UseMetadata
	}
	if o.UseHash != nil {
		d.UseHash = *o.UseHash
	}
	if o.UseSize != nil {
		d.UseSize = *o.UseSize
	}
	if len(o.Fields) > 0 {
		fields := dedupe.ParseFields(o.Fields)
		if len(fields) != len(o.Fields) {
			return d, services.Wrap(services.ErrValidation, "duplicates", "fields", "fields must be artist, title, album or genre", nil)
		}
		d.CompareFields = o.Fields
	}
	if !d.UseMetadata && !d.UseHash && !d.UseSize {
		return d, services.Wrap(services.ErrValidation, "duplicates", "strategies", "enable at least one detection strategy", nil)
	}
	return d, nil
}

// FindDuplicates detects duplicate groups over the whole catalog. When
// duplicates.persist_groups is set the ranked groups replace the stored ones.
func (s *Service) FindDuplicates(ctx context.Context, overrides DetectOverrides) (DuplicateReport, error) {
	ctx, logger := s.loggerFor(ctx, "duplicates")
	settings, err := overrides.apply(s.cfg.Duplicates)
	if err != nil {
		return DuplicateReport{}, err
	}
	detectCfg, err := DetectionConfig(settings)
	if err != nil {
		return DuplicateReport{}, err
	}
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return DuplicateReport{}, err
	}

	groups := dedupe.Detect(records, detectCfg)
	for i := range groups {
		groups[i].Files = dedupe.Rank(groups[i].Files, settings.KeepHighestQuality)
	}
	report := DuplicateReport{Groups: groups, Stats: dedupe.Summarize(groups)}

	if settings.PersistGroups {
		if _, err := s.store.SaveDuplicateGroups(ctx, groups); err != nil {
			return report, fmt.Errorf("persist duplicate groups: %w", err)
		}
		report.Persisted = true
	}
	logger.Info("duplicate detection complete",
		logging.Int("records", len(records)),
		logging.Int("groups", report.Stats.TotalGroups),
		logging.Int("redundant_files", report.Stats.TotalFiles),
		logging.Float64("wasted_mb", report.Stats.WastedSpaceMB),
	)
	return report, nil
}

// StoredDuplicates returns the groups saved by the last detection run along
// with their statistics.
func (s *Service) StoredDuplicates(ctx context.Context) ([]catalog.StoredGroup, dedupe.Stats, error) {
	stored, err := s.store.DuplicateGroups(ctx)
	if err != nil {
		return nil, dedupe.Stats{}, err
	}
	return stored, dedupe.Summarize(GroupsFromStored(stored)), nil
}

// CleanAction names what happens to a file selected for removal.
type CleanAction string

const (
	ActionTrash  CleanAction = "trash"
	ActionDelete CleanAction = "delete"
)

// CleanOptions control CleanDuplicates. The zero value is a dry run that
// would move files to the trash.
type CleanOptions struct {
	Apply  bool
	Delete bool
}

// CleanOutcome records what happened to one file.
type CleanOutcome struct {
	Track       dedupe.FileRecord `json:"track"`
	Action      CleanAction       `json:"action"`
	Destination string            `json:"destination,omitempty"`
	Done        bool              `json:"done"`
	Error       string            `json:"error,omitempty"`
}

// CleanReport summarizes a CleanDuplicates run.
type CleanReport struct {
	DryRun         bool           `json:"dry_run"`
	Outcomes       []CleanOutcome `json:"outcomes"`
	Removed        int            `json:"removed"`
	Failed         int            `json:"failed"`
	ReclaimedBytes int64          `json:"reclaimed_bytes"`
}

// CleanDuplicates removes every file but the best of each group. Groups come
// from the last persisted detection run when available, otherwise a fresh
// detection runs. Failures on individual files are reported and do not stop
// the run; completed removals are not rolled back.
func (s *Service) CleanDuplicates(ctx context.Context, opts CleanOptions) (CleanReport, error) {
	ctx, logger := s.loggerFor(ctx, "duplicates")
	groups, err := s.groupsForCleaning(ctx)
	if err != nil {
		return CleanReport{}, err
	}

	action := ActionTrash
	if opts.Delete {
		action = ActionDelete
	}
	report := CleanReport{DryRun: !opts.Apply}
	var removedIDs []int64
	for _, rec := range dedupe.SelectForRemoval(groups, s.cfg.Duplicates.KeepHighestQuality) {
		outcome := CleanOutcome{Track: rec, Action: action}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !opts.Apply {
			report.Outcomes = append(report.Outcomes, outcome)
			report.ReclaimedBytes += rec.Size
			continue
		}
		dest, err := s.discard(rec.Path, action)
		switch {
		case err != nil && !errors.Is(err, os.ErrNotExist):
			outcome.Error = err.Error()
			report.Failed++
			logger.Warn("failed to remove duplicate",
				logging.Path(rec.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "duplicate_remove_failed"),
				logging.String(logging.FieldErrorHint, "check file permissions and the trash directory"),
			)
		default:
			// A file already gone still leaves a stale catalog row to drop.
			outcome.Done = true
			outcome.Destination = dest
			removedIDs = append(removedIDs, rec.ID)
			report.Removed++
			report.ReclaimedBytes += rec.Size
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if len(removedIDs) > 0 {
		if _, err := s.store.RemoveMany(ctx, removedIDs); err != nil {
			return report, fmt.Errorf("remove cleaned tracks from catalog: %w", err)
		}
	}
	logger.Info("duplicate cleanup complete",
		logging.Bool("dry_run", report.DryRun),
		logging.String("action", string(action)),
		logging.Int("removed", report.Removed),
		logging.Int("failed", report.Failed),
		logging.Int64("reclaimed_bytes", report.ReclaimedBytes),
	)
	return report, nil
}

func (s *Service) groupsForCleaning(ctx context.Context) ([]dedupe.Group, error) {
	stored, _, err := s.StoredDuplicates(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		report, err := s.FindDuplicates(ctx, DetectOverrides{})
		if err != nil {
			return nil, err
		}
		return report.Groups, nil
	}
	return GroupsFromStored(stored), nil
}

// GroupsFromStored converts persisted groups back into detection groups,
// keeping the stored member order.
func GroupsFromStored(stored []catalog.StoredGroup) []dedupe.Group {
	groups := make([]dedupe.Group, len(stored))
	for i, g := range stored {
		files := make([]dedupe.FileRecord, len(g.Tracks))
		for j, t := range g.Tracks {
			files[j] = t.Record()
		}
		groups[i] = dedupe.Group{Method: dedupe.Method(g.Method), Files: files}
	}
	return groups
}

func (s *Service) discard(path string, action CleanAction) (string, error) {
	if action == ActionDelete {
		return "", os.Remove(path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return trash.Move(path, s.cfg.Paths.TrashDir, s.now(), s.cfg.Organizer.MoveAcrossDevices)
}

// ClearDuplicates deletes the persisted duplicate groups.
func (s *Service) ClearDuplicates(ctx context.Context) (int64, error) {
	return s.store.ClearDuplicateGroups(ctx)
}
