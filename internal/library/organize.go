package library

import (
	"context"
	"fmt"

	"tunekeep/internal/catalog"
	"tunekeep/internal/logging"
	"tunekeep/internal/organizer"
	"tunekeep/internal/services"
)

// OrganizeOptions select the tracks and naming for Organize. An empty
// Pattern uses organizer.pattern and an empty BaseDir uses
// organizer.base_dir. Empty IDs means the whole catalog.
type OrganizeOptions struct {
	IDs     []int64
	Pattern string
	BaseDir string
	DryRun  bool
}

// OrganizeReport pairs the planned moves with their results.
type OrganizeReport struct {
	Template string             `json:"template"`
	Results  []organizer.Result `json:"results"`
}

// Counts tallies results by status.
func (r OrganizeReport) Counts() map[organizer.Status]int {
	return countStatuses(r.Results)
}

func countStatuses(results []organizer.Result) map[organizer.Status]int {
	counts := make(map[organizer.Status]int)
	for _, res := range results {
		counts[res.Status]++
	}
	return counts
}

// PreviewOrganize plans moves without touching any file.
func (s *Service) PreviewOrganize(ctx context.Context, opts OrganizeOptions) (string, []organizer.Move, error) {
	template, err := organizer.Resolve(firstNonEmpty(opts.Pattern, s.cfg.Organizer.Pattern))
	if err != nil {
		return "", nil, err
	}
	tracks, err := s.selectTracks(ctx, opts.IDs)
	if err != nil {
		return "", nil, err
	}
	return template, organizer.Preview(tracks, template, firstNonEmpty(opts.BaseDir, s.cfg.Organizer.BaseDir)), nil
}

// Organize moves files into the pattern layout and records the new paths.
func (s *Service) Organize(ctx context.Context, opts OrganizeOptions) (OrganizeReport, error) {
	ctx, logger := s.loggerFor(ctx, "organize")
	template, moves, err := s.PreviewOrganize(ctx, opts)
	if err != nil {
		return OrganizeReport{}, err
	}
	report := OrganizeReport{Template: template, Results: s.organizer.Apply(ctx, moves, opts.DryRun)}
	if !opts.DryRun {
		if err := s.recordMoves(ctx, report.Results); err != nil {
			return report, err
		}
	}
	counts := report.Counts()
	logger.Info("organize complete",
		logging.String("template", template),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("moved", counts[organizer.StatusSuccess]),
		logging.Int("planned", counts[organizer.StatusDryRun]),
		logging.Int("errors", counts[organizer.StatusError]),
	)
	return report, nil
}

// Rename renames one track's file within its directory.
func (s *Service) Rename(ctx context.Context, id int64, newName string, keepExt bool) (string, error) {
	ctx, _ = s.loggerFor(ctx, "rename")
	track, err := s.lookup(ctx, "rename", id)
	if err != nil {
		return "", err
	}
	newPath, err := s.organizer.Rename(track.Path, newName, keepExt)
	if err != nil {
		return "", err
	}
	if newPath != track.Path {
		if err := s.store.UpdatePath(ctx, id, newPath); err != nil {
			return newPath, fmt.Errorf("record renamed path: %w", err)
		}
	}
	return newPath, nil
}

// BatchRename applies a find/replace rename to the selected tracks.
func (s *Service) BatchRename(ctx context.Context, ids []int64, find, replace, field string) ([]organizer.Result, error) {
	ctx, logger := s.loggerFor(ctx, "rename")
	tracks, err := s.selectTracks(ctx, ids)
	if err != nil {
		return nil, err
	}
	results, err := s.organizer.BatchRename(tracks, find, replace, field)
	if err != nil {
		return nil, err
	}
	if err := s.recordMoves(ctx, results); err != nil {
		return results, err
	}
	counts := countStatuses(results)
	logger.Info("batch rename complete",
		logging.Int("renamed", counts[organizer.StatusSuccess]),
		logging.Int("skipped", counts[organizer.StatusSkipped]),
		logging.Int("errors", counts[organizer.StatusError]),
	)
	return results, nil
}

// recordMoves stores the new path of every successful move. A move the
// catalog cannot record is downgraded to an error result.
func (s *Service) recordMoves(ctx context.Context, results []organizer.Result) error {
	for i := range results {
		res := &results[i]
		if res.Status != organizer.StatusSuccess || res.ID == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.store.UpdatePath(ctx, res.ID, res.NewPath); err != nil {
			res.Status = organizer.StatusError
			res.Error = fmt.Sprintf("moved but catalog update failed: %v", err)
		}
	}
	return nil
}

func (s *Service) selectTracks(ctx context.Context, ids []int64) ([]catalog.Track, error) {
	if len(ids) == 0 {
		return s.store.List(ctx, catalog.ListOptions{})
	}
	tracks, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "library", "select", "none of the given track ids exist", nil)
	}
	return tracks, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
