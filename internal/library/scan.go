package library

import (
	"context"
	"time"

	"tunekeep/internal/catalog"
	"tunekeep/internal/logging"
	"tunekeep/internal/scanner"
)

// ScanOptions tune ScanDirectory. A nil Recursive uses scan.recursive.
type ScanOptions struct {
	Recursive *bool
	Progress  scanner.ProgressFunc
	// Prune removes catalog rows under the scanned root whose file is gone.
	Prune bool
}

// ScanReport summarizes a directory scan.
type ScanReport struct {
	Root          string                 `json:"root"`
	Found         int                    `json:"found"`
	Stored        int                    `json:"stored"`
	Batches       int                    `json:"batches"`
	Pruned        int64                  `json:"pruned"`
	ReadFailures  []scanner.Failure      `json:"-"`
	StoreFailures []catalog.BatchFailure `json:"-"`
	Elapsed       time.Duration          `json:"elapsed"`
}

// Failed returns the number of files that could not be read or stored.
func (r ScanReport) Failed() int {
	return len(r.ReadFailures) + len(r.StoreFailures)
}

// ScanDirectory walks root, reads every supported file, and stores the
// results in the catalog.
func (s *Service) ScanDirectory(ctx context.Context, root string, opts ScanOptions) (ScanReport, error) {
	started := s.now()
	ctx, logger := s.loggerFor(ctx, "scan")

	recursive := s.cfg.Scan.Recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	paths, err := scanner.Walk(root, recursive, s.cfg.Scan.Extensions)
	if err != nil {
		return ScanReport{}, err
	}
	report := ScanReport{Root: root, Found: len(paths)}
	logger.Info("scanning library",
		logging.Path(root),
		logging.Int("files", len(paths)),
		logging.Bool("recursive", recursive),
	)

	sampler := logging.NewProgressSampler(10)
	progress := func(done, total int, path string) {
		if opts.Progress != nil {
			opts.Progress(done, total, path)
		}
		if sampler.ShouldLog("scan", done, total) {
			logger.Debug("scan progress", logging.Int("done", done), logging.Int("total", total))
		}
	}

	result, err := scanner.Scan(ctx, paths, scanner.Options{
		Workers:       s.cfg.Scan.Workers,
		HashAlgorithm: s.cfg.Scan.HashAlgorithm,
		Progress:      progress,
		Logger:        logger,
	})
	if err != nil {
		return report, err
	}
	report.ReadFailures = result.Failures

	batch, err := s.store.UpsertBatch(ctx, result.Tracks, catalog.BatchOptions{
		Min: s.cfg.Scan.BatchMin,
		Max: s.cfg.Scan.BatchMax,
	})
	report.Stored = batch.Stored
	report.Batches = batch.Batches
	report.StoreFailures = batch.Failures
	if err != nil {
		return report, err
	}
	for _, f := range batch.Failures {
		logger.Warn("failed to store track",
			logging.Path(f.Path),
			logging.Error(f.Err),
			logging.String(logging.FieldEventType, "catalog_store_failed"),
			logging.String(logging.FieldErrorHint, "run 'tunekeep library health' to check the database"),
		)
	}

	if opts.Prune {
		pruned, err := s.pruneMissing(ctx, root)
		if err != nil {
			return report, err
		}
		report.Pruned = pruned
	}

	report.Elapsed = s.now().Sub(started)
	logger.Info("scan complete",
		logging.Int("found", report.Found),
		logging.Int("stored", report.Stored),
		logging.Int("failed", report.Failed()),
		logging.Int64("pruned", report.Pruned),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
