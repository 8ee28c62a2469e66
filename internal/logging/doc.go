// Package logging assembles structured slog loggers and formatting helpers used
// across tunekeep.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so library operations can tag log
// lines with track IDs, stages, and run correlation IDs. The package also
// provides a no-op logger for tests, a progress sampler for batch operations,
// and retention pruning for the log directory.
package logging
