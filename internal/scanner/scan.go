package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tunekeep/internal/catalog"
	"tunekeep/internal/logging"
	"tunekeep/internal/tags"
)

// ProgressFunc is called after each file finishes, from worker goroutines.
// Calls are serialized.
type ProgressFunc func(done, total int, path string)

// Options tune a Scan.
type Options struct {
	Workers       int
	HashAlgorithm string
	Progress      ProgressFunc
	Logger        *slog.Logger
}

// Failure records a file that could not be read.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of a Scan. Tracks and Failures are sorted by path.
type Result struct {
	Tracks   []catalog.Track
	Failures []Failure
	Elapsed  time.Duration
}

// Scan reads every path concurrently. Per-file errors land in
// Result.Failures; the returned error is reserved for cancellation and
// configuration problems.
func Scan(ctx context.Context, paths []string, opts Options) (Result, error) {
	started := time.Now()
	newHash, err := NewHasher(opts.HashAlgorithm)
	if err != nil {
		return Result{}, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := logging.NewComponentLogger(opts.Logger, "scanner")

	var (
		mu       sync.Mutex
		done     int
		tracks   = make([]catalog.Track, 0, len(paths))
		failures []Failure
	)
	total := len(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			track, readErr := ReadTrack(path, newHash)

			mu.Lock()
			defer mu.Unlock()
			if readErr != nil {
				failures = append(failures, Failure{Path: path, Err: readErr})
				logger.Warn("failed to read audio file",
					logging.Path(path),
					logging.Error(readErr),
					logging.String(logging.FieldEventType, "scan_file_failed"),
					logging.String(logging.FieldErrorHint, "check the file is a valid audio file and readable"),
				)
			} else {
				tracks = append(tracks, track)
			}
			done++
			if opts.Progress != nil {
				opts.Progress(done, total, path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	result := Result{Tracks: tracks, Failures: failures, Elapsed: time.Since(started)}
	logger.Debug("scan finished",
		logging.Int("files", total),
		logging.Int("tracks", len(tracks)),
		logging.Int("failures", len(failures)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// ReadTrack builds a catalog track from a single file. The path is made
// absolute so catalog entries stay unique regardless of the working directory.
func ReadTrack(path string, newHash Hasher) (catalog.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return catalog.Track{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return catalog.Track{}, err
	}
	info, err := tags.Read(abs)
	if err != nil {
		return catalog.Track{}, err
	}
	sum, err := HashFile(abs, newHash)
	if err != nil {
		return catalog.Track{}, err
	}
	return catalog.Track{
		Path:        abs,
		Filename:    filepath.Base(abs),
		Size:        stat.Size(),
		Hash:        sum,
		Format:      info.Format,
		Artist:      info.Artist,
		Title:       info.Title,
		Album:       info.Album,
		Year:        info.Year,
		Genre:       info.Genre,
		TrackNumber: info.TrackNumber,
		Duration:    math.Round(info.Duration*100) / 100,
		Bitrate:     info.Bitrate,
		SampleRate:  info.SampleRate,
		Channels:    info.Channels,
		HasArtwork:  info.HasArtwork,
	}, nil
}
