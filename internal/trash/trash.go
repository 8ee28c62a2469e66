package trash

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tunekeep/internal/fileutil"
	"tunekeep/internal/logging"
)

// dayLayout names the per-day subdirectories that hold trashed files.
const dayLayout = "2006-01-02"

// Move places path into trashDir/<YYYY-MM-DD>/ under a collision-free name
// and returns the new location.
func Move(path, trashDir string, now time.Time, allowCopy bool) (string, error) {
	trashDir = strings.TrimSpace(trashDir)
	if trashDir == "" {
		return "", fmt.Errorf("trash directory is not configured")
	}
	dayDir := filepath.Join(trashDir, now.Format(dayLayout))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", fmt.Errorf("create trash directory: %w", err)
	}
	target, err := fileutil.UniquePath(dayDir, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := fileutil.MoveFile(path, target, allowCopy); err != nil {
		return "", err
	}
	return target, nil
}

// CleanStaleResult contains the outcome of a trash cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes day directories older than maxAge. The age comes from
// the directory name when it is a date, and from its mtime otherwise.
func CleanStale(ctx context.Context, trashDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	trashDir = strings.TrimSpace(trashDir)
	if trashDir == "" {
		return result
	}

	entries, err := os.ReadDir(trashDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: trashDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(trashDir, entry.Name())
		stamp, err := dirTime(entry)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !stamp.Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to purge trash directory",
					logging.Path(dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "trash_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check trash_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("purged trash directory",
				logging.Path(dirPath),
				logging.Duration("age", time.Since(stamp)),
				logging.String(logging.FieldEventType, "trash_cleanup"),
			)
		}
	}

	return result
}

func dirTime(entry os.DirEntry) (time.Time, error) {
	if day, err := time.ParseInLocation(dayLayout, entry.Name(), time.Local); err == nil {
		// A day directory stays fresh until that day is over.
		return day.AddDate(0, 0, 1), nil
	}
	info, err := entry.Info()
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// DirInfo contains metadata about a trash day directory.
type DirInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"modified"`
	Files   int       `json:"files"`
	Size    int64     `json:"size"`
}

// ListDirectories returns the trash day directories, newest name first.
func ListDirectories(trashDir string) ([]DirInfo, error) {
	trashDir = strings.TrimSpace(trashDir)
	if trashDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(trashDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(trashDir, entry.Name())
		files, size, _ := dirUsage(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Files:   files,
			Size:    size,
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name > dirs[j].Name })
	return dirs, nil
}

func dirUsage(path string) (int, int64, error) {
	var (
		files int
		size  int64
	)
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size, err
}
