package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"tunekeep/internal/catalog"
	"tunekeep/internal/fileutil"
	"tunekeep/internal/logging"
	"tunekeep/internal/services"
	"tunekeep/internal/textutil"
)

// Status is the outcome of a single planned move or rename.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusDryRun  Status = "dry_run_ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Move is one planned relocation produced by Preview.
type Move struct {
	ID      int64  `json:"id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// OldName returns the current file name.
func (m Move) OldName() string { return filepath.Base(m.OldPath) }

// NewName returns the file name after the move.
func (m Move) NewName() string { return filepath.Base(m.NewPath) }

// Result reports what happened to a Move or rename.
type Result struct {
	ID      int64  `json:"id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Organizer moves and renames files on disk. It never touches the catalog;
// callers record successful results themselves.
type Organizer struct {
	logger    *slog.Logger
	allowCopy bool
}

// New constructs an Organizer. allowCopy permits copy+verify+remove when a
// move crosses filesystems.
func New(logger *slog.Logger, allowCopy bool) *Organizer {
	return &Organizer{
		logger:    logging.NewComponentLogger(logger, "organizer"),
		allowCopy: allowCopy,
	}
}

// Preview plans moves for tracks under template. An empty baseDir keeps each
// file under its current directory. Tracks whose file is missing and tracks
// already at their target are left out.
func Preview(tracks []catalog.Track, template, baseDir string) []Move {
	var moves []Move
	for _, t := range tracks {
		if t.Path == "" || !exists(t.Path) {
			continue
		}
		base := baseDir
		if base == "" {
			base = filepath.Dir(t.Path)
		}
		rel := FormatPath(template, t, filepath.Ext(t.Path))
		target := filepath.Join(base, filepath.FromSlash(rel))
		if filepath.Clean(t.Path) == filepath.Clean(target) {
			continue
		}
		moves = append(moves, Move{ID: t.ID, OldPath: t.Path, NewPath: target})
	}
	return moves
}

// Apply executes moves in order. With dryRun set nothing is touched but the
// same checks run, including collisions between moves in the same batch.
func (o *Organizer) Apply(ctx context.Context, moves []Move, dryRun bool) []Result {
	logger := logging.WithContext(ctx, o.logger)
	claimed := make(map[string]struct{}, len(moves))
	results := make([]Result, 0, len(moves))

	for _, m := range moves {
		res := Result{ID: m.ID, OldPath: m.OldPath, NewPath: m.NewPath, Status: StatusPending}
		if err := ctx.Err(); err != nil {
			res.Status = StatusError
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		oldClean, newClean := filepath.Clean(m.OldPath), filepath.Clean(m.NewPath)
		_, taken := claimed[newClean]
		switch {
		case !exists(m.OldPath):
			res.Status = StatusError
			res.Error = "Source file not found"
		case oldClean == newClean:
			res.Status = StatusSkipped
			res.Error = "Source and destination are the same"
		case taken || exists(m.NewPath):
			res.Status = StatusError
			res.Error = "Destination already exists"
		case dryRun:
			res.Status = StatusDryRun
		default:
			if err := fileutil.MoveFile(m.OldPath, m.NewPath, o.allowCopy); err != nil {
				res.Status = StatusError
				res.Error = err.Error()
				logger.Warn("failed to move file",
					logging.String("source", m.OldPath),
					logging.String("destination", m.NewPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "organize_move_failed"),
					logging.String(logging.FieldErrorHint, moveHint(err)),
				)
			} else {
				res.Status = StatusSuccess
				logger.Debug("moved file",
					logging.String("source", m.OldPath),
					logging.String("destination", m.NewPath),
				)
			}
		}
		if res.Status == StatusSuccess || res.Status == StatusDryRun {
			claimed[newClean] = struct{}{}
		}
		results = append(results, res)
	}
	return results
}

// Rename renames path within its directory. With keepExt the original
// extension is appended unless newName already ends with it. The new name is
// sanitized; an existing file with that name is a conflict.
func (o *Organizer) Rename(path, newName string, keepExt bool) (string, error) {
	if !exists(path) {
		return "", services.Wrap(services.ErrNotFound, "organizer", "rename", "File not found", nil)
	}
	if keepExt {
		if ext := filepath.Ext(path); !strings.HasSuffix(newName, ext) {
			newName += ext
		}
	}
	newName = textutil.SanitizeFileName(newName)
	if newName == "" || newName == filepath.Ext(path) {
		return "", services.Wrap(services.ErrValidation, "organizer", "rename", "New name is empty after sanitizing", nil)
	}
	target := filepath.Join(filepath.Dir(path), newName)
	if filepath.Clean(target) == filepath.Clean(path) {
		return target, nil
	}
	if exists(target) {
		return "", services.Wrap(services.ErrConflict, "organizer", "rename", "File with that name already exists", nil)
	}
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return target, nil
}

// RenameFields are the sources BatchRename can edit.
var RenameFields = []string{"filename", "artist", "title", "album"}

// BatchRename replaces find with replace in the chosen field of each track
// and renames the file to the result, keeping its extension. For "filename"
// the field is the current name without extension.
func (o *Organizer) BatchRename(tracks []catalog.Track, find, replace, field string) ([]Result, error) {
	if find == "" {
		return nil, services.Wrap(services.ErrValidation, "organizer", "batch rename", "find text is empty", nil)
	}
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" {
		field = "filename"
	}
	if !slices.Contains(RenameFields, field) {
		return nil, services.Wrap(services.ErrValidation, "organizer", "batch rename",
			fmt.Sprintf("field %q is not one of %s", field, strings.Join(RenameFields, ", ")), nil)
	}

	results := make([]Result, 0, len(tracks))
	for _, t := range tracks {
		res := Result{ID: t.ID, OldPath: t.Path, NewPath: t.Path}
		if t.Path == "" || !exists(t.Path) {
			res.Status = StatusError
			res.Error = "File not found"
			results = append(results, res)
			continue
		}

		var oldName string
		switch field {
		case "filename":
			base := filepath.Base(t.Path)
			oldName = strings.TrimSuffix(base, filepath.Ext(base))
		case "artist":
			oldName = t.Artist
		case "title":
			oldName = t.Title
		case "album":
			oldName = t.Album
		}

		newName := strings.ReplaceAll(oldName, find, replace)
		if newName == oldName {
			res.Status = StatusSkipped
			res.Error = "No changes needed"
			results = append(results, res)
			continue
		}

		newPath, err := o.Rename(t.Path, newName, true)
		if err != nil {
			res.Status = StatusError
			res.Error = err.Error()
		} else {
			res.Status = StatusSuccess
			res.NewPath = newPath
		}
		results = append(results, res)
	}
	return results, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// libraryUnavailableErrors lists syscall errors that indicate the library
// filesystem went away underneath us.
var libraryUnavailableErrors = []error{
	syscall.ENODEV,
	syscall.ENOTCONN,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.ETIMEDOUT,
	syscall.EIO,
	syscall.ESTALE,
}

func moveHint(err error) string {
	switch {
	case errors.Is(err, fileutil.ErrCrossDevice):
		return "set organizer.move_across_devices = true to copy between filesystems"
	case errors.Is(err, os.ErrPermission):
		return "check write permissions on the destination directory"
	}
	for _, target := range libraryUnavailableErrors {
		if errors.Is(err, target) {
			return "library filesystem is unavailable; check the mount"
		}
	}
	return "check the destination path"
}
