package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"tunekeep/internal/catalog"
	"tunekeep/internal/services"
)

const (
	backupPrefix     = "music_library_backup_"
	backupStampFmt   = "20060102_150405"
	backupExt        = ".json"
	compressedSuffix = ".xz"
)

// BackupInfo describes one backup file.
type BackupInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"modified"`
	Compressed bool      `json:"compressed"`
}

// IsBackupName reports whether name follows the backup naming scheme.
func IsBackupName(name string) bool {
	if !strings.HasPrefix(name, backupPrefix) {
		return false
	}
	name = strings.TrimSuffix(name, compressedSuffix)
	return strings.HasSuffix(name, backupExt)
}

// CreateBackup writes a full export of tracks into dir and returns its path.
// Compressed backups are xz streams with a .json.xz suffix. A name already
// taken within the same second gets a numeric suffix.
func CreateBackup(dir string, tracks []catalog.Track, compress bool, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	ext := backupExt
	if compress {
		ext += compressedSuffix
	}
	stem := backupPrefix + now.Format(backupStampFmt)

	var (
		f    *os.File
		path string
		err  error
	)
	for n := 1; ; n++ {
		name := stem + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path = filepath.Join(dir, name)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create backup: %w", err)
		}
	}

	if err := writeBackup(f, tracks, compress, now); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close backup: %w", err)
	}
	return path, nil
}

func writeBackup(f *os.File, tracks []catalog.Track, compress bool, now time.Time) error {
	bw := bufio.NewWriter(f)
	if !compress {
		if err := WriteJSON(bw, tracks, true, now); err != nil {
			return err
		}
		return bw.Flush()
	}
	xw, err := xz.NewWriter(bw)
	if err != nil {
		return err
	}
	if err := WriteJSON(xw, tracks, true, now); err != nil {
		_ = xw.Close()
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

// ListBackups returns the backups in dir, newest first. A missing directory
// yields an empty list.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsBackupName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:       entry.Name(),
			Path:       filepath.Join(dir, entry.Name()),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			Compressed: strings.HasSuffix(entry.Name(), compressedSuffix),
		})
	}
	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.After(backups[j].ModTime)
		}
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// RestoreBackup reads the tracks stored in a backup file.
func RestoreBackup(path string) ([]catalog.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "backup", "restore", fmt.Sprintf("backup %q not found", path), nil)
		}
		return nil, err
	}
	defer f.Close()
	r, err := maybeDecompress(path, f)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "backup", "restore", "corrupt compressed backup", err)
	}
	return ReadJSON(r)
}

// CleanupOldBackups keeps the newest keep backups in dir and deletes the rest.
// It returns how many files were removed.
func CleanupOldBackups(dir string, keep int) (int, error) {
	if keep < 1 {
		return 0, services.Wrap(services.ErrValidation, "backup", "cleanup", "keep count must be at least 1", nil)
	}
	backups, err := ListBackups(dir)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}
	removed := 0
	var errs []error
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func maybeDecompress(path string, r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	if !strings.HasSuffix(path, compressedSuffix) {
		return br, nil
	}
	return xz.NewReader(br)
}
