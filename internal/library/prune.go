package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tunekeep/internal/catalog"
	"tunekeep/internal/logging"
)

// pruneMissing removes catalog rows under root whose file no longer exists.
func (s *Service) pruneMissing(ctx context.Context, root string) (int64, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	tracks, err := s.store.List(ctx, catalog.ListOptions{})
	if err != nil {
		return 0, err
	}
	prefix := abs + string(filepath.Separator)
	var gone []int64
	for _, t := range tracks {
		if t.Path != abs && !strings.HasPrefix(t.Path, prefix) {
			continue
		}
		if _, err := os.Stat(t.Path); errors.Is(err, os.ErrNotExist) {
			gone = append(gone, t.ID)
		}
	}
	if len(gone) == 0 {
		return 0, nil
	}
	removed, err := s.store.RemoveMany(ctx, gone)
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx, s.logger).Info("pruned missing files", logging.Int64("removed", removed))
	return removed, nil
}
