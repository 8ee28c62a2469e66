package library

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"tunekeep/internal/catalog"
	"tunekeep/internal/logging"
	"tunekeep/internal/tags"
)

// TagResult is the outcome of editing one track.
type TagResult struct {
	ID    int64  `json:"id"`
	Path  string `json:"file_path"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// EditTags writes edit into each track's file and mirrors it into the
// catalog. A track whose file cannot be written keeps its catalog row
// unchanged.
func (s *Service) EditTags(ctx context.Context, ids []int64, edit tags.Edit) ([]TagResult, error) {
	ctx, logger := s.loggerFor(ctx, "tags")
	if edit.Empty() {
		return nil, nil
	}
	update := catalog.TrackUpdate{
		Artist:      edit.Artist,
		Title:       edit.Title,
		Album:       edit.Album,
		Genre:       edit.Genre,
		Year:        edit.Year,
		TrackNumber: edit.TrackNumber,
	}
	if edit.Artwork != nil {
		has := true
		update.HasArtwork = &has
	}

	results := make([]TagResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := TagResult{ID: id}
		track, err := s.lookup(ctx, "tags", id)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Path = track.Path
		if err := tags.Write(track.Path, edit); err != nil {
			res.Error = err.Error()
			logger.Warn("failed to write tags",
				logging.TrackID(id),
				logging.Path(track.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "tag_write_failed"),
				logging.String(logging.FieldErrorHint, "only MP3 and FLAC tags can be written; check the file is writable"),
			)
			results = append(results, res)
			continue
		}
		if err := s.store.Update(ctx, id, update); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.OK = true
		results = append(results, res)
	}
	return results, nil
}

// GuessFromFilename derives tags from a file name of the form
// "Artist - Title" or "NN - Artist - Title". Unmatched parts stay nil.
func GuessFromFilename(path string) tags.Edit {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, " - ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var edit tags.Edit
	if len(parts) >= 3 {
		if n, ok := leadingNumber(parts[0]); ok {
			edit.TrackNumber = &n
			parts = parts[1:]
		}
	}
	if len(parts) >= 2 && parts[0] != "" {
		artist := parts[0]
		title := strings.Join(parts[1:], " - ")
		edit.Artist = &artist
		if title != "" {
			edit.Title = &title
		}
	}
	return edit
}

func leadingNumber(s string) (int, bool) {
	digits := strings.TrimRightFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}
