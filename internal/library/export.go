package library

import (
	"context"
	"fmt"
	"strings"

	"tunekeep/internal/export"
	"tunekeep/internal/logging"
	"tunekeep/internal/services"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatM3U  = "m3u"
	FormatYAML = "yaml"
)

// ExportFormats lists the formats Export writes.
var ExportFormats = []string{FormatJSON, FormatCSV, FormatM3U, FormatYAML}

// ExportOptions describe one export. Empty IDs exports the whole catalog.
// Fields applies to CSV and PlaylistName to M3U.
type ExportOptions struct {
	Format       string
	Path         string
	IDs          []int64
	Compact      bool
	Fields       []string
	PlaylistName string
}

// Export writes the selected tracks to opts.Path and returns how many were
// written.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (int, error) {
	ctx, logger := s.loggerFor(ctx, "export")
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if strings.TrimSpace(opts.Path) == "" {
		return 0, services.Wrap(services.ErrValidation, "export", "path", "output path is empty", nil)
	}
	tracks, err := s.selectTracks(ctx, opts.IDs)
	if err != nil {
		return 0, err
	}
	if len(tracks) == 0 {
		return 0, services.Wrap(services.ErrValidation, "export", format, "", export.ErrNothingToExport)
	}

	switch format {
	case FormatJSON:
		err = export.ExportJSON(opts.Path, tracks, !opts.Compact)
	case FormatCSV:
		err = export.ExportCSV(opts.Path, tracks, opts.Fields)
	case FormatM3U:
		err = export.ExportM3U(opts.Path, tracks, opts.PlaylistName)
	case FormatYAML:
		err = export.ExportYAML(opts.Path, export.NewDocument(tracks, s.now()))
	default:
		return 0, services.Wrap(services.ErrValidation, "export", "format",
			fmt.Sprintf("unknown format %q (use %s)", opts.Format, strings.Join(ExportFormats, ", ")), nil)
	}
	if err != nil {
		return 0, err
	}
	logger.Info("catalog exported",
		logging.String("format", format),
		logging.Path(opts.Path),
		logging.Int("tracks", len(tracks)),
	)
	return len(tracks), nil
}
