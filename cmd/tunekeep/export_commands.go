package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tunekeep/internal/config"
	"tunekeep/internal/export"
	"tunekeep/internal/library"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to JSON, CSV, M3U, or YAML",
	}

	exportCmd.AddCommand(newExportFormatCommand(ctx, library.FormatJSON, "Export tracks as a JSON document"))
	exportCmd.AddCommand(newExportFormatCommand(ctx, library.FormatCSV, "Export tracks as CSV"))
	exportCmd.AddCommand(newExportFormatCommand(ctx, library.FormatM3U, "Export tracks as an extended M3U playlist"))
	exportCmd.AddCommand(newExportFormatCommand(ctx, library.FormatYAML, "Export tracks as a YAML document"))

	return exportCmd
}

func newExportFormatCommand(ctx *commandContext, format, short string) *cobra.Command {
	var (
		ids     []string
		compact bool
		fields  []string
		name    string
	)

	cmd := &cobra.Command{
		Use:   format + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parsePositiveIDs(ids)
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			opts := library.ExportOptions{
				Format:       format,
				Path:         path,
				IDs:          selected,
				Compact:      compact,
				Fields:       fields,
				PlaylistName: name,
			}
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				count, err := svc.Export(runCtx, opts)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"format": format, "path": path, "tracks": count})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tracks to %s\n", count, path)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "Export only these track IDs (repeatable)")
	switch format {
	case library.FormatJSON:
		cmd.Flags().BoolVar(&compact, "compact", false, "Write JSON without indentation")
	case library.FormatCSV:
		cmd.Flags().StringSliceVar(&fields, "fields", nil,
			"Columns to write (default "+strings.Join(export.DefaultCSVFields, ",")+")")
	case library.FormatM3U:
		cmd.Flags().StringVar(&name, "name", export.DefaultPlaylistName, "Playlist name")
	}
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load tracks from an export into the catalog",
	}

	var replace bool
	jsonCmd := &cobra.Command{
		Use:   "json <path>",
		Short: "Import a JSON export",
		Long: `Load tracks from a JSON export. Both export documents and bare arrays of
tracks are accepted. Rows are matched by file path; --replace clears the
catalog first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				report, err := svc.Import(runCtx, path, library.ImportOptions{Replace: replace})
				if err != nil {
					return err
				}
				return printImportReport(cmd, ctx, report)
			})
		},
	}
	jsonCmd.Flags().BoolVar(&replace, "replace", false, "Remove every catalogued track before importing")

	importCmd.AddCommand(jsonCmd)
	return importCmd
}

func printImportReport(cmd *cobra.Command, ctx *commandContext, report library.ImportReport) error {
	if ctx.JSONMode() {
		failures := make([]map[string]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			failures = append(failures, map[string]string{"file_path": f.Path, "error": f.Err.Error()})
		}
		return writeJSON(cmd, map[string]any{
			"read":     report.Read,
			"stored":   report.Stored,
			"cleared":  report.Cleared,
			"failures": failures,
		})
	}
	out := cmd.OutOrStdout()
	if report.Cleared > 0 {
		fmt.Fprintf(out, "Cleared %d existing tracks\n", report.Cleared)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(out, "%s %s: %v\n", warnText("failed"), f.Path, f.Err)
	}
	fmt.Fprintf(out, "Stored %d of %d tracks\n", report.Stored, report.Read)
	return nil
}
