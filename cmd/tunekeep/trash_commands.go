package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tunekeep/internal/library"
	"tunekeep/internal/trash"
)

func newTrashCommand(ctx *commandContext) *cobra.Command {
	trashCmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and purge files removed by duplicate cleanup",
	}

	trashCmd.AddCommand(newTrashListCommand(ctx))
	trashCmd.AddCommand(newTrashPurgeCommand(ctx))

	return trashCmd
}

func newTrashListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trash day directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := trash.ListDirectories(cfg.Paths.TrashDir)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []trash.DirInfo{}
				}
				return writeJSON(cmd, dirs)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "Trash is empty")
				return nil
			}
			var (
				rows       [][]string
				totalFiles int
				totalSize  int64
			)
			for _, d := range dirs {
				rows = append(rows, []string{
					d.Name,
					strconv.Itoa(d.Files),
					formatBytes(d.Size),
					humanize.Time(d.ModTime),
				})
				totalFiles += d.Files
				totalSize += d.Size
			}
			fmt.Fprint(out, tableSpec{
				headers: []string{"Day", "Files", "Size", "Modified"},
				aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				rows:    rows,
				footer:  []string{"Total", strconv.Itoa(totalFiles), formatBytes(totalSize), ""},
			}.render())
			fmt.Fprintf(out, "Trash directory: %s\n", cfg.Paths.TrashDir)
			return nil
		},
	}
}

func newTrashPurgeCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete trash day directories past their retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return usageError("--older-than must not be negative")
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				result, err := svc.PurgeTrash(runCtx, time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					failed := make([]map[string]string, 0, len(result.Errors))
					for _, e := range result.Errors {
						failed = append(failed, map[string]string{"path": e.Path, "error": e.Error.Error()})
					}
					removed := result.Removed
					if removed == nil {
						removed = []string{}
					}
					return writeJSON(cmd, map[string]any{"removed": removed, "errors": failed})
				}
				out := cmd.OutOrStdout()
				for _, path := range result.Removed {
					fmt.Fprintf(out, "%s %s\n", removeLabel("purged"), path)
				}
				for _, e := range result.Errors {
					fmt.Fprintf(out, "%s %s: %v\n", warnText("failed"), e.Path, e.Error)
				}
				fmt.Fprintf(out, "Purged %d trash directories\n", len(result.Removed))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "older-than", 0, "Age in days (0 uses duplicates.trash_retention_days)")
	return cmd
}
