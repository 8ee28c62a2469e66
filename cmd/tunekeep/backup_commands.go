package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tunekeep/internal/config"
	"tunekeep/internal/export"
	"tunekeep/internal/library"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, and restore catalog backups",
	}

	backupCmd.AddCommand(newBackupCreateCommand(ctx))
	backupCmd.AddCommand(newBackupListCommand(ctx))
	backupCmd.AddCommand(newBackupRestoreCommand(ctx))
	backupCmd.AddCommand(newBackupCleanupCommand(ctx))

	return backupCmd
}

func newBackupCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Back up the whole catalog to backup_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				path, pruned, err := svc.Backup(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"path": path, "pruned": pruned})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backup written to %s\n", path)
				if pruned > 0 {
					fmt.Fprintf(out, "Removed %d old backups\n", pruned)
				}
				return nil
			})
		},
	}
}

func newBackupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			backups, err := export.ListBackups(cfg.Paths.BackupDir)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if backups == nil {
					backups = []export.BackupInfo{}
				}
				return writeJSON(cmd, backups)
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", cfg.Paths.BackupDir)
				return nil
			}
			rows := make([][]string, 0, len(backups))
			for _, b := range backups {
				rows = append(rows, []string{
					b.Name,
					formatBytes(b.Size),
					b.ModTime.Format("2006-01-02 15:04:05"),
					humanize.Time(b.ModTime),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Name", "Size", "Created", "Age"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newBackupRestoreCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Load a backup into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				report, err := svc.Restore(runCtx, path, library.ImportOptions{Replace: replace})
				if err != nil {
					return err
				}
				return printImportReport(cmd, ctx, report)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Remove every catalogued track before restoring")
	return cmd
}

func newBackupCleanupCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all but the newest backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.Backup.KeepCount
			}
			removed, err := export.CleanupOldBackups(cfg.Paths.BackupDir, keep)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed, "kept": keep})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backups, keeping the newest %d\n", removed, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of backups to keep (default backup.keep_count)")
	return cmd
}
