package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunekeep/internal/config"
	"tunekeep/internal/library"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		noRecursive bool
		prune       bool
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory into the catalog",
		Long: `Walk a directory, read tags, audio properties, and content hashes of every
supported file, and store them in the catalog.

Without an argument the configured paths.library_dir is scanned. Files that
cannot be read are reported and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				root := svc.Config().Paths.LibraryDir
				if len(args) == 1 {
					expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
					if err != nil {
						return err
					}
					root = expanded
				}

				opts := library.ScanOptions{Prune: prune}
				if noRecursive {
					recursive := false
					opts.Recursive = &recursive
				}
				progress, finish := scanProgress(cmd.ErrOrStderr(), quiet || ctx.JSONMode())
				opts.Progress = progress
				report, err := svc.ScanDirectory(runCtx, root, opts)
				finish()
				if err != nil {
					return err
				}

				if ctx.JSONMode() {
					failures := make([]map[string]string, 0, report.Failed())
					for _, f := range report.ReadFailures {
						failures = append(failures, map[string]string{"file_path": f.Path, "error": f.Err.Error()})
					}
					for _, f := range report.StoreFailures {
						failures = append(failures, map[string]string{"file_path": f.Path, "error": f.Err.Error()})
					}
					return writeJSON(cmd, map[string]any{
						"root":            report.Root,
						"found":           report.Found,
						"stored":          report.Stored,
						"pruned":          report.Pruned,
						"failures":        failures,
						"elapsed_seconds": report.Elapsed.Seconds(),
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %s\n", report.Root)
				fmt.Fprintf(out, "Found %d audio files, stored %d in %s\n", report.Found, report.Stored, report.Elapsed.Round(10*time.Millisecond))
				if prune {
					fmt.Fprintf(out, "Pruned %d missing files from the catalog\n", report.Pruned)
				}
				if report.Failed() > 0 {
					fmt.Fprintln(out, warnText(fmt.Sprintf("%d files could not be catalogued:", report.Failed())))
					for _, f := range report.ReadFailures {
						fmt.Fprintf(out, "  %s: %v\n", f.Path, f.Err)
					}
					for _, f := range report.StoreFailures {
						fmt.Fprintf(out, "  %s: %v\n", f.Path, f.Err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "Only scan the top level of the directory")
	cmd.Flags().BoolVar(&prune, "prune", false, "Remove catalog entries under the directory whose files are gone")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}
