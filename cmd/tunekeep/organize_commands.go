package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tunekeep/internal/library"
	"tunekeep/internal/organizer"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	organizeCmd := &cobra.Command{
		Use:   "organize",
		Short: "Move files into a folder layout built from their tags",
	}

	organizeCmd.AddCommand(newOrganizePatternsCommand(ctx))
	organizeCmd.AddCommand(newOrganizePreviewCommand(ctx))
	organizeCmd.AddCommand(newOrganizeApplyCommand(ctx))

	return organizeCmd
}

func newOrganizePatternsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "patterns",
		Short:       "List the predefined naming patterns",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := organizer.Patterns()
			if ctx.JSONMode() {
				return writeJSON(cmd, patterns)
			}
			rows := make([][]string, 0, len(patterns))
			for _, p := range patterns {
				rows = append(rows, []string{p.Key, p.Name, p.Template})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Key", "Layout", "Template"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

type organizeFlags struct {
	pattern string
	baseDir string
}

func (f *organizeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.pattern, "pattern", "p", "", "Pattern key or template (default organizer.pattern)")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "Destination root (default organizer.base_dir)")
}

func (f *organizeFlags) options(args []string, dryRun bool) (library.OrganizeOptions, error) {
	ids, err := parsePositiveIDs(args)
	if err != nil {
		return library.OrganizeOptions{}, err
	}
	return library.OrganizeOptions{IDs: ids, Pattern: f.pattern, BaseDir: f.baseDir, DryRun: dryRun}, nil
}

func newOrganizePreviewCommand(ctx *commandContext) *cobra.Command {
	var flags organizeFlags

	cmd := &cobra.Command{
		Use:   "preview [id...]",
		Short: "Show where files would move without touching them",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args, true)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				template, moves, err := svc.PreviewOrganize(runCtx, opts)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if moves == nil {
						moves = []organizer.Move{}
					}
					return writeJSON(cmd, map[string]any{"template": template, "moves": moves})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Template: %s\n", template)
				if len(moves) == 0 {
					fmt.Fprintln(out, "No tracks to organize")
					return nil
				}
				rows := make([][]string, 0, len(moves))
				for _, m := range moves {
					rows = append(rows, []string{strconv.FormatInt(m.ID, 10), m.OldPath, m.NewPath})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Current", "New"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	flags.bind(cmd)
	return cmd
}

func newOrganizeApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  organizeFlags
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply [id...]",
		Short: "Move files into the pattern layout and record their new paths",
		Long: `Move the given tracks (or the whole catalog when no IDs are given) into the
folder layout described by the pattern. Existing files are never overwritten;
a conflicting destination is reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args, dryRun)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, !dryRun, func(runCtx context.Context, svc *library.Service) error {
				report, err := svc.Organize(runCtx, opts)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if report.Results == nil {
						report.Results = []organizer.Result{}
					}
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Template: %s\n", report.Template)
				printMoveResults(out, report.Results)
				return nil
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Check every move without performing it")
	return cmd
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var noKeepExt bool

	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename one track's file within its directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args[:1])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				newPath, err := svc.Rename(runCtx, ids[0], args[1], !noKeepExt)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"id": ids[0], "new_path": newPath})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %s\n", newPath)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noKeepExt, "no-keep-ext", false, "Use the new name verbatim instead of keeping the extension")
	return cmd
}

func newBatchRenameCommand(ctx *commandContext) *cobra.Command {
	var find, replace, field string

	cmd := &cobra.Command{
		Use:   "batch-rename [id...]",
		Short: "Rename files by replacing text in their name or a tag",
		Long: `Replace --find with --replace in the chosen field of each track and rename
the file to the result, keeping its extension. The field is one of filename,
artist, title or album. Without IDs every catalogued track is considered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			if find == "" {
				return usageError("--find is required")
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				results, err := svc.BatchRename(runCtx, ids, find, replace, field)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if results == nil {
						results = []organizer.Result{}
					}
					return writeJSON(cmd, map[string]any{"results": results})
				}
				printMoveResults(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&find, "find", "", "Text to replace")
	cmd.Flags().StringVar(&replace, "replace", "", "Replacement text")
	cmd.Flags().StringVar(&field, "field", "filename", "Source of the new name: filename, artist, title, or album")
	return cmd
}

func printMoveResults(out io.Writer, results []organizer.Result) {
	counts := make(map[organizer.Status]int)
	for _, res := range results {
		counts[res.Status]++
		switch res.Status {
		case organizer.StatusSuccess:
			fmt.Fprintf(out, "moved   %s -> %s\n", res.OldPath, res.NewPath)
		case organizer.StatusDryRun:
			fmt.Fprintf(out, "ok      %s -> %s\n", res.OldPath, res.NewPath)
		case organizer.StatusSkipped:
			fmt.Fprintf(out, "skipped %s (%s)\n", res.OldPath, res.Error)
		default:
			fmt.Fprintf(out, "%s   %s: %s\n", warnText("error"), res.OldPath, res.Error)
		}
	}
	fmt.Fprintf(out, "%d moved, %d checked, %d skipped, %d failed\n",
		counts[organizer.StatusSuccess], counts[organizer.StatusDryRun],
		counts[organizer.StatusSkipped], counts[organizer.StatusError])
}
