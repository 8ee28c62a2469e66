package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tunekeep/internal/dedupe"
	"tunekeep/internal/library"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	dupCmd := &cobra.Command{
		Use:     "duplicates",
		Aliases: []string{"dupes"},
		Short:   "Find and clean duplicate tracks",
	}

	dupCmd.AddCommand(newDuplicatesFindCommand(ctx))
	dupCmd.AddCommand(newDuplicatesGroupsCommand(ctx))
	dupCmd.AddCommand(newDuplicatesStatsCommand(ctx))
	dupCmd.AddCommand(newDuplicatesCleanCommand(ctx))
	dupCmd.AddCommand(newDuplicatesClearCommand(ctx))

	return dupCmd
}

func newDuplicatesFindCommand(ctx *commandContext) *cobra.Command {
	var (
		tolerance  float64
		fields     []string
		noMetadata bool
		noHash     bool
		bySize     bool
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Detect duplicate groups across the catalog",
		Long: `Detect duplicate groups using the strategies enabled in the [duplicates]
configuration section. Flags override the configuration for this run only.
Within each group the file that would be kept is listed first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := library.DetectOverrides{Fields: fields}
			flags := cmd.Flags()
			if flags.Changed("tolerance") {
				overrides.Tolerance = &tolerance
			}
			if noMetadata {
				off := false
				overrides.UseMetadata = &off
			}
			if noHash {
				off := false
				overrides.UseHash = &off
			}
			if flags.Changed("size") {
				overrides.UseSize = &bySize
			}
			// Detection replaces the persisted groups.
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				report, err := svc.FindDuplicates(runCtx, overrides)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if report.Groups == nil {
						report.Groups = []dedupe.Group{}
					}
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				if len(report.Groups) == 0 {
					fmt.Fprintln(out, "No duplicates found")
					return nil
				}
				printGroups(out, report.Groups)
				printDuplicateStats(out, report.Stats)
				if report.Persisted {
					fmt.Fprintln(out, "Groups saved; run 'tunekeep duplicates clean' to review removals")
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Metadata similarity threshold between 0 and 1")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Metadata fields to compare (artist, title, album, genre)")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "Disable metadata similarity matching")
	cmd.Flags().BoolVar(&noHash, "no-hash", false, "Disable content hash matching")
	cmd.Flags().BoolVar(&bySize, "size", false, "Enable size and duration matching")
	return cmd
}

func newDuplicatesGroupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show the groups saved by the last detection run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				stored, stats, err := svc.StoredDuplicates(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if stored == nil {
						return writeJSON(cmd, map[string]any{"groups": []any{}, "stats": stats})
					}
					return writeJSON(cmd, map[string]any{"groups": stored, "stats": stats})
				}
				out := cmd.OutOrStdout()
				if len(stored) == 0 {
					fmt.Fprintln(out, "No saved duplicate groups; run 'tunekeep duplicates find'")
					return nil
				}
				printGroups(out, library.GroupsFromStored(stored))
				printDuplicateStats(out, stats)
				return nil
			})
		},
	}
}

func newDuplicatesStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the saved duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				_, stats, err := svc.StoredDuplicates(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, stats)
				}
				printDuplicateStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func newDuplicatesCleanCommand(ctx *commandContext) *cobra.Command {
	var apply, deleteFiles bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove redundant copies, keeping the best file of each group",
		Long: `Remove every file but the best one of each duplicate group. Without --apply
the command only lists what would be removed. Removed files are moved to the
trash directory unless --delete is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				report, err := svc.CleanDuplicates(runCtx, library.CleanOptions{Apply: apply, Delete: deleteFiles})
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if report.Outcomes == nil {
						report.Outcomes = []library.CleanOutcome{}
					}
					return writeJSON(cmd, report)
				}
				return printCleanReport(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Actually remove files (default is a dry run)")
	cmd.Flags().BoolVar(&deleteFiles, "delete", false, "Delete files permanently instead of moving them to the trash")
	return cmd
}

func newDuplicatesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				removed, err := svc.ClearDuplicates(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"cleared": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d duplicate groups\n", removed)
				return nil
			})
		},
	}
}

func printGroups(out io.Writer, groups []dedupe.Group) {
	for i, g := range groups {
		fmt.Fprintf(out, "Group %d (%s, %d files)\n", i+1, g.Method, len(g.Files))
		rows := make([][]string, 0, len(g.Files))
		for j, f := range g.Files {
			label := removeLabel("remove")
			if j == 0 {
				label = keepLabel("keep")
			}
			rows = append(rows, []string{
				label,
				strconv.FormatInt(f.ID, 10),
				orDash(f.Artist),
				orDash(f.Title),
				formatKbps(f.Bitrate),
				formatBytes(f.Size),
				f.Path,
			})
		}
		fmt.Fprint(out, renderTable(
			[]string{"", "ID", "Artist", "Title", "Bitrate", "Size", "Path"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
}

func printDuplicateStats(out io.Writer, stats dedupe.Stats) {
	fmt.Fprint(out, renderTable(
		[]string{"Groups", "Files in groups", "Redundant files", "Reclaimable"},
		[][]string{{
			strconv.Itoa(stats.TotalGroups),
			strconv.Itoa(stats.TotalDuplicates),
			strconv.Itoa(stats.TotalFiles),
			formatBytes(stats.WastedSpaceBytes),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
}

func printCleanReport(out io.Writer, report library.CleanReport) error {
	if len(report.Outcomes) == 0 {
		fmt.Fprintln(out, "Nothing to clean")
		return nil
	}
	for _, o := range report.Outcomes {
		switch {
		case report.DryRun:
			fmt.Fprintf(out, "would %s %s\n", o.Action, o.Track.Path)
		case o.Error != "":
			fmt.Fprintf(out, "%s %s: %s\n", warnText("failed"), o.Track.Path, o.Error)
		case o.Destination != "":
			fmt.Fprintf(out, "%s %s -> %s\n", removeLabel("moved"), o.Track.Path, o.Destination)
		default:
			fmt.Fprintf(out, "%s %s\n", removeLabel("removed"), o.Track.Path)
		}
	}
	if report.DryRun {
		fmt.Fprintf(out, "Dry run: %d files (%s) would be removed; re-run with --apply\n",
			len(report.Outcomes), formatBytes(report.ReclaimedBytes))
		return nil
	}
	summary := fmt.Sprintf("Removed %d files, reclaimed %s", report.Removed, formatBytes(report.ReclaimedBytes))
	if report.Failed > 0 {
		summary += warnText(fmt.Sprintf(", %d failed", report.Failed))
	}
	fmt.Fprintln(out, strings.TrimSpace(summary))
	return nil
}
