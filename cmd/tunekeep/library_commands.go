package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tunekeep/internal/catalog"
	"tunekeep/internal/library"
	"tunekeep/internal/services"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Browse and maintain the catalog",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibrarySearchCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatsCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))
	libraryCmd.AddCommand(newLibraryHealthCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				tracks, err := svc.Store().List(runCtx, catalog.ListOptions{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				return printTracks(cmd, ctx, tracks, "Catalog is empty")
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of tracks to show (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of tracks to skip")
	return cmd
}

func newLibrarySearchCommand(ctx *commandContext) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search tracks by artist, title, album, or genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				tracks, err := svc.Store().Search(runCtx, args[0], fields)
				if err != nil {
					return services.Wrap(services.ErrValidation, "library", "search", "", err)
				}
				return printTracks(cmd, ctx, tracks, fmt.Sprintf("No tracks match %q", args[0]))
			})
		},
	}

	cmd.Flags().StringSliceVarP(&fields, "field", "f", nil, "Restrict the search to these fields (repeatable)")
	return cmd
}

func printTracks(cmd *cobra.Command, ctx *commandContext, tracks []catalog.Track, emptyMsg string) error {
	if ctx.JSONMode() {
		if tracks == nil {
			tracks = []catalog.Track{}
		}
		return writeJSON(cmd, tracks)
	}
	out := cmd.OutOrStdout()
	if len(tracks) == 0 {
		fmt.Fprintln(out, emptyMsg)
		return nil
	}
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			orDash(t.Artist),
			orDash(t.Title),
			orDash(t.Album),
			intOrDash(t.TrackNumber),
			formatLength(t.Duration),
			strings.ToUpper(t.Format),
			formatBytes(t.Size),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Artist", "Title", "Album", "#", "Length", "Format", "Size"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "%d tracks\n", len(tracks))
	return nil
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every catalogued field of a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				track, err := svc.Store().GetByID(runCtx, ids[0])
				if err != nil {
					return err
				}
				if track == nil {
					return services.Wrap(services.ErrNotFound, "library", "show", fmt.Sprintf("track %d not found", ids[0]), nil)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, track)
				}
				printTrackDetail(cmd.OutOrStdout(), *track)
				return nil
			})
		},
	}
}

func printTrackDetail(out io.Writer, t catalog.Track) {
	fmt.Fprintf(out, "ID:          %d\n", t.ID)
	fmt.Fprintf(out, "Path:        %s\n", t.Path)
	fmt.Fprintf(out, "Artist:      %s\n", orDash(t.Artist))
	fmt.Fprintf(out, "Title:       %s\n", orDash(t.Title))
	fmt.Fprintf(out, "Album:       %s\n", orDash(t.Album))
	fmt.Fprintf(out, "Year:        %s\n", intOrDash(t.Year))
	fmt.Fprintf(out, "Genre:       %s\n", orDash(t.Genre))
	fmt.Fprintf(out, "Track:       %s\n", intOrDash(t.TrackNumber))
	fmt.Fprintf(out, "Length:      %s\n", formatLength(t.Duration))
	fmt.Fprintf(out, "Format:      %s\n", strings.ToUpper(t.Format))
	fmt.Fprintf(out, "Bitrate:     %s\n", formatKbps(t.Bitrate))
	fmt.Fprintf(out, "Sample rate: %s\n", intOrDash(t.SampleRate))
	fmt.Fprintf(out, "Channels:    %s\n", intOrDash(t.Channels))
	fmt.Fprintf(out, "Size:        %s\n", formatBytes(t.Size))
	fmt.Fprintf(out, "Artwork:     %s\n", yesNo(t.HasArtwork))
	fmt.Fprintf(out, "Hash:        %s\n", orDash(t.Hash))
	fmt.Fprintf(out, "Added:       %s\n", t.DateAdded.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Modified:    %s\n", t.LastModified.Local().Format("2006-01-02 15:04"))
}

func newLibraryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				stats, err := svc.Store().Stats(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Tracks:   %d\n", stats.TotalFiles)
				fmt.Fprintf(out, "Artists:  %d\n", stats.TotalArtists)
				fmt.Fprintf(out, "Albums:   %d\n", stats.TotalAlbums)
				fmt.Fprintf(out, "Length:   %s\n", formatLength(stats.TotalDuration))
				fmt.Fprintf(out, "Size:     %s\n", formatBytes(stats.TotalSize))
				if len(stats.Formats) > 0 {
					formats := make([]string, 0, len(stats.Formats))
					for f := range stats.Formats {
						formats = append(formats, f)
					}
					sort.Strings(formats)
					rows := make([][]string, 0, len(formats))
					for _, f := range formats {
						rows = append(rows, []string{strings.ToUpper(orDash(f)), strconv.Itoa(stats.Formats[f])})
					}
					fmt.Fprint(out, renderTable([]string{"Format", "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> [id...]",
		Short: "Remove tracks from the catalog (files are left alone)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				removed, err := svc.Store().RemoveMany(runCtx, ids)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"requested": len(ids), "removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d tracks from the catalog\n", removed, len(ids))
				return nil
			})
		},
	}
}

func newLibraryHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check catalog database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				resp, err := svc.Store().CheckHealth(runCtx)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", resp.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(resp.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(resp.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %d\n", resp.SchemaVersion)
				if len(resp.MissingColumns) > 0 {
					missing := append([]string(nil), resp.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(resp.IntegrityCheck))
				fmt.Fprintf(out, "Total tracks: %d\n", resp.TotalTracks)
				fmt.Fprintf(out, "Duplicate groups: %d\n", resp.TotalGroups)
				if resp.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", resp.Error)
				}
				return nil
			})
		},
	}
}
