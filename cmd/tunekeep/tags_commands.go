package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tunekeep/internal/config"
	"tunekeep/internal/library"
	"tunekeep/internal/tags"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Read and write file tags",
	}

	tagsCmd.AddCommand(newTagsShowCommand(ctx))
	tagsCmd.AddCommand(newTagsSetCommand(ctx))

	return tagsCmd
}

func newTagsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|path>",
		Short: "Read tags and audio properties straight from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, false, func(runCtx context.Context, svc *library.Service) error {
				path, err := resolveTrackPath(runCtx, svc, args[0])
				if err != nil {
					return err
				}
				info, err := tags.Read(path)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"file_path": path, "tags": info})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "File:        %s\n", path)
				fmt.Fprintf(out, "Format:      %s\n", strings.ToUpper(info.Format))
				fmt.Fprintf(out, "Artist:      %s\n", orDash(info.Artist))
				fmt.Fprintf(out, "Title:       %s\n", orDash(info.Title))
				fmt.Fprintf(out, "Album:       %s\n", orDash(info.Album))
				fmt.Fprintf(out, "Year:        %s\n", intOrDash(info.Year))
				fmt.Fprintf(out, "Genre:       %s\n", orDash(info.Genre))
				fmt.Fprintf(out, "Track:       %s\n", intOrDash(info.TrackNumber))
				fmt.Fprintf(out, "Length:      %s\n", formatLength(info.Duration))
				fmt.Fprintf(out, "Bitrate:     %s\n", formatKbps(info.Bitrate))
				fmt.Fprintf(out, "Sample rate: %s\n", intOrDash(info.SampleRate))
				fmt.Fprintf(out, "Channels:    %s\n", intOrDash(info.Channels))
				fmt.Fprintf(out, "Artwork:     %s\n", yesNo(info.HasArtwork))
				fmt.Fprintf(out, "Writable:    %s\n", yesNo(tags.Writable(path)))
				return nil
			})
		},
	}
}

// resolveTrackPath treats a numeric argument as a catalog ID when such a
// track exists, and as a file path otherwise.
func resolveTrackPath(ctx context.Context, svc *library.Service, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		track, err := svc.Store().GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		if track != nil {
			return track.Path, nil
		}
	}
	return config.ExpandPath(arg)
}

func newTagsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		artist, title, album, genre string
		year, track                 int
		artworkPath                 string
		fromFilename                bool
	)

	cmd := &cobra.Command{
		Use:   "set <id> [id...]",
		Short: "Write tags to files and update the catalog",
		Long: `Write the given tag values into each track's file and mirror them into the
catalog. Only flags that are passed are changed; pass an empty string to clear
a text field or 0 to clear year or track number. MP3 (ID3v2) and FLAC (Vorbis
comments) files are writable.

With --from-filename the artist, title and track number are guessed from file
names of the form "Artist - Title" or "NN - Artist - Title"; explicit flags
take precedence.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			edit := tags.Edit{}
			flags := cmd.Flags()
			if flags.Changed("artist") {
				edit.Artist = &artist
			}
			if flags.Changed("title") {
				edit.Title = &title
			}
			if flags.Changed("album") {
				edit.Album = &album
			}
			if flags.Changed("genre") {
				edit.Genre = &genre
			}
			if flags.Changed("year") {
				if year < 0 {
					return usageError("year must not be negative")
				}
				edit.Year = &year
			}
			if flags.Changed("track") {
				if track < 0 {
					return usageError("track number must not be negative")
				}
				edit.TrackNumber = &track
			}
			if artworkPath != "" {
				data, err := os.ReadFile(artworkPath)
				if err != nil {
					return fmt.Errorf("read artwork: %w", err)
				}
				edit.Artwork = &tags.Artwork{Data: data}
			}
			if edit.Empty() && !fromFilename {
				return usageError("no tag changes given")
			}

			return ctx.withService(cmd, true, func(runCtx context.Context, svc *library.Service) error {
				var results []library.TagResult
				if fromFilename {
					for _, id := range ids {
						perTrack, err := guessedEdit(runCtx, svc, id, edit)
						if err != nil {
							results = append(results, library.TagResult{ID: id, Error: err.Error()})
							continue
						}
						res, err := svc.EditTags(runCtx, []int64{id}, perTrack)
						if err != nil {
							return err
						}
						results = append(results, res...)
					}
				} else {
					results, err = svc.EditTags(runCtx, ids, edit)
					if err != nil {
						return err
					}
				}
				return printTagResults(cmd, ctx, results)
			})
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "Artist")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&album, "album", "", "Album")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre")
	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	cmd.Flags().IntVar(&track, "track", 0, "Track number")
	cmd.Flags().StringVar(&artworkPath, "artwork", "", "Image file to embed as the front cover")
	cmd.Flags().BoolVar(&fromFilename, "from-filename", false, "Guess artist, title and track number from the file name")
	return cmd
}

// guessedEdit fills the fields of explicit that were not given from the
// track's file name.
func guessedEdit(ctx context.Context, svc *library.Service, id int64, explicit tags.Edit) (tags.Edit, error) {
	track, err := svc.Store().GetByID(ctx, id)
	if err != nil {
		return tags.Edit{}, err
	}
	if track == nil {
		return tags.Edit{}, fmt.Errorf("track %d not found", id)
	}
	guess := library.GuessFromFilename(track.Path)
	if explicit.Artist == nil {
		explicit.Artist = guess.Artist
	}
	if explicit.Title == nil {
		explicit.Title = guess.Title
	}
	if explicit.TrackNumber == nil {
		explicit.TrackNumber = guess.TrackNumber
	}
	if explicit.Empty() {
		return tags.Edit{}, fmt.Errorf("nothing could be guessed from %q", track.Filename)
	}
	return explicit, nil
}

func printTagResults(cmd *cobra.Command, ctx *commandContext, results []library.TagResult) error {
	if ctx.JSONMode() {
		if results == nil {
			results = []library.TagResult{}
		}
		return writeJSON(cmd, map[string]any{"results": results})
	}
	out := cmd.OutOrStdout()
	updated := 0
	for _, res := range results {
		if res.OK {
			updated++
			fmt.Fprintf(out, "Track %d: updated %s\n", res.ID, res.Path)
			continue
		}
		fmt.Fprintf(out, "Track %d: %s\n", res.ID, warnText(res.Error))
	}
	fmt.Fprintf(out, "Updated %d of %d tracks\n", updated, len(results))
	return nil
}
