package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tunekeep/internal/catalog"
	"tunekeep/internal/config"
	"tunekeep/internal/organizer"
	"tunekeep/internal/services"
	"tunekeep/internal/tags"
	"tunekeep/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 9, 14, 0, 0, 0, time.Local)

func newService(t *testing.T, opts ...testsupport.ConfigOption) (*Service, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	svc := New(cfg, store, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, cfg
}

func strPtr(s string) *string { return &s }

func TestScanDirectoryStoresTracks(t *testing.T) {
	svc, cfg := newService(t)
	lib := cfg.Paths.LibraryDir
	testsupport.WriteBytes(t, filepath.Join(lib, "a.wav"), testsupport.WAVBytes(1, 1))
	testsupport.WriteBytes(t, filepath.Join(lib, "sub", "b.wav"), testsupport.WAVBytes(1, 1))
	testsupport.WriteBytes(t, filepath.Join(lib, "c.wav"), testsupport.WAVBytes(2, 2))
	testsupport.WriteBytes(t, filepath.Join(lib, ".cache", "d.wav"), testsupport.WAVBytes(1, 3))
	testsupport.WriteBytes(t, filepath.Join(lib, "broken.flac"), []byte("not a flac file"))
	testsupport.WriteBytes(t, filepath.Join(lib, "notes.txt"), []byte("liner notes"))

	var calls int
	report, err := svc.ScanDirectory(context.Background(), lib, ScanOptions{
		Progress: func(done, total int, _ string) { calls++ },
	})
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if report.Found != 4 || report.Stored != 3 || len(report.ReadFailures) != 1 {
		t.Fatalf("unexpected report: found=%d stored=%d read failures=%d", report.Found, report.Stored, len(report.ReadFailures))
	}
	if calls != 4 {
		t.Fatalf("expected 4 progress calls, got %d", calls)
	}
	count, err := svc.Store().Count(context.Background())
	if err != nil || count != 3 {
		t.Fatalf("expected 3 catalogued tracks, got %d (%v)", count, err)
	}

	if err := os.Remove(filepath.Join(lib, "c.wav")); err != nil {
		t.Fatal(err)
	}
	report, err = svc.ScanDirectory(context.Background(), lib, ScanOptions{Prune: true})
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if report.Pruned != 1 {
		t.Fatalf("expected 1 pruned row, got %d", report.Pruned)
	}

	notRecursive := false
	report, err = svc.ScanDirectory(context.Background(), lib, ScanOptions{Recursive: &notRecursive})
	if err != nil {
		t.Fatalf("flat scan: %v", err)
	}
	if report.Found != 2 {
		t.Fatalf("expected 2 files at the top level, got %d", report.Found)
	}
}

func TestScanDirectoryMissingRoot(t *testing.T) {
	svc, cfg := newService(t)
	_, err := svc.ScanDirectory(context.Background(), filepath.Join(cfg.Paths.LibraryDir, "absent"), ScanOptions{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindAndCleanDuplicates(t *testing.T) {
	svc, cfg := newService(t)
	lib := cfg.Paths.LibraryDir
	testsupport.WriteBytes(t, filepath.Join(lib, "a.wav"), testsupport.WAVBytes(1, 7))
	testsupport.WriteBytes(t, filepath.Join(lib, "b.wav"), testsupport.WAVBytes(1, 7))
	testsupport.WriteBytes(t, filepath.Join(lib, "c.wav"), testsupport.WAVBytes(1, 8))
	ctx := context.Background()
	if _, err := svc.ScanDirectory(ctx, lib, ScanOptions{}); err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}

	report, err := svc.FindDuplicates(ctx, DetectOverrides{})
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if report.Stats.TotalGroups != 1 || report.Stats.TotalFiles != 1 || !report.Persisted {
		t.Fatalf("unexpected detection report: %+v", report.Stats)
	}
	stored, stats, err := svc.StoredDuplicates(ctx)
	if err != nil || len(stored) != 1 || stats.TotalDuplicates != 2 {
		t.Fatalf("unexpected stored groups: %d %+v %v", len(stored), stats, err)
	}

	dry, err := svc.CleanDuplicates(ctx, CleanOptions{})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !dry.DryRun || len(dry.Outcomes) != 1 || dry.Removed != 0 {
		t.Fatalf("unexpected dry run: %+v", dry)
	}
	victim := dry.Outcomes[0].Track.Path
	if _, err := os.Stat(victim); err != nil {
		t.Fatalf("dry run must not touch files: %v", err)
	}

	applied, err := svc.CleanDuplicates(ctx, CleanOptions{Apply: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Removed != 1 || applied.Failed != 0 {
		t.Fatalf("unexpected apply report: %+v", applied)
	}
	want := filepath.Join(cfg.Paths.TrashDir, "2024-03-09", filepath.Base(victim))
	if applied.Outcomes[0].Destination != want {
		t.Fatalf("expected trash destination %q, got %q", want, applied.Outcomes[0].Destination)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected file in trash: %v", err)
	}
	if n, _ := svc.Store().Count(ctx); n != 2 {
		t.Fatalf("expected 2 tracks left, got %d", n)
	}
	if stored, _, _ := svc.StoredDuplicates(ctx); len(stored) != 0 {
		t.Fatalf("cleaned group should no longer be listed, got %d", len(stored))
	}
}

func TestFindDuplicatesRejectsBadOverrides(t *testing.T) {
	svc, _ := newService(t)
	off := false
	_, err := svc.FindDuplicates(context.Background(), DetectOverrides{UseMetadata: &off, UseHash: &off})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bad := 1.5
	if _, err := svc.FindDuplicates(context.Background(), DetectOverrides{Tolerance: &bad}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for tolerance, got %v", err)
	}
	if _, err := svc.FindDuplicates(context.Background(), DetectOverrides{Fields: []string{"composer"}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for fields, got %v", err)
	}
}

func TestFindDuplicatesHonorsZeroTolerance(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()
	lib := cfg.Paths.LibraryDir
	testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: filepath.Join(lib, "a.mp3"), Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera", Duration: 354})
	testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: filepath.Join(lib, "b.mp3"), Artist: "Queen", Title: "Bohemian Rhapsody", Album: "Greatest Hits", Duration: 355})

	report, err := svc.FindDuplicates(ctx, DetectOverrides{})
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if report.Stats.TotalGroups != 0 {
		t.Fatalf("default tolerance should keep different albums apart, got %+v", report.Stats)
	}

	zero := 0.0
	report, err = svc.FindDuplicates(ctx, DetectOverrides{Tolerance: &zero})
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if report.Stats.TotalGroups != 1 || report.Stats.TotalDuplicates != 2 {
		t.Fatalf("tolerance 0 should group every complete pair, got %+v", report.Stats)
	}
}

func TestEditTagsWritesFileAndCatalog(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()
	flacPath := filepath.Join(cfg.Paths.LibraryDir, "roads.flac")
	wavPath := filepath.Join(cfg.Paths.LibraryDir, "roads.wav")
	testsupport.WriteBytes(t, flacPath, testsupport.FLACBytes(44100, 2, 44100*3))
	testsupport.WriteBytes(t, wavPath, testsupport.WAVBytes(1, 0))
	flacTrack := testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: flacPath})
	wavTrack := testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: wavPath})

	results, err := svc.EditTags(ctx, []int64{flacTrack.ID, wavTrack.ID, 999}, tags.Edit{
		Artist: strPtr("Portishead"),
		Title:  strPtr("Roads"),
	})
	if err != nil {
		t.Fatalf("EditTags: %v", err)
	}
	if len(results) != 3 || !results[0].OK || results[1].OK || results[2].OK {
		t.Fatalf("unexpected results: %+v", results)
	}

	info, err := tags.Read(flacPath)
	if err != nil {
		t.Fatalf("tags.Read: %v", err)
	}
	if info.Artist != "Portishead" || info.Title != "Roads" {
		t.Fatalf("file tags not written: %+v", info)
	}
	stored, _ := svc.Store().GetByID(ctx, flacTrack.ID)
	if stored.Artist != "Portishead" || stored.Title != "Roads" {
		t.Fatalf("catalog not updated: %+v", stored)
	}
	untouched, _ := svc.Store().GetByID(ctx, wavTrack.ID)
	if untouched.Artist != "" {
		t.Fatalf("unwritable file must keep its catalog row, got %+v", untouched)
	}
}

func TestEditTagsReportsTruncatedFLAC(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()
	path := filepath.Join(cfg.Paths.LibraryDir, "cut.flac")
	testsupport.WriteBytes(t, path, testsupport.FLACHeaderBytes(44100, 2, 44100))
	track := testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: path, Title: "Cut"})

	results, err := svc.EditTags(ctx, []int64{track.ID}, tags.Edit{Title: strPtr("Whole")})
	if err != nil {
		t.Fatalf("EditTags: %v", err)
	}
	if len(results) != 1 || results[0].OK || !strings.Contains(results[0].Error, "no audio frames") {
		t.Fatalf("expected a per-track failure, got %+v", results)
	}
	stored, _ := svc.Store().GetByID(ctx, track.ID)
	if stored.Title != "Cut" {
		t.Fatalf("catalog must keep the old title, got %q", stored.Title)
	}
}

func TestGuessFromFilename(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		title  string
		track  int
	}{
		{"Air - La Femme d'Argent.mp3", "Air", "La Femme d'Argent", 0},
		{"03 - Massive Attack - Teardrop.flac", "Massive Attack", "Teardrop", 3},
		{"07. - Moby - Porcelain.mp3", "Moby", "Porcelain", 7},
		{"Artist - Title - Live.mp3", "Artist", "Title - Live", 0},
		{"untitled.mp3", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit := GuessFromFilename(filepath.Join("/music", tt.name))
			if got := deref(edit.Artist); got != tt.artist {
				t.Fatalf("artist: got %q want %q", got, tt.artist)
			}
			if got := deref(edit.Title); got != tt.title {
				t.Fatalf("title: got %q want %q", got, tt.title)
			}
			track := 0
			if edit.TrackNumber != nil {
				track = *edit.TrackNumber
			}
			if track != tt.track {
				t.Fatalf("track: got %d want %d", track, tt.track)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestOrganizeMovesAndRecordsPaths(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()
	src := filepath.Join(cfg.Paths.LibraryDir, "incoming", "track.wav")
	testsupport.WriteBytes(t, src, testsupport.WAVBytes(1, 0))
	track := testsupport.NewTrack(t, svc.Store(), catalog.Track{
		Path: src, Artist: "Massive Attack", Album: "Mezzanine", Title: "Teardrop", TrackNumber: 3,
	})
	base := filepath.Join(cfg.Paths.LibraryDir, "sorted")
	want := filepath.Join(base, "Massive Attack", "Mezzanine", "03 - Teardrop.wav")

	preview, err := svc.Organize(ctx, OrganizeOptions{Pattern: "artist_album_track", BaseDir: base, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(preview.Results) != 1 || preview.Results[0].Status != organizer.StatusDryRun || preview.Results[0].NewPath != want {
		t.Fatalf("unexpected preview: %+v", preview.Results)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run must not move: %v", err)
	}

	applied, err := svc.Organize(ctx, OrganizeOptions{Pattern: "artist_album_track", BaseDir: base})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Counts()[organizer.StatusSuccess] != 1 {
		t.Fatalf("unexpected results: %+v", applied.Results)
	}
	stored, _ := svc.Store().GetByID(ctx, track.ID)
	if stored.Path != want || stored.Filename != "03 - Teardrop.wav" {
		t.Fatalf("catalog path not updated: %q %q", stored.Path, stored.Filename)
	}

	again, err := svc.Organize(ctx, OrganizeOptions{Pattern: "artist_album_track", BaseDir: base})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(again.Results) != 0 {
		t.Fatalf("organized files should not be planned again: %+v", again.Results)
	}

	if _, err := svc.Organize(ctx, OrganizeOptions{Pattern: "{artist}/../{title}"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected invalid pattern error, got %v", err)
	}
}

func TestRenameAndBatchRename(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()
	src := filepath.Join(cfg.Paths.LibraryDir, "old name.wav")
	testsupport.WriteBytes(t, src, testsupport.WAVBytes(1, 0))
	track := testsupport.NewTrack(t, svc.Store(), catalog.Track{Path: src})

	newPath, err := svc.Rename(ctx, track.ID, "new name", true)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if newPath != filepath.Join(cfg.Paths.LibraryDir, "new name.wav") {
		t.Fatalf("unexpected new path %q", newPath)
	}
	if stored, _ := svc.Store().GetByID(ctx, track.ID); stored.Path != newPath {
		t.Fatalf("catalog path not updated: %q", stored.Path)
	}

	results, err := svc.BatchRename(ctx, []int64{track.ID}, "new", "renamed", "filename")
	if err != nil {
		t.Fatalf("BatchRename: %v", err)
	}
	if len(results) != 1 || results[0].Status != organizer.StatusSuccess {
		t.Fatalf("unexpected batch results: %+v", results)
	}
	if stored, _ := svc.Store().GetByID(ctx, track.ID); filepath.Base(stored.Path) != "renamed name.wav" {
		t.Fatalf("catalog path not updated after batch rename: %q", stored.Path)
	}

	if _, err := svc.Rename(ctx, 4242, "x", true); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.BatchRename(ctx, []int64{4242}, "a", "b", "filename"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown ids, got %v", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	svc, cfg := newService(t)
	cfg.Backup.KeepCount = 1
	ctx := context.Background()
	testsupport.NewTrack(t, svc.Store(), catalog.Track{Artist: "Air", Title: "Sexy Boy", Size: 10})
	testsupport.NewTrack(t, svc.Store(), catalog.Track{Artist: "Moby", Title: "Porcelain", Size: 20})

	first, _, err := svc.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(first, old, old); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second, pruned, err := svc.Backup(ctx)
	if err != nil {
		t.Fatalf("second Backup: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected the older backup to be pruned, got %d", pruned)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed", first)
	}

	testsupport.NewTrack(t, svc.Store(), catalog.Track{Artist: "Extra", Title: "Track"})
	report, err := svc.Restore(ctx, second, ImportOptions{Replace: true})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if report.Read != 2 || report.Stored != 2 || report.Cleared != 3 {
		t.Fatalf("unexpected restore report: %+v", report)
	}
	if n, _ := svc.Store().Count(ctx); n != 2 {
		t.Fatalf("expected 2 tracks after restore, got %d", n)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{"files": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Import(ctx, empty, ImportOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty import, got %v", err)
	}
}

func TestPurgeTrash(t *testing.T) {
	svc, cfg := newService(t)
	cfg.Duplicates.TrashRetentionDays = 1
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.TrashDir, "2000-01-01", "old.mp3"), 10, 1)
	today := time.Now().Format("2006-01-02")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.TrashDir, today, "new.mp3"), 10, 1)

	result, err := svc.PurgeTrash(context.Background(), 0)
	if err != nil {
		t.Fatalf("PurgeTrash: %v", err)
	}
	if len(result.Removed) != 1 || filepath.Base(result.Removed[0]) != "2000-01-01" {
		t.Fatalf("unexpected purge result: %+v", result)
	}

	cfg.Duplicates.TrashRetentionDays = 0
	result, _ = svc.PurgeTrash(context.Background(), 0)
	if len(result.Removed) != 0 {
		t.Fatalf("zero retention must keep everything, got %+v", result)
	}
}

func TestExportFormats(t *testing.T) {
	svc, cfg := newService(t)
	first := testsupport.NewTrack(t, svc.Store(), catalog.Track{Artist: "Air", Title: "La Femme d'Argent", Duration: 427})
	testsupport.NewTrack(t, svc.Store(), catalog.Track{Artist: "Air", Title: "Sexy Boy", Duration: 298})
	out := filepath.Join(testsupport.BaseDir(cfg), "exports")
	ctx := context.Background()

	for _, format := range ExportFormats {
		path := filepath.Join(out, "library."+format)
		n, err := svc.Export(ctx, ExportOptions{Format: format, Path: path})
		if err != nil {
			t.Fatalf("Export %s: %v", format, err)
		}
		if n != 2 {
			t.Fatalf("Export %s wrote %d tracks, want 2", format, n)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("Export %s produced no file: %v", format, err)
		}
	}

	path := filepath.Join(out, "one.m3u")
	n, err := svc.Export(ctx, ExportOptions{Format: "M3U", Path: path, IDs: []int64{first.ID}, PlaylistName: "Moon Safari"})
	if err != nil || n != 1 {
		t.Fatalf("Export subset: n=%d err=%v", n, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read playlist: %v", err)
	}
	want := "#EXTM3U\n#PLAYLIST:Moon Safari\n\n#EXTINF:427,Air - La Femme d'Argent\n" + first.Path + "\n"
	if string(data) != want {
		t.Fatalf("unexpected playlist:\n%s", data)
	}

	if _, err := svc.Export(ctx, ExportOptions{Format: "xml", Path: path}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown format, got %v", err)
	}
}
