package trash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tunekeep/internal/logging"
)

func TestMovePlacesFileInDayDirectory(t *testing.T) {
	root := t.TempDir()
	trashDir := filepath.Join(root, "trash")
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)

	first := filepath.Join(root, "a", "song.mp3")
	second := filepath.Join(root, "b", "song.mp3")
	for _, p := range []string{first, second} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(p), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got1, err := Move(first, trashDir, now, true)
	if err != nil {
		t.Fatalf("Move first: %v", err)
	}
	got2, err := Move(second, trashDir, now, true)
	if err != nil {
		t.Fatalf("Move second: %v", err)
	}
	if want := filepath.Join(trashDir, "2024-03-09", "song.mp3"); got1 != want {
		t.Fatalf("first target = %q, want %q", got1, want)
	}
	if want := filepath.Join(trashDir, "2024-03-09", "song (1).mp3"); got2 != want {
		t.Fatalf("second target = %q, want %q", got2, want)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}

	dirs, err := ListDirectories(trashDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Files != 2 || dirs[0].Size == 0 {
		t.Fatalf("unexpected listing: %+v", dirs)
	}

	if _, err := Move(second, "  ", now, true); err == nil {
		t.Fatal("expected error for empty trash dir")
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleUsesDirectoryDates(t *testing.T) {
	trashDir := t.TempDir()

	oldDay := filepath.Join(trashDir, time.Now().AddDate(0, 0, -40).Format(dayLayout))
	today := filepath.Join(trashDir, time.Now().Format(dayLayout))
	for _, dir := range []string{oldDay, today} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	// Undated directories fall back to mtime.
	undated := filepath.Join(trashDir, "manual")
	if err := os.Mkdir(undated, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour)
	if err := os.Chtimes(undated, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	// Loose files are ignored.
	loose := filepath.Join(trashDir, "loose.mp3")
	if err := os.WriteFile(loose, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(loose, old, old); err != nil {
		t.Fatal(err)
	}

	result := CleanStale(context.Background(), trashDir, 30*24*time.Hour, logging.NewNop())
	if len(result.Removed) != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(today); err != nil {
		t.Fatal("today's directory should be kept")
	}
	if _, err := os.Stat(loose); err != nil {
		t.Fatal("loose file should be kept")
	}
}
