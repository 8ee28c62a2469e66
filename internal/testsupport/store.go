package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"tunekeep/internal/catalog"
	"tunekeep/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTrack inserts a track for tests. An empty path defaults to
// "/library/<artist> - <title>.mp3".
func NewTrack(t testing.TB, store *catalog.Store, track catalog.Track) *catalog.Track {
	t.Helper()

	if track.Path == "" {
		track.Path = filepath.Join("/library", fmt.Sprintf("%s - %s.mp3", track.Artist, track.Title))
	}
	if track.Format == "" {
		track.Format = strings.TrimPrefix(filepath.Ext(track.Path), ".")
	}
	stored, err := store.Upsert(context.Background(), track)
	if err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return stored
}
