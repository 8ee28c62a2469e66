package scanner_test

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"tunekeep/internal/scanner"
	"tunekeep/internal/services"
	"tunekeep/internal/testsupport"
)

func TestWalkFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"b.mp3",
		"A.FLAC",
		"notes.txt",
		".hidden.mp3",
		"sub/c.ogg",
		".cache/d.mp3",
	} {
		testsupport.WriteFile(t, filepath.Join(root, rel), 4, 'x')
	}

	exts := []string{".mp3", "flac", ".OGG"}
	files, err := scanner.Walk(root, true, exts)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{
		filepath.Join(root, "A.FLAC"),
		filepath.Join(root, "b.mp3"),
		filepath.Join(root, "sub", "c.ogg"),
	}
	if fmt.Sprint(files) != fmt.Sprint(want) {
		t.Fatalf("Walk = %v, want %v", files, want)
	}

	flat, err := scanner.Walk(root, false, exts)
	if err != nil {
		t.Fatalf("Walk non-recursive: %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("expected 2 top-level files, got %v", flat)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := scanner.Walk(filepath.Join(t.TempDir(), "missing"), true, []string{".mp3"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "song.mp3")
	testsupport.WriteFile(t, file, 1, 'x')
	if _, err := scanner.Walk(file, true, []string{".mp3"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for file root, got %v", err)
	}
}

func TestHashers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.bin")
	testsupport.WriteBytes(t, path, []byte("abc"))

	md5Sum := md5.Sum([]byte("abc"))
	xx := make([]byte, 8)
	binary.BigEndian.PutUint64(xx, xxhash.Sum64String("abc"))
	b3 := blake3.Sum256([]byte("abc"))

	tests := []struct {
		name string
		want string
	}{
		{"md5", hex.EncodeToString(md5Sum[:])},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"xxhash", hex.EncodeToString(xx)},
		{"blake3", hex.EncodeToString(b3[:])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newHash, err := scanner.NewHasher(tt.name)
			if err != nil {
				t.Fatalf("NewHasher: %v", err)
			}
			got, err := scanner.HashFile(path, newHash)
			if err != nil {
				t.Fatalf("HashFile: %v", err)
			}
			if got != tt.want {
				t.Fatalf("hash = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := scanner.NewHasher("crc32"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestScanCollectsTracksAndFailures(t *testing.T) {
	root := t.TempDir()
	one := filepath.Join(root, "one.wav")
	two := filepath.Join(root, "two.wav")
	copyOfOne := filepath.Join(root, "copy.wav")
	broken := filepath.Join(root, "broken.flac")
	testsupport.WriteBytes(t, one, testsupport.WAVBytes(1, 0))
	testsupport.WriteBytes(t, copyOfOne, testsupport.WAVBytes(1, 0))
	testsupport.WriteBytes(t, two, testsupport.WAVBytes(2, 7))
	testsupport.WriteBytes(t, broken, []byte("this is not audio"))

	var calls atomic.Int32
	result, err := scanner.Scan(context.Background(), []string{two, broken, one, copyOfOne}, scanner.Options{
		Workers:       2,
		HashAlgorithm: "xxhash",
		Progress: func(done, total int, path string) {
			calls.Add(1)
			if total != 4 || done < 1 || done > 4 {
				t.Errorf("unexpected progress %d/%d", done, total)
			}
		},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("expected 4 progress calls, got %d", calls.Load())
	}
	if len(result.Tracks) != 3 || len(result.Failures) != 1 {
		t.Fatalf("unexpected result: %d tracks, %d failures", len(result.Tracks), len(result.Failures))
	}
	if result.Failures[0].Path != broken {
		t.Fatalf("unexpected failure path %q", result.Failures[0].Path)
	}

	byName := map[string]int{}
	for i, tr := range result.Tracks {
		byName[tr.Filename] = i
		if i > 0 && result.Tracks[i-1].Path > tr.Path {
			t.Fatalf("tracks not sorted: %q before %q", result.Tracks[i-1].Path, tr.Path)
		}
	}
	a := result.Tracks[byName["one.wav"]]
	b := result.Tracks[byName["copy.wav"]]
	c := result.Tracks[byName["two.wav"]]
	if a.Hash == "" || a.Hash != b.Hash || a.Hash == c.Hash {
		t.Fatalf("unexpected hashes: %q %q %q", a.Hash, b.Hash, c.Hash)
	}
	if a.Format != "wav" || a.Duration != 1 || c.Duration != 2 || a.Channels != 2 || a.SampleRate != 44100 {
		t.Fatalf("unexpected properties: %+v", a)
	}
	if a.Size == 0 || !filepath.IsAbs(a.Path) {
		t.Fatalf("unexpected file info: %+v", a)
	}
}

func TestScanHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "one.wav")
	testsupport.WriteBytes(t, path, testsupport.WAVBytes(1, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanner.Scan(ctx, []string{path}, scanner.Options{Workers: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
