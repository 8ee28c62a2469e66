package tags_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tunekeep/internal/services"
	"tunekeep/internal/tags"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

// writeMP3 writes frames of silent MPEG1 Layer III at 128 kbps, 44.1 kHz, joint stereo.
func writeMP3(t *testing.T, path string, frames int) {
	t.Helper()
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	data := bytes.Repeat(frame, frames)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write mp3 fixture: %v", err)
	}
}

// writeFLAC writes a FLAC header with a STREAMINFO block and a frame sync stub.
func writeFLAC(t *testing.T, path string, sampleRate, channels int, samples uint64) {
	t.Helper()
	data := append(flacHeader(sampleRate, channels, samples), 0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00, 0x00)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write flac fixture: %v", err)
	}
}

// flacHeader returns the signature and STREAMINFO block with no audio frames.
func flacHeader(sampleRate, channels int, samples uint64) []byte {
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write([]byte{0x80, 0x00, 0x00, 34})

	info := make([]byte, 34)
	binary.BigEndian.PutUint16(info[0:2], 4096)
	binary.BigEndian.PutUint16(info[2:4], 4096)
	packed := uint64(sampleRate)<<44 | uint64(channels-1)<<41 | uint64(16-1)<<36 | samples
	binary.BigEndian.PutUint64(info[10:18], packed)
	buf.Write(info)
	return buf.Bytes()
}

func writeWAV(t *testing.T, path string, seconds int) {
	t.Helper()
	const (
		channels   = 2
		sampleRate = 44100
		byteRate   = sampleRate * channels * 2
	)
	dataSize := byteRate * seconds
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMP3RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	writeMP3(t, path, 100)

	edit := tags.Edit{
		Artist:      strPtr("Boards of Canada"),
		Title:       strPtr("Roygbiv"),
		Album:       strPtr("Music Has the Right to Children"),
		Genre:       strPtr("Electronic"),
		Year:        intPtr(1998),
		TrackNumber: intPtr(6),
		Artwork:     &tags.Artwork{Data: coverPNG(t)},
	}
	if err := tags.Write(path, edit); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := tags.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Artist != "Boards of Canada" || info.Title != "Roygbiv" || info.Album != "Music Has the Right to Children" {
		t.Fatalf("unexpected text tags: %+v", info)
	}
	if info.Genre != "Electronic" || info.Year != 1998 || info.TrackNumber != 6 || !info.HasArtwork {
		t.Fatalf("unexpected tags: %+v", info)
	}
	if info.Format != "mp3" || info.SampleRate != 44100 || info.Channels != 2 || info.Bitrate != 128000 {
		t.Fatalf("unexpected properties: %+v", info)
	}
	want := float64(417*100*8) / 128000
	if math.Abs(info.Duration-want) > 0.01 {
		t.Fatalf("duration = %v, want %v", info.Duration, want)
	}
}

func TestMP3WithoutTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.mp3")
	writeMP3(t, path, 10)

	info, err := tags.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Artist != "" || info.Title != "" || info.HasArtwork {
		t.Fatalf("expected empty tags, got %+v", info)
	}
	if info.Duration <= 0 {
		t.Fatalf("expected duration from frame header, got %v", info.Duration)
	}
}

func TestFLACRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.flac")
	writeFLAC(t, path, 44100, 2, 44100*3)

	require.NoError(t, tags.Write(path, tags.Edit{
		Artist:      strPtr("Aphex Twin"),
		Title:       strPtr("Xtal"),
		Album:       strPtr("Selected Ambient Works 85-92"),
		Year:        intPtr(1992),
		TrackNumber: intPtr(1),
		Artwork:     &tags.Artwork{Data: coverPNG(t), MIMEType: "image/png"},
	}))
	// A second edit replaces values instead of appending them.
	require.NoError(t, tags.Write(path, tags.Edit{Title: strPtr("Xtal (Remastered)"), Genre: strPtr("Ambient")}))

	info, err := tags.Read(path)
	require.NoError(t, err)
	require.Equal(t, "Aphex Twin", info.Artist)
	require.Equal(t, "Xtal (Remastered)", info.Title)
	require.Equal(t, "Ambient", info.Genre)
	require.Equal(t, 1992, info.Year)
	require.Equal(t, 1, info.TrackNumber)
	require.True(t, info.HasArtwork)
	require.Equal(t, 44100, info.SampleRate)
	require.Equal(t, 2, info.Channels)
	require.InDelta(t, 3.0, info.Duration, 1e-9)
	require.Positive(t, info.Bitrate)
}

func TestFLACClearField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clear.flac")
	writeFLAC(t, path, 48000, 1, 48000)

	require.NoError(t, tags.Write(path, tags.Edit{Artist: strPtr("Someone"), Album: strPtr("Something")}))
	require.NoError(t, tags.Write(path, tags.Edit{Artist: strPtr("")}))

	info, err := tags.Read(path)
	require.NoError(t, err)
	require.Empty(t, info.Artist)
	require.Equal(t, "Something", info.Album)
	require.Equal(t, 1, info.Channels)
}

func TestFLACWithoutFramesIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.flac")
	require.NoError(t, os.WriteFile(path, flacHeader(44100, 2, 44100), 0o644))

	var err error
	require.NotPanics(t, func() {
		err = tags.Write(path, tags.Edit{Title: strPtr("x")})
	})
	require.ErrorIs(t, err, services.ErrValidation)

	// The file is left untouched.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, flacHeader(44100, 2, 44100), data)
}

func TestWAVProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	writeWAV(t, path, 2)

	info, err := tags.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Duration != 2 || info.SampleRate != 44100 || info.Channels != 2 || info.Bitrate != 1411200 {
		t.Fatalf("unexpected wav info: %+v", info)
	}
}

func TestUnsupportedFormats(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := tags.Read(txt); !errors.Is(err, services.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported on read, got %v", err)
	}

	wav := filepath.Join(dir, "take.wav")
	writeWAV(t, wav, 1)
	if err := tags.Write(wav, tags.Edit{Artist: strPtr("x")}); !errors.Is(err, services.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported on write, got %v", err)
	}
	if err := tags.Write(wav, tags.Edit{}); err != nil {
		t.Fatalf("empty edit should be a no-op, got %v", err)
	}
}

func TestSupportedAndWritable(t *testing.T) {
	if !tags.Supported("/a/B.FLAC") || !tags.Supported("x.m4a") || tags.Supported("x.txt") {
		t.Fatal("unexpected Supported result")
	}
	if !tags.Writable("x.mp3") || tags.Writable("x.ogg") {
		t.Fatal("unexpected Writable result")
	}
	if got := tags.FormatOf("/music/Song.MP3"); got != "mp3" {
		t.Fatalf("FormatOf = %q", got)
	}
}
