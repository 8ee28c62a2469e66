package tags

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	mflac "github.com/mewkiz/flac"
)

// properties are the audio characteristics a container exposes. A zero field
// means the container did not report it.
type properties struct {
	Duration   float64
	Bitrate    int
	SampleRate int
	Channels   int
}

func readProperties(path, format string) (properties, error) {
	switch format {
	case "flac":
		return flacProperties(path)
	case "mp3":
		return mp3Properties(path)
	case "wav":
		return wavProperties(path)
	default:
		return properties{}, nil
	}
}

func flacProperties(path string) (properties, error) {
	stream, err := mflac.Open(path)
	if err != nil {
		return properties{}, fmt.Errorf("parse flac stream info: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	props := properties{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
	}
	if info.SampleRate > 0 && info.NSamples > 0 {
		props.Duration = float64(info.NSamples) / float64(info.SampleRate)
	}
	return props, nil
}

// mp3Properties prefers the ID3 TLEN frame (milliseconds) and falls back to
// the first MPEG audio frame, using its Xing/Info frame count when present.
func mp3Properties(path string) (properties, error) {
	var props properties

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"TLEN"}})
	if err != nil {
		return props, fmt.Errorf("parse id3: %w", err)
	}
	if ms, convErr := strconv.ParseFloat(strings.TrimSpace(tag.GetTextFrame("TLEN").Text), 64); convErr == nil && ms > 0 {
		props.Duration = ms / 1000
	}
	tag.Close()

	file, err := os.Open(path)
	if err != nil {
		return props, err
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return props, err
	}

	frame, offset, err := firstMPEGFrame(bufio.NewReaderSize(file, 64*1024))
	if errors.Is(err, errNoFrame) {
		return props, nil
	}
	if err != nil {
		return props, err
	}
	props.SampleRate = frame.SampleRate
	props.Channels = frame.Channels
	if props.Duration == 0 {
		switch {
		case frame.XingFrames > 0:
			props.Duration = float64(frame.XingFrames) * float64(frame.SamplesPerFrame) / float64(frame.SampleRate)
		case frame.Bitrate > 0:
			props.Duration = float64(stat.Size()-offset) * 8 / float64(frame.Bitrate)
		}
	}
	if frame.XingFrames == 0 {
		props.Bitrate = frame.Bitrate
	}
	return props, nil
}

// wavProperties reads the RIFF fmt and data chunks.
func wavProperties(path string) (properties, error) {
	var props properties
	file, err := os.Open(path)
	if err != nil {
		return props, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return props, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return props, errors.New("not a RIFF/WAVE file")
	}

	var byteRate uint32
	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return props, nil
			}
			return props, err
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return props, fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return props, errors.New("short fmt chunk")
			}
			props.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			props.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			byteRate = binary.LittleEndian.Uint32(body[8:12])
			props.Bitrate = int(byteRate) * 8
		case "data":
			if byteRate > 0 {
				props.Duration = float64(size) / float64(byteRate)
			}
			return props, nil
		default:
			if _, err := r.Discard(int(size)); err != nil {
				return props, nil
			}
		}
		if size%2 == 1 {
			_, _ = r.Discard(1)
		}
	}
}
