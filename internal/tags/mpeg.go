package tags

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

var errNoFrame = errors.New("no mpeg audio frame found")

// maxSyncScan bounds how far past the ID3 tag we look for a frame sync.
const maxSyncScan = 256 * 1024

type mpegFrame struct {
	Bitrate         int
	SampleRate      int
	Channels        int
	SamplesPerFrame int
	XingFrames      uint32
}

// Layer III bitrates in kbps, indexed by [mpeg1][bitrateIndex].
var layer3Bitrates = [2][16]int{
	{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
}

// Sample rates indexed by [versionBits][sampleRateIndex]; version bits 01 are reserved.
var mpegSampleRates = [4][3]int{
	{11025, 12000, 8000},
	{0, 0, 0},
	{22050, 24000, 16000},
	{44100, 48000, 32000},
}

// firstMPEGFrame skips a leading ID3v2 tag and decodes the first valid Layer
// III frame header. The returned offset is where audio data starts.
func firstMPEGFrame(r *bufio.Reader) (mpegFrame, int64, error) {
	var offset int64

	if head, err := r.Peek(10); err == nil && string(head[0:3]) == "ID3" {
		size := int64(head[6]&0x7f)<<21 | int64(head[7]&0x7f)<<14 | int64(head[8]&0x7f)<<7 | int64(head[9]&0x7f)
		skip := 10 + size
		if head[5]&0x10 != 0 {
			skip += 10
		}
		n, err := r.Discard(int(skip))
		offset += int64(n)
		if err != nil {
			return mpegFrame{}, offset, errNoFrame
		}
	}

	for scanned := 0; scanned < maxSyncScan; scanned++ {
		head, err := r.Peek(4)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return mpegFrame{}, offset, errNoFrame
			}
			return mpegFrame{}, offset, err
		}
		if frame, ok := decodeHeader(binary.BigEndian.Uint32(head)); ok {
			frame.XingFrames = xingFrameCount(r, head)
			return frame, offset, nil
		}
		if _, err := r.Discard(1); err != nil {
			return mpegFrame{}, offset, errNoFrame
		}
		offset++
	}
	return mpegFrame{}, offset, errNoFrame
}

func decodeHeader(h uint32) (mpegFrame, bool) {
	if h>>21 != 0x7ff {
		return mpegFrame{}, false
	}
	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	bitrateIdx := (h >> 12) & 0xf
	rateIdx := (h >> 10) & 0x3
	mode := (h >> 6) & 0x3
	if version == 1 || layer != 1 || bitrateIdx == 0 || bitrateIdx == 15 || rateIdx == 3 {
		return mpegFrame{}, false
	}
	mpeg1 := 0
	samples := 576
	if version == 3 {
		mpeg1 = 1
		samples = 1152
	}
	channels := 2
	if mode == 3 {
		channels = 1
	}
	return mpegFrame{
		Bitrate:         layer3Bitrates[mpeg1][bitrateIdx] * 1000,
		SampleRate:      mpegSampleRates[version][rateIdx],
		Channels:        channels,
		SamplesPerFrame: samples,
	}, true
}

// xingFrameCount returns the frame count from a Xing or Info header in the
// first frame, or zero when the stream has none.
func xingFrameCount(r *bufio.Reader, head []byte) uint32 {
	h := binary.BigEndian.Uint32(head)
	mpeg1 := (h>>19)&0x3 == 3
	mono := (h>>6)&0x3 == 3
	var side int
	switch {
	case mpeg1 && mono:
		side = 17
	case mpeg1:
		side = 32
	case mono:
		side = 9
	default:
		side = 17
	}
	start := 4 + side
	buf, err := r.Peek(start + 12)
	if err != nil {
		return 0
	}
	id := string(buf[start : start+4])
	if id != "Xing" && id != "Info" {
		return 0
	}
	flags := binary.BigEndian.Uint32(buf[start+4 : start+8])
	if flags&0x1 == 0 {
		return 0
	}
	return binary.BigEndian.Uint32(buf[start+8 : start+12])
}
