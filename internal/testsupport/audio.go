package testsupport

import (
	"bytes"
	"encoding/binary"
)

// WAVBytes returns a 44.1 kHz 16-bit stereo PCM file of the given length.
// The sample data is filled with fill so files can differ by content.
func WAVBytes(seconds int, fill byte) []byte {
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
	buf.Write(bytes.Repeat([]byte{fill}, dataSize))
	return buf.Bytes()
}

// flacFrameStub is the start of a frame header: the 14-bit sync code, then
// block size, sample rate and channel bits. Tag writers need at least one
// frame after the metadata.
var flacFrameStub = []byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00, 0x00}

// FLACBytes returns a FLAC stream with a STREAMINFO block followed by a frame
// header stub, enough for property reads and tag writes.
func FLACBytes(sampleRate, channels int, samples uint64) []byte {
	return append(FLACHeaderBytes(sampleRate, channels, samples), flacFrameStub...)
}

// FLACHeaderBytes returns only the FLAC signature and STREAMINFO block, as
// left behind by a truncated file.
func FLACHeaderBytes(sampleRate, channels int, samples uint64) []byte {
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
