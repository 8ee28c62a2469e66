// Package tags reads and writes audio file metadata.
//
// Read combines the tag text (artist, title, album, year, genre, track
// number, artwork presence) with audio properties (duration, bitrate, sample
// rate, channels). Tags come from github.com/dhowden/tag for every container
// it understands; properties come from FLAC stream info, the MP3 TLEN frame,
// or the first MPEG frame header, depending on the format.
//
// Write is limited to MP3 (ID3v2) and FLAC (Vorbis comments). Other formats
// return an error marked with services.ErrUnsupported.
package tags
