// Package organizer plans and performs pattern-based moves and renames of
// catalogued audio files.
//
// Templates use {artist}, {title}, {album}, {genre}, {year} and {track}
// placeholders, with an optional integer verb such as {track:02d}. Preview
// turns tracks into planned moves; Apply carries them out (or only checks
// them in dry-run mode) and reports a status per file. Moves never overwrite
// existing files, and cross-device moves copy with verification before the
// source is removed.
package organizer
