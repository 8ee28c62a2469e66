// Package scanner discovers audio files on disk and turns them into catalog
// tracks.
//
// Walk lists candidate files under a root directory. Scan reads tags, audio
// properties and a content hash for each path on a bounded worker pool, and
// reports per-file failures alongside the tracks it could read so that one
// corrupt file never aborts a library scan.
package scanner
