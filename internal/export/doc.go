// Package export writes the catalog to portable formats and reads it back.
//
// JSON is the interchange format: an object with a "metadata" header and a
// "files" array of tracks. Import accepts that object or a bare array and
// decodes fields leniently, so hand-edited files with numbers stored as
// strings still load. CSV, M3U and YAML are export-only. Backups are
// timestamped JSON files, optionally xz-compressed, kept in one directory.
package export
