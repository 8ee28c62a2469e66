// Package library orchestrates catalog operations end to end.
//
// The Service owns no state beyond its collaborators: it walks and scans
// directories into the catalog, runs duplicate detection over a catalog
// snapshot, cleans duplicates into the trash, writes tag edits back to files,
// and keeps catalog paths in sync when the organizer moves or renames files.
// Operations that touch many files report per-file outcomes and never roll
// back work that already succeeded.
package library
