// Package main hosts the tunekeep CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the library service:
// scanning directories into the catalog, browsing and editing tracks, finding
// and cleaning duplicates, organizing files by naming pattern, and moving the
// catalog in and out of JSON, CSV, M3U, YAML and backup files. Configuration
// resolution, logging setup, the single-writer lock, and per-run correlation
// IDs live in the command context so subcommands only describe behavior.
//
// Keep this package thin: new behavior belongs in internal/library or the
// collaborator packages first, then gets a command here.
package main
