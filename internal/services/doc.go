// Package services defines shared utilities consumed by the library service,
// the file-system collaborators, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp track IDs, stage names, and per-run correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the CLI classify
//     failures (usage vs missing vs conflict) without string matching.
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across commands.
package services
