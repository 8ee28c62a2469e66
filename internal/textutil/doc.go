// Package textutil provides text processing utilities for tag comparison and
// filename sanitization.
//
// The primary use cases are:
//   - Creating token-based fingerprints from tag text for comparison
//   - Computing cosine similarity between fingerprints
//   - Folding diacritics before comparison
//   - Sanitizing path segments generated from tag values
package textutil
