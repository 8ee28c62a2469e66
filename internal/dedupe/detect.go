package dedupe

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"tunekeep/internal/textutil"
)

// Config selects which strategies Detect runs.
type Config struct {
	UseMetadata bool
	UseHash     bool
	UseSize     bool
	Metadata    MetadataOptions
	// PartitionByArtist runs the metadata strategy separately for records
	// sharing the first letter of their artist. It bounds the pairwise cost on
	// large libraries and only applies when artist is a compared field.
	PartitionByArtist bool
}

// DefaultConfig enables the metadata and hash strategies.
func DefaultConfig() Config {
	return Config{
		UseMetadata: true,
		UseHash:     true,
		Metadata:    DefaultMetadataOptions(),
	}
}

// Detect runs the enabled strategies over records and merges their output
// into disjoint groups.
func Detect(records []FileRecord, cfg Config) []Group {
	var candidates []Group
	if cfg.UseMetadata {
		candidates = append(candidates, metadataGroups(records, cfg)...)
	}
	if cfg.UseHash {
		candidates = append(candidates, ByHash(records)...)
	}
	if cfg.UseSize {
		candidates = append(candidates, BySizeDuration(records)...)
	}
	return Merge(candidates)
}

func metadataGroups(records []FileRecord, cfg Config) []Group {
	opts := cfg.Metadata.withDefaults()
	if !cfg.PartitionByArtist || !containsField(opts.Fields, FieldArtist) {
		return ByMetadata(records, opts)
	}
	var groups []Group
	for _, part := range partitionByArtist(records, opts.FoldDiacritics) {
		groups = append(groups, ByMetadata(part, opts)...)
	}
	return groups
}

func containsField(fields []Field, want Field) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

// partitionByArtist buckets records by the lower-cased first letter of their
// artist. Records without an artist cannot match on artist and are dropped.
func partitionByArtist(records []FileRecord, fold bool) [][]FileRecord {
	index := make(map[rune]int)
	var parts [][]FileRecord
	for _, r := range records {
		artist := strings.TrimSpace(r.Artist)
		if fold {
			artist = textutil.FoldDiacritics(artist)
		}
		if artist == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(artist)
		key := unicode.ToLower(first)
		pos, ok := index[key]
		if !ok {
			pos = len(parts)
			index[key] = pos
			parts = append(parts, nil)
		}
		parts[pos] = append(parts[pos], r)
	}
	return parts
}
