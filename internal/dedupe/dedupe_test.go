package dedupe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tunekeep/internal/dedupe"
)

const mb = 1024 * 1024

func rec(id int64, artist, title, album string, duration float64) dedupe.FileRecord {
	return dedupe.FileRecord{ID: id, Path: "/music/" + title, Artist: artist, Title: title, Album: album, Duration: duration}
}

func ids(groups []dedupe.Group) [][]int64 {
	out := make([][]int64, len(groups))
	for i, g := range groups {
		out[i] = g.IDs()
	}
	return out
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, dedupe.Similarity("Let It Be", "let it be"))
	require.Equal(t, 0.0, dedupe.Similarity("", "abc"))
	require.Equal(t, 0.0, dedupe.Similarity("abc", ""))
	require.Equal(t, 0.0, dedupe.Similarity("", ""))
	require.InDelta(t, 0.75, dedupe.Similarity("abcd", "bcde"), 1e-9)
	require.InDelta(t, 0.0, dedupe.Similarity("abc", "xyz"), 1e-9)

	pairs := [][2]string{
		{"The Beatles", "Beatles, The"},
		{"Hey Jude", "Hey Jude (Remastered 2015)"},
		{"abcab", "bcabc"},
		{"Tiësto", "tiesto"},
	}
	for _, p := range pairs {
		a, b := dedupe.Similarity(p[0], p[1]), dedupe.Similarity(p[1], p[0])
		require.Equal(t, a, b, "similarity must be symmetric for %q/%q", p[0], p[1])
		require.GreaterOrEqual(t, a, 0.0)
		require.LessOrEqual(t, a, 1.0)
	}
}

func TestScorerByName(t *testing.T) {
	for _, name := range []string{"", "ratio", "jaro-winkler", "levenshtein", "token-cosine", "Jaro-Winkler"} {
		scorer, err := dedupe.ScorerByName(name)
		require.NoError(t, err, name)
		require.Equal(t, 0.0, scorer("", "x"), name)
		require.InDelta(t, 1.0, scorer("Come Together", "come together"), 1e-9, name)
		a, b := scorer("Hey Jude", "Hey Judy"), scorer("Hey Judy", "Hey Jude")
		require.Equal(t, a, b, name)
		require.Greater(t, a, 0.0, name)
		require.Less(t, a, 1.0, name)
	}
	_, err := dedupe.ScorerByName("soundex")
	require.Error(t, err)
}

func TestByMetadataScenario(t *testing.T) {
	records := []dedupe.FileRecord{
		rec(1, "The Beatles", "Let It Be", "Let It Be", 243),
		rec(2, "the beatles", "Let It Be", "Let It Be", 245),
		rec(3, "The Beatles", "Let It Be", "Let It Be", 300),
		rec(4, "Beatles", "Let It Be", "Let It Be", 243),
		rec(5, "The Beatles", "Let It Be", "", 243),
		rec(6, "The Beatles ", "Let It Be  ", " Let It Be", 241),
		rec(7, "The Beatles", "Help", "Let It Be", 243),
	}
	groups := dedupe.ByMetadata(records, dedupe.DefaultMetadataOptions())
	require.Equal(t, [][]int64{{1, 2, 6}}, ids(groups))
	require.Equal(t, dedupe.MethodMetadata, groups[0].Method)
}

func TestByMetadataIgnoresDurationWhenUnknown(t *testing.T) {
	records := []dedupe.FileRecord{
		rec(1, "Queen", "Bohemian Rhapsody", "A Night at the Opera", 0),
		rec(2, "Queen", "Bohemian Rhapsody", "A Night at the Opera", 354),
	}
	require.Equal(t, [][]int64{{1, 2}}, ids(dedupe.ByMetadata(records, dedupe.MetadataOptions{})))
}

func TestByMetadataZeroToleranceAcceptsAnyValues(t *testing.T) {
	records := []dedupe.FileRecord{
		rec(1, "Queen", "Bohemian Rhapsody", "A Night at the Opera", 354),
		rec(2, "Queen", "Bohemian Rhapsody", "Greatest Hits", 355),
		rec(3, "Queen", "Bohemian Rhapsody", "", 354),
	}
	opts := dedupe.DefaultMetadataOptions()
	require.Empty(t, dedupe.ByMetadata(records, opts))

	opts.Tolerance = dedupe.Tolerance(0)
	require.Equal(t, [][]int64{{1, 2}}, ids(dedupe.ByMetadata(records, opts)))
}

func TestByMetadataIsGreedyAndOrderDependent(t *testing.T) {
	// a~b and b~c, but a and c are too far apart.
	near := map[[2]string]bool{{"a", "b"}: true, {"b", "c"}: true}
	scorer := func(x, y string) float64 {
		if x == y || near[[2]string{x, y}] || near[[2]string{y, x}] {
			return 1
		}
		return 0
	}
	opts := dedupe.MetadataOptions{Fields: []dedupe.Field{dedupe.FieldTitle}, Scorer: scorer}
	a := rec(1, "", "a", "", 0)
	b := rec(2, "", "b", "", 0)
	c := rec(3, "", "c", "", 0)

	require.Equal(t, [][]int64{{1, 2}}, ids(dedupe.ByMetadata([]dedupe.FileRecord{a, b, c}, opts)))
	require.Equal(t, [][]int64{{2, 1, 3}}, ids(dedupe.ByMetadata([]dedupe.FileRecord{b, a, c}, opts)))
}

func TestByMetadataFoldDiacritics(t *testing.T) {
	records := []dedupe.FileRecord{
		rec(1, "Beyoncé", "Halo", "I Am... Sasha Fierce", 261),
		rec(2, "Beyonce", "Halo", "I Am... Sasha Fierce", 261),
	}
	opts := dedupe.DefaultMetadataOptions()
	opts.Tolerance = dedupe.Tolerance(1)
	require.Empty(t, dedupe.ByMetadata(records, opts))
	opts.FoldDiacritics = true
	require.Equal(t, [][]int64{{1, 2}}, ids(dedupe.ByMetadata(records, opts)))
}

func TestByHashScenario(t *testing.T) {
	records := []dedupe.FileRecord{
		{ID: 1, Hash: "abc"},
		{ID: 2, Hash: "abc"},
		{ID: 3, Hash: "xyz"},
		{ID: 4, Hash: ""},
		{ID: 5, Hash: "xyz"},
		{ID: 6, Hash: "solo"},
		{ID: 0, Hash: "abc"},
	}
	groups := dedupe.ByHash(records)
	require.Equal(t, [][]int64{{1, 2}, {3, 5}}, ids(groups))
	require.Equal(t, dedupe.MethodHash, groups[0].Method)
}

func TestBySizeDuration(t *testing.T) {
	records := []dedupe.FileRecord{
		{ID: 1, Size: 4 * mb, Duration: 180.4},
		{ID: 2, Size: 4 * mb, Duration: 179.6},
		{ID: 3, Size: 4 * mb, Duration: 180.5},
		{ID: 4, Size: 5 * mb, Duration: 180},
		{ID: 5, Size: 4 * mb, Duration: 181.2},
	}
	require.Equal(t, [][]int64{{1, 2}, {3, 5}}, ids(dedupe.BySizeDuration(records)))
}

func TestIdentityInvariants(t *testing.T) {
	records := []dedupe.FileRecord{
		{ID: 0, Hash: "h", Artist: "A", Title: "T", Album: "B"},
		{ID: 7, Hash: "h", Artist: "A", Title: "T", Album: "B"},
		{ID: 7, Hash: "h", Artist: "A", Title: "T", Album: "B"},
		{ID: 8, Hash: "h", Artist: "A", Title: "T", Album: "B"},
	}
	cfg := dedupe.DefaultConfig()
	cfg.UseSize = true
	for _, g := range dedupe.Detect(records, cfg) {
		require.GreaterOrEqual(t, g.Len(), 2)
		seen := map[int64]bool{}
		for _, id := range g.IDs() {
			require.NotZero(t, id)
			require.False(t, seen[id], "id %d repeated", id)
			seen[id] = true
		}
	}
	require.Equal(t, [][]int64{{7, 8}}, ids(dedupe.Detect(records, cfg)))
}

func TestDetectCombinesStrategies(t *testing.T) {
	records := []dedupe.FileRecord{
		{ID: 1, Artist: "Nirvana", Title: "Lithium", Album: "Nevermind", Hash: "aaa"},
		{ID: 2, Artist: "Nirvana", Title: "Lithium", Album: "Nevermind", Hash: "bbb"},
		{ID: 3, Artist: "Unknown", Title: "track03", Album: "", Hash: "bbb"},
		{ID: 4, Artist: "Other", Title: "Song", Album: "Else", Hash: "ccc"},
	}
	groups := dedupe.Detect(records, dedupe.DefaultConfig())
	require.Equal(t, [][]int64{{1, 2, 3}}, ids(groups))
	require.Equal(t, dedupe.Method("metadata+hash"), groups[0].Method)

	hashOnly := dedupe.Config{UseHash: true}
	require.Equal(t, [][]int64{{2, 3}}, ids(dedupe.Detect(records, hashOnly)))
	require.Empty(t, dedupe.Detect(nil, dedupe.DefaultConfig()))
}

func TestDetectPartitionByArtist(t *testing.T) {
	records := []dedupe.FileRecord{
		rec(1, "Pink Floyd", "Time", "The Dark Side of the Moon", 0),
		rec(2, "Radiohead", "Creep", "Pablo Honey", 0),
		rec(3, "pink floyd", "Time", "The Dark Side of the Moon", 0),
		rec(4, "", "Creep", "Pablo Honey", 0),
	}
	cfg := dedupe.DefaultConfig()
	cfg.PartitionByArtist = true
	require.Equal(t, [][]int64{{1, 3}}, ids(dedupe.Detect(records, cfg)))
}

func TestMerge(t *testing.T) {
	a, b, c, d, e := dedupe.FileRecord{ID: 1}, dedupe.FileRecord{ID: 2}, dedupe.FileRecord{ID: 3}, dedupe.FileRecord{ID: 4}, dedupe.FileRecord{ID: 5}
	groups := []dedupe.Group{
		{Method: dedupe.MethodMetadata, Files: []dedupe.FileRecord{a, b}},
		{Method: dedupe.MethodSize, Files: []dedupe.FileRecord{c, d}},
		{Method: dedupe.MethodHash, Files: []dedupe.FileRecord{b, c}},
		{Method: dedupe.MethodHash, Files: []dedupe.FileRecord{e}},
		{Method: dedupe.MethodHash, Files: []dedupe.FileRecord{e, e}},
	}
	merged := dedupe.Merge(groups)
	require.Equal(t, [][]int64{{1, 2, 3, 4}}, ids(merged))
	require.Equal(t, dedupe.Method("metadata+size+hash"), merged[0].Method)

	again := dedupe.Merge(merged)
	require.Equal(t, merged, again)
	require.Empty(t, dedupe.Merge(nil))
}

func TestMergeKeepsDisjointGroupsInOrder(t *testing.T) {
	groups := []dedupe.Group{
		{Method: dedupe.MethodHash, Files: []dedupe.FileRecord{{ID: 9}, {ID: 8}}},
		{Method: dedupe.MethodMetadata, Files: []dedupe.FileRecord{{ID: 1}, {ID: 2}}},
	}
	merged := dedupe.Merge(groups)
	require.Equal(t, [][]int64{{9, 8}, {1, 2}}, ids(merged))
	require.Equal(t, merged, dedupe.Merge(merged))
}

func TestRankingAndSelection(t *testing.T) {
	files := []dedupe.FileRecord{
		{ID: 1, Bitrate: 128000, Size: 5 * mb},
		{ID: 2, Bitrate: 320000, Size: 3 * mb},
		{ID: 3, Bitrate: 320000, Size: 4 * mb},
		{ID: 4, Bitrate: 128000, Size: 5 * mb},
	}
	keep, remove := dedupe.FilterByQuality(files, true)
	require.Len(t, keep, 1)
	require.Equal(t, int64(3), keep[0].ID)
	require.Len(t, remove, len(files)-1)
	require.Equal(t, []int64{2, 1, 4}, dedupe.Group{Files: remove}.IDs())

	keep, remove = dedupe.FilterByQuality(files, false)
	require.Equal(t, int64(1), keep[0].ID)
	require.Equal(t, []int64{4, 2, 3}, dedupe.Group{Files: remove}.IDs())

	best, ok := dedupe.Best(files)
	require.True(t, ok)
	require.Equal(t, int64(3), best.ID)
	_, ok = dedupe.Best(nil)
	require.False(t, ok)

	keep, remove = dedupe.FilterByQuality(nil, true)
	require.Empty(t, keep)
	require.Empty(t, remove)

	groups := []dedupe.Group{{Files: files}, {Files: []dedupe.FileRecord{{ID: 10, Size: 1}, {ID: 11, Size: 2}}}}
	selected := dedupe.SelectForRemoval(groups, true)
	require.Equal(t, []int64{2, 1, 4, 10}, dedupe.Group{Files: selected}.IDs())
	require.Equal(t, int64(1), files[0].ID, "ranking must not reorder the input")
}

func TestSummarize(t *testing.T) {
	groups := []dedupe.Group{{Files: []dedupe.FileRecord{
		{ID: 1, Size: 10 * mb},
		{ID: 2, Size: 5 * mb},
		{ID: 3, Size: 3 * mb},
	}}}
	stats := dedupe.Summarize(groups)
	require.Equal(t, 1, stats.TotalGroups)
	require.Equal(t, 3, stats.TotalDuplicates)
	require.Equal(t, 2, stats.TotalFiles)
	require.Equal(t, int64(8*mb), stats.WastedSpaceBytes)
	require.InDelta(t, 8.0, stats.WastedSpaceMB, 1e-9)

	tie := dedupe.Summarize([]dedupe.Group{{Files: []dedupe.FileRecord{{ID: 1, Size: 7}, {ID: 2, Size: 7}}}})
	require.Equal(t, int64(7), tie.WastedSpaceBytes)

	require.Equal(t, dedupe.Stats{}, dedupe.Summarize(nil))
}

func TestParseFields(t *testing.T) {
	require.Equal(t, []dedupe.Field{dedupe.FieldArtist, dedupe.FieldGenre}, dedupe.ParseFields([]string{" Artist", "composer", "genre"}))
}
