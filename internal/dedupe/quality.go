package dedupe

import "slices"

// Rank returns a copy of files ordered best first: bitrate descending, then
// size descending. With keepHighest false the order is inverted so the
// lowest-quality file comes first. Ties keep their input order.
func Rank(files []FileRecord, keepHighest bool) []FileRecord {
	ranked := slices.Clone(files)
	slices.SortStableFunc(ranked, func(a, b FileRecord) int {
		c := compareQuality(a, b)
		if keepHighest {
			return -c
		}
		return c
	})
	return ranked
}

// compareQuality orders by bitrate then size, ascending.
func compareQuality(a, b FileRecord) int {
	switch {
	case a.Bitrate != b.Bitrate:
		if a.Bitrate < b.Bitrate {
			return -1
		}
		return 1
	case a.Size != b.Size:
		if a.Size < b.Size {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Best returns the highest-quality record of a group.
func Best(files []FileRecord) (FileRecord, bool) {
	if len(files) == 0 {
		return FileRecord{}, false
	}
	return Rank(files, true)[0], true
}

// FilterByQuality splits a group into the single file to keep and the files
// to remove.
func FilterByQuality(files []FileRecord, keepHighest bool) (keep, remove []FileRecord) {
	if len(files) == 0 {
		return nil, nil
	}
	ranked := Rank(files, keepHighest)
	return ranked[:1], ranked[1:]
}

// SelectForRemoval concatenates the remove lists of every group.
func SelectForRemoval(groups []Group, keepHighest bool) []FileRecord {
	var out []FileRecord
	for _, g := range groups {
		_, remove := FilterByQuality(g.Files, keepHighest)
		out = append(out, remove...)
	}
	return out
}
