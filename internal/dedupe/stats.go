package dedupe

const bytesPerMB = 1024 * 1024

// Stats summarizes a set of duplicate groups.
type Stats struct {
	TotalGroups      int     `json:"total_groups"`
	TotalDuplicates  int     `json:"total_duplicates"`
	TotalFiles       int     `json:"total_files"`
	WastedSpaceBytes int64   `json:"wasted_space_bytes"`
	WastedSpaceMB    float64 `json:"wasted_space_mb"`
}

// Summarize counts groups and files and computes the space reclaimable by
// keeping only the largest file of each group. TotalFiles is the number of
// redundant copies (duplicates minus one per group).
func Summarize(groups []Group) Stats {
	var s Stats
	for _, g := range groups {
		s.TotalGroups++
		s.TotalDuplicates += len(g.Files)
		s.WastedSpaceBytes += wasted(g.Files)
	}
	s.TotalFiles = s.TotalDuplicates - s.TotalGroups
	s.WastedSpaceMB = float64(s.WastedSpaceBytes) / bytesPerMB
	return s
}

// wasted sums every file size except the first occurrence of the largest.
func wasted(files []FileRecord) int64 {
	if len(files) == 0 {
		return 0
	}
	var total int64
	largest := files[0].Size
	for _, f := range files {
		total += f.Size
		if f.Size > largest {
			largest = f.Size
		}
	}
	return total - largest
}
