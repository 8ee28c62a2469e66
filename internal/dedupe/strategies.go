package dedupe

import (
	"math"
	"strings"

	"tunekeep/internal/textutil"
)

const (
	// DefaultTolerance is the minimum per-field similarity for a metadata match.
	DefaultTolerance = 0.9
	// DefaultDurationTolerance bounds the duration difference, in seconds,
	// between two metadata matches when both durations are known.
	DefaultDurationTolerance = 5.0
)

// MetadataOptions tunes the fuzzy metadata strategy. Zero values select the
// defaults: DefaultFields, DefaultTolerance, DefaultDurationTolerance and
// Similarity. Tolerance is a pointer so an explicit 0, which accepts every
// pair of non-empty values, is not mistaken for unset.
type MetadataOptions struct {
	Fields            []Field
	Tolerance         *float64
	DurationTolerance float64
	Scorer            Scorer
	FoldDiacritics    bool
}

// DefaultMetadataOptions returns the fuzzy strategy defaults.
func DefaultMetadataOptions() MetadataOptions {
	return MetadataOptions{
		Fields:            append([]Field(nil), DefaultFields...),
		Tolerance:         Tolerance(DefaultTolerance),
		DurationTolerance: DefaultDurationTolerance,
		Scorer:            Similarity,
	}
}

// Tolerance returns v as a MetadataOptions.Tolerance value.
func Tolerance(v float64) *float64 {
	return &v
}

func (o MetadataOptions) withDefaults() MetadataOptions {
	if len(o.Fields) == 0 {
		o.Fields = append([]Field(nil), DefaultFields...)
	}
	if o.Tolerance == nil {
		o.Tolerance = Tolerance(DefaultTolerance)
	}
	if o.DurationTolerance <= 0 {
		o.DurationTolerance = DefaultDurationTolerance
	}
	if o.Scorer == nil {
		o.Scorer = Similarity
	}
	return o
}

// ByMetadata groups records whose configured fields are all present and
// similar within tolerance. It is a greedy single pass: each unassigned record
// anchors a group and absorbs every later unassigned record that matches it.
// Assigned records are never reconsidered, so membership depends on input
// order when similarity is not transitive.
func ByMetadata(records []FileRecord, opts MetadataOptions) []Group {
	opts = opts.withDefaults()
	recs := eligible(records)

	values := make([][]string, len(recs))
	for i, r := range recs {
		values[i] = make([]string, len(opts.Fields))
		for k, field := range opts.Fields {
			v := strings.TrimSpace(r.Value(field))
			if opts.FoldDiacritics {
				v = textutil.FoldDiacritics(v)
			}
			values[i][k] = v
		}
	}

	assigned := make([]bool, len(recs))
	var groups []Group
	for i := range recs {
		if assigned[i] {
			continue
		}
		members := []FileRecord{recs[i]}
		for j := i + 1; j < len(recs); j++ {
			if assigned[j] {
				continue
			}
			if opts.matches(recs[i], recs[j], values[i], values[j]) {
				members = append(members, recs[j])
				assigned[j] = true
			}
		}
		if len(members) > 1 {
			assigned[i] = true
			groups = append(groups, Group{Method: MethodMetadata, Files: members})
		}
	}
	return groups
}

func (o MetadataOptions) matches(a, b FileRecord, av, bv []string) bool {
	tolerance := *o.Tolerance
	for k := range av {
		if av[k] == "" || bv[k] == "" {
			return false
		}
		if o.Scorer(av[k], bv[k]) < tolerance {
			return false
		}
	}
	if a.Duration > 0 && b.Duration > 0 && math.Abs(a.Duration-b.Duration) > o.DurationTolerance {
		return false
	}
	return true
}

// ByHash groups records sharing a non-empty content hash. Records without a
// hash are ignored. Groups are ordered by the first appearance of their hash.
func ByHash(records []FileRecord) []Group {
	return bucket(eligible(records), MethodHash, func(r FileRecord) (string, bool) {
		h := strings.TrimSpace(r.Hash)
		return h, h != ""
	})
}

type sizeKey struct {
	size     int64
	duration int64
}

// BySizeDuration groups records with identical byte size and the same
// duration rounded to the nearest second (halves round away from zero).
func BySizeDuration(records []FileRecord) []Group {
	return bucket(eligible(records), MethodSize, func(r FileRecord) (sizeKey, bool) {
		return sizeKey{size: r.Size, duration: int64(math.Round(r.Duration))}, true
	})
}

func bucket[K comparable](records []FileRecord, method Method, key func(FileRecord) (K, bool)) []Group {
	index := make(map[K]int)
	var buckets [][]FileRecord
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		pos, seen := index[k]
		if !seen {
			pos = len(buckets)
			index[k] = pos
			buckets = append(buckets, nil)
		}
		buckets[pos] = append(buckets[pos], r)
	}
	var groups []Group
	for _, files := range buckets {
		if len(files) > 1 {
			groups = append(groups, Group{Method: method, Files: files})
		}
	}
	return groups
}
