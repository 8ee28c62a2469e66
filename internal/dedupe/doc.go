// Package dedupe detects duplicate recordings in a catalog snapshot.
//
// Three independent strategies produce candidate groups: fuzzy metadata
// comparison, exact content hash, and a coarse size+duration bucket. Detect
// runs the enabled subset and consolidates overlapping candidates with a
// disjoint-set merge so every record lands in at most one group. Ranking
// helpers then pick the file to keep in each group and Summarize reports the
// space that removing the rest would reclaim.
//
// Everything here is pure: no I/O, no logging, no shared state. Callers pass
// a complete []FileRecord and receive new slices back; deleting files is the
// caller's business.
package dedupe
