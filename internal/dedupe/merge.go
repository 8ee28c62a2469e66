package dedupe

import "strings"

// disjointSet is a union-find over record IDs with path compression and
// union by rank.
type disjointSet struct {
	parent map[int64]int64
	rank   map[int64]int
}

func newDisjointSet() *disjointSet {
	return &disjointSet{parent: make(map[int64]int64), rank: make(map[int64]int)}
}

func (d *disjointSet) add(id int64) {
	if _, ok := d.parent[id]; !ok {
		d.parent[id] = id
	}
}

func (d *disjointSet) find(id int64) int64 {
	root := id
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for id != root {
		next := d.parent[id]
		d.parent[id] = root
		id = next
	}
	return root
}

func (d *disjointSet) union(a, b int64) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// Merge consolidates groups that share any record ID, transitively. Each
// resulting group lists its records in first-seen order across the input,
// without repeats, and carries the union of contributing methods. Partitions
// with fewer than two records are dropped. Merge is idempotent.
func Merge(groups []Group) []Group {
	set := newDisjointSet()
	for _, g := range groups {
		var anchor int64
		for _, f := range g.Files {
			if f.ID == 0 {
				continue
			}
			set.add(f.ID)
			if anchor == 0 {
				anchor = f.ID
				continue
			}
			set.union(anchor, f.ID)
		}
	}

	type partition struct {
		files   []FileRecord
		seen    map[int64]struct{}
		methods []Method
	}
	byRoot := make(map[int64]*partition)
	var order []*partition

	for _, g := range groups {
		touched := make(map[*partition]struct{})
		for _, f := range g.Files {
			if f.ID == 0 {
				continue
			}
			root := set.find(f.ID)
			p, ok := byRoot[root]
			if !ok {
				p = &partition{seen: make(map[int64]struct{})}
				byRoot[root] = p
				order = append(order, p)
			}
			touched[p] = struct{}{}
			if _, dup := p.seen[f.ID]; dup {
				continue
			}
			p.seen[f.ID] = struct{}{}
			p.files = append(p.files, f)
		}
		for p := range touched {
			p.methods = appendMethods(p.methods, g.Method)
		}
	}

	out := make([]Group, 0, len(order))
	for _, p := range order {
		if len(p.files) < 2 {
			continue
		}
		out = append(out, Group{Method: joinMethods(p.methods), Files: p.files})
	}
	return out
}

func appendMethods(dst []Method, m Method) []Method {
	for _, part := range m.parts() {
		found := false
		for _, existing := range dst {
			if existing == part {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, part)
		}
	}
	return dst
}

func joinMethods(methods []Method) Method {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return Method(strings.Join(parts, "+"))
}
