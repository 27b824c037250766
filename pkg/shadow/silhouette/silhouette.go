// Package silhouette finds the edges of a welded triangle set that are not
// cancelled by an oppositely wound twin.
package silhouette

import "slices"

// Edge is a directed edge V1->V2 as it appears in its triangle.
type Edge struct {
	V1, V2 int
}

// key packs an undirected edge plus its direction bit so that the two
// windings of the same edge sort next to each other and differ only in
// bit 0.
func key(v1, v2 int) uint64 {
	if v1 > v2 {
		return uint64(v1)<<32 | uint64(v2)<<1
	}
	return uint64(v2)<<32 | uint64(v1)<<1 | 1
}

func decode(k uint64) Edge {
	hi := int(k >> 32)
	lo := int(k>>1) & 0x7fffffff
	if k&1 != 0 {
		return Edge{V1: lo, V2: hi}
	}
	return Edge{V1: hi, V2: lo}
}

// Unmatched returns every edge that has no reversed partner. Triangles
// with a repeated index are ignored.
func Unmatched(tris [][3]int) []Edge {
	keys := make([]uint64, 0, len(tris)*3)
	for _, t := range tris {
		if t[0] == t[1] || t[0] == t[2] || t[1] == t[2] {
			continue
		}
		for j := 0; j < 3; j++ {
			keys = append(keys, key(t[j], t[(j+1)%3]))
		}
	}

	slices.Sort(keys)

	var edges []Edge
	for i := 0; i < len(keys); i++ {
		if i+1 < len(keys) && keys[i]^keys[i+1] == 1 {
			// matched pair, both cancel
			i++
			continue
		}
		edges = append(edges, decode(keys[i]))
	}
	return edges
}
