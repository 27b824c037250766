package volume

import (
	"fmt"

	"github.com/Faultbox/shadowvol/pkg/shadow/weld"
)

// Cleanup welds the vertices of a volume built from several frustums,
// removes sil quads that meet a reversed twin at a frustum seam and strips
// degenerate triangles. It panics on an index outside Verts.
func Cleanup(v *Volume) {
	for i, idx := range v.Indexes {
		if int(idx) >= len(v.Verts) {
			panic(fmt.Sprintf("volume: index %d = %d out of range (%d verts)", i, idx, len(v.Verts)))
		}
	}

	unique, remap := weld.Positions(v.Verts, weld.UniqueEpsilon)
	v.Verts = unique
	for i, idx := range v.Indexes {
		v.Indexes[i] = uint32(remap[idx])
	}

	removeMatchedQuads(v)
	// after quad removal so the triangle pairs stay aligned
	removeDegenerates(v)
}

// isQuad reports whether q is a sil quad emitted as (n0 n1 f1) (f0 n0 f1).
func isQuad(q []uint32) bool {
	return q[4] == q[0] && q[5] == q[2]
}

// reversedQuads reports whether a and b cover the same quad with opposite
// windings.
func reversedQuads(a, b []uint32) bool {
	return isQuad(a) && isQuad(b) &&
		a[0] == b[1] && a[1] == b[0] &&
		a[2] == b[3] && a[3] == b[2]
}

// removeMatchedQuads drops pairs of reversed sil quads with identical
// corners. Seam quads fragmented differently on the two sides of a frustum
// boundary stay; they cancel in the stencil count and only add overdraw.
func removeMatchedQuads(v *Volume) {
	sil := v.Indexes[:v.NumIndexesNoCaps]
	kept := make([]uint32, 0, len(sil))
	removed := make([]bool, len(sil)/6)

	for i := 0; i+6 <= len(sil); i += 6 {
		if removed[i/6] {
			continue
		}
		for j := i + 6; j+6 <= len(sil); j += 6 {
			if !removed[j/6] && reversedQuads(sil[i:i+6], sil[j:j+6]) {
				removed[i/6] = true
				removed[j/6] = true
				break
			}
		}
	}

	for i := 0; i+6 <= len(sil); i += 6 {
		if !removed[i/6] {
			kept = append(kept, sil[i:i+6]...)
		}
	}
	// a trailing partial quad is kept as is
	kept = append(kept, sil[len(sil)/6*6:]...)

	n := len(sil) - len(kept)
	if n == 0 {
		return
	}
	v.Indexes = append(kept, v.Indexes[v.NumIndexesNoCaps:]...)
	v.NumIndexesNoCaps -= n
	v.NumIndexesNoFrontCaps -= n
}

// removeDegenerates drops triangles with a repeated index, keeping the
// range boundaries in step.
func removeDegenerates(v *Volume) {
	out := v.Indexes[:0]
	noCaps, noFrontCaps := v.NumIndexesNoCaps, v.NumIndexesNoFrontCaps
	for i := 0; i+2 < len(v.Indexes); i += 3 {
		a, b, c := v.Indexes[i], v.Indexes[i+1], v.Indexes[i+2]
		if a == b || a == c || b == c {
			if i < v.NumIndexesNoCaps {
				noCaps -= 3
			}
			if i < v.NumIndexesNoFrontCaps {
				noFrontCaps -= 3
			}
			continue
		}
		out = append(out, a, b, c)
	}
	v.Indexes = out
	v.NumIndexesNoCaps, v.NumIndexesNoFrontCaps = noCaps, noFrontCaps
}
