// Package clip provides convex polygon clipping against light frustum planes.
package clip

import (
	"fmt"

	"github.com/Faultbox/shadowvol/pkg/math"
)

// LightClipEpsilon is the on-plane tolerance used when clipping to a light.
const LightClipEpsilon = 0.1

// MaxClippedPoints bounds the vertex count of a clipped triangle.
const MaxClippedPoints = 20

// Side classifies a point against a plane.
type Side uint8

const (
	// SideFront is more than LightClipEpsilon in front of the plane.
	SideFront Side = iota
	// SideBack is more than LightClipEpsilon behind the plane.
	SideBack
	// SideOn is within LightClipEpsilon of the plane.
	SideOn
)

// Fragment is a convex polygon produced by clipping a triangle.
// EdgeFlags[i] is set when the edge from vertex i to vertex i+1 lies on a
// clipping plane.
type Fragment struct {
	NumVerts  int
	Verts     [MaxClippedPoints]math.Vec3
	EdgeFlags [MaxClippedPoints]bool
}

// PingPong is the pair of buffers Chop alternates between.
type PingPong [2]Fragment

func classify(d float32) Side {
	switch {
	case d < -LightClipEpsilon:
		return SideBack
	case d > LightClipEpsilon:
		return SideFront
	default:
		return SideOn
	}
}

// Chop clips buffer in against plane, keeping the front side, and returns
// the index of the buffer holding the result. If nothing is behind the
// plane the input buffer is returned untouched; if nothing is in front the
// input buffer is emptied.
func Chop(pp *PingPong, in int, plane math.Plane) int {
	src := &pp[in]
	dst := &pp[in^1]

	var dists [MaxClippedPoints]float32
	var sides [MaxClippedPoints]Side
	var counts [3]int

	for i := 0; i < src.NumVerts; i++ {
		d := plane.Distance(src.Verts[i])
		dists[i] = d
		sides[i] = classify(d)
		counts[sides[i]]++
	}

	if counts[SideFront] == 0 {
		src.NumVerts = 0
		return in
	}
	if counts[SideBack] == 0 {
		return in
	}

	dst.NumVerts = 0
	for i := 0; i < src.NumVerts; i++ {
		next := i + 1
		if next == src.NumVerts {
			next = 0
		}
		p1 := src.Verts[i]

		if sides[i] != SideBack {
			flag := src.EdgeFlags[i]
			if sides[i] == SideOn && sides[next] == SideBack {
				flag = true
			}
			dst.push(p1, flag)
		}

		if (sides[i] == SideFront && sides[next] == SideBack) ||
			(sides[i] == SideBack && sides[next] == SideFront) {
			t := dists[i] / (dists[i] - dists[next])
			mid := p1.Lerp(src.Verts[next], t)

			flag := src.EdgeFlags[i]
			if sides[next] != SideFront {
				flag = true
			}
			dst.push(mid, flag)
		}
	}

	return in ^ 1
}

func (f *Fragment) push(v math.Vec3, edge bool) {
	if f.NumVerts == MaxClippedPoints {
		panic(fmt.Sprintf("clip: fragment exceeds %d points", MaxClippedPoints))
	}
	f.Verts[f.NumVerts] = v
	f.EdgeFlags[f.NumVerts] = edge
	f.NumVerts++
}

// Triangle clips the triangle abc against every plane whose bit is set in
// planeBits. It returns false when nothing is left.
func Triangle(a, b, c math.Vec3, planeBits int, planes []math.Plane) (Fragment, bool) {
	var pp PingPong
	pp[0].NumVerts = 3
	pp[0].Verts[0] = a
	pp[0].Verts[1] = b
	pp[0].Verts[2] = c

	p := 0
	for i, plane := range planes {
		if planeBits&(1<<i) == 0 {
			continue
		}
		p = Chop(&pp, p, plane)
		if pp[p].NumVerts < 1 {
			return Fragment{}, false
		}
	}
	return pp[p], true
}

// Line clips the segment ab against planes. Segments that are on or in
// front of a plane pass through it unmodified. A segment with one end
// behind a plane and the other not clearly in front is dropped.
func Line(a, b math.Vec3, planes []math.Plane) (p1, p2 math.Vec3, ok bool) {
	p1, p2 = a, b

	for _, plane := range planes {
		d1 := plane.Distance(p1)
		d2 := plane.Distance(p2)

		if d1 > -LightClipEpsilon && d2 > -LightClipEpsilon {
			continue
		}
		if d1 <= -LightClipEpsilon && d2 < LightClipEpsilon {
			return p1, p2, false
		}
		if d2 <= -LightClipEpsilon && d1 < LightClipEpsilon {
			return p1, p2, false
		}

		mid := p1.Lerp(p2, d1/(d1-d2))
		if d1 < 0 {
			p1 = mid
		} else {
			p2 = mid
		}
	}

	return p1, p2, true
}
