// Package surface prepares triangle meshes for shadow volume generation.
package surface

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/shadowvol/pkg/math"
)

var (
	ErrBadIndex    = errors.New("surface: index out of range")
	ErrBadTriCount = errors.New("surface: index count is not a multiple of 3")
)

// SilEdge is an edge shared by up to two triangles. V1->V2 is the edge
// direction in triangle P1. P2 is the triangle holding V2->V1, or
// NumTriangles() for a dangling edge.
type SilEdge struct {
	P1, P2 int
	V1, V2 int
}

// Surface is a triangle mesh with the derived data shadow generation
// needs. Triangles are counter-clockwise when seen from the front.
type Surface struct {
	Verts      []math.Vec3
	Indexes    []uint32
	FacePlanes []math.Plane
	SilEdges   []SilEdge
	Bounds     math.Bounds
}

// New welds exactly coincident vertices and derives face planes,
// silhouette edges and bounds.
func New(verts []math.Vec3, indexes []uint32) (*Surface, error) {
	if len(indexes)%3 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadTriCount, len(indexes))
	}
	for i, idx := range indexes {
		if int(idx) >= len(verts) {
			return nil, fmt.Errorf("%w: index %d = %d, %d verts", ErrBadIndex, i, idx, len(verts))
		}
	}

	s := &Surface{}
	s.weld(verts, indexes)
	s.FacePlanes = facePlanes(s.Verts, s.Indexes)
	s.SilEdges = silEdges(s.Indexes)
	s.Bounds = math.BoundsFromPoints(s.Verts)
	return s, nil
}

// NumTriangles returns the triangle count.
func (s *Surface) NumTriangles() int {
	return len(s.Indexes) / 3
}

// Transform returns a copy of the surface with every vertex moved by m.
func (s *Surface) Transform(m math.Mat4) (*Surface, error) {
	verts := make([]math.Vec3, len(s.Verts))
	for i, v := range s.Verts {
		verts[i] = m.TransformVec3(v)
	}
	return New(verts, s.Indexes)
}

func (s *Surface) weld(verts []math.Vec3, indexes []uint32) {
	lookup := make(map[math.Vec3]uint32, len(verts))
	remap := make([]uint32, len(verts))
	for i, v := range verts {
		idx, ok := lookup[v]
		if !ok {
			idx = uint32(len(s.Verts))
			lookup[v] = idx
			s.Verts = append(s.Verts, v)
		}
		remap[i] = idx
	}

	s.Indexes = make([]uint32, len(indexes))
	for i, idx := range indexes {
		s.Indexes[i] = remap[idx]
	}
}

func facePlanes(verts []math.Vec3, indexes []uint32) []math.Plane {
	planes := make([]math.Plane, len(indexes)/3)
	for i := range planes {
		a := verts[indexes[i*3+0]]
		b := verts[indexes[i*3+1]]
		c := verts[indexes[i*3+2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		planes[i] = math.NewPlane(n, a)
	}
	return planes
}

type directedEdge struct {
	lo, hi  uint32
	forward bool // v1 < v2 in the triangle's winding
	tri     int
}

// silEdges pairs each directed edge with an opposite one from another
// triangle. Unpaired edges are left dangling.
func silEdges(indexes []uint32) []SilEdge {
	numTris := len(indexes) / 3
	edges := make([]directedEdge, 0, len(indexes))

	for t := 0; t < numTris; t++ {
		tri := indexes[t*3 : t*3+3]
		if tri[0] == tri[1] || tri[0] == tri[2] || tri[1] == tri[2] {
			continue
		}
		for j := 0; j < 3; j++ {
			v1, v2 := tri[j], tri[(j+1)%3]
			e := directedEdge{lo: v1, hi: v2, forward: true, tri: t}
			if v1 > v2 {
				e = directedEdge{lo: v2, hi: v1, forward: false, tri: t}
			}
			edges = append(edges, e)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.lo != b.lo {
			return a.lo < b.lo
		}
		if a.hi != b.hi {
			return a.hi < b.hi
		}
		return a.tri < b.tri
	})

	var out []SilEdge
	for start := 0; start < len(edges); {
		end := start
		for end < len(edges) && edges[end].lo == edges[start].lo && edges[end].hi == edges[start].hi {
			end++
		}

		var fwd, back []directedEdge
		for _, e := range edges[start:end] {
			if e.forward {
				fwd = append(fwd, e)
			} else {
				back = append(back, e)
			}
		}

		n := min(len(fwd), len(back))
		for i := 0; i < n; i++ {
			out = append(out, SilEdge{P1: fwd[i].tri, P2: back[i].tri, V1: int(fwd[i].lo), V2: int(fwd[i].hi)})
		}
		for _, e := range fwd[n:] {
			out = append(out, SilEdge{P1: e.tri, P2: numTris, V1: int(e.lo), V2: int(e.hi)})
		}
		for _, e := range back[n:] {
			out = append(out, SilEdge{P1: e.tri, P2: numTris, V1: int(e.hi), V2: int(e.lo)})
		}

		start = end
	}
	return out
}

// DanglingEdges returns the number of edges with only one triangle.
func (s *Surface) DanglingEdges() int {
	n := 0
	for _, e := range s.SilEdges {
		if e.P2 == s.NumTriangles() {
			n++
		}
	}
	return n
}
