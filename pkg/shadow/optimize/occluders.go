package optimize

import (
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/clip"
)

const (
	// EdgeEpsilon is how far inside an edge plane a vertex must be before
	// two triangles are considered overlapping.
	EdgeEpsilon = 0.1
	// OnEpsilon is the split tolerance when clipping occluded triangles.
	OnEpsilon = 0.1
)

// occTri is a shadow casting triangle in light-centered space.
type occTri struct {
	v     [3]math.Vec3
	plane math.Plane
	// edge planes pass through the light origin, positive inside
	edge  [3]math.Vec3
	group int
}

func (t *occTri) makeEdges() {
	for j := 0; j < 3; j++ {
		t.edge[j] = t.v[j].Cross(t.v[(j+1)%3]).Normalize()
	}
}

// outside reports whether a lies entirely outside one of b's edge planes.
func outside(a, b *occTri) bool {
	for i := 0; i < 3; i++ {
		j := 0
		for ; j < 3; j++ {
			if a.v[j].Dot(b.edge[i]) > EdgeEpsilon {
				break
			}
		}
		if j == 3 {
			return true
		}
	}
	return false
}

// behind reports whether any vertex of a is farther from the light than b's
// plane.
func behind(a, b *occTri) bool {
	for _, v := range a.v {
		if b.plane.Distance(v) > 0 {
			return true
		}
	}
	return false
}

type occluderClipper struct {
	tris    []occTri
	out     []occTri
	maxTris int
	removed int
	err     error
}

// clipTriangle adds the parts of tri that no later triangle hides.
func (c *occluderClipper) clipTriangle(tri occTri, start, skip int) {
	if c.err != nil {
		return
	}
	for i := start; i < len(c.tris); i++ {
		if i == skip {
			continue
		}
		other := &c.tris[i]

		if outside(&tri, other) || outside(other, &tri) {
			continue
		}
		if !behind(&tri, other) {
			continue
		}

		w := clip.Winding(tri.v[:])
		for j := 0; j < 4 && w != nil; j++ {
			plane := other.plane
			if j > 0 {
				plane = math.Plane{Normal: other.edge[j-1]}
			}
			front, back := w.Split(plane, OnEpsilon)
			// the near side of the plane or the outside of an edge is
			// visible as far as other is concerned
			for k := 2; k < len(back); k++ {
				frag := tri
				frag.v = [3]math.Vec3{back[0], back[k-1], back[k]}
				frag.makeEdges()
				c.clipTriangle(frag, i+1, skip)
			}
			w = front
		}

		c.removed++
		return
	}

	if len(c.out) >= c.maxTris {
		c.err = ErrTooManyTris
		return
	}
	c.out = append(c.out, tri)
}

// clipOccluders builds the light-centered triangles from the reversed
// front cap indexes and clips them against each other, keeping only what
// is closest to the light.
func (o *optimizer) clipOccluders(verts []math.Vec3, indexes []int) error {
	numTris := len(indexes) / 3
	c := &occluderClipper{tris: make([]occTri, numTris), maxTris: o.opts.MaxTris}

	for i := range c.tris {
		t := &c.tris[i]
		t.v[0] = verts[indexes[i*3+2]].Sub(o.origin)
		t.v[1] = verts[indexes[i*3+1]].Sub(o.origin)
		t.v[2] = verts[indexes[i*3+0]].Sub(o.origin)

		n := t.v[1].Sub(t.v[0]).Cross(t.v[2].Sub(t.v[0])).Normalize()
		t.plane = math.NewPlane(n, t.v[0])
		// grouped before clipping so fragments keep their source plane
		t.group = o.planes.find(t.plane)
		t.makeEdges()
	}

	for i := range c.tris {
		before := len(c.out)
		c.removed = 0
		c.clipTriangle(c.tris[i], 0, i)
		if c.err != nil {
			return c.err
		}

		switch {
		case len(c.out) == before:
			o.stats.Removed++
		case c.removed == 0:
			o.stats.Complete++
			c.out = append(c.out[:before], c.tris[i])
		default:
			o.stats.Fragmented++
			if o.opts.Level <= CullOccluded {
				c.out = append(c.out[:before], c.tris[i])
			}
		}
	}

	o.stats.Triangles = numTris
	o.stats.Fragments = len(c.out)
	o.occluders = c.out
	return nil
}
