package optimize

import (
	"github.com/Faultbox/shadowvol/pkg/math"
)

// EdgePlaneEpsilon is how close to a sil plane both ends of an edge must
// be for the edge to join it.
const EdgePlaneEpsilon = 0.1

// silQuad is a sil edge swept from near to far. Indexes refer to the
// weld table.
type silQuad struct {
	near [2]int
	far  [2]int
}

// silPlane groups the sil edges lying in one plane through the light
// origin.
type silPlane struct {
	normal math.Vec3
	edges  []int
	quads  []silQuad
}

func (o *optimizer) vert(i int) math.Vec3 {
	return o.table.Verts[i]
}

// generateSilPlanes sorts the sil edges into planes through the light.
func (o *optimizer) generateSilPlanes() {
	o.silPlanes = o.silPlanes[:0]
	for i, e := range o.silEdges {
		if e.V1 == e.V2 {
			continue
		}
		v1, v2 := o.vert(e.V1), o.vert(e.V2)

		found := false
		for j := range o.silPlanes {
			sp := &o.silPlanes[j]
			if math.Abs(v1.Dot(sp.normal)) < EdgePlaneEpsilon && math.Abs(v2.Dot(sp.normal)) < EdgePlaneEpsilon {
				sp.edges = append(sp.edges, i)
				found = true
				break
			}
		}
		if !found {
			o.silPlanes = append(o.silPlanes, silPlane{
				normal: v1.Cross(v2).Normalize(),
				edges:  []int{i},
			})
		}
	}
	o.stats.SilPlanes = len(o.silPlanes)
}

func (o *optimizer) saveQuad(sp *silPlane, q silQuad) error {
	if o.stats.SilQuads >= o.opts.MaxTris*3 {
		return ErrTooManyTris
	}
	sp.quads = append(sp.quads, q)
	o.stats.SilQuads++
	return nil
}

// fragmentSilQuad splits q wherever another edge of the same plane starts
// or ends inside it, and where that edge's own quad begins, so overlapping
// pieces end up with identical near edges.
func (o *optimizer) fragmentSilQuad(q silQuad, sp *silPlane, start, skip int) error {
	if q.near[0] == q.near[1] {
		return nil
	}

	for k := start; k < len(sp.edges); k++ {
		if k == skip {
			continue
		}
		check := o.silEdges[sp.edges[k]]
		if check.V1 == check.V2 {
			continue
		}
		ends := [2]int{check.V1, check.V2}

		for i := 0; i < 2; i++ {
			plane := o.vert(ends[i]).Cross(sp.normal).Normalize()
			if plane.Length() < 0.9 {
				continue
			}
			if o.vert(ends[1-i]).Dot(plane) > 0 {
				plane = plane.Neg()
			}

			d1 := o.vert(q.near[0]).Dot(plane)
			d2 := o.vert(q.near[1]).Dot(plane)
			d3 := o.vert(q.far[0]).Dot(plane)
			d4 := o.vert(q.far[1]).Dot(plane)

			if !(d1 > EdgePlaneEpsilon && d3 > EdgePlaneEpsilon && d2 < -EdgePlaneEpsilon && d4 < -EdgePlaneEpsilon) &&
				!(d2 > EdgePlaneEpsilon && d4 > EdgePlaneEpsilon && d1 < -EdgePlaneEpsilon && d3 < -EdgePlaneEpsilon) {
				continue
			}

			f := d3 / (d3 - d4)
			if f <= 0.0001 || f >= 0.9999 {
				o.stats.BadFractions++
				continue
			}

			nearMid, err := o.table.Find(o.vert(q.near[0]).Lerp(o.vert(q.near[1]), f))
			if err != nil {
				return err
			}
			farMid, err := o.table.Find(o.vert(q.far[0]).Lerp(o.vert(q.far[1]), f))
			if err != nil {
				return err
			}

			clipped := q
			if d1 > EdgePlaneEpsilon {
				clipped.near[1], clipped.far[1] = nearMid, farMid
				q.near[0], q.far[0] = nearMid, farMid
			} else {
				clipped.near[0], clipped.far[0] = nearMid, farMid
				q.near[1], q.far[1] = nearMid, farMid
			}
			if err := o.fragmentSilQuad(clipped, sp, k+1, skip); err != nil {
				return err
			}
		}

		dir := o.vert(check.V2).Sub(o.vert(check.V1))
		separate := math.NewPlane(dir.Cross(sp.normal).Normalize(), o.vert(check.V2))

		d1 := separate.Distance(o.vert(q.near[0]))
		d2 := separate.Distance(o.vert(q.far[0]))
		if (d1 < EdgePlaneEpsilon && d2 < EdgePlaneEpsilon) || (d1 > -EdgePlaneEpsilon && d2 > -EdgePlaneEpsilon) {
			continue
		}
		mid0 := o.vert(q.near[0]).Lerp(o.vert(q.far[0]), d1/(d1-d2))

		d1 = separate.Distance(o.vert(q.near[1]))
		d2 = separate.Distance(o.vert(q.far[1]))
		if d1 == d2 {
			continue
		}
		f := d1 / (d1 - d2)
		if f < 0 || f > 1 {
			continue
		}
		mid1 := o.vert(q.near[1]).Lerp(o.vert(q.far[1]), f)

		mid0Index, err := o.table.Find(mid0)
		if err != nil {
			return err
		}
		mid1Index, err := o.table.Find(mid1)
		if err != nil {
			return err
		}

		clipped := q
		clipped.near = [2]int{mid0Index, mid1Index}
		q.far = [2]int{mid0Index, mid1Index}
		if err := o.fragmentSilQuad(clipped, sp, k+1, skip); err != nil {
			return err
		}
	}

	return o.saveQuad(sp, q)
}

// fragmentSilQuads sweeps every sil edge to the far plane and fragments
// the resulting quads against the other edges of their plane.
func (o *optimizer) fragmentSilQuads() error {
	o.generateSilPlanes()
	for i := range o.silPlanes {
		sp := &o.silPlanes[i]
		for k, e := range sp.edges {
			edge := o.silEdges[e]
			q := silQuad{
				near: [2]int{edge.V1, edge.V2},
				far:  [2]int{edge.V1 + o.numBeforeProjection, edge.V2 + o.numBeforeProjection},
			}
			if err := o.fragmentSilQuad(q, sp, 0, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitFragmentedSilQuads writes out every quad that has no reversed twin in
// its plane, optionally merging the triangles on each side of the plane.
func (o *optimizer) emitFragmentedSilQuads() {
	groups := make([][2][][3]int, len(o.silPlanes))
	for i := range o.silPlanes {
		sp := &o.silPlanes[i]
		for a, f1 := range sp.quads {
			matched := false
			for b, f2 := range sp.quads {
				if a != b && f1.near[0] == f2.near[1] && f1.near[1] == f2.near[0] {
					matched = true
					break
				}
			}
			if matched {
				o.stats.MatchedQuads++
				continue
			}

			t1 := [3]int{f1.near[0], f1.near[1], f1.far[1]}
			t2 := [3]int{f1.far[0], f1.near[0], f1.far[1]}

			n0, n1, f := o.vert(t1[0]), o.vert(t1[1]), o.vert(t1[2])
			side := 1
			if n1.Sub(n0).Cross(f.Sub(n0)).Dot(sp.normal) > 0 {
				side = 0
			}
			groups[i][side] = append(groups[i][side], t1, t2)
		}
	}

	var merge *merger
	if o.opts.Level >= SilOptimize {
		all := make([][][3]int, 0, len(groups)*2+1)
		all = append(all, o.capTris)
		for _, g := range groups {
			all = append(all, g[0], g[1])
		}
		merge = &merger{verts: o.table.Verts, usage: countUsage(o.table.Len(), all...)}
	}

	for i, g := range groups {
		for side, tris := range g {
			if len(tris) == 0 {
				continue
			}
			if merge != nil {
				merge.normal = o.silPlanes[i].normal
				if side == 1 {
					merge.normal = merge.normal.Neg()
				}
				tris = merge.merge(tris)
			}
			o.silTris = append(o.silTris, tris...)
		}
	}
}

// emitUnoptimizedSilEdges sweeps every sil edge to the far plane as-is.
func (o *optimizer) emitUnoptimizedSilEdges() {
	n := o.numBeforeProjection
	for _, e := range o.silEdges {
		o.silTris = append(o.silTris,
			[3]int{e.V1, e.V2, e.V2 + n},
			[3]int{e.V1 + n, e.V1, e.V2 + n},
		)
	}
}
