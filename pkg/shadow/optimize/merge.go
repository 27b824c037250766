package optimize

import (
	"slices"

	"github.com/Faultbox/shadowvol/pkg/math"
)

const (
	// NormalEpsilon and DistEpsilon decide when two occluder planes are
	// the same plane for merging.
	NormalEpsilon = 0.00001
	DistEpsilon   = 0.01

	// ContinuousEpsilon is the distance under which a vertex between two
	// edges is treated as collinear.
	ContinuousEpsilon = 0.005
)

// planeTable numbers planes, sharing a number between planes that agree
// within NormalEpsilon and DistEpsilon.
type planeTable struct {
	planes []math.Plane
}

func (pt *planeTable) find(p math.Plane) int {
	for i, check := range pt.planes {
		if check.Compare(p, NormalEpsilon, DistEpsilon) {
			return i
		}
	}
	pt.planes = append(pt.planes, p)
	return len(pt.planes) - 1
}

// countUsage returns how many triangles reference each vertex.
func countUsage(numVerts int, groups ...[][3]int) []int {
	usage := make([]int, numVerts)
	for _, tris := range groups {
		for _, t := range tris {
			for _, v := range t {
				usage[v]++
			}
		}
	}
	return usage
}

// merger joins coplanar triangles into convex polygons and triangulates
// them again. usage counts the polygons referencing each vertex across
// all groups; a collinear vertex is only dropped when nothing else uses it.
type merger struct {
	verts  []math.Vec3
	normal math.Vec3
	usage  []int
}

func degenerate(t [3]int) bool {
	return t[0] == t[1] || t[0] == t[2] || t[1] == t[2]
}

// merge returns tris with coplanar neighbours combined. Triangles with a
// repeated vertex are dropped.
func (m *merger) merge(tris [][3]int) [][3]int {
	polys := make([][]int, 0, len(tris))
	for _, t := range tris {
		if degenerate(t) {
			for _, v := range t {
				m.usage[v]--
			}
			continue
		}
		polys = append(polys, []int{t[0], t[1], t[2]})
	}

	for merged := true; merged; {
		merged = false
		for i := 0; i < len(polys); i++ {
			for j := i + 1; j < len(polys); j++ {
				if p, ok := m.tryMerge(polys[i], polys[j]); ok {
					polys[i] = p
					polys = slices.Delete(polys, j, j+1)
					merged = true
					j = i
				}
			}
		}
	}

	out := make([][3]int, 0, len(tris))
	for _, p := range polys {
		out = m.triangulate(out, p)
	}
	return out
}

// turn is the signed distance of next from the line through prev and v,
// positive when the corner at v is convex.
func (m *merger) turn(prev, v, next int) float32 {
	p, c, n := m.verts[prev], m.verts[v], m.verts[next]
	inward := m.normal.Cross(c.Sub(p)).Normalize()
	return inward.Dot(n.Sub(c))
}

// corner is the turn at vertex v of polygon p.
func (m *merger) corner(p []int, v int) float32 {
	n := len(p)
	idx := slices.Index(p, v)
	return m.turn(p[(idx+n-1)%n], v, p[(idx+1)%n])
}

// tryMerge joins a and b across a shared edge when the result is convex.
func (m *merger) tryMerge(a, b []int) ([]int, bool) {
	for i := range a {
		a1, a2 := a[i], a[(i+1)%len(a)]
		for j := range b {
			if b[j] != a2 || b[(j+1)%len(b)] != a1 {
				continue
			}

			// a from a2 around to a1, then b past the shared edge
			p := make([]int, 0, len(a)+len(b)-2)
			for k := 0; k < len(a); k++ {
				p = append(p, a[(i+1+k)%len(a)])
			}
			for k := 2; k < len(b); k++ {
				p = append(p, b[(j+k)%len(b)])
			}

			seen := make(map[int]struct{}, len(p))
			for _, v := range p {
				if _, dup := seen[v]; dup {
					return nil, false
				}
				seen[v] = struct{}{}
			}

			junctions := [2]int{a1, a2}
			for _, jv := range junctions {
				if m.corner(p, jv) < -ContinuousEpsilon {
					return nil, false
				}
			}

			m.usage[a1]--
			m.usage[a2]--

			for _, jv := range junctions {
				if len(p) > 3 && m.usage[jv] == 1 && m.corner(p, jv) <= ContinuousEpsilon {
					p = slices.Delete(p, slices.Index(p, jv), slices.Index(p, jv)+1)
					m.usage[jv] = 0
				}
			}
			return p, true
		}
	}
	return nil, false
}

// triangulate fans p from a strictly convex corner.
func (m *merger) triangulate(out [][3]int, p []int) [][3]int {
	n := len(p)
	start := 0
	for k := range p {
		if m.turn(p[(k+n-1)%n], p[k], p[(k+1)%n]) > ContinuousEpsilon {
			start = k
			break
		}
	}
	for k := 1; k+1 < n; k++ {
		out = append(out, [3]int{p[start], p[(start+k)%n], p[(start+k+1)%n]})
	}
	return out
}
