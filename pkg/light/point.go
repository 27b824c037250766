package light

import "github.com/Faultbox/shadowvol/pkg/math"

// Corner i of the light box takes +radius on axis j when bit j is set.
var faceCorners = [6][4]int{
	{7, 5, 1, 3}, // +X
	{4, 6, 2, 0}, // -X
	{6, 7, 3, 2}, // +Y
	{5, 4, 0, 1}, // -Y
	{6, 4, 5, 7}, // +Z
	{3, 1, 0, 2}, // -Z
}

// faceEdgeAdjacent holds, per face edge, a corner of the neighbouring face
// across that edge.
var faceEdgeAdjacent = [6][4]int{
	{4, 4, 2, 2},
	{7, 7, 1, 1},
	{5, 5, 0, 0},
	{6, 6, 3, 3},
	{0, 0, 3, 3},
	{5, 5, 6, 6},
}

// NewPoint builds up to six frustums, one per face of the light box, all
// sharing the center of projection. Faces the center of projection is
// behind are skipped.
func NewPoint(p PointParams) *Light {
	axis := p.Axis
	if axis == (math.Mat4{}) {
		axis = math.Identity()
	}

	origin := p.Origin.Add(axis.TransformDirection(p.Center))

	centerOutside := math.Abs(p.Center.X) > p.Radius.X ||
		math.Abs(p.Center.Y) > p.Radius.Y ||
		math.Abs(p.Center.Z) > p.Radius.Z

	var corners [8]math.Vec3
	for i := range corners {
		var local math.Vec3
		for j, r := range [3]float32{p.Radius.X, p.Radius.Y, p.Radius.Z} {
			if i&(1<<j) == 0 {
				r = -r
			}
			switch j {
			case 0:
				local.X = r
			case 1:
				local.Y = r
			case 2:
				local.Z = r
			}
		}
		corners[i] = p.Origin.Add(axis.TransformDirection(local))
	}

	l := &Light{Origin: origin}
	for side := 0; side < 6; side++ {
		fc := faceCorners[side]

		back, ok := math.PlaneFromPoints(corners[fc[0]], corners[fc[1]], corners[fc[2]])
		if !ok || back.Distance(origin) < 0 {
			continue
		}

		f := Frustum{Planes: make([]math.Plane, 6), Far: back}
		f.Planes[4] = back
		f.Planes[5] = back

		for edge := 0; edge < 4; edge++ {
			p1 := corners[fc[edge]]
			p2 := corners[fc[(edge+1)&3]]

			f.Planes[edge], _ = math.PlaneFromPoints(p2, p1, origin)

			if centerOutside {
				p3 := corners[faceEdgeAdjacent[side][edge]]
				if sidePlane, ok := math.PlaneFromPoints(p2, p1, p3); ok && sidePlane.Distance(origin) < 0 {
					f.Planes[edge] = sidePlane
				}
				// no neighbour is guaranteed, so clipped edges need sil planes
				f.MakeClippedPlanes = true
			}
		}
		l.Frustums = append(l.Frustums, f)
	}
	return l
}
