package volume

import "github.com/Faultbox/shadowvol/pkg/math"

// PointsOrdered reports whether a sorts before b. Coincident sil edges from
// different surfaces must pick the same quad diagonal whichever way round
// they are given, so the order depends only on the coordinates. Points
// with equal keys may misorder and leave a hairline crack.
func PointsOrdered(a, b math.Vec3) bool {
	i := a.X + a.Y*127 + a.Z*1023
	j := b.X + b.Y*127 + b.Z*1023
	return i < j
}

// QuadTriangles returns the two triangles of the sil quad for edge v1->v2,
// where v1+1 and v2+1 are the far copies. ordered is PointsOrdered for the
// two near positions. reversed is set when the face across the edge is the
// one casting the shadow, which flips the winding.
func QuadTriangles(v1, v2 int, ordered, reversed bool) [6]int {
	switch {
	case reversed && ordered:
		return [6]int{v1, v1 + 1, v2, v2, v1 + 1, v2 + 1}
	case reversed:
		return [6]int{v1, v2 + 1, v2, v1, v1 + 1, v2 + 1}
	case ordered:
		return [6]int{v1, v2, v1 + 1, v2, v2 + 1, v1 + 1}
	default:
		return [6]int{v1, v2, v2 + 1, v1, v2 + 1, v1 + 1}
	}
}
