package surface

import "github.com/Faultbox/shadowvol/pkg/math"

// boxQuads lists each face's corners counter-clockwise from outside.
// Corner i takes max.X when bit 0 is set, max.Y for bit 1, max.Z for bit 2.
var boxQuads = [6][4]uint32{
	{0, 2, 3, 1}, // -Z
	{4, 5, 7, 6}, // +Z
	{0, 4, 6, 2}, // -X
	{1, 3, 7, 5}, // +X
	{0, 1, 5, 4}, // -Y
	{2, 6, 7, 3}, // +Y
}

// Box returns a closed box with outward facing triangles.
func Box(lo, hi math.Vec3) *Surface {
	verts := make([]math.Vec3, 8)
	for i := range verts {
		v := lo
		if i&1 != 0 {
			v.X = hi.X
		}
		if i&2 != 0 {
			v.Y = hi.Y
		}
		if i&4 != 0 {
			v.Z = hi.Z
		}
		verts[i] = v
	}

	indexes := make([]uint32, 0, 36)
	for _, q := range boxQuads {
		indexes = append(indexes, q[0], q[1], q[2], q[0], q[2], q[3])
	}

	s, err := New(verts, indexes)
	if err != nil {
		panic(err)
	}
	return s
}

// Quad returns an open surface of one quad a, b, c, d wound
// counter-clockwise from the front.
func Quad(a, b, c, d math.Vec3) *Surface {
	s, err := New([]math.Vec3{a, b, c, d}, []uint32{0, 1, 2, 0, 2, 3})
	if err != nil {
		panic(err)
	}
	return s
}
