package math

// Plane is the set of points p where Normal·p + D == 0. Distance is
// positive on the side the normal points to.
type Plane struct {
	Normal Vec3
	D      float32
}

// NewPlane returns the plane with the given normal through point p.
func NewPlane(normal, p Vec3) Plane {
	return Plane{Normal: normal, D: -normal.Dot(p)}
}

// PlaneFromPoints builds a normalized plane through three points. The
// normal is (p1-p2) x (p3-p2); ok is false for collinear points.
func PlaneFromPoints(p1, p2, p3 Vec3) (Plane, bool) {
	n, l := p1.Sub(p2).Cross(p3.Sub(p2)).NormalizeLen()
	if l == 0 {
		return Plane{}, false
	}
	return Plane{Normal: n, D: -n.Dot(p2)}, true
}

// Distance returns the signed distance of p from the plane.
func (pl Plane) Distance(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.D
}

// Neg returns the plane facing the opposite way.
func (pl Plane) Neg() Plane {
	return Plane{Normal: pl.Normal.Neg(), D: -pl.D}
}

// Normalize rescales the plane to a unit normal. A zero normal is
// returned unchanged.
func (pl Plane) Normalize() Plane {
	n, l := pl.Normal.NormalizeLen()
	if l == 0 {
		return pl
	}
	return Plane{Normal: n, D: pl.D / l}
}

// Sub returns the component-wise difference of two plane equations.
func (pl Plane) Sub(other Plane) Plane {
	return Plane{Normal: pl.Normal.Sub(other.Normal), D: pl.D - other.D}
}

// Vec4 returns the plane equation as (a, b, c, d).
func (pl Plane) Vec4() Vec4 {
	return Vec4{pl.Normal.X, pl.Normal.Y, pl.Normal.Z, pl.D}
}

// PlaneFromVec4 builds a plane from an (a, b, c, d) equation.
func PlaneFromVec4(v Vec4) Plane {
	return Plane{Normal: Vec3{v[0], v[1], v[2]}, D: v[3]}
}

// Compare reports whether two planes are equal within the given normal
// and distance tolerances.
func (pl Plane) Compare(other Plane, normalEps, distEps float32) bool {
	if Abs(pl.D-other.D) > distEps {
		return false
	}
	return Abs(pl.Normal.X-other.Normal.X) <= normalEps &&
		Abs(pl.Normal.Y-other.Normal.Y) <= normalEps &&
		Abs(pl.Normal.Z-other.Normal.Z) <= normalEps
}
