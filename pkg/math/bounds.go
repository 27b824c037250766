package math

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec3
}

// EmptyBounds returns an inverted box that any AddPoint will replace.
func EmptyBounds() Bounds {
	const big = 1e30
	return Bounds{
		Min: Vec3{big, big, big},
		Max: Vec3{-big, -big, -big},
	}
}

// BoundsFromPoints returns the box enclosing pts.
func BoundsFromPoints(pts []Vec3) Bounds {
	b := EmptyBounds()
	for _, p := range pts {
		b = b.AddPoint(p)
	}
	return b
}

// IsEmpty reports whether no point was ever added.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X
}

// AddPoint grows the box to include p.
func (b Bounds) AddPoint(p Vec3) Bounds {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.Z < b.Min.Z {
		b.Min.Z = p.Z
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	if p.Z > b.Max.Z {
		b.Max.Z = p.Z
	}
	return b
}

// Center returns the center point of the box.
func (b Bounds) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Scale(0.5).Length()
}

// PlaneDistance returns 0 if the plane crosses the box, otherwise the
// signed distance of the nearest point of the box.
func (b Bounds) PlaneDistance(p Plane) float32 {
	center := b.Center()
	d1 := p.Distance(center)
	d2 := Abs((b.Max.X-center.X)*p.Normal.X) +
		Abs((b.Max.Y-center.Y)*p.Normal.Y) +
		Abs((b.Max.Z-center.Z)*p.Normal.Z)

	if d1-d2 > 0 {
		return d1 - d2
	}
	if d1+d2 < 0 {
		return d1 + d2
	}
	return 0
}
