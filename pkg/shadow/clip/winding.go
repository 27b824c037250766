package clip

import "github.com/Faultbox/shadowvol/pkg/math"

// Winding is a convex polygon with counter-clockwise front faces.
type Winding []math.Vec3

// Plane returns the plane of the winding; the normal points to the side
// the winding appears counter-clockwise from.
func (w Winding) Plane() math.Plane {
	if len(w) < 3 {
		return math.Plane{}
	}
	var n math.Vec3
	for i := 2; i < len(w); i++ {
		n = n.Add(w[i-1].Sub(w[0]).Cross(w[i].Sub(w[0])))
	}
	return math.NewPlane(n.Normalize(), w[0])
}

// Clone returns a copy of w.
func (w Winding) Clone() Winding {
	return append(Winding(nil), w...)
}

// Split divides w by plane. Points within eps of the plane go to both
// sides. A winding lying entirely on the plane goes to the side its normal
// agrees with. Either result may be nil.
func (w Winding) Split(plane math.Plane, eps float32) (front, back Winding) {
	n := len(w)
	dists := make([]float32, n)
	sides := make([]Side, n)
	var counts [3]int

	for i, p := range w {
		d := plane.Distance(p)
		dists[i] = d
		switch {
		case d > eps:
			sides[i] = SideFront
		case d < -eps:
			sides[i] = SideBack
		default:
			sides[i] = SideOn
		}
		counts[sides[i]]++
	}

	if counts[SideFront] == 0 && counts[SideBack] == 0 {
		if w.Plane().Normal.Dot(plane.Normal) > 0 {
			return w.Clone(), nil
		}
		return nil, w.Clone()
	}
	if counts[SideFront] == 0 {
		return nil, w.Clone()
	}
	if counts[SideBack] == 0 {
		return w.Clone(), nil
	}

	front = make(Winding, 0, n+4)
	back = make(Winding, 0, n+4)

	for i, p1 := range w {
		next := (i + 1) % n

		switch sides[i] {
		case SideOn:
			front = append(front, p1)
			back = append(back, p1)
			continue
		case SideFront:
			front = append(front, p1)
		case SideBack:
			back = append(back, p1)
		}

		if sides[next] == SideOn || sides[next] == sides[i] {
			continue
		}

		p2 := w[next]
		t := dists[i] / (dists[i] - dists[next])
		mid := splitPoint(p1, p2, t, plane)
		front = append(front, mid)
		back = append(back, mid)
	}

	return front, back
}

// splitPoint interpolates along p1p2, snapping axial plane coordinates.
func splitPoint(p1, p2 math.Vec3, t float32, plane math.Plane) math.Vec3 {
	mid := p1.Lerp(p2, t)
	switch {
	case plane.Normal.X == 1:
		mid.X = -plane.D
	case plane.Normal.X == -1:
		mid.X = plane.D
	}
	switch {
	case plane.Normal.Y == 1:
		mid.Y = -plane.D
	case plane.Normal.Y == -1:
		mid.Y = plane.D
	}
	switch {
	case plane.Normal.Z == 1:
		mid.Z = -plane.D
	case plane.Normal.Z == -1:
		mid.Z = plane.D
	}
	return mid
}
