// Package light builds the shadow frustums of projected and point lights.
package light

import (
	"github.com/Faultbox/shadowvol/pkg/math"
)

// MaxFrustums is the most frustums a light can have (one per cube face).
const MaxFrustums = 6

// Frustum is one shadow-casting region of a light. The positive side of
// every plane faces inward. Far is the plane shadow caps are projected to.
type Frustum struct {
	Planes []math.Plane
	Far    math.Plane

	// MakeClippedPlanes adds sil quads along every clipped edge. It is set
	// when no neighbouring frustum shares this frustum's sides.
	MakeClippedPlanes bool
}

// Light is a light origin plus its shadow frustums, all in global space.
type Light struct {
	Name     string
	Origin   math.Vec3
	Frustums []Frustum

	// Optimize selects the offline optimizer path.
	Optimize bool
}

// ProjectedParams describes a projected (spot) light. Target, Right, Up,
// Start and End are relative to Origin, in light axis space.
type ProjectedParams struct {
	Origin math.Vec3
	Axis   math.Mat4
	Target math.Vec3
	Right  math.Vec3
	Up     math.Vec3
	Start  math.Vec3
	End    math.Vec3
}

// PointParams describes a point light box. Center offsets the center of
// projection from Origin, in light axis space.
type PointParams struct {
	Origin math.Vec3
	Axis   math.Mat4
	Radius math.Vec3
	Center math.Vec3
}

// NewProjected builds the single frustum of a projected light.
func NewProjected(p ProjectedParams) *Light {
	proj := projection(p.Target, p.Right, p.Up, p.Start, p.End)

	// planes for s=0, t=0, s=q, t=q, falloff=0 and falloff=1
	local := [6]math.Plane{
		proj[0],
		proj[1],
		proj[2].Sub(proj[0]),
		proj[2].Sub(proj[1]),
		proj[3],
		proj[3].Neg(),
	}
	local[5].D += 1

	model := axisModel(p.Axis, p.Origin)
	planes := make([]math.Plane, 6)
	for i, pl := range local {
		planes[i] = model.PlaneToGlobal(pl.Normalize())
	}

	return &Light{
		Origin: p.Origin,
		Frustums: []Frustum{{
			Planes:            planes,
			Far:               planes[5],
			MakeClippedPlanes: true,
		}},
	}
}

// projection returns the s, t, q and falloff planes of a projected light
// whose origin is at zero. Right and Up need not be normalized.
func projection(target, rightVec, upVec, start, end math.Vec3) [4]math.Plane {
	right, rLen := rightVec.NormalizeLen()
	up, uLen := upVec.NormalizeLen()
	normal := up.Cross(right).Normalize()

	dist := target.Dot(normal)
	if dist < 0 {
		dist = -dist
		normal = normal.Neg()
	}

	right = right.Scale(0.5 * dist / rLen)
	up = up.Scale(-(0.5 * dist) / uLen)

	var proj [4]math.Plane
	proj[2] = math.Plane{Normal: normal}
	proj[0] = math.Plane{Normal: right}
	proj[1] = math.Plane{Normal: up}

	// offset s and t so the target lands in the middle
	q := proj[2].Distance(target)
	proj[0] = addScaled(proj[0], proj[2], 0.5-proj[0].Distance(target)/q)
	proj[1] = addScaled(proj[1], proj[2], 0.5-proj[1].Distance(target)/q)

	falloff, l := end.Sub(start).NormalizeLen()
	if l <= 0 {
		l = 1
	}
	falloff = falloff.Scale(1 / l)
	proj[3] = math.Plane{Normal: falloff, D: -start.Dot(falloff)}

	return proj
}

func addScaled(p, other math.Plane, f float32) math.Plane {
	return math.Plane{
		Normal: p.Normal.Add(other.Normal.Scale(f)),
		D:      p.D + other.D*f,
	}
}

func axisModel(axis math.Mat4, origin math.Vec3) math.Mat4 {
	if axis == (math.Mat4{}) {
		axis = math.Identity()
	}
	m := axis
	m[12], m[13], m[14] = origin.X, origin.Y, origin.Z
	return m
}
