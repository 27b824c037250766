// Package cull classifies surface vertices against the planes of a light
// frustum.
//
// Each vertex gets a 12-bit code. Bit i is set when the vertex is not
// clearly in front of plane i, bit i+6 when it is not clearly behind it.
// Triangle and edge decisions are bitwise combinations of those codes.
package cull

import (
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/clip"
)

// MaxPlanes is the largest number of planes a code can describe.
const MaxPlanes = 6

const (
	backMask  = 1<<MaxPlanes - 1
	frontMask = backMask << MaxPlanes
)

// Code is the per-vertex classification against up to six planes.
type Code uint16

// Points computes a code for every vertex. Planes that the whole surface
// bounds are clearly in front of are marked for every vertex without being
// tested.
func Points(verts []math.Vec3, bounds math.Bounds, planes []math.Plane) []Code {
	if len(planes) > MaxPlanes {
		panic("cull: too many frustum planes")
	}

	var frontBits Code
	for i, p := range planes {
		if bounds.PlaneDistance(p) >= clip.LightClipEpsilon {
			frontBits |= 1 << (i + MaxPlanes)
		}
	}
	// unused plane slots count as clearly in front
	for i := len(planes); i < MaxPlanes; i++ {
		frontBits |= 1 << (i + MaxPlanes)
	}

	codes := make([]Code, len(verts))
	for i := range codes {
		codes[i] = frontBits
	}
	if frontBits == frontMask {
		return codes
	}

	for i, p := range planes {
		if frontBits&(1<<(i+MaxPlanes)) != 0 {
			continue
		}
		for j, v := range verts {
			d := p.Distance(v)
			if d < clip.LightClipEpsilon {
				codes[j] |= 1 << i
			}
			if d > -clip.LightClipEpsilon {
				codes[j] |= 1 << (i + MaxPlanes)
			}
		}
	}
	return codes
}

// PointCulled reports whether the vertex is clearly behind some plane.
func (c Code) PointCulled() bool {
	return c&frontMask != frontMask
}

// TriangleCulled reports whether all three vertices are not clearly in
// front of a common plane.
func TriangleCulled(c1, c2, c3 Code) bool {
	return c1&c2&c3&backMask != 0
}

// TriangleClipped reports whether some plane has a vertex clearly behind it.
func TriangleClipped(c1, c2, c3 Code) bool {
	return c1&c2&c3&frontMask != frontMask
}

// ClipBits returns the mask of planes that have at least one of the
// three vertices clearly behind them.
func ClipBits(c1, c2, c3 Code) int {
	return int(((c1 ^ frontMask) | (c2 ^ frontMask) | (c3 ^ frontMask)) >> MaxPlanes)
}

// EdgeCulled reports whether both endpoints are clearly behind a common
// plane.
func EdgeCulled(c1, c2 Code) bool {
	return (c1^frontMask)&(c2^frontMask)&frontMask != 0
}

// EdgeClipped reports whether some plane has an endpoint clearly behind it.
func EdgeClipped(c1, c2 Code) bool {
	return c1&c2&frontMask != frontMask
}
