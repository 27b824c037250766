package cull

import (
	"testing"

	"github.com/Faultbox/shadowvol/pkg/math"
)

var xPlane = []math.Plane{{Normal: math.Vec3{X: 1}}} // x >= 0 is inside

func TestPoints(t *testing.T) {
	verts := []math.Vec3{{X: 5}, {X: 0}, {X: -5}}
	codes := Points(verts, math.BoundsFromPoints(verts), xPlane)

	want := []Code{0xfc0, 0xfc1, 0xf81}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %#x, want %#x", i, codes[i], want[i])
		}
	}
}

func TestPointsBoundsInFront(t *testing.T) {
	verts := []math.Vec3{{X: 5}, {X: 6, Y: 1}, {X: 7, Z: -3}}
	codes := Points(verts, math.BoundsFromPoints(verts), xPlane)

	for i, c := range codes {
		if c != frontMask {
			t.Errorf("codes[%d] = %#x, want %#x", i, c, frontMask)
		}
	}
}

func TestClassification(t *testing.T) {
	verts := []math.Vec3{{X: 5}, {X: 0}, {X: -5}}
	c := Points(verts, math.BoundsFromPoints(verts), xPlane)
	front, on, behind := c[0], c[1], c[2]

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"point culled behind", behind.PointCulled(), true},
		{"point culled on", on.PointCulled(), false},
		{"triangle culled", TriangleCulled(on, behind, behind), true},
		{"triangle straddling not culled", TriangleCulled(front, on, behind), false},
		{"triangle clipped", TriangleClipped(front, on, behind), true},
		{"triangle in front not clipped", TriangleClipped(front, on, front), false},
		{"edge culled", EdgeCulled(behind, behind), true},
		{"edge to plane not culled", EdgeCulled(on, behind), false},
		{"edge clipped", EdgeClipped(on, behind), true},
		{"edge in front not clipped", EdgeClipped(front, on), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if bits := ClipBits(front, on, behind); bits != 1 {
		t.Errorf("ClipBits() = %#x, want 0x1", bits)
	}
}
