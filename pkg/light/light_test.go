package light

import (
	"testing"

	"github.com/Faultbox/shadowvol/pkg/math"
)

func inside(f Frustum, p math.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

func TestNewProjected(t *testing.T) {
	l := NewProjected(ProjectedParams{
		Origin: math.Vec3{Z: -5},
		Target: math.Vec3{Z: 10},
		Right:  math.Vec3{X: 10},
		Up:     math.Vec3{Y: 10},
		End:    math.Vec3{Z: 10},
	})

	if len(l.Frustums) != 1 {
		t.Fatalf("len(Frustums) = %d, want 1", len(l.Frustums))
	}
	f := l.Frustums[0]
	if !f.MakeClippedPlanes {
		t.Error("projected light frustum should make clipped planes")
	}
	if len(f.Planes) != 6 {
		t.Fatalf("len(Planes) = %d, want 6", len(f.Planes))
	}

	tests := []struct {
		name string
		p    math.Vec3
		want bool
	}{
		{"on axis", math.Vec3{Z: 0}, true},
		{"off to the side", math.Vec3{X: 2, Z: 0}, true},
		{"outside the cone", math.Vec3{X: 6, Z: 0}, false},
		{"behind the light", math.Vec3{Z: -6}, false},
		{"past the end", math.Vec3{Z: 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inside(f, tt.p); got != tt.want {
				t.Errorf("inside(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	want := math.Plane{Normal: math.Vec3{Z: -1}, D: 5}
	if !f.Far.Compare(want, 1e-5, 1e-4) {
		t.Errorf("Far = %+v, want %+v", f.Far, want)
	}
}

func TestNewPointCentered(t *testing.T) {
	l := NewPoint(PointParams{
		Origin: math.Vec3{X: 10, Y: 20, Z: 30},
		Radius: math.Vec3{X: 100, Y: 100, Z: 100},
	})

	if len(l.Frustums) != 6 {
		t.Fatalf("len(Frustums) = %d, want 6", len(l.Frustums))
	}
	if l.Origin != (math.Vec3{X: 10, Y: 20, Z: 30}) {
		t.Errorf("Origin = %v, want the light origin", l.Origin)
	}

	faceCenters := []math.Vec3{{X: 99}, {X: -99}, {Y: 99}, {Y: -99}, {Z: 99}, {Z: -99}}
	for i, f := range l.Frustums {
		if f.MakeClippedPlanes {
			t.Errorf("frustum %d: centered point light should not make clipped planes", i)
		}
		if d := f.Far.Distance(l.Origin); d < 99.9 || d > 100.1 {
			t.Errorf("frustum %d: far plane distance from origin = %v, want 100", i, d)
		}
		p := l.Origin.Add(faceCenters[i])
		if !inside(f, p) {
			t.Errorf("frustum %d: face center %v should be inside", i, p)
		}
		for j, other := range faceCenters {
			if j != i && inside(f, l.Origin.Add(other)) {
				t.Errorf("frustum %d: face center %d should be outside", i, j)
			}
		}
	}
}

func TestNewPointCenterOutside(t *testing.T) {
	l := NewPoint(PointParams{
		Radius: math.Vec3{X: 10, Y: 10, Z: 10},
		Center: math.Vec3{X: 20},
	})

	// the +X face has the center of projection behind it
	if len(l.Frustums) != 5 {
		t.Fatalf("len(Frustums) = %d, want 5", len(l.Frustums))
	}
	for i, f := range l.Frustums {
		if !f.MakeClippedPlanes {
			t.Errorf("frustum %d: off-box center should make clipped planes", i)
		}
	}
	if l.Origin != (math.Vec3{X: 20}) {
		t.Errorf("Origin = %v, want (20, 0, 0)", l.Origin)
	}
}
