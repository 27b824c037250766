package math

import "testing"

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n, l := Vec3{3, 4, 0}.NormalizeLen()
	if l != 5 {
		t.Errorf("NormalizeLen() length = %v, want 5", l)
	}
	if got := n.Length(); got < 0.999 || got > 1.001 {
		t.Errorf("NormalizeLen().Length() = %v, want ~1", got)
	}
}

func TestPlaneFromPoints(t *testing.T) {
	// (p1-p2) x (p3-p2) for these points points down -X
	p, ok := PlaneFromPoints(Vec3{1, 1, 1}, Vec3{1, -1, 1}, Vec3{1, -1, -1})
	if !ok {
		t.Fatal("PlaneFromPoints() should succeed")
	}
	if p.Normal != (Vec3{X: -1}) {
		t.Errorf("Normal = %v, want (-1, 0, 0)", p.Normal)
	}
	if d := p.Distance(Vec3{}); d != 1 {
		t.Errorf("Distance(origin) = %v, want 1", d)
	}

	if _, ok := PlaneFromPoints(Vec3{}, Vec3{X: 1}, Vec3{X: 2}); ok {
		t.Error("PlaneFromPoints() on collinear points should fail")
	}
}

func TestPlaneNormalize(t *testing.T) {
	p := Plane{Normal: Vec3{Z: 2}, D: -4}.Normalize()
	if p.Normal != (Vec3{Z: 1}) || p.D != -2 {
		t.Errorf("Normalize() = %+v, want normal (0,0,1) d -2", p)
	}
	if d := p.Distance(Vec3{Z: 5}); d != 3 {
		t.Errorf("Distance() = %v, want 3", d)
	}
}

func TestBoundsPlaneDistance(t *testing.T) {
	b := BoundsFromPoints([]Vec3{{-1, -1, -1}, {1, 1, 1}})

	tests := []struct {
		name  string
		plane Plane
		want  float32
	}{
		{"in front", Plane{Normal: Vec3{X: 1}, D: 3}, 2},
		{"behind", Plane{Normal: Vec3{X: 1}, D: -3}, -2},
		{"crossing", Plane{Normal: Vec3{X: 1}, D: 0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.PlaneDistance(tt.plane); got != tt.want {
				t.Errorf("PlaneDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundsCenterRadius(t *testing.T) {
	b := EmptyBounds()
	if !b.IsEmpty() {
		t.Error("EmptyBounds() should be empty")
	}
	b = b.AddPoint(Vec3{0, 0, 0}).AddPoint(Vec3{2, 4, 4})
	if c := b.Center(); c != (Vec3{1, 2, 2}) {
		t.Errorf("Center() = %v, want (1, 2, 2)", c)
	}
	if r := b.Radius(); r != 3 {
		t.Errorf("Radius() = %v, want 3", r)
	}
}
