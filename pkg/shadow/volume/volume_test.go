package volume

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/shadowvol/pkg/light"
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
	"github.com/Faultbox/shadowvol/pkg/surface"
)

func spotLight(optimized bool) *light.Light {
	l := light.NewProjected(light.ProjectedParams{
		Origin: math.Vec3{Z: -5},
		Target: math.Vec3{Z: 10},
		Right:  math.Vec3{X: 10},
		Up:     math.Vec3{Y: 10},
		End:    math.Vec3{Z: 10},
	})
	l.Optimize = optimized
	return l
}

func cubeLight(optimized bool) *light.Light {
	l := light.NewProjected(light.ProjectedParams{
		Origin: math.Vec3{Z: -10},
		Target: math.Vec3{Z: 20},
		Right:  math.Vec3{X: 20},
		Up:     math.Vec3{Y: 20},
		End:    math.Vec3{Z: 20},
	})
	l.Optimize = optimized
	return l
}

func triangle(t *testing.T, a, b, c math.Vec3) *surface.Surface {
	t.Helper()
	s, err := surface.New([]math.Vec3{a, b, c}, []uint32{0, 1, 2})
	if err != nil {
		t.Fatalf("surface.New() error = %v", err)
	}
	return s
}

func near(a, b math.Vec3) bool {
	return a.Near(b, 1e-3)
}

func TestCreateSingleTriangle(t *testing.T) {
	for _, optimized := range []bool{false, true} {
		name := "static"
		if optimized {
			name = "offline"
		}
		t.Run(name, func(t *testing.T) {
			s := triangle(t, math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
			v, err := Create(Input{Surface: s, Light: spotLight(optimized)}, Options{Level: optimize.ClipSils})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if v == nil {
				t.Fatal("Create() = nil, want a volume")
			}

			if v.NumIndexes() != 24 {
				t.Errorf("NumIndexes() = %d, want 24", v.NumIndexes())
			}
			if v.NumIndexesNoCaps != 18 {
				t.Errorf("NumIndexesNoCaps = %d, want 18", v.NumIndexesNoCaps)
			}
			if v.NumIndexesNoFrontCaps != 21 {
				t.Errorf("NumIndexesNoFrontCaps = %d, want 21", v.NumIndexesNoFrontCaps)
			}
			if v.CapPlaneBits != 1 {
				t.Errorf("CapPlaneBits = %d, want 1", v.CapPlaneBits)
			}
			if n := v.FreeEdges(); n != 0 {
				t.Errorf("FreeEdges() = %d, want a closed volume", n)
			}

			// the rear cap lies on the far plane z = 5
			for _, idx := range v.Indexes[v.NumIndexesNoCaps:v.NumIndexesNoFrontCaps] {
				if p := v.Verts[idx]; math.Abs(p.Z-5) > 1e-3 {
					t.Errorf("rear cap vertex %v is not on the far plane", p)
				}
			}
			// the front cap is the triangle itself
			for _, idx := range v.Indexes[v.NumIndexesNoFrontCaps:] {
				if p := v.Verts[idx]; math.Abs(p.Z) > 1e-3 {
					t.Errorf("front cap vertex %v is not on the surface", p)
				}
			}
		})
	}
}

func TestCreateProjectsToFarPlane(t *testing.T) {
	s := triangle(t, math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	v, err := Create(Input{Surface: s, Light: spotLight(false)}, Options{})
	if err != nil || v == nil {
		t.Fatalf("Create() = %v, %v", v, err)
	}

	// near copies at even slots, projections at odd ones
	want := map[math.Vec3]math.Vec3{
		{}:     {Z: 5},
		{X: 1}: {X: 2, Z: 5},
		{Y: 1}: {Y: 2, Z: 5},
	}
	for i := 0; i+1 < len(v.Verts); i += 2 {
		w, ok := want[v.Verts[i]]
		if !ok {
			t.Fatalf("unexpected near vertex %v", v.Verts[i])
		}
		if !near(v.Verts[i+1], w) {
			t.Errorf("projection of %v = %v, want %v", v.Verts[i], v.Verts[i+1], w)
		}
	}
}

func TestCreateNoShadow(t *testing.T) {
	// wound to face the light
	s := triangle(t, math.Vec3{}, math.Vec3{Y: 1}, math.Vec3{X: 1})
	v, err := Create(Input{Surface: s, Light: spotLight(false)}, Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v != nil {
		t.Errorf("Create() = %+v, want nil", v)
	}
}

func TestCreateOutsideFrustum(t *testing.T) {
	s := triangle(t, math.Vec3{X: 50}, math.Vec3{X: 51}, math.Vec3{X: 50, Y: 1})
	v, err := Create(Input{Surface: s, Light: spotLight(false)}, Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v != nil {
		t.Errorf("Create() = %+v, want nil for a culled surface", v)
	}
}

func TestCreateOverflow(t *testing.T) {
	s := triangle(t, math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})

	tests := []struct {
		name string
		opts Options
	}{
		{"indexes", Options{MaxIndexes: 10}},
		{"verts", Options{MaxVerts: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Create(Input{Surface: s, Light: spotLight(false)}, tt.opts)
			if !errors.Is(err, ErrOverflow) {
				t.Errorf("Create() error = %v, want ErrOverflow", err)
			}
			if v != nil {
				t.Error("Create() returned a partial volume")
			}
		})
	}
}

func TestCreateCube(t *testing.T) {
	cube := surface.Box(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	for _, level := range []optimize.Level{optimize.None, optimize.CullOccluded, optimize.ClipSils, optimize.SilOptimize} {
		t.Run(level.String(), func(t *testing.T) {
			v, err := Create(Input{Surface: cube, Light: cubeLight(true)}, Options{Level: level})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if v == nil {
				t.Fatal("Create() = nil, want a volume")
			}

			// five casting faces, four silhouette edges around the lit face
			if v.NumIndexes() != 84 {
				t.Errorf("NumIndexes() = %d, want 84", v.NumIndexes())
			}
			if v.NumIndexesNoCaps != 24 {
				t.Errorf("NumIndexesNoCaps = %d, want 24", v.NumIndexesNoCaps)
			}
			if v.NumIndexesNoFrontCaps != 54 {
				t.Errorf("NumIndexesNoFrontCaps = %d, want 54", v.NumIndexesNoFrontCaps)
			}
			if n := v.FreeEdges(); n != 0 {
				t.Errorf("FreeEdges() = %d, want a closed volume", n)
			}
		})
	}
}

func TestCreateModelTransform(t *testing.T) {
	s := triangle(t, math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	l := spotLight(false)
	// moving the surface and the light together changes nothing in
	// surface space
	model := math.Translate(100, 0, 0)
	l.Origin = model.TransformVec3(l.Origin)
	for i := range l.Frustums[0].Planes {
		l.Frustums[0].Planes[i] = model.PlaneToGlobal(l.Frustums[0].Planes[i])
	}
	l.Frustums[0].Far = model.PlaneToGlobal(l.Frustums[0].Far)

	v, err := Create(Input{Surface: s, Model: model, Light: l}, Options{})
	if err != nil || v == nil {
		t.Fatalf("Create() = %v, %v", v, err)
	}
	if v.NumIndexes() != 24 {
		t.Errorf("NumIndexes() = %d, want 24", v.NumIndexes())
	}
	if !near(v.Verts[1], math.Vec3{Z: 5}) {
		t.Errorf("Verts[1] = %v, want (0, 0, 5)", v.Verts[1])
	}
}

func TestCastsShadow(t *testing.T) {
	cube := surface.Box(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	origin := math.Vec3{Z: -10}

	casts := CastsShadow(cube, origin)
	if len(casts) != cube.NumTriangles()+1 {
		t.Fatalf("len(CastsShadow()) = %d, want %d", len(casts), cube.NumTriangles()+1)
	}
	if casts[len(casts)-1] {
		t.Error("the dangling edge entry should never cast")
	}

	n := 0
	for i, pl := range cube.FacePlanes {
		if casts[i] != (pl.Distance(origin) < 0) {
			t.Errorf("face %d: casts = %v with distance %v", i, casts[i], pl.Distance(origin))
		}
		if casts[i] {
			n++
		}
	}
	if n != 10 {
		t.Errorf("%d casting triangles, want 10", n)
	}
}

// diagonal returns the index pair shared by both triangles of a quad.
func diagonal(q [6]int) [2]int {
	var shared []int
	for _, a := range q[:3] {
		if slices.Contains(q[3:], a) {
			shared = append(shared, a)
		}
	}
	slices.Sort(shared)
	return [2]int{shared[0], shared[1]}
}

func TestQuadTrianglesOrderIndependent(t *testing.T) {
	points := []math.Vec3{
		{X: 1, Y: 2, Z: 3},
		{X: -8, Y: 8, Z: 8},
		{X: 8, Y: -8, Z: 8},
		{X: 0.5, Y: -4, Z: 100},
	}
	for i, a := range points {
		for j, b := range points {
			if i == j {
				continue
			}
			if PointsOrdered(a, b) == PointsOrdered(b, a) {
				t.Errorf("PointsOrdered(%v, %v) is not antisymmetric", a, b)
			}
			for _, reversed := range []bool{false, true} {
				// vertex pairs 0/1 for a and 2/3 for b
				d1 := diagonal(QuadTriangles(0, 2, PointsOrdered(a, b), reversed))
				d2 := diagonal(QuadTriangles(2, 0, PointsOrdered(b, a), !reversed))
				if d1 != d2 {
					t.Errorf("%v-%v: diagonal %v vs %v", a, b, d1, d2)
				}
			}
		}
	}
}

func TestCleanup(t *testing.T) {
	v := &Volume{
		Verts: []math.Vec3{
			{}, {X: 1}, {Z: 5}, {X: 2, Z: 5}, {Y: 1}, {Y: 2, Z: 5},
			{X: 0.01},
		},
		Indexes: []uint32{
			0, 1, 3, 2, 0, 3, // quad 0-1
			1, 0, 2, 3, 1, 2, // its reversed twin
			1, 4, 5, 3, 1, 5, // quad 1-4
			2, 3, 5, // rear
			0, 0, 1, // degenerate rear
			4, 1, 6, // front, 6 welds onto 0
		},
		NumIndexesNoCaps:      18,
		NumIndexesNoFrontCaps: 24,
	}

	Cleanup(v)

	want := []uint32{1, 4, 5, 3, 1, 5, 2, 3, 5, 4, 1, 0}
	if !slices.Equal(v.Indexes, want) {
		t.Errorf("Indexes = %v, want %v", v.Indexes, want)
	}
	if v.NumIndexesNoCaps != 6 {
		t.Errorf("NumIndexesNoCaps = %d, want 6", v.NumIndexesNoCaps)
	}
	if v.NumIndexesNoFrontCaps != 9 {
		t.Errorf("NumIndexesNoFrontCaps = %d, want 9", v.NumIndexesNoFrontCaps)
	}
	if len(v.Verts) != 6 {
		t.Errorf("len(Verts) = %d, want 6", len(v.Verts))
	}
}

func TestCleanupBadIndex(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Cleanup() did not panic on an out of range index")
		}
	}()
	Cleanup(&Volume{Verts: []math.Vec3{{}}, Indexes: []uint32{0, 0, 3}})
}

// vectorArea sums the oriented areas of all triangles. It vanishes for a
// closed volume, T-junctions included.
func vectorArea(v *Volume) (sum math.Vec3, total float32) {
	for _, t := range v.Triangles() {
		a, b, c := v.Verts[t[0]], v.Verts[t[1]], v.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		sum = sum.Add(n)
		total += n.Length()
	}
	return sum, total
}

// frustumBits returns the bits of the frustums holding a point ten units
// from the light along each of dirs.
func frustumBits(t *testing.T, l *light.Light, dirs ...math.Vec3) uint8 {
	t.Helper()
	var bits uint8
	for _, d := range dirs {
		p := l.Origin.Add(d.Scale(10))
		found := false
		for i, f := range l.Frustums {
			in := true
			for _, pl := range f.Planes {
				if pl.Distance(p) < 0 {
					in = false
					break
				}
			}
			if in {
				bits |= 1 << i
				found = true
			}
		}
		if !found {
			t.Fatalf("no frustum holds %v", p)
		}
	}
	return bits
}

func TestCreateCubePointLight(t *testing.T) {
	cube := surface.Box(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	away := []math.Vec3{{X: -1}, {Y: -1}, {Z: -1}}
	toward := []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

	lights := []struct {
		name   string
		params light.PointParams
	}{
		{"centered", light.PointParams{
			Origin: math.Vec3{X: 3, Y: 2.5, Z: 4},
			Radius: math.Vec3{X: 20, Y: 20, Z: 20},
		}},
		{"off center", light.PointParams{
			Origin: math.Vec3{X: 3, Y: 2.5, Z: 4},
			Radius: math.Vec3{X: 20, Y: 20, Z: 20},
			Center: math.Vec3{X: 2, Y: 1},
		}},
	}
	levels := []optimize.Level{optimize.CullOccluded, optimize.ClipOccluders, optimize.ClipSils, optimize.SilOptimize}

	for _, lt := range lights {
		l := light.NewPoint(lt.params)
		l.Optimize = true
		if len(l.Frustums) != 6 {
			t.Fatalf("%s: len(Frustums) = %d, want 6", lt.name, len(l.Frustums))
		}
		// the cube is below, left of and behind the light on every axis
		wantBits := frustumBits(t, l, away...)
		unlit := frustumBits(t, l, toward...)

		for _, level := range levels {
			t.Run(lt.name+"/"+level.String(), func(t *testing.T) {
				v, err := Create(Input{Surface: cube, Light: l}, Options{Level: level})
				if err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				if v == nil {
					t.Fatal("Create() = nil, want a volume")
				}

				if v.CapPlaneBits != wantBits {
					t.Errorf("CapPlaneBits = %06b, want %06b", v.CapPlaneBits, wantBits)
				}
				if v.CapPlaneBits&unlit != 0 {
					t.Errorf("CapPlaneBits = %06b sets frustums the cube is not in (%06b)", v.CapPlaneBits, unlit)
				}

				if v.NumIndexesNoCaps == 0 || v.NumIndexesNoCaps > v.NumIndexesNoFrontCaps ||
					v.NumIndexesNoFrontCaps >= v.NumIndexes() {
					t.Errorf("ranges %d/%d/%d", v.NumIndexesNoCaps, v.NumIndexesNoFrontCaps, v.NumIndexes())
				}

				sum, total := vectorArea(v)
				if sum.Length() > total*1e-3 {
					t.Errorf("vector area %v over total %v, want a closed volume", sum, total)
				}
			})
		}
	}
}

func TestCleanupKeepsSplitSeamQuads(t *testing.T) {
	v := &Volume{
		Verts: []math.Vec3{
			{}, {X: 2}, {Z: 5}, {X: 4, Z: 5}, {X: 1}, {X: 2, Z: 5},
		},
		Indexes: []uint32{
			0, 1, 3, 2, 0, 3, // quad over the whole edge 0-1
			4, 0, 2, 5, 4, 2, // reversed quad over half of it
		},
		NumIndexesNoCaps:      12,
		NumIndexesNoFrontCaps: 12,
	}

	Cleanup(v)

	if v.NumIndexesNoCaps != 12 || v.NumIndexes() != 12 {
		t.Errorf("NumIndexesNoCaps = %d of %d, want both quads kept", v.NumIndexesNoCaps, v.NumIndexes())
	}
}
