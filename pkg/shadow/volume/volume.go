// Package volume builds stencil shadow volumes for a triangle surface lit by
// a light made of one or more frustums.
//
// A volume is made of front caps (the shadow casting triangles, reversed),
// rear caps (the same triangles projected onto the frustum's far plane) and
// silhouette quads joining the two along every silhouette edge. Indexes are
// ordered so a renderer can draw the silhouette alone, the silhouette plus
// rear caps, or everything.
package volume

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shadowvol/pkg/light"
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/clip"
	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
	"github.com/Faultbox/shadowvol/pkg/shadow/silhouette"
	"github.com/Faultbox/shadowvol/pkg/shadow/weld"
	"github.com/Faultbox/shadowvol/pkg/surface"
)

// Capacity defaults.
const (
	DefaultMaxVerts        = 0x18000
	DefaultMaxIndexes      = 0x18000
	DefaultMaxClipSilEdges = 2048
)

// ErrOverflow is returned when a volume does not fit the configured
// capacity. No partial volume is ever returned.
var ErrOverflow = errors.New("volume: shadow buffers overflowed")

// Input is one surface and the light shadowing it.
type Input struct {
	Surface *surface.Surface
	// Model maps surface space to global space. The zero matrix means
	// identity.
	Model math.Mat4
	Light *light.Light
}

// Options configures Create.
type Options struct {
	// Level selects the optimizer. It only applies to lights with Optimize
	// set; everything else takes the direct path.
	Level           optimize.Level
	MaxVerts        int
	MaxIndexes      int
	MaxClipSilEdges int
	MaxUniqueVerts  int
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxVerts <= 0 {
		o.MaxVerts = DefaultMaxVerts
	}
	if o.MaxIndexes <= 0 {
		o.MaxIndexes = DefaultMaxIndexes
	}
	if o.MaxClipSilEdges <= 0 {
		o.MaxClipSilEdges = DefaultMaxClipSilEdges
	}
	if o.MaxUniqueVerts <= 0 {
		o.MaxUniqueVerts = weld.DefaultLimit
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Volume is a finished shadow volume in surface space.
//
// Indexes[:NumIndexesNoCaps] are silhouette quads,
// Indexes[NumIndexesNoCaps:NumIndexesNoFrontCaps] are rear caps and the
// rest are front caps.
type Volume struct {
	Verts                 []math.Vec3
	Indexes               []uint32
	NumIndexesNoCaps      int
	NumIndexesNoFrontCaps int
	// CapPlaneBits has bit i set when frustum i contributed geometry.
	CapPlaneBits uint8
}

// NumIndexes returns the total index count.
func (v *Volume) NumIndexes() int {
	return len(v.Indexes)
}

// NumTriangles returns the total triangle count.
func (v *Volume) NumTriangles() int {
	return len(v.Indexes) / 3
}

// Triangles returns the index triples.
func (v *Volume) Triangles() [][3]int {
	tris := make([][3]int, 0, len(v.Indexes)/3)
	for i := 0; i+2 < len(v.Indexes); i += 3 {
		tris = append(tris, [3]int{int(v.Indexes[i]), int(v.Indexes[i+1]), int(v.Indexes[i+2])})
	}
	return tris
}

// FreeEdges counts directed edges without an oppositely wound partner. A
// watertight volume has none.
func (v *Volume) FreeEdges() int {
	return len(silhouette.Unmatched(v.Triangles()))
}

// indexRef records where one frustum's ranges start in the scratch
// index buffer.
type indexRef struct {
	frontCapStart int
	rearCapStart  int
	silStart      int
	end           int
}

// CastsShadow returns, per triangle, whether the light origin is behind the
// face. One trailing false entry stands for the missing face across a
// dangling edge.
func CastsShadow(s *surface.Surface, localLightOrigin math.Vec3) []bool {
	casts := make([]bool, len(s.FacePlanes)+1)
	for i, pl := range s.FacePlanes {
		casts[i] = pl.Distance(localLightOrigin) < 0
	}
	return casts
}

// Create builds the shadow volume of in.Surface for in.Light. It returns
// nil without an error when the surface casts no shadow, and ErrOverflow
// when the result does not fit the capacity limits.
func Create(in Input, opts Options) (*Volume, error) {
	opts = opts.withDefaults()
	s := in.Surface

	if s == nil || len(s.SilEdges) == 0 || len(s.Indexes) == 0 || len(s.Verts) == 0 {
		return nil, nil
	}

	model := in.Model
	if model == (math.Mat4{}) {
		model = math.Identity()
	}
	localOrigin := model.Inverse().TransformVec3(in.Light.Origin)

	casts := CastsShadow(s, localOrigin)
	anyCast := false
	for _, c := range casts[:s.NumTriangles()] {
		if c {
			anyCast = true
			break
		}
	}
	if !anyCast {
		return nil, nil
	}

	b := &builder{
		opts:        opts,
		surf:        s,
		localOrigin: localOrigin,
		casts:       casts,
		faceCasts:   make([]bool, s.NumTriangles()+1),
		remap:       make([]int, len(s.Verts)),
		offline:     in.Light.Optimize && opts.Level.Offline(),
	}

	var capPlaneBits uint8
	for num, f := range in.Light.Frustums {
		planes := make([]math.Plane, len(f.Planes))
		culled := false
		for j, p := range f.Planes {
			planes[j] = model.PlaneToLocal(p)
			if s.Bounds.PlaneDistance(planes[j]) < -clip.LightClipEpsilon {
				culled = true
				break
			}
		}
		if culled {
			continue
		}

		before := len(b.refs)
		if err := b.frustum(planes, model.PlaneToLocal(f.Far), f.MakeClippedPlanes); err != nil {
			return nil, err
		}
		if len(b.refs) != before {
			capPlaneBits |= 1 << num
		}
	}

	if len(b.indexes) == 0 {
		return nil, nil
	}

	v := b.assemble()
	v.CapPlaneBits = capPlaneBits
	if b.offline {
		Cleanup(v)
	} else {
		removeDegenerates(v)
	}

	opts.Logger.Debug("Created shadow volume",
		zap.String("light", in.Light.Name),
		zap.Bool("offline", b.offline),
		zap.Int("verts", len(v.Verts)),
		zap.Int("indexes", len(v.Indexes)),
		zap.Int("noCaps", v.NumIndexesNoCaps),
		zap.Int("noFrontCaps", v.NumIndexesNoFrontCaps))
	return v, nil
}

// assemble copies every silhouette range first, then the rear caps, then
// the front caps.
func (b *builder) assemble() *Volume {
	v := &Volume{
		Verts:   b.verts,
		Indexes: make([]uint32, 0, len(b.indexes)),
	}
	appendRange := func(from, to int) {
		for _, idx := range b.indexes[from:to] {
			v.Indexes = append(v.Indexes, uint32(idx))
		}
	}

	for _, r := range b.refs {
		appendRange(r.silStart, r.end)
	}
	v.NumIndexesNoCaps = len(v.Indexes)
	for _, r := range b.refs {
		appendRange(r.rearCapStart, r.silStart)
	}
	v.NumIndexesNoFrontCaps = len(v.Indexes)
	for _, r := range b.refs {
		appendRange(r.frontCapStart, r.rearCapStart)
	}
	return v
}

func overflow(what string, limit int) error {
	return fmt.Errorf("%w: %s limit %d", ErrOverflow, what, limit)
}
