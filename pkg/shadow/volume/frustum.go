package volume

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/clip"
	"github.com/Faultbox/shadowvol/pkg/shadow/cull"
	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
	"github.com/Faultbox/shadowvol/pkg/shadow/weld"
	"github.com/Faultbox/shadowvol/pkg/surface"
)

// builder holds the scratch state of one Create call.
type builder struct {
	opts        Options
	surf        *surface.Surface
	localOrigin math.Vec3
	offline     bool

	// casts is the facing test, faceCasts additionally requires that the
	// face left something inside the current frustum
	casts     []bool
	faceCasts []bool
	remap     []int

	// near copies at even indexes, far plane projections at odd ones
	verts        []math.Vec3
	indexes      []int
	clipSilEdges [][2]int
	refs         []indexRef
}

func (b *builder) addVertPair(v math.Vec3) int {
	idx := len(b.verts)
	b.verts = append(b.verts, v, math.Vec3{})
	return idx
}

func (b *builder) roomForVerts(n int) error {
	if len(b.verts)+n > b.opts.MaxVerts {
		return overflow("vertex", b.opts.MaxVerts)
	}
	return nil
}

func (b *builder) roomForIndexes(n int) error {
	if len(b.indexes)+n > b.opts.MaxIndexes {
		return overflow("index", b.opts.MaxIndexes)
	}
	return nil
}

// frustum adds the part of the volume inside one light frustum. planes and
// far are in surface space.
func (b *builder) frustum(planes []math.Plane, far math.Plane, makeClippedPlanes bool) error {
	s := b.surf
	codes := cull.Points(s.Verts, s.Bounds, planes)
	for i := range b.remap {
		b.remap[i] = -1
	}

	firstIndex := len(b.indexes)
	firstVert := len(b.verts)
	b.clipSilEdges = b.clipSilEdges[:0]

	numTris := s.NumTriangles()
	for i := 0; i < numTris; i++ {
		b.faceCasts[i] = false
		if !b.casts[i] {
			continue
		}

		i1, i2, i3 := int(s.Indexes[i*3]), int(s.Indexes[i*3+1]), int(s.Indexes[i*3+2])
		c1, c2, c3 := codes[i1], codes[i2], codes[i3]
		if cull.TriangleCulled(c1, c2, c3) {
			continue
		}

		// copy every vertex that is not culled, even from clipped
		// triangles, since an edge may be unclipped when its triangle is not
		if err := b.roomForVerts(6); err != nil {
			return err
		}
		for _, vi := range [3]int{i1, i2, i3} {
			if !codes[vi].PointCulled() && b.remap[vi] == -1 {
				b.remap[vi] = b.addVertPair(s.Verts[vi])
			}
		}

		if cull.TriangleClipped(c1, c2, c3) {
			ok, err := b.clipTriangle(s.Verts[i1], s.Verts[i2], s.Verts[i3], cull.ClipBits(c1, c2, c3), planes)
			if err != nil {
				return err
			}
			b.faceCasts[i] = ok
			continue
		}

		if err := b.roomForIndexes(3); err != nil {
			return err
		}
		if b.remap[i1] < 0 || b.remap[i2] < 0 || b.remap[i3] < 0 {
			panic(fmt.Sprintf("volume: triangle %d has an unmapped vertex", i))
		}
		b.indexes = append(b.indexes, b.remap[i3], b.remap[i2], b.remap[i1])
		b.faceCasts[i] = true
	}

	numCapIndexes := len(b.indexes) - firstIndex
	if numCapIndexes == 0 {
		return nil
	}

	if b.offline {
		return b.optimizeFrustum(firstIndex, firstVert, far)
	}

	// the missing face across a dangling edge never casts, so a casting
	// face with a dangling edge always gets a sil quad there
	b.faceCasts[numTris] = false

	if err := b.roomForIndexes(numCapIndexes); err != nil {
		return err
	}
	for i := 0; i < numCapIndexes; i += 3 {
		front := b.indexes[firstIndex+i : firstIndex+i+3]
		b.indexes = append(b.indexes, front[2]+1, front[1]+1, front[0]+1)
	}

	silStart := len(b.indexes)
	if makeClippedPlanes {
		if err := b.addClipSilEdges(); err != nil {
			return err
		}
	}
	if err := b.addSilEdges(codes, planes); err != nil {
		return err
	}

	b.projectToFarPlane(far, firstVert)

	b.refs = append(b.refs, indexRef{
		frontCapStart: firstIndex,
		rearCapStart:  firstIndex + numCapIndexes,
		silStart:      silStart,
		end:           len(b.indexes),
	})
	return nil
}

// clipTriangle clips a partly visible triangle to the frustum and emits the
// remains as a reversed fan, recording the clip-created edges.
func (b *builder) clipTriangle(a, c, d math.Vec3, planeBits int, planes []math.Plane) (bool, error) {
	frag, ok := clip.Triangle(a, c, d, planeBits, planes)
	if !ok {
		return false, nil
	}

	if err := b.roomForVerts(frag.NumVerts * 2); err != nil {
		return false, err
	}
	base := len(b.verts)
	for i := 0; i < frag.NumVerts; i++ {
		b.addVertPair(frag.Verts[i])
	}

	if err := b.roomForIndexes(3 * (frag.NumVerts - 2)); err != nil {
		return false, err
	}
	for i := 2; i < frag.NumVerts; i++ {
		b.indexes = append(b.indexes, base+i*2, base+(i-1)*2, base)
	}

	for i := 0; i < frag.NumVerts; i++ {
		if !frag.EdgeFlags[i] {
			continue
		}
		if len(b.clipSilEdges) >= b.opts.MaxClipSilEdges {
			return false, overflow("clip sil edge", b.opts.MaxClipSilEdges)
		}
		next := base + (i+1)*2
		if i == frag.NumVerts-1 {
			next = base
		}
		b.clipSilEdges = append(b.clipSilEdges, [2]int{base + i*2, next})
	}
	return true, nil
}

// addClipSilEdges closes the volume along the frustum sides that cut
// through casting triangles.
func (b *builder) addClipSilEdges() error {
	if err := b.roomForIndexes(len(b.clipSilEdges) * 6); err != nil {
		return err
	}
	for _, e := range b.clipSilEdges {
		v1, v2 := e[0], e[1]
		quad := QuadTriangles(v1, v2, PointsOrdered(b.verts[v1], b.verts[v2]), false)
		b.indexes = append(b.indexes, quad[:]...)
	}
	return nil
}

// addSilEdges adds a quad for every edge between a face that casts a
// shadow in this frustum and one that does not.
func (b *builder) addSilEdges(codes []cull.Code, planes []math.Plane) error {
	s := b.surf
	numTris := s.NumTriangles()

	for _, sil := range s.SilEdges {
		if sil.P1 < 0 || sil.P1 > numTris || sil.P2 < 0 || sil.P2 > numTris {
			panic(fmt.Sprintf("volume: bad sil planes %d, %d for %d triangles", sil.P1, sil.P2, numTris))
		}
		if b.faceCasts[sil.P1] == b.faceCasts[sil.P2] {
			continue
		}
		if cull.EdgeCulled(codes[sil.V1], codes[sil.V2]) {
			continue
		}

		var v1, v2 int
		if cull.EdgeClipped(codes[sil.V1], codes[sil.V2]) {
			if err := b.roomForVerts(4); err != nil {
				return err
			}
			p1, p2, ok := clip.Line(s.Verts[sil.V1], s.Verts[sil.V2], planes)
			if !ok {
				continue
			}
			v1 = b.addVertPair(p1)
			v2 = b.addVertPair(p2)
		} else {
			v1, v2 = b.remap[sil.V1], b.remap[sil.V2]
			if v1 < 0 || v2 < 0 {
				panic(fmt.Sprintf("volume: sil edge %d-%d has an unmapped vertex", sil.V1, sil.V2))
			}
		}

		if err := b.roomForIndexes(6); err != nil {
			return err
		}
		quad := QuadTriangles(v1, v2, PointsOrdered(b.verts[v1], b.verts[v2]), b.faceCasts[sil.P2])
		b.indexes = append(b.indexes, quad[:]...)
	}
	return nil
}

// projectToFarPlane fills the odd slots with the projection of the even
// ones onto the far plane.
func (b *builder) projectToFarPlane(far math.Plane, firstVert int) {
	proj := math.LightProjection(b.localOrigin, far)
	for i := firstVert; i+1 < len(b.verts); i += 2 {
		// w == 0 leaves the point where it is
		b.verts[i+1], _ = proj.Project(b.verts[i])
	}
}

// optimizeFrustum replaces the frustum's front caps with the optimizer's
// output, which carries its own rear caps and silhouette.
func (b *builder) optimizeFrustum(firstIndex, firstVert int, far math.Plane) error {
	res, err := optimize.Occluders(b.verts, b.indexes[firstIndex:], far, b.localOrigin, optimize.Options{
		Level:          b.opts.Level,
		MaxUniqueVerts: b.opts.MaxUniqueVerts,
		Logger:         b.opts.Logger,
	})
	if err != nil {
		if errors.Is(err, weld.ErrFull) || errors.Is(err, optimize.ErrTooManyTris) {
			return fmt.Errorf("%w: %w", ErrOverflow, err)
		}
		return err
	}

	b.indexes = b.indexes[:firstIndex]
	b.verts = b.verts[:firstVert]

	if len(b.indexes)+len(res.Indexes) > b.opts.MaxIndexes || len(b.verts)+len(res.Verts) > b.opts.MaxVerts {
		b.opts.Logger.Warn("Optimized shadow overflowed, discarded",
			zap.Int("verts", len(res.Verts)),
			zap.Int("indexes", len(res.Indexes)))
		return overflow("optimized", b.opts.MaxIndexes)
	}

	base := len(b.verts)
	b.verts = append(b.verts, res.Verts...)
	for _, idx := range res.Indexes {
		if idx < 0 || idx >= len(res.Verts) {
			panic(fmt.Sprintf("volume: optimized index %d out of range (%d verts)", idx, len(res.Verts)))
		}
		b.indexes = append(b.indexes, base+idx)
	}

	rear := firstIndex + res.NumFrontCapIndexes
	b.refs = append(b.refs, indexRef{
		frontCapStart: firstIndex,
		rearCapStart:  rear,
		silStart:      rear + res.NumRearCapIndexes,
		end:           len(b.indexes),
	})
	return nil
}
