// Package optimize reduces the triangle count of a shadow volume offline.
//
// Occluders clips the shadow casting triangles of one light frustum against
// each other so only the surfaces closest to the light remain, merges the
// result into as few triangles as possible and rebuilds the silhouette,
// cancelling sil quads that overlap with opposite facing.
package optimize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/silhouette"
	"github.com/Faultbox/shadowvol/pkg/shadow/weld"
)

// DefaultMaxTris is the default limit on visible occluder fragments.
const DefaultMaxTris = 32768

// ErrTooManyTris is returned when clipping produces more fragments or sil
// quads than the configured limit.
var ErrTooManyTris = errors.New("optimize: too many triangles")

// Options configures Occluders.
type Options struct {
	Level          Level
	MaxTris        int
	MaxUniqueVerts int
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxTris <= 0 {
		o.MaxTris = DefaultMaxTris
	}
	if o.MaxUniqueVerts <= 0 {
		o.MaxUniqueVerts = weld.DefaultLimit
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Stats records what the optimizer did to one frustum.
type Stats struct {
	Triangles    int // input triangles
	Removed      int // completely hidden
	Complete     int // completely visible
	Fragmented   int // partly hidden
	Fragments    int // triangles left after clipping
	Merged       int // triangles left after coplanar merging
	SilEdges     int
	SilPlanes    int
	SilQuads     int
	MatchedQuads int
	BadFractions int
}

// Result is an optimized shadow volume in global space. Indexes hold the
// front caps, then the rear caps, then the silhouette triangles.
type Result struct {
	Verts              []math.Vec3
	Indexes            []int
	NumFrontCapIndexes int
	NumRearCapIndexes  int
	Stats              Stats
}

// NumSilIndexes returns the number of silhouette indexes.
func (r *Result) NumSilIndexes() int {
	return len(r.Indexes) - r.NumFrontCapIndexes - r.NumRearCapIndexes
}

type optimizer struct {
	opts   Options
	origin math.Vec3
	stats  Stats

	planes    planeTable
	occluders []occTri

	table               *weld.Table
	numBeforeProjection int
	capTris             [][3]int

	silEdges  []silhouette.Edge
	silPlanes []silPlane
	silTris   [][3]int
}

// Occluders optimizes one frustum worth of shadow casting triangles.
// frontCapIndexes index verts with the reversed winding emitted for front
// caps. far is the plane the rear caps are projected onto.
func Occluders(verts []math.Vec3, frontCapIndexes []int, far math.Plane, origin math.Vec3, opts Options) (*Result, error) {
	o := &optimizer{opts: opts.withDefaults(), origin: origin}
	log := o.opts.Logger

	if len(frontCapIndexes)%3 != 0 {
		return nil, fmt.Errorf("optimize: %d indexes is not a multiple of 3", len(frontCapIndexes))
	}

	if err := o.clipOccluders(verts, frontCapIndexes); err != nil {
		return nil, err
	}
	log.Debug("Clipped occluders",
		zap.Int("triangles", o.stats.Triangles),
		zap.Int("removed", o.stats.Removed),
		zap.Int("complete", o.stats.Complete),
		zap.Int("fragmented", o.stats.Fragmented),
		zap.Int("fragments", o.stats.Fragments))

	if err := o.uniqueVerts(); err != nil {
		return nil, err
	}
	o.mergeOccluders()

	o.silEdges = silhouette.Unmatched(o.capTris)
	o.stats.SilEdges = len(o.silEdges)

	if err := o.projectUniqued(far); err != nil {
		return nil, err
	}

	if o.opts.Level >= ClipSils {
		if err := o.fragmentSilQuads(); err != nil {
			return nil, err
		}
		o.emitFragmentedSilQuads()
	} else {
		o.emitUnoptimizedSilEdges()
	}

	res := o.result()
	log.Debug("Optimized shadow",
		zap.Int("merged", o.stats.Merged),
		zap.Int("silEdges", o.stats.SilEdges),
		zap.Int("silPlanes", o.stats.SilPlanes),
		zap.Int("silQuads", o.stats.SilQuads),
		zap.Int("matchedQuads", o.stats.MatchedQuads),
		zap.Int("verts", len(res.Verts)),
		zap.Int("indexes", len(res.Indexes)))
	return res, nil
}

// uniqueVerts welds the fragment corners into the shared table.
func (o *optimizer) uniqueVerts() error {
	o.table = weld.NewTable(o.opts.MaxUniqueVerts)
	o.capTris = make([][3]int, 0, len(o.occluders))
	for _, t := range o.occluders {
		var tri [3]int
		for j, v := range t.v {
			idx, err := o.table.Find(v)
			if err != nil {
				return err
			}
			tri[j] = idx
		}
		o.capTris = append(o.capTris, tri)
	}
	return nil
}

// mergeOccluders combines coplanar fragments of the same source plane.
func (o *optimizer) mergeOccluders() {
	if o.opts.Level < CullOccluded {
		o.stats.Merged = len(o.capTris)
		return
	}

	byGroup := make(map[int][][3]int)
	var order []int
	for i, t := range o.capTris {
		g := o.occluders[i].group
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], t)
	}

	m := &merger{verts: o.table.Verts, usage: countUsage(o.table.Len(), o.capTris)}
	merged := make([][3]int, 0, len(o.capTris))
	for _, g := range order {
		m.normal = o.planes.planes[g].Normal
		merged = append(merged, m.merge(byGroup[g])...)
	}
	o.capTris = merged
	o.stats.Merged = len(merged)
}

// projectUniqued appends the far plane projection of every welded vertex,
// so vertex i projects to i+numBeforeProjection.
func (o *optimizer) projectUniqued(far math.Plane) error {
	// light-centered space puts the origin at zero
	local := math.Plane{Normal: far.Normal, D: far.Distance(o.origin)}
	proj := math.LightProjection(math.Vec3{}, local)

	o.numBeforeProjection = o.table.Len()
	for i := 0; i < o.numBeforeProjection; i++ {
		p, ok := proj.Project(o.table.Verts[i])
		if !ok {
			p = o.table.Verts[i]
		}
		if _, err := o.table.Append(p); err != nil {
			return err
		}
	}
	return nil
}

func (o *optimizer) result() *Result {
	n := o.numBeforeProjection
	res := &Result{
		Verts:   make([]math.Vec3, o.table.Len()),
		Indexes: make([]int, 0, len(o.capTris)*6+len(o.silTris)*3),
		Stats:   o.stats,
	}
	for i, v := range o.table.Verts {
		res.Verts[i] = v.Add(o.origin)
	}
	for _, t := range o.capTris {
		res.Indexes = append(res.Indexes, t[2], t[1], t[0])
	}
	for _, t := range o.capTris {
		res.Indexes = append(res.Indexes, t[0]+n, t[1]+n, t[2]+n)
	}
	res.NumFrontCapIndexes = len(o.capTris) * 3
	res.NumRearCapIndexes = len(o.capTris) * 3
	for _, t := range o.silTris {
		res.Indexes = append(res.Indexes, t[0], t[1], t[2])
	}
	return res
}
