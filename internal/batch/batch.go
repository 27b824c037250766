// Package batch compiles the shadow volumes of a whole scene, one job per
// (surface, light) pair, on a bounded pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/shadowvol/internal/logger"
	"github.com/Faultbox/shadowvol/internal/scene"
	"github.com/Faultbox/shadowvol/pkg/formats"
	"github.com/Faultbox/shadowvol/pkg/light"
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
	"github.com/Faultbox/shadowvol/pkg/shadow/volume"
	"github.com/Faultbox/shadowvol/pkg/surface"
)

// MergedName is the surface name of entries built from all scene surfaces
// merged into one.
const MergedName = "*"

// Options configures Run.
type Options struct {
	Volume  volume.Options
	Workers int
}

// Job is one surface shadowed by one light.
type Job struct {
	Surface scene.Surface
	Light   *light.Light
}

// Report summarizes a run.
type Report struct {
	Jobs     int
	Volumes  int
	Empty    int // jobs where nothing cast a shadow
	Skipped  int // jobs that overflowed
	Verts    int
	Indexes  int
	Duration time.Duration
}

// Jobs lists the work for s. From optimize.MergeSurfaces up, every light
// gets a single job with all surfaces merged in global space.
func Jobs(s *scene.Scene, level optimize.Level) ([]Job, error) {
	surfs := s.Surfaces
	if level >= optimize.MergeSurfaces && len(surfs) > 1 {
		merged, err := Merge(surfs)
		if err != nil {
			return nil, fmt.Errorf("merging surfaces: %w", err)
		}
		surfs = []scene.Surface{merged}
	}

	jobs := make([]Job, 0, len(surfs)*len(s.Lights))
	for _, l := range s.Lights {
		for _, surf := range surfs {
			jobs = append(jobs, Job{Surface: surf, Light: l})
		}
	}
	return jobs, nil
}

// Merge moves every surface into global space and joins them into one.
func Merge(surfs []scene.Surface) (scene.Surface, error) {
	var verts []math.Vec3
	var indexes []uint32
	for _, s := range surfs {
		base := uint32(len(verts))
		for _, v := range s.Surface.Verts {
			verts = append(verts, s.Model.TransformVec3(v))
		}
		for _, idx := range s.Surface.Indexes {
			indexes = append(indexes, base+idx)
		}
	}

	merged, err := surface.New(verts, indexes)
	if err != nil {
		return scene.Surface{}, err
	}
	return scene.Surface{Name: MergedName, Surface: merged, Model: math.Identity()}, nil
}

// Run compiles every job of s and collects the volumes in job order. Jobs
// that overflow are logged and skipped. Other job errors are combined into
// the returned error; the file holds whatever succeeded.
func Run(ctx context.Context, s *scene.Scene, opts Options) (*formats.SHV, *Report, error) {
	start := time.Now()

	jobs, err := Jobs(s, opts.Volume.Level)
	if err != nil {
		return nil, nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]*volume.Volume, len(jobs))
	report := &Report{Jobs: len(jobs)}

	var (
		mu   sync.Mutex
		errs error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			v, err := compile(job, opts.Volume)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, volume.ErrOverflow):
				report.Skipped++
			case err != nil:
				errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", job.Surface.Name, job.Light.Name, err))
			case v == nil:
				report.Empty++
			default:
				results[i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}

	shv := &formats.SHV{
		Version: formats.SHVVersion{Major: formats.SHVVersionMajor, Minor: formats.SHVVersionMinor},
	}
	for i, v := range results {
		if v == nil {
			continue
		}
		shv.Entries = append(shv.Entries, formats.SHVEntry{
			Surface: jobs[i].Surface.Name,
			Light:   jobs[i].Light.Name,
			Volume:  v,
		})
	}
	report.Volumes = len(shv.Entries)
	report.Verts, report.Indexes = shv.Stats()
	report.Duration = time.Since(start)

	logger.Info("Compiled shadow volumes",
		zap.Int("jobs", report.Jobs),
		zap.Int("volumes", report.Volumes),
		zap.Int("empty", report.Empty),
		zap.Int("skipped", report.Skipped),
		zap.Int("indexes", report.Indexes),
		zap.Duration("took", report.Duration))

	return shv, report, errs
}

func compile(job Job, opts volume.Options) (*volume.Volume, error) {
	log := logger.Job(job.Surface.Name, job.Light.Name)
	opts.Logger = log

	v, err := volume.Create(volume.Input{
		Surface: job.Surface.Surface,
		Model:   job.Surface.Model,
		Light:   job.Light,
	}, opts)
	if errors.Is(err, volume.ErrOverflow) {
		log.Warn("Shadow volume overflowed, skipping", zap.Error(err))
	}
	return v, err
}
