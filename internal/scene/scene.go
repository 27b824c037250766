// Package scene loads the YAML scene descriptions the shadow compiler
// reads: named surfaces with an optional model transform, and the lights
// that shadow them.
package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shadowvol/pkg/light"
	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/surface"
)

// Scene errors.
var (
	ErrNoSurfaces   = errors.New("scene has no surfaces")
	ErrNoLights     = errors.New("scene has no lights")
	ErrDuplicate    = errors.New("duplicate name")
	ErrBadGeometry  = errors.New("surface needs either verts and tris or a box")
	ErrBadLightType = errors.New("unknown light type")
)

// Light types.
const (
	TypePoint     = "point"
	TypeProjected = "projected"
)

// Vec3 is a point written as a [x, y, z] sequence.
type Vec3 [3]float32

func (v Vec3) vec() math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// Rotation is an angle in degrees around an axis.
type Rotation struct {
	Axis    Vec3    `yaml:"axis"`
	Degrees float32 `yaml:"degrees"`
}

// Transform places a surface in the scene. Scale applies first, then the
// rotation, then the translation.
type Transform struct {
	Translate Vec3      `yaml:"translate"`
	Rotate    *Rotation `yaml:"rotate"`
	Scale     *Vec3     `yaml:"scale"`
}

// Matrix returns the transform as a model matrix.
func (t *Transform) Matrix() math.Mat4 {
	if t == nil {
		return math.Identity()
	}
	m := math.Translate(t.Translate[0], t.Translate[1], t.Translate[2])
	if t.Rotate != nil && t.Rotate.Degrees != 0 {
		m = m.Mul(math.RotationMat4(t.Rotate.Axis.vec(), t.Rotate.Degrees))
	}
	if t.Scale != nil {
		m = m.Mul(math.Scale(t.Scale[0], t.Scale[1], t.Scale[2]))
	}
	return m
}

// BoxDef is an axis aligned box in surface space.
type BoxDef struct {
	Min Vec3 `yaml:"min"`
	Max Vec3 `yaml:"max"`
}

// SurfaceDef is a surface as written in the scene file.
type SurfaceDef struct {
	Name      string     `yaml:"name"`
	Verts     []Vec3     `yaml:"verts,omitempty"`
	Tris      []uint32   `yaml:"tris,omitempty"`
	Box       *BoxDef    `yaml:"box,omitempty"`
	Transform *Transform `yaml:"transform,omitempty"`
}

// LightDef is a light as written in the scene file. Point lights use
// Radius and Center, projected lights Target, Right, Up, Start and End.
type LightDef struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Origin   Vec3      `yaml:"origin"`
	Rotate   *Rotation `yaml:"rotate,omitempty"`
	Optimize bool      `yaml:"optimize"`

	Radius Vec3 `yaml:"radius,omitempty"`
	Center Vec3 `yaml:"center,omitempty"`

	Target Vec3 `yaml:"target,omitempty"`
	Right  Vec3 `yaml:"right,omitempty"`
	Up     Vec3 `yaml:"up,omitempty"`
	Start  Vec3 `yaml:"start,omitempty"`
	End    Vec3 `yaml:"end,omitempty"`
}

// File is the raw scene file.
type File struct {
	Surfaces []SurfaceDef `yaml:"surfaces"`
	Lights   []LightDef   `yaml:"lights"`
}

// Surface is a prepared surface and the matrix placing it in the scene.
type Surface struct {
	Name    string
	Surface *surface.Surface
	Model   math.Mat4
}

// Scene is a loaded scene ready for compiling.
type Scene struct {
	Surfaces []Surface
	Lights   []*light.Light
}

// Parse decodes and builds a scene from YAML.
func Parse(data []byte) (*Scene, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	return f.Build()
}

// Load reads a scene file from disk.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Build validates the definitions and builds surfaces and lights.
func (f *File) Build() (*Scene, error) {
	if len(f.Surfaces) == 0 {
		return nil, ErrNoSurfaces
	}
	if len(f.Lights) == 0 {
		return nil, ErrNoLights
	}

	s := &Scene{}
	names := make(map[string]bool)

	for i, def := range f.Surfaces {
		if def.Name == "" {
			def.Name = fmt.Sprintf("surface%d", i)
		}
		if names[def.Name] {
			return nil, fmt.Errorf("%w: surface %q", ErrDuplicate, def.Name)
		}
		names[def.Name] = true

		surf, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("surface %q: %w", def.Name, err)
		}
		s.Surfaces = append(s.Surfaces, Surface{
			Name:    def.Name,
			Surface: surf,
			Model:   def.Transform.Matrix(),
		})
	}

	clear(names)
	for i, def := range f.Lights {
		if def.Name == "" {
			def.Name = fmt.Sprintf("light%d", i)
		}
		if names[def.Name] {
			return nil, fmt.Errorf("%w: light %q", ErrDuplicate, def.Name)
		}
		names[def.Name] = true

		l, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", def.Name, err)
		}
		s.Lights = append(s.Lights, l)
	}

	return s, nil
}

func (d *SurfaceDef) build() (*surface.Surface, error) {
	switch {
	case d.Box != nil && len(d.Verts) == 0:
		return surface.Box(d.Box.Min.vec(), d.Box.Max.vec()), nil
	case d.Box == nil && len(d.Verts) > 0:
		verts := make([]math.Vec3, len(d.Verts))
		for i, v := range d.Verts {
			verts[i] = v.vec()
		}
		return surface.New(verts, d.Tris)
	default:
		return nil, ErrBadGeometry
	}
}

func (d *LightDef) axis() math.Mat4 {
	if d.Rotate == nil || d.Rotate.Degrees == 0 {
		return math.Identity()
	}
	return math.RotationMat4(d.Rotate.Axis.vec(), d.Rotate.Degrees)
}

func (d *LightDef) build() (*light.Light, error) {
	var l *light.Light
	switch d.Type {
	case TypePoint, "":
		if d.Radius[0] <= 0 || d.Radius[1] <= 0 || d.Radius[2] <= 0 {
			return nil, fmt.Errorf("point light radius %v must be positive", d.Radius)
		}
		l = light.NewPoint(light.PointParams{
			Origin: d.Origin.vec(),
			Axis:   d.axis(),
			Radius: d.Radius.vec(),
			Center: d.Center.vec(),
		})
	case TypeProjected:
		if d.Target == (Vec3{}) || d.Right == (Vec3{}) || d.Up == (Vec3{}) {
			return nil, errors.New("projected light needs target, right and up")
		}
		end := d.End
		if end == (Vec3{}) {
			end = d.Target
		}
		l = light.NewProjected(light.ProjectedParams{
			Origin: d.Origin.vec(),
			Axis:   d.axis(),
			Target: d.Target.vec(),
			Right:  d.Right.vec(),
			Up:     d.Up.vec(),
			Start:  d.Start.vec(),
			End:    end.vec(),
		})
	default:
		return nil, fmt.Errorf("%w %q", ErrBadLightType, d.Type)
	}

	l.Name = d.Name
	l.Optimize = d.Optimize
	return l, nil
}

// Triangles returns the total triangle count of all surfaces.
func (s *Scene) Triangles() int {
	n := 0
	for _, surf := range s.Surfaces {
		n += surf.Surface.NumTriangles()
	}
	return n
}
