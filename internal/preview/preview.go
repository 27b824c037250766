// Package preview renders shadow volumes to PNG images for inspection.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	stdmath "math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/volume"
)

// DefaultSize is the default image width and height in pixels.
const DefaultSize = 512

// Colors for each index range. The alpha lets overlapping triangles
// show through.
var (
	Background   = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	SilColor     = color.NRGBA{R: 30, G: 80, B: 220, A: 70}
	RearCapColor = color.NRGBA{R: 220, G: 40, B: 40, A: 70}
	FrontColor   = color.NRGBA{R: 20, G: 160, B: 60, A: 110}
	TextColor    = color.RGBA{A: 255}
)

// Options configures Render.
type Options struct {
	Size int
	// Title is drawn above the legend when set.
	Title string
}

// Camera returns a view-projection matrix looking at the whole volume from
// above and to one side.
func Camera(v *volume.Volume) math.Mat4 {
	b := math.BoundsFromPoints(v.Verts)
	center := b.Center()
	radius := b.Radius()
	if radius <= 0 {
		radius = 1
	}

	dir := math.Vec3{X: 0.6, Y: -1, Z: 0.8}.Normalize()
	eye := center.Add(dir.Scale(radius * 3))
	view := math.LookAt(eye, center, math.Vec3{Z: 1})
	proj := math.Perspective(float32(stdmath.Pi/4), 1, radius*0.1, radius*5)
	return proj.Mul(view)
}

// Render draws the silhouette quads, rear caps and front caps of v.
func Render(v *volume.Volume, opts Options) (*image.RGBA, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if len(v.Verts) > 0 {
		m := Camera(v)
		screen := make([]math.Vec2, len(v.Verts))
		visible := make([]bool, len(v.Verts))
		for i, p := range v.Verts {
			screen[i], visible[i] = m.ProjectToScreen(p, size, size)
		}

		r := vector.NewRasterizer(size, size)
		fill := func(from, to int, c color.Color) {
			src := image.NewUniform(c)
			for i := from; i+2 < to; i += 3 {
				a, b, cc := v.Indexes[i], v.Indexes[i+1], v.Indexes[i+2]
				if !visible[a] || !visible[b] || !visible[cc] {
					continue
				}
				p0, p1, p2 := screen[a], screen[b], screen[cc]
				if p1.Sub(p0).Cross(p2.Sub(p0)) == 0 {
					continue
				}
				r.Reset(size, size)
				r.MoveTo(p0.X, p0.Y)
				r.LineTo(p1.X, p1.Y)
				r.LineTo(p2.X, p2.Y)
				r.ClosePath()
				r.Draw(img, img.Bounds(), src, image.Point{})
			}
		}

		fill(0, v.NumIndexesNoCaps, SilColor)
		fill(v.NumIndexesNoCaps, v.NumIndexesNoFrontCaps, RearCapColor)
		fill(v.NumIndexesNoFrontCaps, len(v.Indexes), FrontColor)
	}

	lines := []string{
		fmt.Sprintf("sil %d  rear %d  front %d",
			v.NumIndexesNoCaps/3,
			(v.NumIndexesNoFrontCaps-v.NumIndexesNoCaps)/3,
			(len(v.Indexes)-v.NumIndexesNoFrontCaps)/3),
	}
	if opts.Title != "" {
		lines = append([]string{opts.Title}, lines...)
	}
	if err := drawText(img, lines); err != nil {
		return nil, err
	}
	return img, nil
}

func drawText(img *image.RGBA, lines []string) error {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    12,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(TextColor),
		Face: face,
	}
	lineHeight := face.Metrics().Height
	y := fixed.I(4) + face.Metrics().Ascent
	for _, line := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(6), Y: y}
		d.DrawString(line)
		y += lineHeight
	}
	return nil
}

// WritePNG renders v and writes it to path.
func WritePNG(path string, v *volume.Volume, opts Options) error {
	img, err := Render(v, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
