// Package canvas is the raster drawing surface of the contour renderer: an
// RGBA image with a save/restore affine transform stack and anti-aliased
// polyline stroking.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Canvas draws into an *image.RGBA.
type Canvas struct {
	img   *image.RGBA
	ras   *vector.Rasterizer
	base  f64.Aff3
	m     f64.Aff3
	stack []f64.Aff3
}

// New creates a w×h canvas. Non-positive sizes are clamped to 1.
func New(w, h int) *Canvas {
	c := &Canvas{base: identity, m: identity}
	c.Resize(w, h)
	return c
}

// NewScaled creates a w×h canvas whose user space is scaled by s, so that a
// large virtual viewport can be drawn onto a small raster.
func NewScaled(w, h int, s float64) *Canvas {
	c := New(w, h)
	c.base = f64.Aff3{s, 0, 0, 0, s, 0}
	c.m = c.base
	return c
}

// Resize reallocates the backing image. The transform stack is reset.
func (c *Canvas) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if c.img != nil && c.img.Bounds().Dx() == w && c.img.Bounds().Dy() == h {
		return
	}
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	c.ras = vector.NewRasterizer(w, h)
	c.m = c.base
	c.stack = c.stack[:0]
}

// Size returns the raster size in pixels.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the backing image. It is overwritten by later draws.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Clear resets every pixel to transparent and drops pending transforms.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
	c.m = c.base
	c.stack = c.stack[:0]
}

// Fill paints the whole raster with col, ignoring the transform.
func (c *Canvas) Fill(col color.NRGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Over)
}

// Save pushes the current transform.
func (c *Canvas) Save() {
	c.stack = append(c.stack, c.m)
}

// Restore pops the transform pushed by the matching Save.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.m = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Translate moves the origin of user space.
func (c *Canvas) Translate(tx, ty float64) {
	c.m = mul(c.m, f64.Aff3{1, 0, tx, 0, 1, ty})
}

// Rotate rotates user space by theta radians (clockwise on screen for
// positive theta, as y points down).
func (c *Canvas) Rotate(theta float64) {
	sin, cos := math.Sincos(theta)
	c.m = mul(c.m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// Scale scales user space.
func (c *Canvas) Scale(sx, sy float64) {
	c.m = mul(c.m, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// RotateAbout rotates user space by theta around (cx, cy).
func (c *Canvas) RotateAbout(cx, cy, theta float64) {
	c.Translate(cx, cy)
	c.Rotate(theta)
	c.Translate(-cx, -cy)
}

// Transform returns the current user-to-device matrix.
func (c *Canvas) Transform() f64.Aff3 { return c.m }

// Apply maps a user-space point to device space.
func (c *Canvas) Apply(p orb.Point) orb.Point {
	return apply(c.m, p)
}

// Stroke draws ls with the given colour and line width (user-space units).
// Each segment becomes a quad; all quads of the polyline share one
// rasterizer pass so overlapping joints are not blended twice.
func (c *Canvas) Stroke(ls orb.LineString, col color.NRGBA, width float64) {
	if len(ls) < 2 || col.A == 0 || !(width > 0) {
		return
	}

	w, h := c.Size()
	scale := math.Sqrt(math.Abs(c.m[0]*c.m[4] - c.m[1]*c.m[3]))
	half := width * scale / 2
	if half < 0.35 {
		// keep hairlines visible after downscaling
		half = 0.35
	}
	clip := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{float64(w), float64(h)}}.Pad(half + 1)

	c.ras.Reset(w, h)
	drawn := false
	prev := apply(c.m, ls[0])
	for i := 1; i < len(ls); i++ {
		next := apply(c.m, ls[i])
		seg := orb.LineString{prev, next}
		if clip.Intersects(seg.Bound()) && c.addSegment(prev, next, half) {
			drawn = true
		}
		prev = next
	}
	if !drawn {
		return
	}
	c.ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

func (c *Canvas) addSegment(a, b orb.Point, half float64) bool {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	l := math.Hypot(dx, dy)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return false
	}
	nx := -dy / l * half
	ny := dx / l * half
	// extend along the segment so consecutive quads overlap at the joint
	ex := dx / l * half
	ey := dy / l * half

	c.ras.MoveTo(float32(a[0]-ex+nx), float32(a[1]-ey+ny))
	c.ras.LineTo(float32(b[0]+ex+nx), float32(b[1]+ey+ny))
	c.ras.LineTo(float32(b[0]+ex-nx), float32(b[1]+ey-ny))
	c.ras.LineTo(float32(a[0]-ex-nx), float32(a[1]-ey-ny))
	c.ras.ClosePath()
	return true
}

func apply(m f64.Aff3, p orb.Point) orb.Point {
	return orb.Point{
		m[0]*p[0] + m[1]*p[1] + m[2],
		m[3]*p[0] + m[4]*p[1] + m[5],
	}
}

// mul returns a·b, i.e. b is applied first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
