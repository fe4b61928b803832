package canvas

import (
	"image/color"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

var orange = color.NRGBA{R: 255, G: 102, B: 0, A: 255}

func alphaAt(c *Canvas, x, y int) uint8 {
	return c.Image().RGBAAt(x, y).A
}

func TestNewClampsSize(t *testing.T) {
	c := New(0, -5)
	w, h := c.Size()
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)
}

func TestStrokeHorizontalLine(t *testing.T) {
	c := New(64, 32)
	c.Stroke(orb.LineString{{4, 16}, {60, 16}}, orange, 2)

	require.Greater(t, alphaAt(c, 32, 16), uint8(200), "on the line")
	require.Greater(t, alphaAt(c, 32, 15), uint8(200))
	require.Zero(t, alphaAt(c, 32, 5), "far from the line")
	require.Zero(t, alphaAt(c, 32, 28))

	px := c.Image().RGBAAt(32, 16)
	require.Greater(t, px.R, px.B)
}

func TestStrokeJointNotDoubleBlended(t *testing.T) {
	c := New(64, 64)
	half := color.NRGBA{R: 0, G: 0, B: 0, A: 128}
	c.Stroke(orb.LineString{{4, 32}, {32, 32}, {60, 32}}, half, 4)

	joint := alphaAt(c, 32, 32)
	mid := alphaAt(c, 16, 32)
	require.InDelta(t, float64(mid), float64(joint), 2)
}

func TestStrokeOffCanvasIsIgnored(t *testing.T) {
	c := New(32, 32)
	c.Stroke(orb.LineString{{-500, -500}, {-400, -450}}, orange, 3)
	c.Stroke(orb.LineString{{1000, 5}, {2000, 5}}, orange, 3)
	c.Stroke(orb.LineString{{5, 5}}, orange, 3)
	c.Stroke(orb.LineString{{5, 5}, {25, 5}}, color.NRGBA{}, 3)

	for _, v := range c.Image().Pix {
		require.Zero(t, v)
	}
}

func TestStrokePartiallyOutside(t *testing.T) {
	c := New(32, 32)
	c.Stroke(orb.LineString{{-100, 10}, {100, 10}}, orange, 2)
	require.Greater(t, alphaAt(c, 0, 10), uint8(100))
	require.Greater(t, alphaAt(c, 31, 10), uint8(100))
}

func TestSaveRestoreTransform(t *testing.T) {
	c := New(10, 10)
	before := c.Transform()

	c.Save()
	c.RotateAbout(5, 5, 0.3)
	c.Translate(2, 3)
	require.NotEqual(t, before, c.Transform())
	c.Restore()

	require.Equal(t, before, c.Transform())
	c.Restore() // unbalanced restore is a no-op
	require.Equal(t, before, c.Transform())
}

func TestRotateAboutKeepsCenter(t *testing.T) {
	c := New(100, 100)
	c.RotateAbout(50, 40, -0.087)
	p := c.Apply(orb.Point{50, 40})
	require.InDelta(t, 50, p[0], 1e-9)
	require.InDelta(t, 40, p[1], 1e-9)

	q := c.Apply(orb.Point{60, 40})
	require.InDelta(t, 50+10*math.Cos(-0.087), q[0], 1e-9)
	require.InDelta(t, 40+10*math.Sin(-0.087), q[1], 1e-9)
}

func TestScaledCanvas(t *testing.T) {
	c := NewScaled(20, 10, 0.1)
	p := c.Apply(orb.Point{100, 50})
	require.InDelta(t, 10, p[0], 1e-9)
	require.InDelta(t, 5, p[1], 1e-9)

	c.Stroke(orb.LineString{{0, 50}, {200, 50}}, orange, 1)
	require.NotZero(t, alphaAt(c, 10, 5), "hairline stays visible when downscaled")
}

func TestClearAndFill(t *testing.T) {
	c := New(8, 8)
	c.Fill(color.NRGBA{R: 245, G: 245, B: 245, A: 255})
	require.Equal(t, color.RGBA{R: 245, G: 245, B: 245, A: 255}, c.Image().RGBAAt(3, 3))

	c.Save()
	c.Clear()
	require.Zero(t, alphaAt(c, 3, 3))
	c.Restore()
	require.Equal(t, identity, c.Transform())
}

func TestResize(t *testing.T) {
	c := New(10, 10)
	c.Resize(30, 20)
	w, h := c.Size()
	require.Equal(t, 30, w)
	require.Equal(t, 20, h)
}
