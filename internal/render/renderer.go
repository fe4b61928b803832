// Package render draws the contour background: it scans candidate line
// positions, asks the density profile how far apart and how opaque they are,
// samples the height field along each line and strokes the result.
package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/MeKo-Tech/contourbg/internal/density"
	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/scroll"
	"github.com/MeKo-Tech/contourbg/internal/terrain"
	"github.com/paulmach/orb"
)

// minSampleStep keeps the horizontal sampling loop finite for degenerate
// profiles.
const minSampleStep = 1.0

// maxLeadSteps is how many scan steps are walked exactly above the visible
// band. Deeper scans jump to the band on a lattice of the local spacing.
const maxLeadSteps = 4096

// Surface is the drawing target of a frame. *canvas.Canvas implements it.
type Surface interface {
	Clear()
	Fill(col color.NRGBA)
	Save()
	Restore()
	RotateAbout(cx, cy, theta float64)
	Stroke(ls orb.LineString, col color.NRGBA, width float64)
}

// Viewport is the visible window size in device-independent pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Pixels returns the raster size of the viewport at a device pixel ratio.
// Both dimensions are at least 1.
func (v Viewport) Pixels(scale float64) (w, h int) {
	if !(scale > 0) {
		scale = 1
	}
	w = int(math.Ceil(v.Width * scale))
	h = int(math.Ceil(v.Height * scale))
	return max(1, w), max(1, h)
}

// Frame is everything needed to draw one frame.
type Frame struct {
	Viewport     Viewport
	ScrollOffset float64
	Extent       float64
	Clock        float64
}

// Percentage returns the clamped scroll percentage of the frame.
func (f Frame) Percentage() float64 { return scroll.Percentage(f.ScrollOffset, f.Extent) }

// Clamped returns f with a finite, non-negative extent and clock and the
// scroll offset limited to [0, Extent].
func (f Frame) Clamped() Frame {
	if !finite(f.Extent) || f.Extent < 0 {
		f.Extent = 0
	}
	if !finite(f.Clock) {
		f.Clock = 0
	}
	switch {
	case !(f.ScrollOffset > 0):
		f.ScrollOffset = 0
	case f.ScrollOffset > f.Extent:
		f.ScrollOffset = f.Extent
	}
	return f
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Stats counts the work done for one frame.
type Stats struct {
	Iterations int // scan steps over all families
	Lines      int // stroked contour lines
	Skipped    int // scan steps that produced no line
	Samples    int // height-field evaluations
	GridLines  int
}

type family struct {
	name  string
	color color.NRGBA
	width float64
	alpha float64
}

// Renderer is the immutable part of a render session. It is safe for
// concurrent use by multiple goroutines drawing onto different surfaces.
type Renderer struct {
	profile    profile.Profile
	field      terrain.Source
	density    *density.Profile
	background color.NRGBA
	grid       color.NRGBA
	families   []family
}

// NewRenderer validates p and prepares colours and policies.
func NewRenderer(p profile.Profile, field terrain.Source) (*Renderer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if field == nil {
		return nil, fmt.Errorf("height source is required")
	}

	bg, _ := profile.ParseHex(p.Background)
	gridCol, _ := profile.ParseHex(p.Grid.Color)

	r := &Renderer{
		profile:    p,
		field:      field,
		density:    density.New(p.DensityConfig()),
		background: bg,
		grid:       profile.WithAlpha(gridCol, p.Grid.Alpha),
	}
	for _, f := range p.Families {
		c, _ := profile.ParseHex(f.Color)
		r.families = append(r.families, family{name: f.Name, color: c, width: f.Width, alpha: f.Alpha})
	}
	return r, nil
}

// Profile returns the profile the renderer was built with.
func (r *Renderer) Profile() profile.Profile { return r.profile }

// Density returns the spacing policy.
func (r *Renderer) Density() *density.Profile { return r.density }

// Field returns the height source.
func (r *Renderer) Field() terrain.Source { return r.field }

// Draw renders f onto dst. The scroll offset is clamped to the frame extent
// first, and the work per family never exceeds ScanBudget.
func (r *Renderer) Draw(dst Surface, f Frame) Stats {
	var st Stats
	f = f.Clamped()
	p := r.profile
	vp := f.Viewport
	cx, cy := vp.Width/2, vp.Height/2

	dst.Clear()
	if p.FillBackground {
		dst.Fill(r.background)
	}

	dst.Save()
	dst.RotateAbout(cx, cy, p.Rotation)
	for _, fam := range r.families {
		r.drawFamily(dst, f, fam, &st)
	}
	dst.Restore()

	dst.Save()
	dst.RotateAbout(cx, cy, p.Rotation)
	r.drawGrid(dst, f, &st)
	dst.Restore()

	return st
}

func (r *Renderer) drawFamily(dst Surface, f Frame, fam family, st *Stats) {
	p := r.profile
	vp := f.Viewport
	scrollY := f.ScrollOffset
	view := density.View{
		ViewportHeight: vp.Height,
		Extent:         f.Extent,
		ScrollPercent:  f.Percentage(),
	}
	floor := r.density.Floor()

	relY := r.ScanStart(f)
	top := -r.scanLead()
	for i := 0; relY < top; i++ {
		if i == maxLeadSteps {
			s := r.density.SpacingAt(top+scrollY, view)
			relY = top - math.Mod(top-relY, s)
			break
		}
		st.Iterations++
		st.Skipped++
		relY += math.Max(floor, r.density.SpacingAt(relY+scrollY, view))
	}

	end := vp.Height + p.Scan.Bottom
	limit := density.MaxIterations(end-top+r.density.Ceiling(), floor)
	for i := 0; relY < end && i < limit; i++ {
		st.Iterations++
		spacing := r.density.SpacingAt(relY+scrollY, view)
		alpha := r.density.AlphaAt(spacing)

		if alpha > 0 && r.inDrawBand(relY, vp) {
			col := profile.WithAlpha(fam.color, fam.alpha*alpha)
			line := r.ContourLine(f, relY)
			st.Samples += len(line)
			dst.Stroke(line, col, fam.width)
			st.Lines++
		} else {
			st.Skipped++
		}

		relY += math.Max(floor, spacing)
	}
}

// ScanStart returns the first viewport-relative scan position of a frame.
func (r *Renderer) ScanStart(f Frame) float64 {
	s := r.profile.Scan
	return -s.Top - f.ScrollOffset*s.VerticalParallax
}

// scanLead is the distance above the viewport from which lines can reach
// the visible band.
func (r *Renderer) scanLead() float64 {
	s := r.profile.Scan
	return math.Max(s.Top, s.DrawBand) + r.density.Ceiling()
}

// ScanBudget is the most scan steps one family takes for a viewport,
// whatever the scroll offset and document extent.
func (r *Renderer) ScanBudget(vp Viewport) int {
	span := vp.Height + r.profile.Scan.Bottom + r.scanLead() + r.density.Ceiling()
	return maxLeadSteps + density.MaxIterations(span, r.density.Floor())
}

func (r *Renderer) inDrawBand(relY float64, vp Viewport) bool {
	band := r.profile.Scan.DrawBand
	if band <= 0 {
		return true
	}
	return relY > -band && relY < vp.Height+band
}

// ContourLine samples the height field along one scan line at viewport
// position relY and returns the displaced polyline in user space.
func (r *Renderer) ContourLine(f Frame, relY float64) orb.LineString {
	p := r.profile
	step := p.Scan.SampleStep
	if !(step >= minSampleStep) {
		step = minSampleStep
	}
	xMin := -p.Scan.HMargin
	xMax := f.Viewport.Width + p.Scan.HMargin

	drift := f.Clock * p.Noise.Drift
	noiseY := relY*p.Noise.Scale + drift + f.ScrollOffset*p.Noise.ScrollFactor

	n := int(math.Ceil((xMax-xMin)/step)) + 1
	if n < 0 {
		n = 0
	}
	line := make(orb.LineString, 0, n)
	for x := xMin; x < xMax; x += step {
		noiseX := x*p.Noise.Scale - drift
		wave := r.field.Height(noiseX, noiseY, f.Clock)
		if math.IsNaN(wave) || math.IsInf(wave, 0) {
			wave = 0
		}
		line = append(line, orb.Point{x, relY + wave})
	}
	return line
}

func (r *Renderer) drawGrid(dst Surface, f Frame, st *Stats) {
	g := r.profile.Grid
	if r.grid.A == 0 {
		return
	}
	vp := f.Viewport
	offset := -math.Mod(f.ScrollOffset*g.Parallax, g.Pitch)
	if math.IsNaN(offset) {
		offset = 0
	}
	top := -g.Margin + offset
	bottom := vp.Height + g.Margin + offset
	for x := -g.Margin; x < vp.Width+g.Margin; x += g.Pitch {
		dst.Stroke(orb.LineString{{x, top}, {x, bottom}}, r.grid, 1)
		st.GridLines++
	}
}
