// Package host holds what the interactive hosts share: a simulated page
// whose height follows the viewport and which can expand like a "show more"
// section, driving the scroll state of a render session.
package host

import (
	"math"

	"github.com/MeKo-Tech/contourbg/internal/render"
)

// Page simulates the scrollable document behind the background.
type Page struct {
	session  *render.Session
	screens  float64
	extra    float64
	expanded bool
}

// NewPage measures the page for the session's current viewport. screens is
// the page height in viewport heights; extra is added while expanded.
func NewPage(s *render.Session, screens, extra float64) *Page {
	p := &Page{session: s, screens: math.Max(1, screens), extra: math.Max(0, extra)}
	p.Recompute()
	return p
}

// Session returns the driven session.
func (p *Page) Session() *render.Session { return p.session }

// Expanded reports whether the extra section is open.
func (p *Page) Expanded() bool { return p.expanded }

// ContentHeight is the page height for the current viewport.
func (p *Page) ContentHeight() float64 {
	screens := p.screens
	if p.expanded {
		screens += p.extra
	}
	return screens * p.session.Viewport().Height
}

// Recompute re-measures the page after a layout change and keeps the scroll
// offset inside it.
func (p *Page) Recompute() {
	p.session.SetContentHeight(p.ContentHeight())
	p.clamp()
}

// ToggleMore opens or closes the extra section.
func (p *Page) ToggleMore() {
	p.expanded = !p.expanded
	p.Recompute()
}

// Resize applies a new viewport and re-measures the page.
func (p *Page) Resize(width, height float64) {
	p.session.Resize(width, height)
	p.Recompute()
}

// ScrollBy moves the offset by dy, clamped to the page.
func (p *Page) ScrollBy(dy float64) {
	p.session.ScrollTo(p.session.Tracker().Offset() + dy)
	p.clamp()
}

// PageDown scrolls by most of a viewport; negative n scrolls up.
func (p *Page) PageDown(n float64) {
	p.ScrollBy(n * p.session.Viewport().Height * 0.9)
}

// Top scrolls to the start of the page.
func (p *Page) Top() { p.session.ScrollTo(0) }

// Bottom scrolls to the end of the page.
func (p *Page) Bottom() { p.session.ScrollTo(p.session.Tracker().Target()) }

func (p *Page) clamp() {
	t := p.session.Tracker()
	p.session.ScrollTo(math.Max(0, math.Min(t.Offset(), t.Target())))
}
