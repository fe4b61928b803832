package render

import (
	"math"
	"math/rand"

	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/scroll"
	"github.com/MeKo-Tech/contourbg/internal/terrain"
)

// Session is the mutable state of one running background: viewport, scroll
// tracker, animation clock and the terrain seeds behind the renderer. A
// session is driven from a single goroutine; event handlers and Tick must not
// run concurrently.
type Session struct {
	renderer *Renderer
	seeds    terrain.Seeds
	tracker  *scroll.Tracker
	viewport Viewport
	clock    float64
}

// NewSession creates a session with seeds drawn from rng.
func NewSession(p profile.Profile, vp Viewport, rng *rand.Rand) (*Session, error) {
	seeds := terrain.NewSeeds(rng)
	r, err := NewRenderer(p, p.NewSource(seeds))
	if err != nil {
		return nil, err
	}
	vp = sanitizeViewport(vp)
	return &Session{
		renderer: r,
		seeds:    seeds,
		tracker:  scroll.NewTracker(p.ScrollConfig(), vp.Height),
		viewport: vp,
	}, nil
}

// Renderer returns the shared, immutable renderer.
func (s *Session) Renderer() *Renderer { return s.renderer }

// Seeds returns the terrain seeds of the session.
func (s *Session) Seeds() terrain.Seeds { return s.seeds }

// Viewport returns the current viewport.
func (s *Session) Viewport() Viewport { return s.viewport }

// Clock returns the animation clock.
func (s *Session) Clock() float64 { return s.clock }

// Tracker exposes the scroll tracker.
func (s *Session) Tracker() *scroll.Tracker { return s.tracker }

// Resize handles a viewport resize.
func (s *Session) Resize(width, height float64) {
	s.viewport = sanitizeViewport(Viewport{Width: width, Height: height})
	s.tracker.Resize(s.viewport.Height)
}

// ScrollTo handles a scroll event.
func (s *Session) ScrollTo(offset float64) { s.tracker.ScrollTo(offset) }

// Recompute is the hook for layout changes (content loaded, sections
// expanded): it re-measures the document extent from body and document
// heights.
func (s *Session) Recompute(bodyHeight, documentHeight float64) {
	s.tracker.Recompute(bodyHeight, documentHeight)
}

// Remeasure applies a layout change observed together with the current
// scroll position, as browsers report both after a reflow.
func (s *Session) Remeasure(bodyHeight, documentHeight, offset float64) {
	s.tracker.Recompute(bodyHeight, documentHeight)
	s.tracker.ScrollTo(offset)
}

// SetContentHeight is Recompute for hosts that know a single content height.
func (s *Session) SetContentHeight(h float64) { s.Recompute(h, h) }

// Percentage is the read accessor for the altimeter.
func (s *Session) Percentage() float64 { return s.tracker.Percentage() }

// Snapshot returns the frame for the current state without advancing it.
func (s *Session) Snapshot() Frame {
	return Frame{
		Viewport:     s.viewport,
		ScrollOffset: s.tracker.Offset(),
		Extent:       s.tracker.Extent(),
		Clock:        s.clock,
	}
}

// Advance moves the session one frame forward (clock step and extent
// easing) and returns the frame to draw.
func (s *Session) Advance() Frame {
	s.clock += s.renderer.profile.ClockStep
	s.tracker.Ease()
	return s.Snapshot()
}

// Tick advances the session and draws the new frame onto dst. Hosts call it
// once per display refresh.
func (s *Session) Tick(dst Surface) Stats {
	return s.renderer.Draw(dst, s.Advance())
}

func sanitizeViewport(vp Viewport) Viewport {
	if !(vp.Width >= 1) || math.IsInf(vp.Width, 0) {
		vp.Width = 1
	}
	if !(vp.Height >= 1) || math.IsInf(vp.Height, 0) {
		vp.Height = 1
	}
	return vp
}
