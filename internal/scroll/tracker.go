// Package scroll tracks the scroll offset and scrollable document extent of a
// page and derives the normalized scroll percentage from them.
package scroll

import "math"

const (
	// DefaultDamping is the per-frame easing factor applied to extent changes.
	DefaultDamping = 0.05
	// DefaultSnapThreshold is the distance (px) under which easing snaps to the target.
	DefaultSnapThreshold = 1.0
)

// Config controls how extent changes are applied.
type Config struct {
	// Eased enables exponential smoothing of extent changes. When false every
	// recompute is applied instantly.
	Eased         bool
	Damping       float64
	SnapThreshold float64
}

// DefaultConfig returns the eased configuration.
func DefaultConfig() Config {
	return Config{Eased: true, Damping: DefaultDamping, SnapThreshold: DefaultSnapThreshold}
}

// Tracker holds the scroll state of one render session.
type Tracker struct {
	cfg Config

	offset         float64
	extent         float64
	target         float64
	viewportHeight float64
	measured       bool

	lastBody float64
	lastDoc  float64
}

// NewTracker creates a tracker for a viewport of the given height.
func NewTracker(cfg Config, viewportHeight float64) *Tracker {
	if !(cfg.Damping > 0) || cfg.Damping > 1 {
		cfg.Damping = DefaultDamping
	}
	if !(cfg.SnapThreshold >= 0) {
		cfg.SnapThreshold = DefaultSnapThreshold
	}
	return &Tracker{cfg: cfg, viewportHeight: math.Max(0, viewportHeight)}
}

// Percentage returns clamp(offset/extent, 0, 1), or 0 when extent is not
// positive.
func Percentage(offset, extent float64) float64 {
	if !(extent > 0) || math.IsNaN(offset) {
		return 0
	}
	return clamp01(offset / extent)
}

// ScrollTo records the raw vertical scroll offset.
func (t *Tracker) ScrollTo(offset float64) {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return
	}
	t.offset = offset
}

// Resize records a new viewport height and re-derives the target extent from
// the last measured content height.
func (t *Tracker) Resize(viewportHeight float64) {
	t.viewportHeight = math.Max(0, viewportHeight)
	if t.measured {
		t.Recompute(t.lastBody, t.lastDoc)
	}
}

// Recompute sets the target extent from the measured body and document
// heights: max(body, doc) - viewportHeight, floored at 0. The first
// measurement is applied instantly; later ones are eased by Ease when the
// tracker is configured for it.
func (t *Tracker) Recompute(bodyHeight, documentHeight float64) {
	t.lastBody, t.lastDoc = bodyHeight, documentHeight

	content := math.Max(bodyHeight, documentHeight)
	target := content - t.viewportHeight
	if !(target > 0) {
		target = 0
	}
	t.target = target

	if !t.measured || !t.cfg.Eased {
		t.extent = target
	}
	t.measured = true
}

// Ease moves the extent one smoothing step toward the target.
func (t *Tracker) Ease() {
	d := t.target - t.extent
	if math.Abs(d) > t.cfg.SnapThreshold {
		t.extent += d * t.cfg.Damping
	} else {
		t.extent = t.target
	}
	if t.extent < 0 {
		t.extent = 0
	}
}

// Settled reports whether the extent has reached its target.
func (t *Tracker) Settled() bool { return t.extent == t.target }

// Percentage returns the normalized scroll percentage in [0,1].
func (t *Tracker) Percentage() float64 { return Percentage(t.offset, t.extent) }

// Offset returns the raw scroll offset.
func (t *Tracker) Offset() float64 { return t.offset }

// Extent returns the current (eased) document extent.
func (t *Tracker) Extent() float64 { return t.extent }

// Target returns the extent the tracker is easing toward.
func (t *Tracker) Target() float64 { return t.target }

// ViewportHeight returns the last recorded viewport height.
func (t *Tracker) ViewportHeight() float64 { return t.viewportHeight }

// ContentHeight returns the last measured content height.
func (t *Tracker) ContentHeight() float64 { return math.Max(t.lastBody, t.lastDoc) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
