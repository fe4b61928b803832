// Package density decides how far apart contour lines are drawn and how
// opaque they are.
package density

import (
	"fmt"
	"math"
)

// DefaultFloor is the smallest spacing ever used as a scan step.
const DefaultFloor = 20.0

// Kind selects a spacing policy.
type Kind string

const (
	// KindFixed draws lines at a constant spacing.
	KindFixed Kind = "fixed"
	// KindScroll densifies every line as the overall scroll percentage grows.
	KindScroll Kind = "scroll"
	// KindPosition makes spacing a function of a line's place in the document:
	// sparse near the top, dense near the bottom.
	KindPosition Kind = "position"
)

// ParseKind validates a policy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindFixed, KindScroll, KindPosition:
		return k, nil
	case "":
		return KindPosition, nil
	default:
		return "", fmt.Errorf("unknown density policy %q (want fixed, scroll or position)", s)
	}
}

// View is the part of the session state the policies read.
type View struct {
	ViewportHeight float64
	Extent         float64
	ScrollPercent  float64
}

// Config holds the numeric knobs of all policies.
type Config struct {
	Kind Kind

	FixedSpacing float64

	// scroll policy
	MaxSpacing float64
	MinSpacing float64

	// position policy
	StartSpacing float64
	EndSpacing   float64
	HeroGuard    bool

	// Exponent shapes the interpolation curve (1 = linear).
	Exponent float64
	Floor    float64

	// Alpha ramp: opacity goes 0 -> 1 as spacing descends from FadeStart to
	// FadeEnd, then is mapped onto [MinAlpha, 1].
	FadeStart float64
	FadeEnd   float64
	MinAlpha  float64
}

// Profile is a configured spacing/alpha policy.
type Profile struct {
	cfg  Config
	ramp Ramp
}

// New builds a profile; a missing or non-positive floor becomes DefaultFloor.
func New(cfg Config) *Profile {
	if !(cfg.Floor > 0) || math.IsInf(cfg.Floor, 0) {
		cfg.Floor = DefaultFloor
	}
	if !(cfg.Exponent > 0) {
		cfg.Exponent = 1
	}
	if cfg.Kind == "" {
		cfg.Kind = KindPosition
	}
	return &Profile{
		cfg:  cfg,
		ramp: Ramp{Start: cfg.FadeStart, End: cfg.FadeEnd, Min: clamp01(cfg.MinAlpha)},
	}
}

// Kind returns the active policy.
func (p *Profile) Kind() Kind { return p.cfg.Kind }

// Floor returns the positive lower bound applied to every spacing.
func (p *Profile) Floor() float64 { return p.cfg.Floor }

// SpacingAt returns the line spacing for a line at absolute document
// position absY. The result is always >= Floor().
func (p *Profile) SpacingAt(absY float64, v View) float64 {
	var s float64
	switch p.cfg.Kind {
	case KindFixed:
		s = p.cfg.FixedSpacing
	case KindScroll:
		s = Interpolate(p.cfg.MaxSpacing, p.cfg.MinSpacing, clamp01(v.ScrollPercent), p.cfg.Exponent)
	default:
		s = Interpolate(p.cfg.StartSpacing, p.cfg.EndSpacing, p.Position(absY, v), p.cfg.Exponent)
	}
	return p.floor(s)
}

// Ceiling returns the largest spacing SpacingAt can return.
func (p *Profile) Ceiling() float64 {
	var s float64
	switch p.cfg.Kind {
	case KindFixed:
		s = p.cfg.FixedSpacing
	case KindScroll:
		s = math.Max(p.cfg.MaxSpacing, p.cfg.MinSpacing)
	default:
		s = math.Max(p.cfg.StartSpacing, p.cfg.EndSpacing)
	}
	return p.floor(s)
}

// Position normalizes an absolute line position against the document.
// With the hero guard the first viewport height maps to 0 so the landing
// screen stays sparse.
func (p *Profile) Position(absY float64, v View) float64 {
	if math.IsNaN(absY) {
		return 0
	}
	if p.cfg.HeroGuard {
		effY := math.Max(0, absY-v.ViewportHeight)
		total := math.Max(1, v.Extent)
		return clamp01(effY / total)
	}
	total := math.Max(1, v.Extent+v.ViewportHeight)
	return clamp01(absY / total)
}

// AlphaAt returns the opacity multiplier for a given spacing.
func (p *Profile) AlphaAt(spacing float64) float64 { return p.ramp.At(spacing) }

func (p *Profile) floor(s float64) float64 {
	if !(s >= p.cfg.Floor) {
		return p.cfg.Floor
	}
	return s
}

// Interpolate returns from - t^exp·(from - to).
func Interpolate(from, to, t, exp float64) float64 {
	if exp == 1 {
		return from - t*(from-to)
	}
	return from - math.Pow(t, exp)*(from-to)
}

// MaxIterations bounds the number of scan steps over scanRange when every
// step is at least floor.
func MaxIterations(scanRange, floor float64) int {
	if scanRange <= 0 {
		return 1
	}
	return int(scanRange/floor) + 1
}

// Ramp is a linear opacity fade over a spacing band.
type Ramp struct {
	Start float64 // spacing at which lines become invisible
	End   float64 // spacing at which lines are fully opaque
	Min   float64 // opacity floor of the output range
}

// At evaluates the ramp. A degenerate band (Start <= End) is a step at Start.
func (r Ramp) At(spacing float64) float64 {
	var v float64
	switch {
	case r.Start <= r.End:
		if spacing > r.Start {
			v = 0
		} else {
			v = 1
		}
	default:
		v = clamp01((r.Start - spacing) / (r.Start - r.End))
	}
	return r.Min + (1-r.Min)*v
}

func clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
