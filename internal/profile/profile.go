// Package profile defines the VisualProfile: every numeric and colour constant
// of the contour background collected into one immutable value.
package profile

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/contourbg/internal/density"
	"github.com/MeKo-Tech/contourbg/internal/scroll"
	"github.com/MeKo-Tech/contourbg/internal/terrain"
)

// MaxSpan caps every margin and spacing in pixels. Together with the
// minimum steps below it bounds the work of one frame.
const MaxSpan = 100000

// MinStep is the smallest sample step, grid pitch and spacing floor.
const MinStep = 1.0

// Terrain sources.
const (
	SourceTrig   = "trig"
	SourcePerlin = "perlin"
)

// Profile is the full visual configuration of a render session.
type Profile struct {
	Name           string  `mapstructure:"name"`
	Background     string  `mapstructure:"background"`
	FillBackground bool    `mapstructure:"fill_background"`
	Rotation       float64 `mapstructure:"rotation"` // radians
	ClockStep      float64 `mapstructure:"clock_step"`

	Terrain  TerrainProfile `mapstructure:"terrain"`
	Noise    NoiseProfile   `mapstructure:"noise"`
	Scan     ScanProfile    `mapstructure:"scan"`
	Density  DensityProfile `mapstructure:"density"`
	Families []Family       `mapstructure:"families"`
	Grid     GridProfile    `mapstructure:"grid"`
	Scroll   ScrollProfile  `mapstructure:"scroll"`
}

// TerrainProfile holds the height-field wave constants.
type TerrainProfile struct {
	Source          string  `mapstructure:"source"`
	BaseFreq        float64 `mapstructure:"base_freq"`
	BaseAmplitude   float64 `mapstructure:"base_amplitude"`
	BaseScale       float64 `mapstructure:"base_scale"`
	PeakFreq        float64 `mapstructure:"peak_freq"`
	PeakFreq2X      float64 `mapstructure:"peak_freq2_x"`
	PeakFreq2Y      float64 `mapstructure:"peak_freq2_y"`
	PeakBias        float64 `mapstructure:"peak_bias"`
	PeakExponent    float64 `mapstructure:"peak_exponent"`
	PeakScale       float64 `mapstructure:"peak_scale"`
	DetailFreq      float64 `mapstructure:"detail_freq"`
	DetailAmplitude float64 `mapstructure:"detail_amplitude"`
	PerlinAlpha     float64 `mapstructure:"perlin_alpha"`
	PerlinBeta      float64 `mapstructure:"perlin_beta"`
	PerlinOctaves   int32   `mapstructure:"perlin_octaves"`
}

// NoiseProfile maps screen coordinates into the noise domain.
type NoiseProfile struct {
	Scale        float64 `mapstructure:"scale"`
	Drift        float64 `mapstructure:"drift"`
	ScrollFactor float64 `mapstructure:"scroll_factor"`
}

// ScanProfile bounds the vertical and horizontal scan of a frame.
type ScanProfile struct {
	Top              float64 `mapstructure:"top"`
	Bottom           float64 `mapstructure:"bottom"`
	DrawBand         float64 `mapstructure:"draw_band"` // 0 = draw the whole scan
	HMargin          float64 `mapstructure:"h_margin"`
	SampleStep       float64 `mapstructure:"sample_step"`
	VerticalParallax float64 `mapstructure:"vertical_parallax"`
}

// DensityProfile configures the spacing policy.
type DensityProfile struct {
	Policy       string  `mapstructure:"policy"`
	FixedSpacing float64 `mapstructure:"fixed_spacing"`
	MaxSpacing   float64 `mapstructure:"max_spacing"`
	MinSpacing   float64 `mapstructure:"min_spacing"`
	StartSpacing float64 `mapstructure:"start_spacing"`
	EndSpacing   float64 `mapstructure:"end_spacing"`
	Exponent     float64 `mapstructure:"exponent"`
	Floor        float64 `mapstructure:"floor"`
	HeroGuard    bool    `mapstructure:"hero_guard"`
	FadeStart    float64 `mapstructure:"fade_start"`
	FadeEnd      float64 `mapstructure:"fade_end"`
	MinAlpha     float64 `mapstructure:"min_alpha"`
}

// Family is one set of contour lines sharing colour, weight and opacity.
type Family struct {
	Name  string  `mapstructure:"name"`
	Color string  `mapstructure:"color"`
	Width float64 `mapstructure:"width"`
	Alpha float64 `mapstructure:"alpha"`
}

// GridProfile describes the decorative vertical grid.
type GridProfile struct {
	Color    string  `mapstructure:"color"`
	Alpha    float64 `mapstructure:"alpha"`
	Pitch    float64 `mapstructure:"pitch"`
	Margin   float64 `mapstructure:"margin"`
	Parallax float64 `mapstructure:"parallax"`
}

// ScrollProfile configures document-extent easing.
type ScrollProfile struct {
	Eased         bool    `mapstructure:"eased"`
	Damping       float64 `mapstructure:"damping"`
	SnapThreshold float64 `mapstructure:"snap_threshold"`
}

// Validate reports the first malformed field.
func (p Profile) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(finite(p.Rotation), "rotation must be finite")
	check(p.ClockStep >= 0 && finite(p.ClockStep), "clock_step must be a non-negative number")
	check(p.Terrain.Source == "" || p.Terrain.Source == SourceTrig || p.Terrain.Source == SourcePerlin,
		"terrain.source %q must be %q or %q", p.Terrain.Source, SourceTrig, SourcePerlin)
	check(p.Terrain.PeakExponent > 1 && finite(p.Terrain.PeakExponent), "terrain.peak_exponent must be > 1 to keep peaks sharp")
	check(allFinite(p.Terrain.BaseFreq, p.Terrain.BaseAmplitude, p.Terrain.BaseScale, p.Terrain.PeakFreq,
		p.Terrain.PeakFreq2X, p.Terrain.PeakFreq2Y, p.Terrain.PeakBias, p.Terrain.PeakScale,
		p.Terrain.DetailFreq, p.Terrain.DetailAmplitude), "terrain values must be finite")
	check(allFinite(p.Noise.Scale, p.Noise.Drift, p.Noise.ScrollFactor), "noise values must be finite")

	check(p.Scan.SampleStep >= MinStep && p.Scan.SampleStep <= MaxSpan, "scan.sample_step must be within [%g,%d]", MinStep, MaxSpan)
	check(span(p.Scan.Top) && span(p.Scan.Bottom), "scan.top and scan.bottom must be within [0,%d]", MaxSpan)
	check(span(p.Scan.DrawBand), "scan.draw_band must be within [0,%d]", MaxSpan)
	check(span(p.Scan.HMargin), "scan.h_margin must be within [0,%d]", MaxSpan)
	check(finite(p.Scan.VerticalParallax), "scan.vertical_parallax must be finite")

	check(p.Density.Floor >= MinStep && p.Density.Floor <= MaxSpan, "density.floor must be within [%g,%d]", MinStep, MaxSpan)
	check(span(p.Density.FixedSpacing) && span(p.Density.MaxSpacing) && span(p.Density.MinSpacing) &&
		span(p.Density.StartSpacing) && span(p.Density.EndSpacing), "density spacings must be within [0,%d]", MaxSpan)
	check(p.Density.Exponent >= 0 && finite(p.Density.Exponent), "density.exponent must be a non-negative number")
	check(allFinite(p.Density.FadeStart, p.Density.FadeEnd), "density.fade_start and fade_end must be finite")
	check(p.Density.MinAlpha >= 0 && p.Density.MinAlpha <= 1, "density.min_alpha must be within [0,1]")

	check(p.Grid.Pitch >= MinStep && p.Grid.Pitch <= MaxSpan, "grid.pitch must be within [%g,%d]", MinStep, MaxSpan)
	check(span(p.Grid.Margin), "grid.margin must be within [0,%d]", MaxSpan)
	check(finite(p.Grid.Parallax), "grid.parallax must be finite")
	check(p.Scroll.Damping > 0 && p.Scroll.Damping <= 1, "scroll.damping must be within (0,1]")
	check(p.Scroll.SnapThreshold >= 0 && finite(p.Scroll.SnapThreshold), "scroll.snap_threshold must be a non-negative number")
	check(len(p.Families) > 0, "at least one line family is required")

	if _, err := density.ParseKind(p.Density.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseHex(p.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if _, err := ParseHex(p.Grid.Color); err != nil {
		errs = append(errs, fmt.Errorf("grid.color: %w", err))
	}
	for i, f := range p.Families {
		if _, err := ParseHex(f.Color); err != nil {
			errs = append(errs, fmt.Errorf("families[%d].color: %w", i, err))
		}
		check(f.Width > 0 && f.Width <= MaxSpan, "families[%d].width must be within (0,%d]", i, MaxSpan)
		check(f.Alpha >= 0 && f.Alpha <= 1, "families[%d].alpha must be within [0,1]", i)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile %q: %w", p.Name, errors.Join(errs...))
	}
	return nil
}

// TerrainParams converts the terrain section for the terrain package.
func (p Profile) TerrainParams() terrain.Params {
	t := p.Terrain
	return terrain.Params{
		BaseFreq:        t.BaseFreq,
		BaseAmplitude:   t.BaseAmplitude,
		BaseScale:       t.BaseScale,
		PeakFreq:        t.PeakFreq,
		PeakFreq2X:      t.PeakFreq2X,
		PeakFreq2Y:      t.PeakFreq2Y,
		PeakBias:        t.PeakBias,
		PeakExponent:    t.PeakExponent,
		PeakScale:       t.PeakScale,
		DetailFreq:      t.DetailFreq,
		DetailAmplitude: t.DetailAmplitude,
	}
}

// NewSource builds the configured height source from seeds.
func (p Profile) NewSource(seeds terrain.Seeds) terrain.Source {
	if p.Terrain.Source == SourcePerlin {
		return terrain.NewPerlinField(seeds, p.TerrainParams(), terrain.PerlinOptions{
			Alpha:   p.Terrain.PerlinAlpha,
			Beta:    p.Terrain.PerlinBeta,
			Octaves: p.Terrain.PerlinOctaves,
		})
	}
	return terrain.NewField(seeds, p.TerrainParams())
}

// DensityConfig converts the density section for the density package.
func (p Profile) DensityConfig() density.Config {
	d := p.Density
	kind, err := density.ParseKind(d.Policy)
	if err != nil {
		kind = density.KindPosition
	}
	return density.Config{
		Kind:         kind,
		FixedSpacing: d.FixedSpacing,
		MaxSpacing:   d.MaxSpacing,
		MinSpacing:   d.MinSpacing,
		StartSpacing: d.StartSpacing,
		EndSpacing:   d.EndSpacing,
		HeroGuard:    d.HeroGuard,
		Exponent:     d.Exponent,
		Floor:        d.Floor,
		FadeStart:    d.FadeStart,
		FadeEnd:      d.FadeEnd,
		MinAlpha:     d.MinAlpha,
	}
}

// ScrollConfig converts the scroll section for the scroll package.
func (p Profile) ScrollConfig() scroll.Config {
	return scroll.Config{
		Eased:         p.Scroll.Eased,
		Damping:       p.Scroll.Damping,
		SnapThreshold: p.Scroll.SnapThreshold,
	}
}

// ParseHex parses "#RRGGBB" or "#RGB" into an opaque colour.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// WithAlpha returns c with opacity a in [0,1].
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	if !(a > 0) {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(math.Round(a * 255))
	return c
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// span reports whether v is a usable margin or spacing.
func span(v float64) bool { return v >= 0 && v <= MaxSpan }
