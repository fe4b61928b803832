package profile

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/contourbg/internal/density"
	"github.com/MeKo-Tech/contourbg/internal/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	require.Equal(t, []string{"classic", "portfolio", "scroll"}, Names())
}

func TestLoadPresets(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Load(name, "")
			require.NoError(t, err)
			require.Equal(t, name, p.Name)
			require.Len(t, p.Families, 2)
			require.InDelta(t, -0.087, p.Rotation, 1e-12)
			require.Equal(t, 3.5, p.Terrain.PeakExponent)
		})
	}
}

func TestDefaultIsPositionPolicy(t *testing.T) {
	p := Default()
	require.Equal(t, "portfolio", p.Name)

	cfg := p.DensityConfig()
	require.Equal(t, density.KindPosition, cfg.Kind)
	require.Equal(t, 1200.0, cfg.StartSpacing)
	require.Equal(t, 60.0, cfg.EndSpacing)
	require.True(t, cfg.HeroGuard)
	require.True(t, p.ScrollConfig().Eased)
	require.Equal(t, 0.05, p.ScrollConfig().Damping)
}

func TestPresetFade(t *testing.T) {
	tests := []struct {
		name                 string
		start, end, minAlpha float64
	}{
		// step: lines drop to 0.7 once past 800px
		{"portfolio", 800, 800, 0.7},
		{"scroll", 900, 700, 0},
		{"classic", 900, 700, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(tt.name, "")
			require.NoError(t, err)
			assert.Equal(t, tt.start, p.Density.FadeStart)
			assert.Equal(t, tt.end, p.Density.FadeEnd)
			assert.Equal(t, tt.minAlpha, p.Density.MinAlpha)
		})
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("nope", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "portfolio")
}

func TestRaw(t *testing.T) {
	data, err := Raw("scroll")
	require.NoError(t, err)
	require.Contains(t, string(data), "policy: scroll")

	_, err = Raw("nope")
	require.Error(t, err)
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mine.yaml")
	require.NoError(t, os.WriteFile(file, []byte("rotation: 0\nscan:\n  sample_step: 25\n"), 0o644))

	p, err := Load("portfolio", file)
	require.NoError(t, err)
	require.Equal(t, 0.0, p.Rotation)
	require.Equal(t, 25.0, p.Scan.SampleStep)
	require.Equal(t, 1000.0, p.Scan.Top, "untouched keys keep preset values")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONTOURBG_PROFILE_CLOCK_STEP", "0.5")
	p, err := Load("classic", "")
	require.NoError(t, err)
	require.Equal(t, 0.5, p.ClockStep)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"zero sample step", func(p *Profile) { p.Scan.SampleStep = 0 }},
		{"zero floor", func(p *Profile) { p.Density.Floor = 0 }},
		{"bad policy", func(p *Profile) { p.Density.Policy = "spiral" }},
		{"bad colour", func(p *Profile) { p.Families[0].Color = "orange" }},
		{"flat exponent", func(p *Profile) { p.Terrain.PeakExponent = 1 }},
		{"no families", func(p *Profile) { p.Families = nil }},
		{"bad source", func(p *Profile) { p.Terrain.Source = "simplex" }},
		{"zero pitch", func(p *Profile) { p.Grid.Pitch = 0 }},
		{"damping", func(p *Profile) { p.Scroll.Damping = 2 }},
		{"tiny sample step", func(p *Profile) { p.Scan.SampleStep = 1e-9 }},
		{"nan sample step", func(p *Profile) { p.Scan.SampleStep = math.NaN() }},
		{"tiny pitch", func(p *Profile) { p.Grid.Pitch = 1e-9 }},
		{"infinite pitch", func(p *Profile) { p.Grid.Pitch = math.Inf(1) }},
		{"tiny floor", func(p *Profile) { p.Density.Floor = 1e-9 }},
		{"huge h margin", func(p *Profile) { p.Scan.HMargin = 1e12 }},
		{"nan h margin", func(p *Profile) { p.Scan.HMargin = math.NaN() }},
		{"huge grid margin", func(p *Profile) { p.Grid.Margin = 1e12 }},
		{"negative grid margin", func(p *Profile) { p.Grid.Margin = -1 }},
		{"huge top", func(p *Profile) { p.Scan.Top = 1e12 }},
		{"infinite bottom", func(p *Profile) { p.Scan.Bottom = math.Inf(1) }},
		{"huge draw band", func(p *Profile) { p.Scan.DrawBand = 1e12 }},
		{"huge spacing", func(p *Profile) { p.Density.StartSpacing = 1e12 }},
		{"nan spacing", func(p *Profile) { p.Density.EndSpacing = math.NaN() }},
		{"nan parallax", func(p *Profile) { p.Scan.VerticalParallax = math.NaN() }},
		{"nan noise", func(p *Profile) { p.Noise.Scale = math.NaN() }},
		{"infinite terrain", func(p *Profile) { p.Terrain.PeakScale = math.Inf(-1) }},
		{"nan fade", func(p *Profile) { p.Density.FadeStart = math.NaN() }},
		{"huge width", func(p *Profile) { p.Families[0].Width = 1e12 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.Families = append([]Family(nil), p.Families...)
			tt.mutate(&p)
			require.Error(t, p.Validate())
		})
	}
}

func TestValidateEnvOverrideRejectsTinyPitch(t *testing.T) {
	t.Setenv(EnvPrefix+"_GRID_PITCH", "1e-9")
	_, err := Load(DefaultName, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "grid.pitch")
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FF6600")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 255, G: 102, B: 0, A: 255}, c)

	c, err = ParseHex("808080")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, c)

	c, err = ParseHex("#fff")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)

	for _, bad := range []string{"", "#12", "#GGGGGG", "#1234567"} {
		_, err := ParseHex(bad)
		require.Error(t, err, bad)
	}
}

func TestWithAlpha(t *testing.T) {
	c := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	require.Equal(t, uint8(0), WithAlpha(c, -1).A)
	require.Equal(t, uint8(255), WithAlpha(c, 3).A)
	require.Equal(t, uint8(128), WithAlpha(c, 0.5).A)
}

func TestNewSource(t *testing.T) {
	p := Default()
	var seeds terrain.Seeds
	_, ok := p.NewSource(seeds).(*terrain.Field)
	require.True(t, ok)

	p.Terrain.Source = SourcePerlin
	_, ok = p.NewSource(seeds).(*terrain.PerlinField)
	require.True(t, ok)
}
