// Package terrain synthesizes the pseudo-3D height field sampled by the
// contour renderer.
package terrain

import (
	"math"
	"math/rand"
)

// SeedCount is the number of per-instance phase seeds.
const SeedCount = 8

// Seeds are the random phase offsets chosen once per field.
type Seeds [SeedCount]float64

// NewSeeds draws a fresh seed set in [0,1000).
func NewSeeds(rng *rand.Rand) Seeds {
	var s Seeds
	for i := range s {
		s[i] = rng.Float64() * 1000
	}
	return s
}

// Source is anything that maps a noise-domain coordinate and a time scalar to
// a height.
type Source interface {
	Height(x, y, t float64) float64
}

// Params holds the wave constants of the height field.
type Params struct {
	BaseFreq      float64
	BaseAmplitude float64
	BaseScale     float64

	PeakFreq     float64 // first peak product, both axes
	PeakFreq2X   float64
	PeakFreq2Y   float64
	PeakBias     float64
	PeakExponent float64
	PeakScale    float64

	DetailFreq      float64
	DetailAmplitude float64
}

// DefaultParams returns the "flat terrain with sudden peaks" profile.
func DefaultParams() Params {
	return Params{
		BaseFreq:        0.001,
		BaseAmplitude:   0.2,
		BaseScale:       20,
		PeakFreq:        0.003,
		PeakFreq2X:      0.007,
		PeakFreq2Y:      0.005,
		PeakBias:        0.5,
		PeakExponent:    3.5,
		PeakScale:       15,
		DetailFreq:      0.02,
		DetailAmplitude: 0.5,
	}
}

// Field is the trigonometric height field.
type Field struct {
	seeds  Seeds
	params Params
}

// NewField creates a field with fixed seeds.
func NewField(seeds Seeds, params Params) *Field {
	return &Field{seeds: seeds, params: params}
}

// Seeds returns the seeds the field was built with.
func (f *Field) Seeds() Seeds { return f.seeds }

// Height returns base·scale + peaks + detail at (x, y) and time t.
func (f *Field) Height(x, y, t float64) float64 {
	p := f.params
	base := math.Sin(x*p.BaseFreq+t) * math.Cos(y*p.BaseFreq) * p.BaseAmplitude
	detail := math.Sin(x*p.DetailFreq+y*p.DetailFreq+t) * p.DetailAmplitude
	return base*p.BaseScale + f.Peak(x, y) + detail
}

// PeakValue is the raw (unbiased) peak sum before shaping.
func (f *Field) PeakValue(x, y float64) float64 {
	p := f.params
	s := f.seeds
	v := math.Sin(x*p.PeakFreq+s[0]) * math.Cos(y*p.PeakFreq+s[1])
	v += math.Sin(x*p.PeakFreq2X-s[2]) * math.Sin(y*p.PeakFreq2Y+s[3]) * 0.5
	return v
}

// Peak returns the shaped peak term. It is exactly zero wherever the biased
// peak value is not positive.
func (f *Field) Peak(x, y float64) float64 {
	return f.params.shapePeak(f.PeakValue(x, y))
}

func (p Params) shapePeak(v float64) float64 {
	sum := v + p.PeakBias
	if !(sum > 0) {
		return 0
	}
	return math.Pow(sum, p.PeakExponent) * p.PeakScale
}
