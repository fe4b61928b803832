package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// PerlinOptions configures the go-perlin generator behind PerlinField.
type PerlinOptions struct {
	Alpha   float64 // persistence
	Beta    float64 // lacunarity
	Octaves int32
}

// PerlinField keeps the base and detail waves of Field but draws the peak
// value from Perlin noise. The peak shaping (bias, exponent, scale) is the
// same, so the terrain stays mostly flat with sharp rises.
type PerlinField struct {
	*Field
	noise *perlin.Perlin
}

// NewPerlinField builds a Perlin-backed field. The noise seed is derived from
// the upper half of seeds, which the trigonometric peak term does not use.
func NewPerlinField(seeds Seeds, params Params, opts PerlinOptions) *PerlinField {
	if opts.Alpha <= 0 {
		opts.Alpha = 2
	}
	if opts.Beta <= 0 {
		opts.Beta = 2
	}
	if opts.Octaves <= 0 {
		opts.Octaves = 3
	}
	return &PerlinField{
		Field: NewField(seeds, params),
		noise: perlin.NewPerlin(opts.Alpha, opts.Beta, opts.Octaves, perlinSeed(seeds)),
	}
}

func perlinSeed(s Seeds) int64 {
	var seed int64
	for _, v := range s[4:] {
		seed = seed*1000003 + int64(math.Floor(v*1000))
	}
	return seed
}

// Height mirrors Field.Height with the Perlin peak term.
func (f *PerlinField) Height(x, y, t float64) float64 {
	p := f.params
	base := math.Sin(x*p.BaseFreq+t) * math.Cos(y*p.BaseFreq) * p.BaseAmplitude
	detail := math.Sin(x*p.DetailFreq+y*p.DetailFreq+t) * p.DetailAmplitude
	return base*p.BaseScale + f.Peak(x, y) + detail
}

// PeakValue samples the noise at the first peak frequency. go-perlin returns
// roughly [-1,1], scaled by 1.5 to match the range of the trig sum.
func (f *PerlinField) PeakValue(x, y float64) float64 {
	p := f.params
	return f.noise.Noise2D(x*p.PeakFreq, y*p.PeakFreq) * 1.5
}

// Peak returns the shaped Perlin peak term.
func (f *PerlinField) Peak(x, y float64) float64 {
	return f.params.shapePeak(f.PeakValue(x, y))
}
