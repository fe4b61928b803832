// Package altimeter derives the scroll gauge shown next to the background:
// a marker position, a three-digit read-out with a little instrument jitter
// and the return-to-top hints.
package altimeter

import (
	"fmt"

	"github.com/MeKo-Tech/contourbg/internal/scroll"
)

const (
	// JitterChance is the probability that a reading is perturbed at all.
	JitterChance = 0.2
	// ReturnFraction of the viewport height past which the marker offers a
	// return to the top.
	ReturnFraction = 0.8
	// MobileReturnOffset is the scroll offset (px) past which the compact
	// return button is shown.
	MobileReturnOffset = 500.0
)

// Rand is the random source used for jitter. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Reading is one evaluation of the gauge.
type Reading struct {
	Percent          float64 `json:"percent"`    // clamped scroll percentage in [0,1]
	MarkerTop        float64 `json:"marker_top"` // marker position in percent of the gauge height
	Value            int     `json:"value"`      // read-out value in [0,100]
	Display          string  `json:"display"`    // Value zero-padded to three digits
	ShowReturn       bool    `json:"show_return"`
	ShowMobileReturn bool    `json:"show_mobile_return"`
}

// Read evaluates the gauge for a scroll offset within a document extent.
// With a nil rng the read-out carries no jitter.
func Read(offset, extent, viewportHeight float64, rng Rand) Reading {
	pct := scroll.Percentage(offset, extent)

	v := int(pct*100) + jitter(rng)
	v = min(100, max(0, v))

	return Reading{
		Percent:          pct,
		MarkerTop:        pct * 100,
		Value:            v,
		Display:          fmt.Sprintf("%03d", v),
		ShowReturn:       offset > viewportHeight*ReturnFraction,
		ShowMobileReturn: offset > MobileReturnOffset,
	}
}

func jitter(rng Rand) int {
	if rng == nil || rng.Float64() <= 1-JitterChance {
		return 0
	}
	return int(rng.Float64() * 2)
}
