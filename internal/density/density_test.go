package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func positionProfile(guard bool) *Profile {
	return New(Config{
		Kind:         KindPosition,
		StartSpacing: 1200,
		EndSpacing:   60,
		HeroGuard:    guard,
		Floor:        20,
		FadeStart:    800,
		FadeEnd:      800,
		MinAlpha:     0.7,
	})
}

func scrollProfile() *Profile {
	return New(Config{
		Kind:       KindScroll,
		MaxSpacing: 1000,
		MinSpacing: 50,
		Exponent:   2,
		Floor:      20,
		FadeStart:  900,
		FadeEnd:    700,
	})
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"fixed", "scroll", "position"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		require.Equal(t, Kind(s), k)
	}
	k, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, KindPosition, k)

	_, err = ParseKind("spiral")
	require.Error(t, err)
}

func TestPositionMidpointScenario(t *testing.T) {
	view := View{ViewportHeight: 1080, Extent: 5000, ScrollPercent: 0.5}

	guarded := positionProfile(true)
	require.InDelta(t, 630.0, guarded.SpacingAt(1080+2500, view), 1e-9)

	unguarded := positionProfile(false)
	require.InDelta(t, 630.0, unguarded.SpacingAt((5000+1080)/2.0, view), 1e-9)
}

func TestPositionEnds(t *testing.T) {
	view := View{ViewportHeight: 1000, Extent: 4000}
	p := positionProfile(true)

	require.Equal(t, 1200.0, p.SpacingAt(0, view), "hero stays sparse")
	require.Equal(t, 1200.0, p.SpacingAt(999, view))
	require.Equal(t, 60.0, p.SpacingAt(5000, view))
	require.Equal(t, 60.0, p.SpacingAt(1e9, view))
	require.Equal(t, 1200.0, p.SpacingAt(-1e9, view))
}

func TestPositionZeroExtent(t *testing.T) {
	p := positionProfile(true)
	s := p.SpacingAt(500, View{ViewportHeight: 1080})
	require.False(t, math.IsNaN(s))
	require.GreaterOrEqual(t, s, p.Floor())
}

func TestScrollPolicy(t *testing.T) {
	p := scrollProfile()

	require.Equal(t, 1000.0, p.SpacingAt(0, View{ScrollPercent: 0}))
	require.InDelta(t, 1000-0.25*950, p.SpacingAt(0, View{ScrollPercent: 0.5}), 1e-9)
	require.Equal(t, 50.0, p.SpacingAt(0, View{ScrollPercent: 1}))
	require.Equal(t, 50.0, p.SpacingAt(0, View{ScrollPercent: 3}), "out-of-range percentage is clamped")
	require.Equal(t, 1000.0, p.SpacingAt(0, View{ScrollPercent: -1}))
}

func TestSpacingNeverBelowFloor(t *testing.T) {
	profiles := map[string]*Profile{
		"position": New(Config{Kind: KindPosition, StartSpacing: 100, EndSpacing: -500, Floor: 20}),
		"scroll":   New(Config{Kind: KindScroll, MaxSpacing: 30, MinSpacing: 0, Floor: 20}),
		"fixed":    New(Config{Kind: KindFixed, FixedSpacing: 0}),
		"nan":      New(Config{Kind: KindFixed, FixedSpacing: math.NaN(), Floor: -3}),
	}

	for name, p := range profiles {
		t.Run(name, func(t *testing.T) {
			require.Greater(t, p.Floor(), 0.0)
			for y := -10000.0; y < 20000; y += 97 {
				for _, pct := range []float64{-1, 0, 0.3, 1, 2} {
					s := p.SpacingAt(y, View{ViewportHeight: 900, Extent: 8000, ScrollPercent: pct})
					require.GreaterOrEqual(t, s, p.Floor())
				}
			}
		})
	}
}

func TestDefaultFloor(t *testing.T) {
	require.Equal(t, DefaultFloor, New(Config{}).Floor())
	require.Equal(t, DefaultFloor, New(Config{Floor: math.Inf(1)}).Floor())
}

func TestAlphaRampMonotonic(t *testing.T) {
	p := scrollProfile()
	prev := p.AlphaAt(900)
	require.Equal(t, 0.0, prev)
	for s := 900.0; s >= 700; s -= 0.5 {
		a := p.AlphaAt(s)
		require.GreaterOrEqual(t, a, prev, "alpha at %v", s)
		require.GreaterOrEqual(t, a, 0.0)
		require.LessOrEqual(t, a, 1.0)
		prev = a
	}
	require.Equal(t, 1.0, p.AlphaAt(700))
	require.Equal(t, 0.5, p.AlphaAt(800))
	require.Equal(t, 0.0, p.AlphaAt(1000))
	require.Equal(t, 1.0, p.AlphaAt(20))
}

func TestStepRamp(t *testing.T) {
	p := positionProfile(true)
	require.Equal(t, 0.7, p.AlphaAt(1200))
	require.Equal(t, 0.7, p.AlphaAt(800.5))
	require.Equal(t, 1.0, p.AlphaAt(800))
	require.Equal(t, 1.0, p.AlphaAt(60))
}

func TestMaxIterations(t *testing.T) {
	require.Equal(t, 1, MaxIterations(0, 20))
	require.Equal(t, 101, MaxIterations(2000, 20))
	require.Equal(t, 3, MaxIterations(50, 20))
}

func TestCeilingBoundsSpacing(t *testing.T) {
	fixed := New(Config{Kind: KindFixed, FixedSpacing: 5, Floor: 20})
	require.Equal(t, 20.0, fixed.Ceiling())

	for _, p := range []*Profile{positionProfile(true), positionProfile(false), scrollProfile()} {
		ceil := p.Ceiling()
		for absY := -5000.0; absY <= 20000; absY += 250 {
			for _, pct := range []float64{0, 0.3, 1} {
				v := View{ViewportHeight: 800, Extent: 10000, ScrollPercent: pct}
				require.LessOrEqual(t, p.SpacingAt(absY, v), ceil)
			}
		}
	}
	require.Equal(t, 1200.0, positionProfile(true).Ceiling())
	require.Equal(t, 1000.0, scrollProfile().Ceiling())
}
