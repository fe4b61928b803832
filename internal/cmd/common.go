package cmd

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/spf13/viper"
)

// loadProfile resolves --profile and --profile-file.
func loadProfile() (profile.Profile, error) {
	p, err := profile.Load(viper.GetString("profile"), viper.GetString("profile-file"))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// resolveSeed returns the --seed value, or a time based one when unset.
func resolveSeed() int64 {
	if seed := viper.GetInt64("seed"); seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}

	var dims [2]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
		}
		if v < 1 {
			return 0, 0, fmt.Errorf("size %q must be positive", s)
		}
		dims[i] = v
	}
	return dims[0], dims[1], nil
}

// contentHeight returns the page height for a viewport: an explicit
// --content value, otherwise screens viewport heights.
func contentHeight(content, screens, viewportHeight float64) float64 {
	if content > 0 {
		return content
	}
	if screens < 1 {
		screens = 1
	}
	return screens * viewportHeight
}
