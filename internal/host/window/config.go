// Package window shows the contour background in a desktop window. The
// window itself needs the ebiten build tag; without it Run reports that the
// binary was built headless.
package window

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/MeKo-Tech/contourbg/internal/profile"
)

// ErrHeadless is returned by Run in builds without the ebiten tag.
var ErrHeadless = errors.New("the window host requires the ebiten build tag (build with -tags ebiten)")

// Config configures a window host.
type Config struct {
	Profile  profile.Profile
	Rand     *rand.Rand
	Width    int
	Height   int
	Screens  float64
	Expanded float64
	Title    string
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.Screens < 1 {
		c.Screens = 5
	}
	if c.Title == "" {
		c.Title = "contourbg"
	}
}
