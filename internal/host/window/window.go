//go:build ebiten

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/altimeter"
	"github.com/MeKo-Tech/contourbg/internal/canvas"
	"github.com/MeKo-Tech/contourbg/internal/host"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	wheelStep = 60.0
	keyStep   = 40.0
)

// Available reports whether the binary was built with the window host.
const Available = true

// Game adapts a render session to the ebiten.Game interface.
type Game struct {
	page   *host.Page
	canvas *canvas.Canvas
	img    *ebiten.Image
	rng    *rand.Rand
	logger *slog.Logger

	width, height int
}

// New constructs a Game for a window of the configured size.
func New(cfg Config) (*Game, error) {
	cfg.defaults()
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	vp := render.Viewport{Width: float64(cfg.Width), Height: float64(cfg.Height)}
	s, err := render.NewSession(cfg.Profile, vp, cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &Game{
		page:   host.NewPage(s, cfg.Screens, cfg.Expanded),
		canvas: canvas.New(cfg.Width, cfg.Height),
		rng:    cfg.Rand,
		logger: cfg.Logger,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// Update handles input and advances the session by one frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		g.page.ToggleMore()
		g.log().Debug("toggled more", "expanded", g.page.Expanded())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		g.page.Top()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnd) {
		g.page.Bottom()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.page.PageDown(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		g.page.PageDown(-1)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.page.ScrollBy(keyStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.page.ScrollBy(-keyStep)
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.page.ScrollBy(-dy * wheelStep)
	}

	g.page.Session().Tick(g.canvas)
	return nil
}

// Draw blits the last rendered frame and the altimeter.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(g.width, g.height)
	}
	g.img.WritePixels(g.canvas.Image().Pix)
	screen.DrawImage(g.img, nil)

	t := g.page.Session().Tracker()
	r := altimeter.Read(t.Offset(), t.Extent(), float64(g.height), g.rng)
	ebitenutil.DebugPrintAt(screen, "ALT "+r.Display, g.width-60, 8)
	if r.ShowReturn {
		ebitenutil.DebugPrintAt(screen, "HOME: top", g.width-60, 24)
	}
}

// Layout follows the window size and resizes the session with it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := max(1, outsideWidth), max(1, outsideHeight)
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.page.Resize(float64(w), float64(h))
		g.canvas.Resize(w, h)
		g.img = nil
	}
	return g.width, g.height
}

func (g *Game) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// Run opens the window and blocks until it is closed.
func Run(cfg Config) error {
	cfg.defaults()
	game, err := New(cfg)
	if err != nil {
		return err
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
