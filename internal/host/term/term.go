// Package term runs the contour background in a terminal. Every cell shows
// two vertically stacked pixels using the upper half block, and an altimeter
// plus the typed hero line are drawn over the background.
package term

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/altimeter"
	"github.com/MeKo-Tech/contourbg/internal/canvas"
	"github.com/MeKo-Tech/contourbg/internal/host"
	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/typewriter"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	upperHalf = '▀'
	// lineStep is the scroll distance of one j/k press or wheel notch in
	// virtual pixels.
	lineStep = 120.0
)

// Config configures a terminal host.
type Config struct {
	Profile profile.Profile
	Rand    *rand.Rand
	// PixelScale is the number of virtual pixels per half-block pixel.
	PixelScale float64
	// Screens is the page height in viewport heights; Expanded adds to it
	// when the "more" section is toggled open.
	Screens  float64
	Expanded float64
	Language typewriter.Language
	FPS      int
	Logger   *slog.Logger
}

// Host owns the screen, the render session and the overlays.
type Host struct {
	screen tcell.Screen
	cfg    Config
	logger *slog.Logger
	page   *host.Page
	canvas *canvas.Canvas
	writer *typewriter.Writer
	rng    *rand.Rand

	cols, rows int
	lang       typewriter.Language
	started    time.Time
}

// New prepares a host on an initialized screen.
func New(screen tcell.Screen, cfg Config) (*Host, error) {
	if cfg.PixelScale <= 0 {
		cfg.PixelScale = 8
	}
	if cfg.Screens < 1 {
		cfg.Screens = 5
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	lang, err := typewriter.ParseLanguage(string(cfg.Language))
	if err != nil {
		return nil, err
	}

	writer, err := typewriter.Hero()
	if err != nil {
		return nil, err
	}

	h := &Host{
		screen:  screen,
		cfg:     cfg,
		logger:  cfg.Logger,
		writer:  writer,
		rng:     cfg.Rand,
		lang:    lang,
		started: time.Now(),
	}

	h.cols, h.rows = screen.Size()
	session, err := render.NewSession(cfg.Profile, h.viewport(), cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	h.page = host.NewPage(session, cfg.Screens, cfg.Expanded)
	h.canvas = canvas.NewScaled(h.cols, h.rows*2, 1/cfg.PixelScale)
	return h, nil
}

func (h *Host) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// Session exposes the render session.
func (h *Host) Session() *render.Session { return h.page.Session() }

// Language returns the language of the typed hero line.
func (h *Host) Language() typewriter.Language { return h.lang }

// Expanded reports whether the "more" section is open.
func (h *Host) Expanded() bool { return h.page.Expanded() }

func (h *Host) viewport() render.Viewport {
	return render.Viewport{
		Width:  float64(max(1, h.cols)) * h.cfg.PixelScale,
		Height: float64(max(1, h.rows*2)) * h.cfg.PixelScale,
	}
}

// Run drives the host until ctx is cancelled or the user quits.
func (h *Host) Run(ctx context.Context) error {
	frames := time.NewTicker(time.Second / time.Duration(h.cfg.FPS))
	defer frames.Stop()
	typing := time.NewTicker(typewriter.DefaultInterval)
	defer typing.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	h.log().Debug("terminal host started", "cols", h.cols, "rows", h.rows, "profile", h.cfg.Profile.Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !h.handleEvent(ev) {
				return nil
			}
		case <-typing.C:
			if time.Since(h.started) >= typewriter.DefaultStartDelay {
				h.writer.Step()
			}
		case <-frames.C:
			h.draw()
		}
	}
}

// handleEvent applies one terminal event. It returns false to quit.
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return h.handleKey(ev)
	case *tcell.EventMouse:
		switch btn := ev.Buttons(); {
		case btn&tcell.WheelUp != 0:
			h.page.ScrollBy(-lineStep)
		case btn&tcell.WheelDown != 0:
			h.page.ScrollBy(lineStep)
		}
	case *tcell.EventResize:
		h.resize()
	}
	return true
}

func (h *Host) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyDown:
		h.page.ScrollBy(lineStep)
	case tcell.KeyUp:
		h.page.ScrollBy(-lineStep)
	case tcell.KeyPgDn:
		h.page.PageDown(1)
	case tcell.KeyPgUp:
		h.page.PageDown(-1)
	case tcell.KeyHome:
		h.page.Top()
	case tcell.KeyEnd:
		h.page.Bottom()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'j':
			h.page.ScrollBy(lineStep)
		case 'k':
			h.page.ScrollBy(-lineStep)
		case ' ':
			h.page.PageDown(1)
		case 'b':
			h.page.PageDown(-1)
		case 'g':
			h.page.Top()
		case 'G':
			h.page.Bottom()
		case 'e':
			h.page.ToggleMore()
			h.log().Debug("toggled more", "expanded", h.page.Expanded(), "target", h.Session().Tracker().Target())
		case 'l':
			h.lang = h.lang.Toggle()
		}
	}
	return true
}

func (h *Host) resize() {
	h.cols, h.rows = h.screen.Size()
	vp := h.viewport()
	h.page.Resize(vp.Width, vp.Height)
	h.canvas.Resize(h.cols, h.rows*2)
	h.screen.Sync()
}

func (h *Host) draw() {
	h.Session().Tick(h.canvas)
	img := h.canvas.Image()

	for y := 0; y < h.rows; y++ {
		for x := 0; x < h.cols; x++ {
			top, bottom := HalfBlock(img, x, y)
			st := tcell.StyleDefault.Foreground(top).Background(bottom)
			h.screen.SetContent(x, y, upperHalf, nil, st)
		}
	}
	h.drawAltimeter()
	h.drawHero()
	h.screen.Show()
}

func (h *Host) drawAltimeter() {
	t := h.Session().Tracker()
	r := altimeter.Read(t.Offset(), t.Extent(), h.viewport().Height, h.rng)

	label := "ALT " + r.Display
	x := h.cols - len(label) - 1
	st := tcell.StyleDefault.Foreground(tcell.ColorDarkOrange).Background(tcell.ColorWhiteSmoke)
	h.drawText(x, 0, label, st)

	if h.rows < 3 {
		return
	}
	marker := '◀'
	if r.ShowReturn {
		marker = '▲'
	}
	row := 1 + int(r.MarkerTop/100*float64(h.rows-2))
	h.screen.SetContent(h.cols-1, min(row, h.rows-1), marker, nil, st)
}

func (h *Host) drawHero() {
	row := h.rows / 3
	x := 2
	for _, sp := range h.writer.Track(h.lang.Index()).Spans() {
		st := tcell.StyleDefault.Foreground(tcell.ColorDimGray).Background(tcell.ColorWhiteSmoke)
		if sp.Class != "" {
			st = st.Foreground(tcell.ColorDarkOrange).Bold(true)
		}
		x = h.drawText(x, row, sp.Text, st)
	}
}

// drawText writes s from column x and returns the column after it. Wide
// runes take two columns.
func (h *Host) drawText(x, y int, s string, st tcell.Style) int {
	for _, r := range s {
		if x >= h.cols {
			break
		}
		h.screen.SetContent(x, y, r, nil, st)
		x += max(1, runewidth.RuneWidth(r))
	}
	return x
}

// HalfBlock returns the colours of the two pixels behind cell (x, y): the
// foreground paints the upper one, the background the lower one.
func HalfBlock(img *image.RGBA, x, y int) (top, bottom tcell.Color) {
	return pixel(img, x, 2*y), pixel(img, x, 2*y+1)
}

func pixel(img *image.RGBA, x, y int) tcell.Color {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return tcell.ColorDefault
	}
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
