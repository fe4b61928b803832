// Package server renders background frames on demand over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/altimeter"
	"github.com/MeKo-Tech/contourbg/internal/export"
	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/terrain"
)

type FramesConfig struct {
	Profile        profile.Profile
	Seed           int64
	CacheControl   string
	MaxWidth       int
	MaxHeight      int
	Soften         float32
	MaxConcurrent  int
	RenderTimeout  time.Duration
	DefaultWidth   int
	DefaultHeight  int
	DefaultContent float64
}

// Frames serves rendered frames of one shared renderer.
type Frames struct {
	renderer *render.Renderer
	cfg      FramesConfig
	logger   *slog.Logger
	sem      chan struct{}

	activeRenders atomic.Int32
	queuedRenders atomic.Int32
	totalRendered atomic.Int64
	totalFailed   atomic.Int64
	totalRejected atomic.Int64
}

// Status is the JSON body of the status endpoint.
type Status struct {
	Profile       string `json:"profile"`
	Seed          int64  `json:"seed"`
	ActiveRenders int    `json:"active_renders"`
	QueuedRenders int    `json:"queued_renders"`
	TotalRendered int64  `json:"total_rendered"`
	TotalFailed   int64  `json:"total_failed"`
	TotalRejected int64  `json:"total_rejected"`
	MaxConcurrent int    `json:"max_concurrent"`
}

func NewFrames(cfg FramesConfig, logger *slog.Logger) (*Frames, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 10 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 3840
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 2160
	}
	if cfg.DefaultWidth <= 0 {
		cfg.DefaultWidth = 1280
	}
	if cfg.DefaultHeight <= 0 {
		cfg.DefaultHeight = 720
	}
	cfg.DefaultWidth = min(cfg.DefaultWidth, cfg.MaxWidth)
	cfg.DefaultHeight = min(cfg.DefaultHeight, cfg.MaxHeight)

	seeds := terrain.NewSeeds(rand.New(rand.NewSource(cfg.Seed)))
	r, err := render.NewRenderer(cfg.Profile, cfg.Profile.NewSource(seeds))
	if err != nil {
		return nil, fmt.Errorf("failed to init renderer: %w", err)
	}

	return &Frames{
		renderer: r,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Status returns the current render counters.
func (f *Frames) Status() Status {
	return Status{
		Profile:       f.cfg.Profile.Name,
		Seed:          f.cfg.Seed,
		ActiveRenders: int(f.activeRenders.Load()),
		QueuedRenders: int(f.queuedRenders.Load()),
		TotalRendered: f.totalRendered.Load(),
		TotalFailed:   f.totalFailed.Load(),
		TotalRejected: f.totalRejected.Load(),
		MaxConcurrent: f.cfg.MaxConcurrent,
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (f *Frames) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		f.writeJSON(w, f.Status())
	})
}

// FrameHandler serves GET /frame.png?width&height&scroll&content&clock.
func (f *Frames) FrameHandler() http.Handler {
	return http.HandlerFunc(f.serveFrame)
}

// AltimeterHandler serves GET /altimeter?scroll&content&viewport.
func (f *Frames) AltimeterHandler() http.Handler {
	return http.HandlerFunc(f.serveAltimeter)
}

func (f *Frames) serveFrame(w http.ResponseWriter, r *http.Request) {
	frame, scale, err := f.parseFrame(r.URL.Query())
	if err != nil {
		f.totalRejected.Add(1)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.cfg.RenderTimeout)
	defer cancel()

	f.queuedRenders.Add(1)
	select {
	case f.sem <- struct{}{}:
		f.queuedRenders.Add(-1)
	case <-ctx.Done():
		f.queuedRenders.Add(-1)
		f.totalRejected.Add(1)
		http.Error(w, "renderer busy", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	img, err := f.render(ctx, frame, scale)
	if err != nil {
		f.totalFailed.Add(1)
		f.log().Warn("frame render abandoned", "error", err, "width", frame.Viewport.Width, "height", frame.Viewport.Height)
		http.Error(w, "render timed out", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := export.EncodePNG(&buf, img); err != nil {
		f.totalFailed.Add(1)
		f.log().Error("failed to encode frame", "error", err)
		http.Error(w, "failed to encode frame", http.StatusInternalServerError)
		return
	}
	f.totalRendered.Add(1)
	f.log().Debug("frame rendered",
		"width", frame.Viewport.Width,
		"height", frame.Viewport.Height,
		"scroll", frame.ScrollOffset,
		"ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", f.cfg.CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// render runs the draw on its own goroutine so a slow frame cannot hold the
// request past its deadline. The caller must hold a semaphore slot; the
// goroutine releases it when the draw finishes, so an abandoned draw keeps
// counting against MaxConcurrent.
func (f *Frames) render(ctx context.Context, frame render.Frame, scale float64) (image.Image, error) {
	done := make(chan image.Image, 1)
	f.activeRenders.Add(1)
	go func() {
		img := export.Render(f.renderer, frame, scale, f.cfg.Soften)
		f.activeRenders.Add(-1)
		<-f.sem
		done <- img
	}()
	select {
	case img := <-done:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Frames) serveAltimeter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := floatParam(q, "scroll", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	viewport, err := floatParam(q, "viewport", float64(f.cfg.DefaultHeight))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	content, err := floatParam(q, "content", f.defaultContent(viewport))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	f.writeJSON(w, altimeter.Read(offset, math.Max(0, content-viewport), viewport, sharedRand{}))
}

func (f *Frames) parseFrame(q url.Values) (render.Frame, float64, error) {
	width, err := intParam(q, "width", f.cfg.DefaultWidth, f.cfg.MaxWidth)
	if err != nil {
		return render.Frame{}, 0, err
	}
	height, err := intParam(q, "height", f.cfg.DefaultHeight, f.cfg.MaxHeight)
	if err != nil {
		return render.Frame{}, 0, err
	}
	scale, err := floatParam(q, "scale", 1)
	if err != nil {
		return render.Frame{}, 0, err
	}
	if scale <= 0 || scale > 4 || float64(width)*scale > float64(f.cfg.MaxWidth) || float64(height)*scale > float64(f.cfg.MaxHeight) {
		return render.Frame{}, 0, fmt.Errorf("scale %v out of range", scale)
	}
	offset, err := floatParam(q, "scroll", 0)
	if err != nil {
		return render.Frame{}, 0, err
	}
	content, err := floatParam(q, "content", f.defaultContent(float64(height)))
	if err != nil {
		return render.Frame{}, 0, err
	}
	if content < 0 {
		return render.Frame{}, 0, fmt.Errorf("content must be non-negative")
	}
	if offset < 0 || offset > content {
		return render.Frame{}, 0, fmt.Errorf("scroll must be within [0,%g]", content)
	}
	clock, err := floatParam(q, "clock", 0)
	if err != nil {
		return render.Frame{}, 0, err
	}

	return render.Frame{
		Viewport:     render.Viewport{Width: float64(width), Height: float64(height)},
		ScrollOffset: offset,
		Extent:       math.Max(0, content-float64(height)),
		Clock:        clock,
	}, scale, nil
}

func (f *Frames) defaultContent(viewport float64) float64 {
	if f.cfg.DefaultContent > 0 {
		return f.cfg.DefaultContent
	}
	return viewport * 5
}

func (f *Frames) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.log().Error("failed to encode response", "error", err)
	}
}

func (f *Frames) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return slog.Default()
}

func intParam(q url.Values, name string, def, maxVal int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	if v < 1 || v > maxVal {
		return 0, fmt.Errorf("%s must be within [1,%d]", name, maxVal)
	}
	return v, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// sharedRand draws jitter from the process-wide source, which is safe for
// concurrent handlers.
type sharedRand struct{}

func (sharedRand) Float64() float64 { return rand.Float64() }
