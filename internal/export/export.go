// Package export renders scripted scroll sequences to PNG frames and an
// optional animated GIF.
package export

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/MeKo-Tech/contourbg/internal/canvas"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/worker"
	"github.com/disintegration/gift"
)

// Render draws one frame onto a fresh canvas. scale is the device pixel
// ratio; sigma > 0 softens the result with a Gaussian blur.
func Render(r *render.Renderer, f render.Frame, scale float64, sigma float32) image.Image {
	if !(scale > 0) {
		scale = 1
	}
	w, h := f.Viewport.Pixels(scale)
	c := canvas.NewScaled(w, h, scale)
	r.Draw(c, f)
	if sigma > 0 {
		return Soften(c.Image(), sigma)
	}
	return c.Image()
}

// Soften applies a Gaussian blur to img.
func Soften(img image.Image, sigma float32) *image.RGBA {
	g := gift.New(gift.GaussianBlur(sigma))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Plan scrolls s from the top to the bottom of its document over n frames
// and returns one task per frame. Frames are captured sequentially so clock
// and extent easing evolve exactly as they would on screen.
func Plan(s *render.Session, n int) []worker.Task {
	if n <= 0 {
		return nil
	}
	extent := s.Tracker().Target()
	tasks := make([]worker.Task, n)
	for i := range tasks {
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		s.ScrollTo(extent * t)
		tasks[i] = worker.Task{Index: i, Frame: s.Advance()}
	}
	return tasks
}

// Options configures a Writer.
type Options struct {
	OutputDir string
	Prefix    string
	Soften    float32
	// Frames is the number of frames kept for the GIF; 0 disables it.
	Frames int
	Logger *slog.Logger
}

// Writer stores rendered frames as PNG files. It implements worker.Sink.
type Writer struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	frames []*image.Paletted
}

// NewWriter creates the output directory and prepares a writer.
func NewWriter(opts Options) (*Writer, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output dir is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "frame"
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	w := &Writer{opts: opts, logger: opts.Logger}
	if opts.Frames > 0 {
		w.frames = make([]*image.Paletted, opts.Frames)
	}
	return w, nil
}

func (w *Writer) log() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

// Path returns the file a frame index is written to.
func (w *Writer) Path(index int) string {
	return filepath.Join(w.opts.OutputDir, fmt.Sprintf("%s_%04d.png", w.opts.Prefix, index))
}

// Store writes img as <prefix>_<index>.png and, when a GIF was requested,
// keeps a palette-quantised copy. img is not retained.
func (w *Writer) Store(ctx context.Context, index int, frame render.Frame, img *image.RGBA) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var out image.Image = img
	if w.opts.Soften > 0 {
		out = Soften(img, w.opts.Soften)
	}

	path := w.Path(index)
	if err := WritePNG(path, out); err != nil {
		return "", err
	}

	if w.frames != nil && index >= 0 && index < len(w.frames) {
		pal := image.NewPaletted(out.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, out.Bounds(), out, image.Point{})
		w.mu.Lock()
		w.frames[index] = pal
		w.mu.Unlock()
	}

	w.log().Debug("Wrote frame", "index", index, "scroll", frame.ScrollOffset, "path", path)
	return path, nil
}

// WriteGIF encodes the kept frames of results, which the pool returns in
// task order. Any failed result aborts the GIF. delay is in 1/100 s.
func (w *Writer) WriteGIF(path string, delay int, results []worker.Result) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	anim := &gif.GIF{}
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("frame %d failed: %w", r.Task.Index, r.Err)
		}
		i := r.Task.Index
		if i < 0 || i >= len(w.frames) || w.frames[i] == nil {
			return fmt.Errorf("frame %d was not kept for the gif", i)
		}
		anim.Image = append(anim.Image, w.frames[i])
		anim.Delay = append(anim.Delay, delay)
	}
	if len(anim.Image) == 0 {
		return fmt.Errorf("no frames kept for gif")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gif %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close gif %s: %w", path, cerr)
		}
	}()

	if err := gif.EncodeAll(file, anim); err != nil {
		return fmt.Errorf("failed to encode gif %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes img to path. A failing close is reported, so a short
// write never passes as success.
func WritePNG(path string, img image.Image) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close frame %s: %w", path, cerr)
		}
	}()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode frame %s: %w", path, err)
	}
	return nil
}
