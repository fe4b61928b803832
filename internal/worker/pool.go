// Package worker renders batches of frame snapshots in parallel. Every
// worker owns one canvas that it redraws for each frame it takes, so a
// sequence costs one raster allocation per worker instead of one per frame.
package worker

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/canvas"
	"github.com/MeKo-Tech/contourbg/internal/render"
)

// Sink stores a rendered frame. img belongs to the calling worker and is
// overwritten by its next frame, so Store must not keep it after returning.
// Implementations must be safe for concurrent use.
type Sink interface {
	Store(ctx context.Context, index int, frame render.Frame, img *image.RGBA) (path string, err error)
}

// Task is a single frame to render. Frames are computed up front by a
// sequential session so workers never share mutable state.
type Task struct {
	Index int
	Frame render.Frame
}

// Result represents the outcome of a frame task.
type Result struct {
	Task    Task
	Path    string
	Stats   render.Stats
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called with each finished result and the running counts.
// Calls are serialized.
type ProgressFunc func(r Result, completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers  int
	Renderer *render.Renderer
	// Scale is the device pixel ratio of the rendered frames (default 1).
	Scale      float64
	Sink       Sink
	OnProgress ProgressFunc
}

// Pool draws frames on a fixed number of goroutines.
type Pool struct {
	workers    int
	renderer   *render.Renderer
	scale      float64
	sink       Sink
	onProgress ProgressFunc

	mu        sync.Mutex
	total     int
	completed int
	failed    int
}

// New creates a new worker pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	scale := cfg.Scale
	if !(scale > 0) {
		scale = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		scale:      scale,
		sink:       cfg.Sink,
		onProgress: cfg.OnProgress,
	}, nil
}

// Run renders all tasks and returns one result per task, in task order.
// Tasks that never started because ctx was cancelled carry ctx's error.
// The function blocks until every started frame is stored.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	p.mu.Lock()
	p.total, p.completed, p.failed = len(tasks), 0, 0
	p.mu.Unlock()

	results := make([]Result, len(tasks))
	started := make([]bool, len(tasks))

	// Feed task positions; each worker writes only the slots it takes.
	next := make(chan int)
	go func() {
		defer close(next)
		for i := range tasks {
			select {
			case next <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, tasks, next, results, started)
		}()
	}
	wg.Wait()

	for i, ok := range started {
		if !ok {
			results[i] = Result{Task: tasks[i], Err: ctx.Err()}
		}
	}
	return results
}

func (p *Pool) worker(ctx context.Context, tasks []Task, next <-chan int, results []Result, started []bool) {
	var c *canvas.Canvas
	for i := range next {
		task := tasks[i]
		started[i] = true

		if err := ctx.Err(); err != nil {
			results[i] = Result{Task: task, Err: err}
			p.report(results[i])
			continue
		}

		w, h := task.Frame.Viewport.Pixels(p.scale)
		if c == nil {
			c = canvas.NewScaled(w, h, p.scale)
		} else {
			// No-op unless the viewport changed within the sequence.
			c.Resize(w, h)
		}

		start := time.Now()
		stats := p.renderer.Draw(c, task.Frame)
		path, err := p.sink.Store(ctx, task.Index, task.Frame, c.Image())

		results[i] = Result{
			Task:    task,
			Path:    path,
			Stats:   stats,
			Err:     err,
			Elapsed: time.Since(start),
		}
		p.report(results[i])
	}
}

func (p *Pool) report(r Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if r.Err != nil {
		p.failed++
	}
	if p.onProgress != nil {
		p.onProgress(r, p.completed, p.total, p.failed)
	}
}
