package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *render.Session {
	t.Helper()
	s, err := render.NewSession(profile.Default(), render.Viewport{Width: 80, Height: 60}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	s.SetContentHeight(1060)
	return s
}

func TestRenderSize(t *testing.T) {
	s := testSession(t)
	f := s.Snapshot()

	img := Render(s.Renderer(), f, 1, 0)
	assert.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())

	img = Render(s.Renderer(), f, 2, 0)
	assert.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())

	img = Render(s.Renderer(), f, 0, 1.5)
	assert.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())
}

func TestSoftenKeepsBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src.Pix[(5*10+5)*4+3] = 255
	dst := Soften(src, 1)
	require.Equal(t, src.Bounds(), dst.Bounds())
	require.Less(t, dst.Pix[(5*10+5)*4+3], uint8(255))
	require.Greater(t, dst.Pix[(5*10+6)*4+3], uint8(0))
}

func TestPlan(t *testing.T) {
	s := testSession(t)
	tasks := Plan(s, 5)
	require.Len(t, tasks, 5)

	require.Zero(t, tasks[0].Frame.ScrollOffset)
	require.Equal(t, 1000.0, tasks[4].Frame.ScrollOffset)
	for i := 1; i < len(tasks); i++ {
		assert.Equal(t, i, tasks[i].Index)
		assert.Greater(t, tasks[i].Frame.Clock, tasks[i-1].Frame.Clock)
		assert.GreaterOrEqual(t, tasks[i].Frame.ScrollOffset, tasks[i-1].Frame.ScrollOffset)
	}

	require.Nil(t, Plan(s, 0))
	one := Plan(s, 1)
	require.Len(t, one, 1)
	require.Zero(t, one[0].Frame.ScrollOffset)
}

func TestWriterWithPool(t *testing.T) {
	dir := t.TempDir()
	s := testSession(t)
	tasks := Plan(s, 4)

	w, err := NewWriter(Options{OutputDir: dir, Frames: len(tasks)})
	require.NoError(t, err)

	pool, err := worker.New(worker.Config{Workers: 2, Renderer: s.Renderer(), Scale: 1, Sink: w})
	require.NoError(t, err)
	results := pool.Run(context.Background(), tasks)
	require.Len(t, results, 4)
	for i, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, w.Path(i), r.Path)
		require.FileExists(t, r.Path)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frame_0002.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())

	gifPath := filepath.Join(dir, "scroll.gif")
	require.NoError(t, w.WriteGIF(gifPath, 4, results))

	f, err := os.Open(gifPath)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 4)
	assert.Equal(t, []int{4, 4, 4, 4}, anim.Delay)
}

func TestStoreDoesNotRetainRaster(t *testing.T) {
	w, err := NewWriter(Options{OutputDir: t.TempDir(), Frames: 1})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Pix[0], img.Pix[3] = 255, 255
	_, err = w.Store(context.Background(), 0, render.Frame{}, img)
	require.NoError(t, err)

	// the worker reuses its canvas for the next frame
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	r, _, _, _ := w.frames[0].At(0, 0).RGBA()
	assert.NotZero(t, r)
}

func TestWriteGIFRejectsFailedOrMissingFrames(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Options{OutputDir: dir, Frames: 2})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	path, err := w.Store(context.Background(), 0, render.Frame{}, img)
	require.NoError(t, err)

	ok := worker.Result{Task: worker.Task{Index: 0}, Path: path}
	failed := worker.Result{Task: worker.Task{Index: 1}, Err: errors.New("disk full")}
	missing := worker.Result{Task: worker.Task{Index: 1}}

	err = w.WriteGIF(filepath.Join(dir, "x.gif"), 4, []worker.Result{ok, failed})
	require.ErrorContains(t, err, "frame 1 failed")

	err = w.WriteGIF(filepath.Join(dir, "x.gif"), 4, []worker.Result{ok, missing})
	require.ErrorContains(t, err, "not kept")

	require.Error(t, w.WriteGIF(filepath.Join(dir, "x.gif"), 4, nil))

	noGIF, err := NewWriter(Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Error(t, noGIF.WriteGIF(filepath.Join(dir, "x.gif"), 4, []worker.Result{ok}))

	require.NoError(t, w.WriteGIF(filepath.Join(dir, "x.gif"), 4, []worker.Result{ok}))
}

func TestStoreCancelled(t *testing.T) {
	w, err := NewWriter(Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Store(ctx, 0, render.Frame{}, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, w.Path(0))
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.png")
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	require.NoError(t, WritePNG(path, img))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	err = WritePNG(filepath.Join(t.TempDir(), "missing", "one.png"), img)
	require.ErrorContains(t, err, "failed to create frame")
}

func TestNewWriterValidates(t *testing.T) {
	_, err := NewWriter(Options{})
	require.Error(t, err)

	w, err := NewWriter(Options{OutputDir: filepath.Join(t.TempDir(), "nested", "out")})
	require.NoError(t, err)
	assert.Equal(t, "frame", w.opts.Prefix)
	require.DirExists(t, w.opts.OutputDir)
}
