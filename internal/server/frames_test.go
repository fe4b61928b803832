package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/altimeter"
	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrames(t *testing.T, cfg FramesConfig) *Frames {
	t.Helper()
	if cfg.Profile.Name == "" {
		cfg.Profile = profile.Default()
	}
	f, err := NewFrames(cfg, nil)
	require.NoError(t, err)
	return f
}

func TestFrameHandler(t *testing.T) {
	f := newTestFrames(t, FramesConfig{Seed: 7})

	req := httptest.NewRequest(http.MethodGet, "/frame.png?width=64&height=48&scroll=200&content=1000&clock=3", nil)
	rec := httptest.NewRecorder()
	f.FrameHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
	assert.EqualValues(t, 1, f.Status().TotalRendered)
}

func TestFrameHandlerScale(t *testing.T) {
	f := newTestFrames(t, FramesConfig{})

	req := httptest.NewRequest(http.MethodGet, "/frame.png?width=40&height=30&scale=2", nil)
	rec := httptest.NewRecorder()
	f.FrameHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
}

func TestFrameHandlerRejectsBadParams(t *testing.T) {
	f := newTestFrames(t, FramesConfig{MaxWidth: 500, MaxHeight: 500})

	for _, q := range []string{
		"width=abc",
		"width=0",
		"width=501",
		"height=-3",
		"scroll=NaN",
		"content=Inf",
		"clock=x",
		"scale=0",
		"width=400&scale=2",
		"scroll=-1&content=1000",
		"scroll=1e18&content=2000",
		"content=-5",
	} {
		t.Run(q, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.FrameHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.EqualValues(t, 12, f.Status().TotalRejected)
}

func TestFrameHandlerBusy(t *testing.T) {
	f := newTestFrames(t, FramesConfig{MaxConcurrent: 1, RenderTimeout: 20 * time.Millisecond})
	f.sem <- struct{}{}
	defer func() { <-f.sem }()

	rec := httptest.NewRecorder()
	f.FrameHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png?width=10&height=10", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, f.Status().QueuedRenders)
}

func TestFrameHandlerDeepScroll(t *testing.T) {
	f := newTestFrames(t, FramesConfig{RenderTimeout: 5 * time.Second})

	rec := httptest.NewRecorder()
	f.FrameHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png?width=64&height=48&scroll=1e18&content=2e18", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, f.Status().ActiveRenders)
	assert.Len(t, f.sem, 0)
}

func TestAltimeterHandler(t *testing.T) {
	f := newTestFrames(t, FramesConfig{})

	q := url.Values{"scroll": {"2500"}, "content": {"6000"}, "viewport": {"1000"}}
	rec := httptest.NewRecorder()
	f.AltimeterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/altimeter?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got altimeter.Reading
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 0.5, got.Percent)
	assert.Contains(t, []string{"050", "051"}, got.Display)
	assert.True(t, got.ShowReturn)
	assert.True(t, got.ShowMobileReturn)

	rec = httptest.NewRecorder()
	f.AltimeterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/altimeter?scroll=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusHandler(t *testing.T) {
	f := newTestFrames(t, FramesConfig{Seed: 99, MaxConcurrent: 3})

	rec := httptest.NewRecorder()
	f.StatusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "portfolio", st.Profile)
	assert.EqualValues(t, 99, st.Seed)
	assert.Equal(t, 3, st.MaxConcurrent)
}

func TestNewFramesInvalidProfile(t *testing.T) {
	p := profile.Default()
	p.Scan.SampleStep = 0
	_, err := NewFrames(FramesConfig{Profile: p}, nil)
	require.Error(t, err)
}
