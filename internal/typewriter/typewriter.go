// Package typewriter reveals styled text one rune at a time. Several tracks
// (one per language) advance in lockstep so they finish together with the
// longest one.
package typewriter

import (
	"context"
	"time"
)

const (
	// DefaultInterval is the delay between two steps.
	DefaultInterval = 25 * time.Millisecond
	// DefaultStartDelay is the pause before the first step.
	DefaultStartDelay = 500 * time.Millisecond
)

// Segment is a run of text sharing one style class. An empty Class means
// unstyled text.
type Segment struct {
	Text  string `mapstructure:"text"`
	Class string `mapstructure:"class"`
}

// Span is the typed part of a segment.
type Span struct {
	Text  string
	Class string
}

// Track is the progress of one text.
type Track struct {
	segments [][]rune
	classes  []string
	total    int

	seg   int
	char  int
	spans []Span
}

func newTrack(segs []Segment) *Track {
	t := &Track{}
	for _, s := range segs {
		r := []rune(s.Text)
		if len(r) == 0 {
			continue
		}
		t.segments = append(t.segments, r)
		t.classes = append(t.classes, s.Class)
		t.total += len(r)
	}
	return t
}

// Len returns the total number of runes of the track.
func (t *Track) Len() int { return t.total }

// Done reports whether every rune has been typed.
func (t *Track) Done() bool { return t.seg >= len(t.segments) }

// Spans returns the typed text grouped by segment. The slice is a copy.
func (t *Track) Spans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// Text returns the typed text without styling.
func (t *Track) Text() string {
	var n int
	for _, s := range t.spans {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range t.spans {
		b = append(b, s.Text...)
	}
	return string(b)
}

func (t *Track) step() {
	if t.Done() {
		return
	}
	if t.char == 0 {
		t.spans = append(t.spans, Span{Class: t.classes[t.seg]})
	}
	last := &t.spans[len(t.spans)-1]
	last.Text += string(t.segments[t.seg][t.char])
	t.char++
	if t.char >= len(t.segments[t.seg]) {
		t.seg++
		t.char = 0
	}
}

// Writer drives a set of tracks.
type Writer struct {
	tracks []*Track
	index  int
	maxLen int
}

// New creates a writer with one track per segment list.
func New(tracks ...[]Segment) *Writer {
	w := &Writer{}
	for _, segs := range tracks {
		t := newTrack(segs)
		w.tracks = append(w.tracks, t)
		w.maxLen = max(w.maxLen, t.Len())
	}
	return w
}

// Track returns the i-th track.
func (w *Writer) Track(i int) *Track { return w.tracks[i] }

// Tracks returns the number of tracks.
func (w *Writer) Tracks() int { return len(w.tracks) }

// Done reports whether the longest track has been typed.
func (w *Writer) Done() bool { return w.index >= w.maxLen }

// Step types one rune on every unfinished track. It returns false once the
// writer was already done.
func (w *Writer) Step() bool {
	if w.Done() {
		return false
	}
	for _, t := range w.tracks {
		if w.index < t.Len() {
			t.step()
		}
	}
	w.index++
	return true
}

// Finish types everything that is left.
func (w *Writer) Finish() {
	for w.Step() {
	}
}

// Run steps the writer every interval after startDelay until it is done or
// ctx is cancelled. onStep, when non-nil, is called after every step from the
// goroutine running Run.
func (w *Writer) Run(ctx context.Context, startDelay, interval time.Duration, onStep func()) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if startDelay > 0 {
		timer := time.NewTimer(startDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if !w.Step() {
			return nil
		}
		if onStep != nil {
			onStep()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
