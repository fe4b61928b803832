package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks frame rendering and prints a one-line bar to stderr.
// Besides counts it keeps the render cost of the frames seen so far, which
// is what a slow export is usually diagnosed with.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	lines     int
	slowest   Result
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker writing to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records one finished frame.
func (p *Progress) Update(r Result, completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	if r.Err == nil {
		p.lines += r.Stats.Lines
		if r.Elapsed > p.slowest.Elapsed {
			p.slowest = r
		}
	}
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print writes the current progress line.
func (p *Progress) Print() {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	// Rate and ETA
	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed)/rate) * time.Second
	}

	// A zero total renders an empty bar instead of dividing by zero.
	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d frames", bar, completed, total)
	if failed > 0 {
		line += fmt.Sprintf(" (%d failed)", failed)
	}
	line += fmt.Sprintf(" - %.1f fps", rate)
	if eta > 0 && completed < total {
		line += " - ETA: " + formatDuration(eta)
	}
	if completed == total {
		line += " - Done in " + formatDuration(elapsed)
	}

	// Pad over whatever the previous line left behind
	line += "          "

	fmt.Fprint(p.output, line)
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary returns a one-line summary of the completed work, including the
// mean number of contour lines per frame and the slowest frame.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed, total, failed, lines := p.completed, p.total, p.failed, p.lines
	slowest := p.slowest
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	ok := completed - failed
	var rate, perFrame float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}
	if ok > 0 {
		perFrame = float64(lines) / float64(ok)
	}

	s := fmt.Sprintf("Rendered %d/%d frames (%d failed) in %s (%.1f fps, %.1f lines/frame)",
		ok, total, failed, formatDuration(elapsed), rate, perFrame)
	if slowest.Elapsed > 0 {
		s += fmt.Sprintf(", slowest #%d at scroll %.0f took %s",
			slowest.Task.Index, slowest.Task.Frame.ScrollOffset, slowest.Elapsed.Round(time.Millisecond))
	}
	return s
}

// formatDuration formats a duration for humans.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
