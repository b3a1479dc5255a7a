package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback defines the interface for progress reporting while pages
// are processed. Calls come from a single goroutine.
type ProgressCallback interface {
	// OnStart is called when processing begins with the total number of pages.
	OnStart(total int)

	// OnProgress is called after every finished page.
	OnProgress(current, total int)

	// OnComplete is called when processing is finished.
	OnComplete()

	// OnError is called for pages that failed to render or recognize.
	OnError(page int, err error)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// ConsoleProgressCallback draws a single-line progress bar, typically on stderr.
type ConsoleProgressCallback struct {
	mu             sync.Mutex
	writer         io.Writer
	width          int
	updateInterval time.Duration
	start          time.Time
	lastDraw       time.Time
	failed         int
	now            func() time.Time
}

// NewConsoleProgressCallback creates a console reporter writing to w
// (os.Stderr when nil).
func NewConsoleProgressCallback(w io.Writer) *ConsoleProgressCallback {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         w,
		width:          30,
		updateInterval: 100 * time.Millisecond,
		now:            time.Now,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	c.width = max(1, width)
	return c
}

// WithUpdateInterval sets the minimum time between redraws. The final page
// is always drawn.
func (c *ConsoleProgressCallback) WithUpdateInterval(d time.Duration) *ConsoleProgressCallback {
	c.updateInterval = d
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.start = c.now()
	c.lastDraw = time.Time{}
	c.failed = 0
	_, _ = fmt.Fprintf(c.writer, "Processing %d pages\n", total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if current < total && now.Sub(c.lastDraw) < c.updateInterval {
		return
	}
	c.lastDraw = now
	_, _ = fmt.Fprint(c.writer, "\r"+c.line(current, total, now))
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := c.now().Sub(c.start).Round(time.Millisecond)
	_, _ = fmt.Fprintf(c.writer, "\nDone in %v (%d failed)\n", elapsed, c.failed)
}

func (c *ConsoleProgressCallback) OnError(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failed++
	_, _ = fmt.Fprintf(c.writer, "\npage %d: %v\n", page, err)
}

// line renders "[####------] 4/10 40% 2.0 pages/s ETA 3s".
func (c *ConsoleProgressCallback) line(current, total int, now time.Time) string {
	if total <= 0 {
		return ""
	}
	filled := c.width * current / total
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat("-", c.width-filled))
	fmt.Fprintf(&b, "] %d/%d %.0f%%", current, total, float64(current)*100/float64(total))

	elapsed := now.Sub(c.start)
	if elapsed <= 0 || current <= 0 {
		return b.String()
	}
	rate := float64(current) / elapsed.Seconds()
	fmt.Fprintf(&b, " %.1f pages/s", rate)
	if current < total {
		eta := time.Duration(float64(total-current) / rate * float64(time.Second))
		fmt.Fprintf(&b, " ETA %v", eta.Round(time.Second))
	}
	return b.String()
}

// LogProgressCallback reports progress through slog every N pages.
type LogProgressCallback struct {
	logger  *slog.Logger
	every   int
	lastLog int
	start   time.Time
}

// NewLogProgressCallback creates a log-based reporter. every <= 0 logs each page.
func NewLogProgressCallback(logger *slog.Logger, every int) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, every: max(1, every)}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.start = time.Now()
	l.lastLog = 0
	l.logger.Debug("processing started", "pages", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.lastLog < l.every && current != total {
		return
	}
	l.lastLog = current
	l.logger.Debug("progress",
		"done", current,
		"pages", total,
		"elapsed", time.Since(l.start).Round(time.Millisecond),
	)
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Debug("processing completed", "elapsed", time.Since(l.start).Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(page int, err error) {
	l.logger.Warn("page failed", "page", page, "error", err)
}

// MultiProgressCallback fans out to several callbacks.
type MultiProgressCallback []ProgressCallback

func (m MultiProgressCallback) OnStart(total int) {
	for _, cb := range m {
		cb.OnStart(total)
	}
}

func (m MultiProgressCallback) OnProgress(current, total int) {
	for _, cb := range m {
		cb.OnProgress(current, total)
	}
}

func (m MultiProgressCallback) OnComplete() {
	for _, cb := range m {
		cb.OnComplete()
	}
}

func (m MultiProgressCallback) OnError(page int, err error) {
	for _, cb := range m {
		cb.OnError(page, err)
	}
}
