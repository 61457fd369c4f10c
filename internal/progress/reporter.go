package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const barWidth = 30

// Options configures the progress reporter.
type Options struct {
	// Total is the number of items expected.
	Total int

	// Description is printed in front of the bar.
	Description string

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to redraw.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter draws a single-line item counter, redrawn in place.
type Reporter struct {
	opts Options

	done      atomic.Int64
	failed    atomic.Int64
	startTime time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// IsTerminal reports whether stdout is attached to a terminal, the only case
// in which in-place redraws make sense.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Start begins redrawing in the background.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.startTime = time.Now()

	go r.updateLoop()
}

// Stop prints the final state and waits for the redraw loop to exit.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// Add marks one item finished.
func (r *Reporter) Add(success bool) {
	r.done.Add(1)
	if !success {
		r.failed.Add(1)
	}
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			fmt.Fprint(r.opts.Output, r.line(), "\n")
			return
		case <-ticker.C:
			fmt.Fprint(r.opts.Output, r.line())
		}
	}
}

// line renders e.g. "\rUpdating prices: 40% |############      | 4/10 [3s]".
func (r *Reporter) line() string {
	done := r.done.Load()
	total := int64(r.opts.Total)

	var percent int64
	filled := 0
	if total > 0 {
		percent = done * 100 / total
		filled = int(done * barWidth / total)
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled)
	elapsed := time.Since(r.startTime).Round(time.Second)

	s := fmt.Sprintf("\r%s: %3d%% |%s| %d/%d [%s]", r.opts.Description, percent, bar, done, total, elapsed)
	if failed := r.failed.Load(); failed > 0 {
		s += fmt.Sprintf(" %d failed", failed)
	}
	return s
}
