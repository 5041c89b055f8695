package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a terminal file. Plain io.Writers such
// as *bytes.Buffer are never terminals.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar shows determinate progress, e.g.
//
//	[=========>          ]  45% Scanning applications
//
// On a terminal the bar redraws in place. Elsewhere a single line is
// written when the bar completes.
type ProgressBar struct {
	mu          sync.Mutex
	w           io.Writer
	total       int
	current     int
	width       int
	description string
	finished    bool
}

// NewProgress creates a progress bar writing to stderr.
func NewProgress(total int, description string) *ProgressBar {
	return &ProgressBar{
		w:           os.Stderr,
		total:       total,
		width:       30,
		description: description,
	}
}

// SetWriter sets the output writer.
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.w = w
}

// Update sets the progress to done out of total. It matches the
// directory scanner's progress callback.
func (p *ProgressBar) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.total = total
	p.current = min(done, total)
	if writerIsTTY(p.w) {
		fmt.Fprintf(p.w, "\r%s", p.line())
	}
}

// Finish completes the bar and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true
	p.current = p.total

	if writerIsTTY(p.w) {
		fmt.Fprintf(p.w, "\r%s\n", p.line())
		return
	}
	fmt.Fprintln(p.w, p.line())
}

// line must be called with the lock held.
func (p *ProgressBar) line() string {
	pct, filled := 100, p.width
	if p.total > 0 {
		pct = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	var bar string
	switch {
	case filled <= 0:
		bar = strings.Repeat(" ", p.width)
	case filled >= p.width:
		bar = strings.Repeat("=", p.width)
	default:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(" ", p.width-filled)
	}
	return fmt.Sprintf("[%s] %3d%% %s", bar, pct, p.description)
}

// Spinner shows indeterminate progress with elapsed time, e.g.
//
//	/  Loading today's timeline (2s)
//
// On a non-terminal the message is printed once and nothing animates.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	frames  []string
	started time.Time
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		w:       os.Stderr,
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
	}
}

// SetWriter sets the output writer. It must be called before Start.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()

	if !writerIsTTY(s.w) {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.animate()
}

func (s *Spinner) animate() {
	defer close(s.exited)

	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for i := 0; ; i++ {
		select {
		case <-t.C:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s  %s (%ds)", s.frames[i%len(s.frames)], s.message, int(time.Since(s.started).Seconds()))
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, exited := s.done, s.exited
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-exited

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+16))
}
