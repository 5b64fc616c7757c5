package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerTick = 80 * time.Millisecond
	// Elapsed time is shown once a render outlasts this, e.g. a cold pdflatex run.
	spinnerShowElapsed = time.Second
)

// spinner animates a status line on w (normally stderr, so stdout stays clean
// for artifacts) until Stop is called or ctx ends.
type spinner struct {
	w       io.Writer
	message string
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	width    int // widest line drawn so far, for clearing
	started  bool
	stopOnce sync.Once
	done     chan struct{}
	exited   chan struct{}
}

func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Start launches the animation. Calling it twice has no effect.
func (s *spinner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run(time.Now())
}

func (s *spinner) run(began time.Time) {
	defer close(s.exited)
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)], time.Since(began))
		}
	}
}

func (s *spinner) draw(frame string, elapsed time.Duration) {
	line := s.message
	if elapsed >= spinnerShowElapsed {
		line = fmt.Sprintf("%s (%ds)", s.message, int(elapsed.Seconds()))
	}
	out := styleIconSpinner.Render(frame) + " " + StyleDim.Render(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, lipgloss.Width(out))
	fmt.Fprint(s.w, "\r"+out)
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%*s\r", s.width, "")
		s.width = 0
	}
}

// Stop halts the animation and clears the line. It is safe to call more
// than once and without a prior Start.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.exited
		}
		s.cancel()
		s.clear()
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess(s.w, "%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError(s.w, "%s", message)
}

// Cancelled reports whether the parent context ended before Stop.
func (s *spinner) Cancelled() bool {
	select {
	case <-s.done:
		return false
	default:
		return s.ctx.Err() != nil
	}
}
