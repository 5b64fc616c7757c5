package browser

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/observability"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// DefaultLaunchTimeout bounds a single browser launch.
const DefaultLaunchTimeout = 30 * time.Second

// DefaultFlags are passed to every launched browser.
var DefaultFlags = []string{
	"headless",
	"no-sandbox",
	"disable-gpu",
	"disable-dev-shm-usage",
	"disable-setuid-sandbox",
}

// State is the lifecycle state of the pooled browser.
type State int

const (
	StateUninitialized State = iota
	StateLaunching
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// Page is an isolated browser tab.
type Page interface {
	// SetContent replaces the document with html and runs its scripts.
	SetContent(ctx context.Context, html string) error
	// Evaluate runs a JavaScript expression, awaiting promises, and decodes
	// the JSON result into out.
	Evaluate(ctx context.Context, expr string, out any) error
	Close() error
}

// Browser is a running browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Connected() bool
	Close() error
}

// LaunchFunc starts a browser at execPath. ctx bounds the startup only.
type LaunchFunc func(ctx context.Context, execPath string, flags []string) (Browser, error)

// Options configures a Pool.
type Options struct {
	// Candidates are executable names or paths tried in order.
	// Empty uses the platform defaults.
	Candidates    []string
	LaunchTimeout time.Duration
	Flags         []string
	Launch        LaunchFunc
	Finder        *toolchain.Finder
	Logger        *log.Logger
}

// attempt is one in-flight launch shared by every waiter.
type attempt struct {
	done    chan struct{}
	browser Browser
	err     error
}

// Pool owns the shared browser instance.
type Pool struct {
	opts       Options
	execPath   string
	resolveErr error
	logger     *log.Logger

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	browser  Browser
	inflight *attempt
	launches int
	closed   bool
}

// NewPool resolves the browser executable and returns an idle pool. A missing
// executable is not an error here; it is reported by every Acquire and by
// ExecPath so the service can still start and report health.
func NewPool(opts Options) *Pool {
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = DefaultLaunchTimeout
	}
	if len(opts.Flags) == 0 {
		opts.Flags = DefaultFlags
	}
	if opts.Launch == nil {
		opts.Launch = LaunchChromedp
	}
	if len(opts.Candidates) == 0 {
		opts.Candidates = toolchain.DefaultBrowserCandidates()
	}
	finder := toolchain.DefaultFinder()
	if opts.Finder != nil {
		finder = *opts.Finder
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &Pool{opts: opts, logger: logger}
	p.base, p.cancel = context.WithCancel(context.Background())
	p.execPath, p.resolveErr = finder.Resolve(toolchain.Browser, opts.Candidates)
	if p.resolveErr != nil {
		logger.Warn("no browser executable found", "candidates", opts.Candidates)
	}
	return p
}

// ExecPath returns the resolved browser executable.
func (p *Pool) ExecPath() (string, error) {
	return p.execPath, p.resolveErr
}

// State reports the current lifecycle state.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateReady && !p.browser.Connected() {
		return StateDisconnected
	}
	return p.state
}

// Ready reports whether a connected browser is available right now.
func (p *Pool) Ready() bool {
	return p.State() == StateReady
}

// Launches returns how many launches the pool has started.
func (p *Pool) Launches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.launches
}

// Acquire returns a fresh page on the shared browser, launching or
// relaunching the browser as needed. Callers must Release the page.
func (p *Pool) Acquire(ctx context.Context) (Page, error) {
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	for retry := 0; ; retry++ {
		b, err := p.get(ctx)
		if err != nil {
			return nil, err
		}
		page, err := b.NewPage(ctx)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "waiting for browser page")
		}
		if b.Connected() || retry > 0 {
			return nil, errors.Wrap(errors.ErrCodeBrowserUnavailable, err, "open browser page")
		}
		// The browser died between the check and the page; relaunch once.
		p.discard(b)
	}
}

// Release closes a page obtained from Acquire. Nil is ignored.
func (p *Pool) Release(page Page) {
	if page == nil {
		return
	}
	if err := page.Close(); err != nil {
		p.logger.Debug("close browser page", "err", err)
	}
}

// get returns a connected browser, joining or starting a launch.
func (p *Pool) get(ctx context.Context) (Browser, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New(errors.ErrCodeBrowserUnavailable, "browser pool is closed")
	}
	if p.browser != nil {
		if p.browser.Connected() {
			b := p.browser
			p.mu.Unlock()
			return b, nil
		}
		p.dropLocked()
	}
	a := p.inflight
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		p.inflight = a
		p.state = StateLaunching
		p.launches++
		go p.launch(a)
	}
	p.mu.Unlock()

	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "waiting for browser launch")
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.browser, nil
}

func (p *Pool) launch(a *attempt) {
	ctx, cancel := context.WithTimeout(p.base, p.opts.LaunchTimeout)
	defer cancel()

	p.logger.Info("launching browser", "path", p.execPath)
	start := time.Now()
	b, err := p.opts.Launch(ctx, p.execPath, p.opts.Flags)
	elapsed := time.Since(start)
	observability.Browser().OnLaunch(ctx, p.execPath, elapsed, err)

	if err != nil {
		code := errors.ErrCodeBrowserUnavailable
		if ctx.Err() == context.DeadlineExceeded {
			code = errors.ErrCodeTimeout
		}
		a.err = errors.Wrap(code, err, "launch browser %s", p.execPath)
		p.logger.Error("browser launch failed", "path", p.execPath, "err", err, "duration", elapsed)
	} else {
		a.browser = b
		p.logger.Info("browser ready", "path", p.execPath, "duration", elapsed)
	}

	p.mu.Lock()
	p.inflight = nil
	switch {
	case p.closed:
		if b != nil {
			_ = b.Close()
		}
		a.browser = nil
		a.err = errors.New(errors.ErrCodeBrowserUnavailable, "browser pool is closed")
	case err != nil:
		p.state = StateUninitialized
	default:
		p.browser = b
		p.state = StateReady
	}
	p.mu.Unlock()
	close(a.done)
}

// discard drops b if it is still the pooled browser.
func (p *Pool) discard(b Browser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == b {
		p.dropLocked()
	}
}

func (p *Pool) dropLocked() {
	old := p.browser
	p.browser = nil
	p.state = StateDisconnected
	p.logger.Warn("browser disconnected, will relaunch", "path", p.execPath)
	observability.Browser().OnDisconnect(p.base, p.execPath)
	go func() { _ = old.Close() }()
}

// Close shuts the browser down. Subsequent Acquire calls fail.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	b := p.browser
	p.browser = nil
	p.state = StateUninitialized
	p.mu.Unlock()

	p.cancel()
	if b != nil {
		return b.Close()
	}
	return nil
}
