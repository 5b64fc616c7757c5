package diagram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/pkg/browser"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

// Default bounds for a render.
const (
	DefaultTimeout      = 20 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// PagePool hands out browser pages. *browser.Pool implements it.
type PagePool interface {
	Acquire(ctx context.Context) (browser.Page, error)
	Release(page browser.Page)
}

// ScriptSource provides the Mermaid bundle. *ScriptLoader implements it.
type ScriptSource interface {
	Load(ctx context.Context) (string, error)
}

// Options configures a Renderer.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	DefaultTheme string
	Logger       *log.Logger
}

// Output is a diagram render. On failure SVG holds a placeholder.
type Output struct {
	SVG         string
	DiagramType string
	Theme       string
	Width       int
	Height      int
	Warnings    []string
}

// Renderer renders Mermaid source through a PagePool.
type Renderer struct {
	pool   PagePool
	script ScriptSource
	opts   Options
	logger *log.Logger
}

// New returns a Renderer. Zero options take the package defaults.
func New(pool PagePool, script ScriptSource, opts Options) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if !IsTheme(opts.DefaultTheme) {
		opts.DefaultTheme = DefaultTheme
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{pool: pool, script: script, opts: opts, logger: logger}
}

// Render draws source with theme. The whole sequence, from page acquisition
// to SVG extraction, runs under the renderer timeout, and the page is always
// released. On error the returned Output carries a placeholder SVG.
func (r *Renderer) Render(ctx context.Context, source, theme string) (Output, error) {
	out := Output{DiagramType: DiagramType(source), Theme: r.opts.DefaultTheme}
	if theme != "" {
		if IsTheme(theme) {
			out.Theme = theme
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("unknown diagram theme %q, using %s", theme, out.Theme))
		}
	}

	svg, err := r.render(ctx, source, out.Theme)
	if err != nil {
		out.SVG = Placeholder(out.DiagramType, err)
		return out, err
	}
	out.SVG = svg
	if d := render.MeasureSVG(svg); d != nil {
		out.Width, out.Height = d.Width, d.Height
	}
	return out, nil
}

func (r *Renderer) render(ctx context.Context, source, theme string) (string, error) {
	if err := errors.ValidateSource("diagram", source); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	script, err := r.script.Load(ctx)
	if err != nil {
		return "", r.classify(ctx, err, "load diagram script")
	}

	page, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", r.classify(ctx, err, "acquire browser page")
	}
	defer r.pool.Release(page)

	if err := page.SetContent(ctx, BuildHarness(script, source, theme)); err != nil {
		return "", r.classify(ctx, err, "load diagram harness")
	}

	raw, err := r.poll(ctx, page)
	if err != nil {
		return "", err
	}
	return normalize(raw)
}

// poll checks the harness until it reports a result or ctx ends.
func (r *Renderer) poll(ctx context.Context, page browser.Page) (string, error) {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		var res probeResult
		if err := page.Evaluate(ctx, probeScript, &res); err != nil {
			return "", r.classify(ctx, err, "read diagram result")
		}
		if res.Done {
			if res.Error != "" {
				return "", errors.New(errors.ErrCodeSyntax, "%s", res.Error)
			}
			return res.SVG, nil
		}
		select {
		case <-ctx.Done():
			return "", r.classify(ctx, ctx.Err(), "wait for diagram")
		case <-ticker.C:
		}
	}
}

// classify maps a stage failure to the render taxonomy. Coded errors pass
// through; a deadline becomes TIMEOUT.
func (r *Renderer) classify(ctx context.Context, err error, stage string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "diagram render exceeded %s", r.opts.Timeout).
			WithHint("simplify the diagram or raise diagram.timeout")
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeRenderFailed, err, "%s", stage)
}

var xmlFixups = strings.NewReplacer(
	"<br>", "<br/>",
	"&nbsp;", "&#160;",
)

// normalize turns browser outerHTML into a standalone SVG document.
func normalize(svg string) (string, error) {
	svg = render.StampNamespace(strings.TrimSpace(svg))
	svg = xmlFixups.Replace(svg)
	if err := render.ValidateSVG(svg); err != nil {
		return "", errors.Wrap(errors.ErrCodeRenderFailed, err, "diagram produced invalid svg")
	}
	return svg, nil
}
