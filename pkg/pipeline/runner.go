package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/observability"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/circuit"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/code"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/mathtex"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/nodelink"
)

// DefaultTTL is how long successful renders stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// DiagramRenderer renders Mermaid source. *diagram.Renderer implements it.
type DiagramRenderer interface {
	Render(ctx context.Context, source, theme string) (diagram.Output, error)
}

// CircuitRenderer renders TikZ markup. *circuit.Renderer implements it.
type CircuitRenderer interface {
	Render(ctx context.Context, source string, packages []string) (circuit.Output, error)
}

// GraphRenderer renders DOT source. nodelink.RenderSVG satisfies it.
type GraphRenderer func(ctx context.Context, dot, layout string) (nodelink.Output, error)

// Renderers are the engines a Runner dispatches to. A nil engine makes its
// kind report UNSUPPORTED.
type Renderers struct {
	Math     *mathtex.Renderer
	Code     *code.Highlighter
	Citation *citation.Formatter
	Diagram  DiagramRenderer
	Circuit  CircuitRenderer
	Graph    GraphRenderer
}

// Runner encapsulates render dispatch with caching.
// Both CLI and API use it to avoid duplicating caching and error shaping.
//
// The Runner holds no per-request state. Multiple goroutines can safely use
// the same Runner.
type Runner struct {
	Renderers Renderers

	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger

	// BatchConcurrency bounds concurrent math renders within one batch.
	BatchConcurrency int
	// MaxBatchItems bounds the combined length of a batch.
	MaxBatchItems int
}

// Batch defaults.
const (
	DefaultBatchConcurrency = 4
	DefaultMaxBatchItems    = 200
)

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(r Renderers, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Renderers:        r,
		Cache:            c,
		Keyer:            keyer,
		TTL:              DefaultTTL,
		Logger:           logger,
		BatchConcurrency: DefaultBatchConcurrency,
		MaxBatchItems:    DefaultMaxBatchItems,
	}
}

// Math typesets a LaTeX expression. Malformed math fails with no artifact.
func (r *Runner) Math(ctx context.Context, req MathRequest) render.Result {
	return r.run(ctx, render.KindMath, req, func() render.Result {
		if r.Renderers.Math == nil {
			return unsupported(render.KindMath)
		}
		if err := errors.ValidateSource("latex", req.Latex); err != nil {
			return render.Failed(err)
		}
		out, err := r.Renderers.Math.Render(req.Latex, req.Display)
		if err != nil {
			return render.Failed(err)
		}
		return render.Succeeded(out.SVG, &render.Dimensions{Width: out.Width, Height: out.Height})
	})
}

// Diagram renders Mermaid source. Failures carry a placeholder SVG.
func (r *Runner) Diagram(ctx context.Context, req DiagramRequest) render.Result {
	return r.run(ctx, render.KindDiagram, req, func() render.Result {
		if r.Renderers.Diagram == nil {
			return render.FailedWithPlaceholder(errUnsupported(render.KindDiagram),
				diagram.Placeholder(diagram.DiagramType(req.Diagram), errUnsupported(render.KindDiagram))).
				WithMeta(MetaDiagramType, diagram.DiagramType(req.Diagram))
		}
		out, err := r.Renderers.Diagram.Render(ctx, req.Diagram, req.Theme)
		var res render.Result
		if err != nil {
			res = render.FailedWithPlaceholder(err, out.SVG)
			res.Warnings = out.Warnings
		} else {
			res = render.Succeeded(out.SVG, dims(out.Width, out.Height), out.Warnings...)
		}
		return res.WithMeta(MetaDiagramType, out.DiagramType).WithMeta(MetaTheme, out.Theme)
	})
}

// Circuit compiles TikZ markup. Failures carry no artifact.
func (r *Runner) Circuit(ctx context.Context, req CircuitRequest) render.Result {
	return r.run(ctx, render.KindCircuit, req, func() render.Result {
		if r.Renderers.Circuit == nil {
			return unsupported(render.KindCircuit)
		}
		out, err := r.Renderers.Circuit.Render(ctx, req.Tikz, req.Packages)
		if err != nil {
			return render.Failed(err)
		}
		return render.Succeeded(out.SVG, dims(out.Width, out.Height), out.Warnings...).
			WithMeta(MetaConverter, out.Converter)
	})
}

// Code highlights a snippet. It always succeeds; unsupported languages and
// engine failures degrade to escaped plain markup with a warning.
func (r *Runner) Code(ctx context.Context, req CodeRequest) render.Result {
	return r.run(ctx, render.KindCode, req, func() render.Result {
		if r.Renderers.Code == nil {
			return unsupported(render.KindCode)
		}
		if req.Code == "" {
			return render.Failed(errors.New(errors.ErrCodeInvalidInput, "code cannot be empty"))
		}
		if len(req.Code) > errors.MaxSourceLength {
			return render.Failed(errors.New(errors.ErrCodeInvalidInput, "code exceeds %d bytes", errors.MaxSourceLength))
		}
		out := r.Renderers.Code.Highlight(req.Code, req.Language, req.Theme)
		res := render.Succeeded(out.HTML, nil, out.Warnings...)
		res.Fallback = out.Fallback
		return res.WithMeta(MetaLanguage, out.Language).WithMeta(MetaTheme, out.Theme)
	})
}

// Graph renders Graphviz DOT source.
func (r *Runner) Graph(ctx context.Context, req GraphRequest) render.Result {
	return r.run(ctx, render.KindGraph, req, func() render.Result {
		if r.Renderers.Graph == nil {
			return unsupported(render.KindGraph)
		}
		out, err := r.Renderers.Graph(ctx, req.DOT, req.Layout)
		if err != nil {
			return render.Failed(err)
		}
		return render.Succeeded(out.SVG, dims(out.Width, out.Height)).WithMeta(MetaLayout, out.Layout)
	})
}

// Citations formats a citation list. Per-record failures are reported on
// the record; the only error is an unknown style or a missing formatter.
func (r *Runner) Citations(ctx context.Context, req CitationRequest) (CitationResult, error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(render.KindCitation))
	start := time.Now()

	res, err := r.citations(req)

	var code string
	if err != nil {
		code = string(errors.GetCode(err))
	}
	hooks.OnRenderComplete(ctx, string(render.KindCitation), time.Since(start), code)
	if err == nil && res.FallbackCount() > 0 {
		r.Logger.Warn("citations formatted with fallback", "count", res.FallbackCount(), "total", len(res.Citations))
	}
	return res, err
}

func (r *Runner) citations(req CitationRequest) (CitationResult, error) {
	if r.Renderers.Citation == nil {
		return CitationResult{}, errUnsupported(render.KindCitation)
	}
	style, err := r.Renderers.Citation.Style(req.Style)
	if err != nil {
		return CitationResult{}, err
	}
	formatted, err := r.Renderers.Citation.Format(req.Citations, style.ID)
	if err != nil {
		return CitationResult{}, err
	}
	if formatted == nil {
		formatted = []citation.Formatted{}
	}
	return CitationResult{Success: true, Citations: formatted, Style: style.ID}, nil
}

// Render dispatches a tagged request. It returns a render.Result for
// single-artifact kinds and a CitationResult for citations.
func (r *Runner) Render(ctx context.Context, req Request) (any, error) {
	switch req.Kind {
	case render.KindMath:
		if req.Math != nil {
			return r.Math(ctx, *req.Math), nil
		}
	case render.KindDiagram:
		if req.Diagram != nil {
			return r.Diagram(ctx, *req.Diagram), nil
		}
	case render.KindCircuit:
		if req.Circuit != nil {
			return r.Circuit(ctx, *req.Circuit), nil
		}
	case render.KindCode:
		if req.Code != nil {
			return r.Code(ctx, *req.Code), nil
		}
	case render.KindGraph:
		if req.Graph != nil {
			return r.Graph(ctx, *req.Graph), nil
		}
	case render.KindCitation:
		if req.Citation != nil {
			return r.Citations(ctx, *req.Citation)
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown render kind %q", req.Kind)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "%s request has no payload", req.Kind)
}

// run wraps a single render with hooks, caching and panic recovery. Only
// successful results are cached.
func (r *Runner) run(ctx context.Context, kind render.Kind, req any, fn func() render.Result) render.Result {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(kind))
	start := time.Now()

	res := r.cached(ctx, kind, req, func() render.Result { return r.safely(kind, fn) })

	var code string
	if res.Error != nil {
		code = string(res.Error.Code)
	}
	elapsed := time.Since(start)
	hooks.OnRenderComplete(ctx, string(kind), elapsed, code)
	if code != "" {
		r.Logger.Debug("render failed", "kind", kind, "code", code, "err", res.Message(), "duration", elapsed)
	} else {
		r.Logger.Debug("rendered", "kind", kind, "duration", elapsed)
	}
	return res
}

func (r *Runner) cached(ctx context.Context, kind render.Kind, req any, fn func() render.Result) render.Result {
	hooks := observability.Cache()
	key := r.Keyer.RenderKey(string(kind), req)

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var res render.Result
		if err := json.Unmarshal(data, &res); err == nil {
			hooks.OnCacheHit(ctx, string(kind))
			return res
		}
		// Undecodable entries are overwritten below.
	} else if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
	}
	hooks.OnCacheMiss(ctx, string(kind))

	res := fn()
	if !res.Success {
		return res
	}
	data, err := json.Marshal(res)
	if err != nil {
		return res
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return res
	}
	hooks.OnCacheSet(ctx, string(kind), len(data))
	return res
}

// safely converts a renderer panic into an INTERNAL_ERROR result.
func (r *Runner) safely(kind render.Kind, fn func() render.Result) (res render.Result) {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error("renderer panic", "kind", kind, "panic", p)
			res = render.Failed(errors.New(errors.ErrCodeInternal, "%s renderer crashed", kind))
		}
	}()
	return fn()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func dims(w, h int) *render.Dimensions {
	if w <= 0 || h <= 0 {
		return nil
	}
	return &render.Dimensions{Width: w, Height: h}
}

func errUnsupported(kind render.Kind) error {
	return errors.New(errors.ErrCodeUnsupported, "%s rendering is not enabled", kind).
		WithHint("%s", fmt.Sprintf("check the %s section of the configuration and run `sankorender doctor`", kind))
}

func unsupported(kind render.Kind) render.Result {
	return render.Failed(errUnsupported(kind))
}
