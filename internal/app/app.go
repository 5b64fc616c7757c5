// Package app wires configuration into a ready-to-serve set of renderers.
// It is shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/internal/config"
	"github.com/Kevin-nav/sankosides-sub000/pkg/browser"
	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/httputil"
	"github.com/Kevin-nav/sankosides-sub000/pkg/pipeline"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/circuit"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/code"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/mathtex"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/nodelink"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// Options replace external dependencies, mostly for tests.
type Options struct {
	Finder     *toolchain.Finder
	Launch     browser.LaunchFunc
	Executor   circuit.Executor
	HTTPClient *http.Client

	// Cache overrides the configured cache backend.
	Cache cache.Cache
}

// App holds everything a request needs. It is built once at startup.
type App struct {
	Config      *config.Config
	Logger      *log.Logger
	Tools       toolchain.Report
	Pool        *browser.Pool // nil when the browser is disabled
	Registry    *code.Registry
	Citations   *citation.Formatter
	Runner      *pipeline.Runner
	StartupTime time.Time
}

// New discovers the toolchain, opens the cache and builds every renderer.
// Missing tools are not fatal: the affected renders fail with
// TOOLCHAIN_MISSING and the health endpoint reports them.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	start := time.Now()
	if logger == nil {
		logger = log.Default()
	}

	finder := toolchain.DefaultFinder()
	if opts.Finder != nil {
		finder = *opts.Finder
	}
	tools := toolchain.Discover(finder, cfg.Candidates())
	logTools(logger, tools)

	formatter, err := citation.NewFormatter(cfg.Citation.DefaultStyle)
	if err != nil {
		return nil, fmt.Errorf("citation: %w", err)
	}
	registry := code.NewRegistry(cfg.Code.Languages, cfg.Code.DefaultTheme)

	renderers := pipeline.Renderers{
		Math:     mathtex.New(cfg.MathOptions()),
		Code:     code.NewHighlighter(registry, cfg.Code.TabWidth),
		Citation: formatter,
		Graph:    nodelink.RenderSVG,
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Tools:     tools,
		Registry:  registry,
		Citations: formatter,
	}

	if cfg.Browser.Enabled {
		a.Pool = browser.NewPool(browser.Options{
			Candidates:    cfg.Browser.Candidates,
			LaunchTimeout: cfg.Browser.LaunchTimeout,
			Flags:         cfg.Browser.Flags,
			Launch:        opts.Launch,
			Finder:        &finder,
			Logger:        logger.WithPrefix("browser"),
		})
		renderers.Diagram = diagram.New(a.Pool, newScriptLoader(cfg, opts.HTTPClient, logger), diagram.Options{
			Timeout:      cfg.Diagram.Timeout,
			PollInterval: cfg.Diagram.PollInterval,
			DefaultTheme: cfg.Diagram.DefaultTheme,
			Logger:       logger.WithPrefix("diagram"),
		})
	}

	if cfg.Circuit.Enabled {
		renderers.Circuit = circuit.New(circuit.Options{
			Tools:          tools,
			CompileTimeout: cfg.Circuit.CompileTimeout,
			ConvertTimeout: cfg.Circuit.ConvertTimeout,
			WorkDir:        cfg.Circuit.WorkDir,
			BasePackages:   cfg.Circuit.BasePackages,
			Executor:       opts.Executor,
			Logger:         logger.WithPrefix("circuit"),
		})
	}

	c := opts.Cache
	if c == nil {
		c, err = cache.Open(ctx, cfg.CacheOptions())
		if err != nil {
			if a.Pool != nil {
				_ = a.Pool.Close()
			}
			return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
		}
	}

	var keyer cache.Keyer
	if cfg.Cache.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.KeyPrefix)
	}

	a.Runner = pipeline.NewRunner(renderers, c, keyer, logger.WithPrefix("pipeline"))
	a.Runner.TTL = cfg.Cache.TTL
	a.Runner.BatchConcurrency = cfg.Server.BatchConcurrency
	a.Runner.MaxBatchItems = cfg.Server.MaxBatchItems
	a.StartupTime = time.Now()

	logger.Debug("app ready", "duration", time.Since(start).Round(time.Millisecond), "cache", cfg.Cache.Backend)
	return a, nil
}

func newScriptLoader(cfg *config.Config, client *http.Client, logger *log.Logger) *diagram.ScriptLoader {
	l := &diagram.ScriptLoader{
		Path:   cfg.Diagram.ScriptPath,
		URL:    cfg.Diagram.ScriptURL,
		Client: client,
		Logger: logger.WithPrefix("diagram"),
	}
	if l.Path == "" && cfg.Cache.Dir != "" {
		hc, err := httputil.NewCache(filepath.Join(cfg.Cache.Dir, "scripts"), cfg.Diagram.ScriptCacheTTL)
		if err != nil {
			logger.Warn("script cache unavailable", "dir", cfg.Cache.Dir, "err", err)
		} else {
			l.Cache = hc
		}
	}
	return l
}

func logTools(logger *log.Logger, r toolchain.Report) {
	all := append([]toolchain.Resolution{r.Browser, r.Compiler}, r.Converters...)
	for _, res := range all {
		if res.Found() {
			logger.Debug("tool found", "tool", res.Tool, "path", res.Path)
		} else {
			logger.Warn("tool missing", "tool", res.Tool, "err", res.Error())
		}
	}
}

// DiagramReady reports whether a browser executable was found. It never
// launches the browser.
func (a *App) DiagramReady() bool {
	if a.Pool == nil {
		return false
	}
	_, err := a.Pool.ExecPath()
	return err == nil
}

// BrowserPath returns the resolved browser executable, or empty.
func (a *App) BrowserPath() string {
	if a.Pool == nil {
		return ""
	}
	p, err := a.Pool.ExecPath()
	if err != nil {
		return ""
	}
	return p
}

// Uptime is the time since startup.
func (a *App) Uptime() time.Duration {
	return time.Since(a.StartupTime)
}

// Close shuts down the browser and the cache.
func (a *App) Close() error {
	var err error
	if a.Pool != nil {
		err = a.Pool.Close()
	}
	if cerr := a.Runner.Close(); err == nil {
		err = cerr
	}
	return err
}
