package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/internal/app"
	"github.com/Kevin-nav/sankosides-sub000/internal/config"
	"github.com/Kevin-nav/sankosides-sub000/pkg/buildinfo"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = config.AppName
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is set by --config. Empty searches the default locations.
	ConfigPath string

	// Verbose keeps the debug level set by --verbose over the config file.
	Verbose bool

	cfg     *config.Config
	appOpts app.Options // test seams for tool discovery and the browser
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "sankorender renders STEM assets to SVG and HTML",
		Long:         `sankorender turns LaTeX math, Mermaid diagrams, TikZ circuits, Graphviz graphs, source code and citation metadata into presentation-ready SVG, HTML and text, as an HTTP service or one-off from the command line.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ./sankorender.toml or $XDG_CONFIG_HOME/sankorender/sankorender.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.doctorCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & App Factory
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := configureLogger(c.Logger, cfg.Logging, c.Verbose); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newApp builds the renderers from configuration. Callers must Close it.
func (c *CLI) newApp(ctx context.Context) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, c.Logger, c.appOpts)
}

// finder returns the tool finder used for discovery.
func (c *CLI) finder() toolchain.Finder {
	if c.appOpts.Finder != nil {
		return *c.appOpts.Finder
	}
	return toolchain.DefaultFinder()
}
