package cli

import (
	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/internal/app"
	"github.com/Kevin-nav/sankosides-sub000/internal/server"
)

// serveCommand creates the serve command that runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rendering service",
		Long: `Run the HTTP rendering service.

Tools are discovered once at startup. Missing tools do not stop the
server: the affected endpoints fail with TOOLCHAIN_MISSING and /health
reports the service as degraded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					c.Logger.Warn("shutdown", "err", err)
				}
			}()

			app.RegisterLogHooks(c.Logger)
			srv := server.New(a)
			c.Logger.Info("starting "+appName,
				"addr", srv.Addr(),
				"cache", cfg.Cache.Backend,
				"diagrams", a.DiagramReady(),
				"circuits", a.Tools.Compiler.Found(),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
