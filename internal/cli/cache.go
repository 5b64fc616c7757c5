package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
)

// scriptCacheDir is where the downloaded Mermaid script is kept, under the
// cache directory.
const scriptCacheDir = "scripts"

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. Only the file
// backend can be cleared from here; Redis and MongoDB entries expire by TTL.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var scripts bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if cfg.Cache.Backend != cache.BackendFile {
				printWarning(w, "cache backend is %q; only the file cache can be cleared", cfg.Cache.Backend)
				return nil
			}
			if _, err := os.Stat(cfg.Cache.Dir); os.IsNotExist(err) {
				printInfo(w, "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(cfg.Cache.Dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			if scripts {
				if err := os.RemoveAll(filepath.Join(cfg.Cache.Dir, scriptCacheDir)); err != nil {
					return fmt.Errorf("remove script cache: %w", err)
				}
			}

			printSuccess(w, "Cleared %d cached renders", count)
			printDetail(w, "Directory: %s", fc.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&scripts, "scripts", false, "also remove the downloaded Mermaid script")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Dir)
			return nil
		},
	}
}
