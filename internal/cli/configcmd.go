package cli

import (
	"fmt"
	"net/url"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/internal/config"
)

const redacted = "********"

// configCommand groups commands that inspect configuration.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())
	return cmd
}

// configShowCommand prints the effective configuration, after defaults, the
// file and SANKORENDER_* environment overrides, as TOML.
func (c *CLI) configShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			out := *cfg
			if !reveal {
				redact(&out)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "show secrets instead of masking them")
	return cmd
}

// configPathCommand prints which file was loaded, if any.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Viper(c.ConfigPath)
			if err != nil {
				return err
			}
			if f := config.File(v); f != "" {
				fmt.Fprintln(cmd.OutOrStdout(), f)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), "No config file found; using defaults")
			printNextStep(cmd.OutOrStdout(), "Create one at", dir+"/"+config.AppName+".toml")
			return nil
		},
	}
}

// redact masks credentials in cfg.
func redact(cfg *config.Config) {
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = redacted
	}
	if u, err := url.Parse(cfg.Cache.Mongo.URI); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
			cfg.Cache.Mongo.URI = u.String()
		}
	}
}
