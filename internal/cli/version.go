package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, StyleTitle.Render(appName)+" "+StyleValue.Render(buildinfo.Version))
			printKeyValue(w, "commit", buildinfo.Commit)
			printKeyValue(w, "built", buildinfo.Date)
		},
	}
}
