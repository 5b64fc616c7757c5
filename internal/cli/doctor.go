package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kevin-nav/sankosides-sub000/internal/config"
	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// rsvgConvert is the exporter behind render --format pdf|png.
const rsvgConvert = "rsvg-convert"

const cacheProbeTimeout = 5 * time.Second

// toolCheck is one row of the doctor report.
type toolCheck struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// doctorReport is what doctor prints, as a table or as JSON.
type doctorReport struct {
	Config string      `json:"config,omitempty"`
	Tools  []toolCheck `json:"tools"`
	Cache  struct {
		Backend string `json:"backend"`
		OK      bool   `json:"ok"`
		Error   string `json:"error,omitempty"`
	} `json:"cache"`
	Script string `json:"script"`
}

// missing counts tools that were not found.
func (r doctorReport) missing() int {
	n := 0
	for _, t := range r.Tools {
		if !t.Found {
			n++
		}
	}
	return n
}

func (c *CLI) doctorCommand() *cobra.Command {
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, the cache backend and the Mermaid script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			report := c.diagnose(cmd.Context(), cfg)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printDoctor(w, report)
			}

			if strict && (report.missing() > 0 || !report.Cache.OK) {
				return errors.New(errors.ErrCodeToolchainMissing, "%d tool(s) missing", report.missing())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when anything is missing")
	return cmd
}

// diagnose runs discovery and probes the cache. It never launches a browser.
func (c *CLI) diagnose(ctx context.Context, cfg *config.Config) doctorReport {
	finder := c.finder()
	tools := toolchain.Discover(finder, cfg.Candidates())

	var r doctorReport
	if v, err := config.Viper(c.ConfigPath); err == nil {
		r.Config = config.File(v)
	}

	r.Tools = append(r.Tools, check(tools.Browser, "mermaid diagrams"))
	r.Tools = append(r.Tools, check(tools.Compiler, "tikz compile"))
	for _, conv := range tools.Converters {
		r.Tools = append(r.Tools, check(conv, "pdf to svg"))
	}
	path, err := finder.Resolve(rsvgConvert, []string{rsvgConvert})
	r.Tools = append(r.Tools, check(toolchain.Resolution{Tool: rsvgConvert, Path: path, Err: err}, "pdf/png export"))

	r.Cache.Backend = cfg.Cache.Backend
	probeCtx, cancel := context.WithTimeout(ctx, cacheProbeTimeout)
	defer cancel()
	if cc, err := cache.Open(probeCtx, cfg.CacheOptions()); err != nil {
		r.Cache.Error = errors.UserMessage(err)
	} else {
		r.Cache.OK = true
		_ = cc.Close()
	}

	switch {
	case cfg.Diagram.ScriptPath != "":
		r.Script = cfg.Diagram.ScriptPath
	case cfg.Diagram.ScriptURL != "":
		r.Script = cfg.Diagram.ScriptURL
	default:
		r.Script = diagram.DefaultScriptURL
	}
	return r
}

func check(res toolchain.Resolution, purpose string) toolCheck {
	t := toolCheck{Name: res.Tool, Purpose: purpose, Found: res.Found(), Path: res.Path}
	if !t.Found {
		t.Hint = errors.GetHint(res.Err)
		if t.Hint == "" {
			t.Hint = toolchain.InstallHint(res.Tool)
		}
	}
	return t
}

func printDoctor(w io.Writer, r doctorReport) {
	fmt.Fprintln(w, StyleTitle.Render(appName+" doctor"))
	fmt.Fprintln(w)

	t := newTable("Tool", "Used for", "Status", "Path")
	for _, tc := range r.Tools {
		status, path := StyleSuccess.Render(iconSuccess+" found"), tc.Path
		if !tc.Found {
			status, path = StyleError.Render(iconError+" missing"), StyleDim.Render("-")
		}
		t.Row(tc.Name, tc.Purpose, status, path)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)

	if r.Config != "" {
		printKeyValue(w, "config", r.Config)
	} else {
		printKeyValue(w, "config", "(defaults)")
	}
	cacheStatus := r.Cache.Backend + " " + StyleSuccess.Render(iconSuccess)
	if !r.Cache.OK {
		cacheStatus = r.Cache.Backend + " " + StyleError.Render(r.Cache.Error)
	}
	printKeyValue(w, "cache", cacheStatus)
	printKeyValue(w, "mermaid", r.Script)

	if n := r.missing(); n > 0 {
		fmt.Fprintln(w)
		printWarning(w, "%d tool(s) missing; the affected renders fail with TOOLCHAIN_MISSING", n)
		for _, tc := range r.Tools {
			if !tc.Found {
				printDetail(w, "%s: %s", tc.Name, tc.Hint)
			}
		}
	}
}
