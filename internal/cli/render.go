package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/pipeline"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
)

const (
	formatSVG  = "svg"
	formatPDF  = "pdf"
	formatPNG  = "png"
	formatJSON = "json"

	defaultPNGScale = 2.0
)

// renderOpts holds the flags shared by every render subcommand.
type renderOpts struct {
	output string  // output file; empty writes to stdout
	format string  // svg, pdf, png or json; inferred from output when empty
	scale  float64 // PNG scale factor
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatPDF: true, formatPNG: true, formatJSON: true}

// renderCommand creates the render command and its per-kind subcommands.
func (c *CLI) renderCommand() *cobra.Command {
	opts := &renderOpts{scale: defaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single asset from a file or stdin",
		Long: `Render one asset without starting the server.

Input is read from the named file, or from stdin when the file is "-" or
omitted. The artifact is written to stdout unless -o is given.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), pdf, png, json")
	cmd.PersistentFlags().Float64Var(&opts.scale, "scale", opts.scale, "scale factor for png output")

	cmd.AddCommand(c.renderLatexCommand(opts))
	cmd.AddCommand(c.renderMermaidCommand(opts))
	cmd.AddCommand(c.renderTikzCommand(opts))
	cmd.AddCommand(c.renderDotCommand(opts))
	cmd.AddCommand(c.renderCodeCommand(opts))
	cmd.AddCommand(c.renderCitationCommand(opts))

	return cmd
}

func (c *CLI) renderLatexCommand(opts *renderOpts) *cobra.Command {
	var display bool
	cmd := &cobra.Command{
		Use:   "latex [file]",
		Short: "Render LaTeX math to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req := pipeline.Request{Kind: render.KindMath, Math: &pipeline.MathRequest{Latex: src, Display: display}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().BoolVar(&display, "display", false, "render in display (block) mode")
	return cmd
}

func (c *CLI) renderMermaidCommand(opts *renderOpts) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "mermaid [file]",
		Short: "Render a Mermaid diagram to SVG using a headless browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req := pipeline.Request{Kind: render.KindDiagram, Diagram: &pipeline.DiagramRequest{Diagram: src, Theme: theme}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "diagram theme (see 'themes')")
	return cmd
}

func (c *CLI) renderTikzCommand(opts *renderOpts) *cobra.Command {
	var packages []string
	cmd := &cobra.Command{
		Use:   "tikz [file]",
		Short: "Render TikZ or circuitikz to SVG using a TeX toolchain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req := pipeline.Request{Kind: render.KindCircuit, Circuit: &pipeline.CircuitRequest{Tikz: src, Packages: packages}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&packages, "package", "p", nil, "extra LaTeX package (repeatable)")
	return cmd
}

func (c *CLI) renderDotCommand(opts *renderOpts) *cobra.Command {
	var layout string
	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Render a Graphviz DOT graph to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req := pipeline.Request{Kind: render.KindGraph, Graph: &pipeline.GraphRequest{DOT: src, Layout: layout}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().StringVar(&layout, "layout", "", "graphviz layout engine: dot (default), neato, fdp, circo, twopi")
	return cmd
}

func (c *CLI) renderCodeCommand(opts *renderOpts) *cobra.Command {
	var language, theme string
	cmd := &cobra.Command{
		Use:   "code [file]",
		Short: "Highlight source code to HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if language == "" && len(args) == 1 && args[0] != "-" {
				language = strings.TrimPrefix(filepath.Ext(args[0]), ".")
			}
			req := pipeline.Request{Kind: render.KindCode, Code: &pipeline.CodeRequest{Code: src, Language: language, Theme: theme}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "language name (default: from file extension)")
	cmd.Flags().StringVar(&theme, "theme", "", "highlight theme (see 'themes')")
	return cmd
}

func (c *CLI) renderCitationCommand(opts *renderOpts) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "citation [file]",
		Short: "Format citation records (JSON or YAML list) in a citation style",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			records, err := parseRecords([]byte(src))
			if err != nil {
				return err
			}
			req := pipeline.Request{Kind: render.KindCitation, Citation: &pipeline.CitationRequest{Citations: records, Style: style}}
			return c.runRender(cmd, req, opts)
		},
	}
	cmd.Flags().StringVarP(&style, "style", "s", "", "citation style (default from config)")
	return cmd
}

// =============================================================================
// Execution
// =============================================================================

func (c *CLI) runRender(cmd *cobra.Command, req pipeline.Request, opts *renderOpts) error {
	format, err := resolveFormat(req.Kind, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sp := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s...", req.Kind))
	sp.Start()
	prog := newProgress(c.Logger)
	out, err := a.Runner.Render(ctx, req)
	sp.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", req.Kind))

	data, err := encodeOutput(ctx, out, format, opts.scale)
	if err != nil {
		return err
	}
	return writeOutput(cmd, data, opts.output, out)
}

// resolveFormat picks the output format from --format or the -o extension
// and rejects conversions the artifact cannot take.
func resolveFormat(kind render.Kind, opts *renderOpts) (string, error) {
	format := strings.ToLower(opts.format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.output)), ".")
		if !validFormats[format] {
			format = formatSVG
		}
	}
	if !validFormats[format] {
		return "", fmt.Errorf("invalid format: %s (must be 'svg', 'pdf', 'png' or 'json')", format)
	}
	if (format == formatPDF || format == formatPNG) && !producesSVG(kind) {
		return "", fmt.Errorf("%s output is only available for SVG renders, not %s", format, kind)
	}
	return format, nil
}

func producesSVG(kind render.Kind) bool {
	switch kind {
	case render.KindMath, render.KindDiagram, render.KindCircuit, render.KindGraph:
		return true
	}
	return false
}

// encodeOutput turns a runner result into the bytes to write. Failed
// renders become errors unless JSON output was requested.
func encodeOutput(ctx context.Context, out any, format string, scale float64) ([]byte, error) {
	if format == formatJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	switch v := out.(type) {
	case pipeline.CitationResult:
		var b strings.Builder
		for _, f := range v.Citations {
			b.WriteString(f.Formatted)
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	case render.Result:
		if !v.Success {
			return nil, resultError(v)
		}
		artifact := []byte(v.Artifact)
		switch format {
		case formatPDF:
			return render.ToPDF(ctx, artifact)
		case formatPNG:
			return render.ToPNG(ctx, artifact, scale)
		}
		return artifact, nil
	}
	return nil, fmt.Errorf("unexpected render output %T", out)
}

// resultError rebuilds a structured error from a failed result so the hint
// survives to main's error printer.
func resultError(res render.Result) error {
	if res.Error == nil {
		return errors.New(errors.ErrCodeRenderFailed, "render failed")
	}
	err := errors.New(res.Error.Code, "%s", res.Error.Message)
	if res.Error.Hint != "" {
		err = err.WithHint("%s", res.Error.Hint)
	}
	return err
}

func writeOutput(cmd *cobra.Command, data []byte, path string, out any) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	w := cmd.ErrOrStderr()
	printSuccess(w, "Rendered")
	printFile(w, path)
	if res, ok := out.(render.Result); ok {
		dims := ""
		if res.Dimensions != nil {
			dims = fmt.Sprintf("%d × %d", res.Dimensions.Width, res.Dimensions.Height)
		}
		printRenderStats(w, dims, formatBytes(len(data)))
		for _, warn := range res.Warnings {
			printWarning(w, "%s", warn)
		}
	}
	return nil
}

// =============================================================================
// Input
// =============================================================================

// readInput reads args[0], or stdin when there is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// parseRecords accepts a JSON or YAML list of citation records, or an
// object with a "citations" list. YAML is normalized through JSON so
// records decode with the same rules as HTTP requests.
func parseRecords(data []byte) ([]citation.Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no citation records given")
	}

	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse citation YAML")
		}
		js, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse citation YAML")
		}
		data = js
		trimmed = string(js)
	}

	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Citations []citation.Record `json:"citations"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse citation records")
		}
		return wrapped.Citations, nil
	}

	var records []citation.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse citation records")
	}
	return records, nil
}
