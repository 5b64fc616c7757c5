package circuit

import (
	"context"
	"fmt"
	"os"

	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// Status tags the outcome of one converter strategy.
type Status int

const (
	Success Status = iota
	ToolUnavailable
	Failed
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case ToolUnavailable:
		return "tool-unavailable"
	default:
		return "failed"
	}
}

// Outcome is the tagged result of trying one converter.
type Outcome struct {
	Converter string
	Status    Status
	Err       error
}

// Converter turns a PDF into an SVG with an external tool.
type Converter struct {
	Name string
	Args func(pdf, svg string) []string
}

// Converters are the known strategies keyed by tool name.
var Converters = map[string]Converter{
	toolchain.PDF2SVG: {
		Name: toolchain.PDF2SVG,
		Args: func(pdf, svg string) []string { return []string{pdf, svg, "1"} },
	},
	toolchain.DVISVGM: {
		Name: toolchain.DVISVGM,
		Args: func(pdf, svg string) []string {
			return []string{"--pdf", "--no-fonts", "--exact-bbox", "-o", svg, pdf}
		},
	},
	toolchain.Inkscape: {
		Name: toolchain.Inkscape,
		Args: func(pdf, svg string) []string {
			return []string{pdf, "--export-type=svg", "--export-plain-svg", "--export-filename=" + svg}
		},
	},
}

// DefaultConverterOrder is the strategy order used when none is configured.
var DefaultConverterOrder = []string{toolchain.PDF2SVG, toolchain.DVISVGM, toolchain.Inkscape}

// convertWith runs one strategy and reads back a validated SVG.
func (r *Renderer) convertWith(ctx context.Context, res toolchain.Resolution, dir, pdf, svg string) (string, Outcome) {
	o := Outcome{Converter: res.Tool}
	conv, ok := Converters[res.Tool]
	if !ok {
		o.Status, o.Err = Failed, fmt.Errorf("unknown converter %q", res.Tool)
		return "", o
	}
	if !res.Found() {
		o.Status, o.Err = ToolUnavailable, res.Err
		return "", o
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.ConvertTimeout)
	defer cancel()

	output, err := r.exec.Run(ctx, Command{Path: res.Path, Args: conv.Args(pdf, svg), Dir: dir})
	if ctx.Err() != nil {
		o.Status, o.Err = Failed, ctx.Err()
		return "", o
	}
	data, rerr := os.ReadFile(svg)
	if rerr != nil || len(data) == 0 {
		if err == nil {
			err = fmt.Errorf("no svg written")
		}
		o.Status, o.Err = Failed, fmt.Errorf("%s: %w: %s", conv.Name, err, tail(string(output), 400))
		return "", o
	}

	out := render.StripProlog(string(data))
	if verr := render.ValidateSVG(out); verr != nil {
		o.Status, o.Err = Failed, fmt.Errorf("%s: %w", conv.Name, verr)
		return "", o
	}
	o.Status = Success
	return out, o
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
