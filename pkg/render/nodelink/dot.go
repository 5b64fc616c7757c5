package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

// Layout engine names.
const (
	LayoutDot   = "dot"
	LayoutNeato = "neato"
	LayoutFdp   = "fdp"
	LayoutCirco = "circo"
	LayoutTwopi = "twopi"
)

var layouts = map[string]graphviz.Layout{
	LayoutDot:   graphviz.DOT,
	LayoutNeato: graphviz.NEATO,
	LayoutFdp:   graphviz.FDP,
	LayoutCirco: graphviz.CIRCO,
	LayoutTwopi: graphviz.TWOPI,
}

// Layouts lists the accepted layout names.
func Layouts() []string {
	return []string{LayoutDot, LayoutNeato, LayoutFdp, LayoutCirco, LayoutTwopi}
}

// Output is a rendered graph.
type Output struct {
	SVG    string
	Width  int
	Height int
	Layout string
}

// The Graphviz runtime is not safe for concurrent renders.
var gvMu sync.Mutex

// RenderSVG renders DOT source with the named layout engine. An empty layout
// selects dot.
func RenderSVG(ctx context.Context, dot, layout string) (Output, error) {
	if err := errors.ValidateSource("dot", dot); err != nil {
		return Output{}, err
	}
	if layout == "" {
		layout = LayoutDot
	}
	engine, ok := layouts[layout]
	if !ok {
		return Output{}, errors.New(errors.ErrCodeInvalidInput, "unknown graph layout %q", layout)
	}

	gvMu.Lock()
	defer gvMu.Unlock()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeSyntax, err, "parse DOT")
	}
	defer g.Close()

	gv.SetLayout(engine)

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeRenderFailed, err, "render graph")
	}

	svg := render.StampNamespace(string(normalizeViewBox(buf.Bytes())))
	svg = render.StripProlog(svg)
	if err := render.ValidateSVG(svg); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeRenderFailed, err, "graphviz produced invalid svg")
	}

	out := Output{SVG: svg, Layout: layout}
	if d := render.MeasureSVG(svg); d != nil {
		out.Width, out.Height = d.Width, d.Height
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's root tag, which carries pt units and
// a translated viewBox, with one rooted at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="%s" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		render.SVGNamespace, w, h, w, h)

	loc := svgTagRe.FindIndex(svg)
	out := make([]byte, 0, len(svg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, newSvg...)
	return append(out, svg[loc[1]:]...)
}
