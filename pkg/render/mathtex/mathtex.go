package mathtex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

// Default typesetting parameters.
const (
	DefaultFontSize     = 12.0
	DefaultDisplayScale = 1.2
	DefaultFontFamily   = "Latin Modern Math, STIX Two Math, Cambria Math, serif"

	// texBodySize is the size plain TeX sets math in; output is scaled from it.
	texBodySize = 10.0
)

// Options configures a Renderer. Zero values select the defaults.
type Options struct {
	FontSize     float64 `json:"font_size"`
	DisplayScale float64 `json:"display_scale"`
	FontFamily   string  `json:"font_family"`
}

// Output is a typeset expression.
type Output struct {
	SVG    string
	Width  int // points, rounded up
	Height int // points, rounded up
}

// Renderer typesets math expressions. It is safe for concurrent use.
type Renderer struct {
	opts    Options
	metrics *fontMetrics

	// mu serializes engine runs; each job loads the plain format afresh but
	// the engine's memory arrays are not documented as reentrant.
	mu sync.Mutex
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	if opts.DisplayScale <= 0 {
		opts.DisplayScale = DefaultDisplayScale
	}
	if opts.FontFamily == "" {
		opts.FontFamily = DefaultFontFamily
	}
	return &Renderer{opts: opts, metrics: newFontMetrics()}
}

// Render typesets expr. display selects display style and the larger size.
func (r *Renderer) Render(expr string, display bool) (Output, error) {
	body := StripDelimiters(expr)
	if err := validate(body); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeSyntax, err, "invalid math expression")
	}

	dvi, err := r.typeset(body, display)
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeSyntax, err, "invalid math expression")
	}
	pg, err := decodeDVI(dvi, r.metrics)
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "decode typeset output")
	}

	scale := r.opts.FontSize / texBodySize
	if display {
		scale *= r.opts.DisplayScale
	}
	out := writeSVG(pg, svgOptions{
		scale:   scale,
		family:  r.opts.FontFamily,
		display: display,
		title:   body,
	})
	if err := render.ValidateSVG(out.SVG); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "math serializer produced invalid svg")
	}
	return out, nil
}

func (r *Renderer) typeset(body string, display bool) (dvi []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = &SyntaxError{Expr: body, Offset: -1, Msg: fmt.Sprint(p)}
		}
	}()
	return runTeX(body, display)
}

type svgOptions struct {
	scale   float64
	family  string
	display bool
	title   string
}

// writeSVG serializes a page as <text> glyphs and <rect> rules.
func writeSVG(pg page, o svgOptions) Output {
	w, h := pg.width*o.scale, pg.height*o.scale
	out := Output{Width: int(math.Ceil(w)), Height: int(math.Ceil(h))}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="%s" width="%dpt" height="%dpt" viewBox="0 0 %s %s" role="img"`,
		render.SVGNamespace, out.Width, out.Height, num(w), num(h))
	if o.display {
		b.WriteString(` data-display="block"`)
	}
	b.WriteString(">")
	fmt.Fprintf(&b, "<title>%s</title>", render.EscapeText(o.title))
	fmt.Fprintf(&b, `<g fill="currentColor" stroke="none" font-family="%s">`, render.EscapeText(o.family))

	for _, g := range pg.glyphs {
		st := styleFor(g.font)
		text := st.glyph(g.code)
		if text == "" {
			continue
		}
		size := g.size
		if st.enc == encExtension {
			// Large operators and delimiters are drawn at their box height.
			size = max(size, g.extent)
		}
		attrs := st.attrs
		if st.family != "" {
			attrs += ` font-family="` + st.family + `"`
		}
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="%s"%s>%s</text>`,
			num(g.x*o.scale), num(g.y*o.scale), num(size*o.scale), attrs, render.EscapeText(text))
	}
	for _, r := range pg.rules {
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s"/>`,
			num(r.x*o.scale), num(r.y*o.scale), num(r.w*o.scale), num(r.h*o.scale))
	}

	b.WriteString("</g></svg>")
	out.SVG = b.String()
	return out
}

// num formats coordinates with fixed precision so output is reproducible.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
