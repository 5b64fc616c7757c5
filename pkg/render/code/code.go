// Package code renders source code as syntax-highlighted HTML.
//
// Highlighting uses chroma with inline styles so the markup survives being
// pasted into a slide without a stylesheet. Output is sanitized with
// bluemonday before it leaves the package.
//
// Highlighting never fails: an unknown language or an engine error produces an
// escaped <pre><code> block with Fallback set and a warning, because unstyled
// code is still legible while an empty slide element is not.
package code

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultTabWidth is the number of spaces a tab expands to.
const DefaultTabWidth = 4

// Output is highlighted code.
type Output struct {
	HTML     string
	Language string
	Theme    string
	Fallback bool
	Warnings []string
}

// Highlighter renders code using a pre-loaded Registry.
type Highlighter struct {
	registry *Registry
	tabWidth int
	policy   *bluemonday.Policy
}

// NewHighlighter creates a Highlighter. tabWidth <= 0 selects DefaultTabWidth.
func NewHighlighter(registry *Registry, tabWidth int) *Highlighter {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	return &Highlighter{
		registry: registry,
		tabWidth: tabWidth,
		policy:   newPolicy(),
	}
}

// Registry returns the highlighter's registry.
func (h *Highlighter) Registry() *Registry {
	return h.registry
}

var hexColor = regexp.MustCompile(`(?i)^#([0-9a-f]{3}|[0-9a-f]{6})$`)

// newPolicy allows the elements and inline declarations chroma emits.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("pre", "code", "span")
	p.AllowAttrs("style").OnElements("pre", "code", "span")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[A-Za-z0-9_+#.-]+$`)).OnElements("code")
	p.AllowStyles("color", "background-color").Matching(hexColor).Globally()
	p.AllowStyles("font-weight").MatchingEnum("bold", "normal").Globally()
	p.AllowStyles("font-style").MatchingEnum("italic", "normal").Globally()
	p.AllowStyles("text-decoration").MatchingEnum("underline", "none").Globally()
	p.AllowStyles("display").MatchingEnum("flex", "block", "inline-block").Globally()
	p.AllowStyles("white-space", "tab-size", "-moz-tab-size").Globally()
	return p
}

// Highlight renders code. theme may be empty for the default theme.
func (h *Highlighter) Highlight(code, language, theme string) Output {
	code = expandTabs(code, h.tabWidth)
	out := Output{Language: strings.ToLower(strings.TrimSpace(language))}

	if theme == "" {
		theme = h.registry.DefaultTheme()
	}
	style, ok := h.registry.Theme(theme)
	if !ok {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unknown theme %q, using %q", theme, h.registry.DefaultTheme()))
		theme = h.registry.DefaultTheme()
		style, _ = h.registry.Theme(theme)
	}
	out.Theme = theme

	lexer, ok := h.registry.Lexer(language)
	if !ok {
		return h.fallback(out, code, fmt.Sprintf("unsupported language %q, rendered without highlighting", language))
	}

	markup, err := h.format(lexer, style, code)
	if err != nil {
		return h.fallback(out, code, fmt.Sprintf("highlighting failed, rendered without highlighting: %v", err))
	}
	out.HTML = h.policy.Sanitize(markup)
	return out
}

func (h *Highlighter) format(lexer chroma.Lexer, style *chroma.Style, code string) (markup string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("highlighter panic: %v", p)
		}
	}()

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	f := hlhtml.New(hlhtml.WithClasses(false), hlhtml.Standalone(false), hlhtml.TabWidth(h.tabWidth))
	var buf bytes.Buffer
	if err := f.Format(&buf, style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (h *Highlighter) fallback(out Output, code, warning string) Output {
	class := ""
	if out.Language != "" && isClassSafe(out.Language) {
		class = ` class="language-` + out.Language + `"`
	}
	out.HTML = "<pre><code" + class + ">" + html.EscapeString(code) + "</code></pre>"
	out.Fallback = true
	out.Warnings = append(out.Warnings, warning)
	return out
}

var classSafe = regexp.MustCompile(`^[a-z0-9_+#.-]+$`)

func isClassSafe(s string) bool {
	return classSafe.MatchString(s)
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", width))
}
