package code

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHighlighter(t *testing.T) *Highlighter {
	t.Helper()
	return NewHighlighter(NewRegistry(nil, ""), 0)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil, "monokai")

	for _, lang := range []string{"go", "Go", "python", "py", "javascript", "js", "c++", "latex"} {
		_, ok := r.Lexer(lang)
		assert.True(t, ok, "language %q should be registered", lang)
	}
	_, ok := r.Lexer("klingon")
	assert.False(t, ok)

	assert.Equal(t, "monokai", r.DefaultTheme())
	assert.Contains(t, r.Themes(), "github")
	assert.Contains(t, r.Languages(), "go")
	assert.True(t, len(r.Languages()) > 50)

	assert.Equal(t, DefaultTheme, NewRegistry(nil, "no-such-theme").DefaultTheme())
}

func TestRegistryAllowList(t *testing.T) {
	r := NewRegistry([]string{"go", "py"}, "")
	_, ok := r.Lexer("golang")
	assert.True(t, ok, "aliases of allowed languages are registered")
	_, ok = r.Lexer("python3")
	assert.True(t, ok)
	_, ok = r.Lexer("rust")
	assert.False(t, ok)
	assert.Len(t, r.Languages(), 2)
}

func TestHighlight(t *testing.T) {
	h := newTestHighlighter(t)

	out := h.Highlight("package main\n\nfunc main() {}\n", "go", "")
	assert.False(t, out.Fallback)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, "go", out.Language)
	assert.Equal(t, DefaultTheme, out.Theme)
	assert.Contains(t, out.HTML, "<pre")
	assert.Contains(t, out.HTML, "<span style=")
	assert.Contains(t, out.HTML, "package")
	assert.NotContains(t, out.HTML, "class=\"chroma\"", "inline styles only")
}

func TestHighlightDeterministic(t *testing.T) {
	h := newTestHighlighter(t)
	a := h.Highlight("def f(x):\n\treturn x * 2\n", "python", "monokai")
	b := h.Highlight("def f(x):\n\treturn x * 2\n", "python", "monokai")
	assert.Equal(t, a, b)
	assert.NotContains(t, a.HTML, "\t")
}

func TestHighlightUnknownLanguage(t *testing.T) {
	h := newTestHighlighter(t)

	out := h.Highlight(`if (a < b && c > d) { x = "y"; }`, "klingon", "")
	assert.True(t, out.Fallback)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "klingon")
	assert.Equal(t, `<pre><code class="language-klingon">if (a &lt; b &amp;&amp; c &gt; d) { x = &#34;y&#34;; }</code></pre>`, out.HTML)
}

func TestHighlightUnknownTheme(t *testing.T) {
	h := newTestHighlighter(t)

	out := h.Highlight("x = 1", "python", "neon-dreams")
	assert.False(t, out.Fallback)
	assert.Equal(t, DefaultTheme, out.Theme)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "neon-dreams")
}

func TestHighlightSanitizes(t *testing.T) {
	h := newTestHighlighter(t)

	for _, lang := range []string{"html", "klingon"} {
		out := h.Highlight(`</code></pre><script>alert(1)</script>`, lang, "")
		assert.NotContains(t, strings.ToLower(out.HTML), "<script", "language %s", lang)
	}

	// A hostile language name never reaches the class attribute
	out := h.Highlight("x", `"><img src=x>`, "")
	assert.True(t, out.Fallback)
	assert.Equal(t, "<pre><code>x</code></pre>", out.HTML)
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "a  b", expandTabs("a\tb", 2))
	assert.Equal(t, "ab", expandTabs("ab", 4))
}
