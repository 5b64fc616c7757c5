package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-nav/sankosides-sub000/pkg/buildinfo"
	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/code"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// newTestCLI isolates config and cache lookups and hides every external tool.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	cacheHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv("SANKORENDER_BROWSER_ENABLED", "true")
	t.Chdir(t.TempDir())

	c := New(io.Discard, LogInfo)
	c.appOpts.Finder = &toolchain.Finder{
		Stat:     func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	}
	return c
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, c *CLI, stdin string, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&syncBuffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestRenderLatexStdout(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, `E=mc^2`, "render", "latex")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<svg"), out)
}

func TestRenderLatexToFile(t *testing.T) {
	c := newTestCLI(t)
	in := filepath.Join(t.TempDir(), "eq.tex")
	require.NoError(t, os.WriteFile(in, []byte(`\frac{a}{b}`), 0o644))
	dst := filepath.Join(t.TempDir(), "eq.svg")

	out, err := execute(t, c, "", "render", "latex", "--display", in, "-o", dst)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderLatexSyntaxError(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, `\invalid{`, "render", "latex")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSyntax, errors.GetCode(err))
}

func TestRenderJSON(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, `\invalid{`, "render", "latex", "--format", "json")
	require.NoError(t, err)

	var res render.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, errors.ErrCodeSyntax, res.Error.Code)
}

func TestRenderCodeLanguageFromExtension(t *testing.T) {
	c := newTestCLI(t)
	in := filepath.Join(t.TempDir(), "hello.py")
	require.NoError(t, os.WriteFile(in, []byte("print('hi')\n"), 0o644))

	out, err := execute(t, c, "", "render", "code", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<pre"), out)
	assert.Contains(t, out, "print")
}

func TestRenderCitationYAML(t *testing.T) {
	c := newTestCLI(t)
	in := "- author: Smith, J.\n  year: 2020\n  title: A Study\n  container: Nature\n"

	out, err := execute(t, c, in, "render", "citation", "--style", "apa")
	require.NoError(t, err)
	assert.Contains(t, out, "Smith")
	assert.Contains(t, out, "2020")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestRenderTikzMissingCompiler(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, `\draw (0,0) -- (1,1);`, "render", "tikz")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeToolchainMissing, errors.GetCode(err))
	assert.NotEmpty(t, errors.GetHint(err))
}

func TestRenderMermaidMissingBrowser(t *testing.T) {
	c := newTestCLI(t)
	script := filepath.Join(t.TempDir(), "mermaid.min.js")
	require.NoError(t, os.WriteFile(script, []byte("window.mermaid = {};"), 0o644))
	t.Setenv("SANKORENDER_DIAGRAM_SCRIPT_PATH", script)

	_, err := execute(t, c, "graph TD; A-->B", "render", "mermaid")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeToolchainMissing, errors.GetCode(err))
}

func TestRenderFormatRejected(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, "x = 1", "render", "code", "--language", "python", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only available for SVG renders")
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		kind    render.Kind
		opts    renderOpts
		want    string
		wantErr bool
	}{
		{"default svg", render.KindMath, renderOpts{}, formatSVG, false},
		{"from extension", render.KindGraph, renderOpts{output: "g.PNG"}, formatPNG, false},
		{"unknown extension", render.KindMath, renderOpts{output: "eq.txt"}, formatSVG, false},
		{"explicit wins", render.KindMath, renderOpts{output: "eq.svg", format: "json"}, formatJSON, false},
		{"bad format", render.KindMath, renderOpts{format: "gif"}, "", true},
		{"pdf of html", render.KindCode, renderOpts{format: "pdf"}, "", true},
		{"json of citations", render.KindCitation, renderOpts{format: "json"}, formatJSON, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.kind, &tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"json list", `[{"author":"A","year":2020,"title":"T"}]`, 1, false},
		{"json object", `{"citations":[{"title":"T"},{"title":"U"}]}`, 2, false},
		{"yaml list", "- title: T\n  year: 1999\n", 1, false},
		{"yaml object", "citations:\n  - title: T\n", 1, false},
		{"empty", "  \n", 0, true},
		{"broken json", `[{"title":`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecords([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	recs, err := parseRecords([]byte("- title: T\n  year: 1999\n"))
	require.NoError(t, err)
	assert.Equal(t, "1999", recs[0].Year)
}

func TestDoctorJSON(t *testing.T) {
	c := newTestCLI(t)
	t.Setenv("SANKORENDER_CACHE_BACKEND", cache.BackendNone)

	out, err := execute(t, c, "", "doctor", "--json")
	require.NoError(t, err)

	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotEmpty(t, report.Tools)
	assert.Equal(t, toolchain.Browser, report.Tools[0].Name)
	for _, tc := range report.Tools {
		assert.False(t, tc.Found, tc.Name)
		assert.NotEmpty(t, tc.Hint, tc.Name)
	}
	assert.Equal(t, rsvgConvert, report.Tools[len(report.Tools)-1].Name)
	assert.True(t, report.Cache.OK)
	assert.NotEmpty(t, report.Script)
}

func TestDoctorStrict(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "doctor", "--strict")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeToolchainMissing, errors.GetCode(err))
	assert.Contains(t, out, "pdflatex")
	assert.Contains(t, out, "missing")
}

func TestConfigShowRedacts(t *testing.T) {
	c := newTestCLI(t)
	t.Setenv("SANKORENDER_CACHE_REDIS_PASSWORD", "hunter2")
	t.Setenv("SANKORENDER_SERVER_ADDR", ":4000")

	out, err := execute(t, c, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[server]")
	assert.Contains(t, out, `":4000"`)
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "hunter2")

	c = newTestCLI(t)
	t.Setenv("SANKORENDER_CACHE_REDIS_PASSWORD", "hunter2")
	out, err = execute(t, c, "", "config", "show", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "hunter2")
}

func TestConfigPath(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "No config file found")

	c = newTestCLI(t)
	require.NoError(t, os.WriteFile("sankorender.toml", []byte("[server]\naddr = \":5000\"\n"), 0o644))
	out, err = execute(t, c, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "sankorender.toml")
}

func TestCacheClear(t *testing.T) {
	c := newTestCLI(t)
	t.Setenv("SANKORENDER_CACHE_BACKEND", cache.BackendFile)

	dir, err := execute(t, c, "", "cache", "path")
	require.NoError(t, err)
	dir = strings.TrimSpace(dir)
	require.NotEmpty(t, dir)

	fc, err := cache.NewFileCache(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, fc.Set(ctx, "a", []byte(`{}`), time.Hour))
	require.NoError(t, fc.Set(ctx, "b", []byte(`{}`), time.Hour))

	out, err := execute(t, c, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 2 cached renders")

	_, ok, err := fc.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheClearOtherBackend(t *testing.T) {
	c := newTestCLI(t)
	t.Setenv("SANKORENDER_CACHE_BACKEND", cache.BackendRedis)
	out, err := execute(t, c, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "only the file cache can be cleared")
}

func TestThemesList(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "themes")
	require.NoError(t, err)
	for _, want := range []string{"Diagram themes", "Code themes", "Citation styles", "Graph layouts", "github", "forest", "ieee", "neato"} {
		assert.Contains(t, out, want)
	}
}

func TestVersion(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, buildinfo.Version)
	assert.Contains(t, out, buildinfo.Commit)

	out, err = execute(t, c, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "version "+buildinfo.Version)
}

func TestCompletion(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sankorender")

	_, err = execute(t, c, "", "completion", "tcsh")
	assert.Error(t, err)
}

func TestCodePreview(t *testing.T) {
	preview := codePreview(code.NewRegistry(nil, ""))
	got := preview("monokai")
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, got, "square")
	assert.Equal(t, previewSource, preview("no-such-theme"))
}
