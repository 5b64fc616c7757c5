package circuit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

const minimalSchematic = `\draw (0,0) to[R=$R_1$] (2,0);`

const convertedSVG = `<?xml version="1.0" encoding="UTF-8"?>
<!-- generated -->
<svg xmlns="http://www.w3.org/2000/svg" width="30pt" height="20pt" viewBox="0 0 30 20"><path d="M0 0h30"/></svg>`

type compileFunc func(ctx context.Context, base string) ([]byte, error)
type convertFunc func(ctx context.Context, pdf, svg string) ([]byte, error)

// fakeExec stands in for the TeX toolchain, dispatching on the tool name.
type fakeExec struct {
	mu       sync.Mutex
	calls    []Command
	document string
	compile  compileFunc
	convert  map[string]convertFunc
}

func (f *fakeExec) Run(ctx context.Context, c Command) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	tool := filepath.Base(c.Path)
	if tool == toolchain.PDFLaTeX {
		tex := filepath.Join(c.Dir, c.Args[len(c.Args)-1])
		data, _ := os.ReadFile(tex)
		f.mu.Lock()
		f.document = string(data)
		f.mu.Unlock()
		return f.compile(ctx, strings.TrimSuffix(tex, ".tex"))
	}

	var pdf, svg string
	for _, a := range c.Args {
		a = strings.TrimPrefix(a, "--export-filename=")
		switch {
		case strings.HasSuffix(a, ".pdf"):
			pdf = a
		case strings.HasSuffix(a, ".svg"):
			svg = a
		}
	}
	fn, ok := f.convert[tool]
	if !ok {
		return nil, fmt.Errorf("exec: %q: not found", tool)
	}
	return fn(ctx, pdf, svg)
}

func (f *fakeExec) toolsCalled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, filepath.Base(c.Path))
	}
	return out
}

func writeFiles(base string, exts ...string) {
	for _, ext := range exts {
		_ = os.WriteFile(base+ext, []byte("x"), 0o600)
	}
}

func compileOK(_ context.Context, base string) ([]byte, error) {
	writeFiles(base, ".pdf", ".log", ".aux")
	return []byte("Output written on " + base + ".pdf (1 page)."), nil
}

func compileWithWarnings(_ context.Context, base string) ([]byte, error) {
	writeFiles(base, ".pdf", ".log", ".aux")
	return []byte("LaTeX Warning: something"), fmt.Errorf("exit status 1")
}

func compileSyntaxError(_ context.Context, base string) ([]byte, error) {
	texLog := "This is pdfTeX\n! Undefined control sequence.\nl.7 \\badcommand\n               \nNo pages of output.\n"
	_ = os.WriteFile(base+".log", []byte(texLog), 0o600)
	writeFiles(base, ".aux")
	return []byte(texLog), fmt.Errorf("exit status 1")
}

func compileHang(ctx context.Context, base string) ([]byte, error) {
	writeFiles(base, ".log")
	<-ctx.Done()
	return nil, ctx.Err()
}

func convertOK(_ context.Context, _, svg string) ([]byte, error) {
	return nil, os.WriteFile(svg, []byte(convertedSVG), 0o600)
}

func convertBroken(_ context.Context, _, svg string) ([]byte, error) {
	_ = os.WriteFile(svg, []byte("<svg><unclosed>"), 0o600)
	return []byte("Syntax Error: bad stream"), fmt.Errorf("exit status 2")
}

func found(tool string) toolchain.Resolution {
	return toolchain.Resolution{Tool: tool, Path: "/usr/bin/" + tool}
}

func notFound(tool string) toolchain.Resolution {
	return toolchain.Resolution{
		Tool: tool,
		Err:  errors.New(errors.ErrCodeToolchainMissing, "%s not found", tool).WithHint("%s", toolchain.InstallHint(tool)),
	}
}

type fixture struct {
	dir  string
	exec *fakeExec
	r    *Renderer
}

func newFixture(t *testing.T, compile compileFunc, converters []toolchain.Resolution, convert map[string]convertFunc) *fixture {
	t.Helper()
	dir := t.TempDir()
	fe := &fakeExec{compile: compile, convert: convert}
	r := New(Options{
		Tools: toolchain.Report{
			Compiler:   found(toolchain.PDFLaTeX),
			Converters: converters,
		},
		CompileTimeout: time.Second,
		ConvertTimeout: time.Second,
		WorkDir:        dir,
		Executor:       fe,
		VerifyPDF:      func(string) error { return nil },
		Logger:         log.New(io.Discard),
	})
	return &fixture{dir: dir, exec: fe, r: r}
}

func (f *fixture) assertNoLeftovers(t *testing.T) {
	t.Helper()
	left, err := filepath.Glob(filepath.Join(f.dir, "circuit-*"))
	require.NoError(t, err)
	assert.Empty(t, left, "temp files must be removed on every exit path")
}

func defaultConverters() []toolchain.Resolution {
	return []toolchain.Resolution{found(toolchain.PDF2SVG), found(toolchain.DVISVGM)}
}

func TestRenderSuccess(t *testing.T) {
	f := newFixture(t, compileOK, defaultConverters(), map[string]convertFunc{toolchain.PDF2SVG: convertOK})

	out, err := f.r.Render(context.Background(), minimalSchematic, []string{"siunitx", "tikz"})
	require.NoError(t, err)
	require.NoError(t, render.ValidateSVG(out.SVG))
	assert.True(t, strings.HasPrefix(out.SVG, "<svg"), "prolog is stripped")
	assert.Equal(t, toolchain.PDF2SVG, out.Converter)
	assert.Equal(t, 30, out.Width)
	assert.Equal(t, 20, out.Height)
	assert.Empty(t, out.Warnings)
	f.assertNoLeftovers(t)

	assert.Equal(t, []string{toolchain.PDFLaTeX, toolchain.PDF2SVG}, f.exec.toolsCalled())
	compile := f.exec.calls[0]
	assert.Contains(t, compile.Args, "-no-shell-escape")
	assert.Contains(t, compile.Args, "-interaction=nonstopmode")
	assert.Contains(t, compile.Args, "-output-directory=.")
	assert.Contains(t, compile.Env, "openin_any=p")
	assert.Contains(t, compile.Env, "TEXMFOUTPUT="+f.dir)
	assert.Equal(t, f.dir, compile.Dir)
	for _, a := range compile.Args {
		assert.False(t, filepath.IsAbs(a), "compiler argument %q is absolute", a)
	}
	src := compile.Args[len(compile.Args)-1]
	assert.Equal(t, filepath.Base(src), src)
	assert.True(t, strings.HasSuffix(src, ".tex"))

	doc := f.exec.document
	assert.Contains(t, doc, `\usepackage{siunitx}`)
	assert.Equal(t, 1, strings.Count(doc, `\usepackage{tikz}`))
	assert.Contains(t, doc, "\\begin{tikzpicture}\n"+minimalSchematic)
}

func TestRenderNonZeroExitWithPDFSucceeds(t *testing.T) {
	f := newFixture(t, compileWithWarnings, defaultConverters(), map[string]convertFunc{toolchain.PDF2SVG: convertOK})

	out, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.SVG)
	assert.Len(t, out.Warnings, 1)
	f.assertNoLeftovers(t)
}

func TestRenderSyntaxError(t *testing.T) {
	f := newFixture(t, compileSyntaxError, defaultConverters(), map[string]convertFunc{toolchain.PDF2SVG: convertOK})

	_, err := f.r.Render(context.Background(), `\badcommand`, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSyntax))
	msg := errors.UserMessage(err)
	assert.Contains(t, msg, "Undefined control sequence")
	assert.Contains(t, msg, `l.7 \badcommand`)
	assert.Equal(t, []string{toolchain.PDFLaTeX}, f.exec.toolsCalled(), "no conversion without a PDF")
	f.assertNoLeftovers(t)
}

func TestRenderUnusablePDF(t *testing.T) {
	f := newFixture(t, compileOK, defaultConverters(), map[string]convertFunc{toolchain.PDF2SVG: convertOK})
	f.r.opts.VerifyPDF = func(string) error { return fmt.Errorf("pdf has no pages") }

	_, err := f.r.Render(context.Background(), minimalSchematic, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeRenderFailed))
	f.assertNoLeftovers(t)
}

func TestRenderCompileTimeout(t *testing.T) {
	f := newFixture(t, compileHang, defaultConverters(), nil)
	f.r.opts.CompileTimeout = 30 * time.Millisecond

	start := time.Now()
	_, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeout))
	assert.Less(t, time.Since(start), time.Second)
	f.assertNoLeftovers(t)
}

func TestRenderFallsBackToSecondaryConverter(t *testing.T) {
	f := newFixture(t, compileOK, defaultConverters(), map[string]convertFunc{
		toolchain.PDF2SVG: convertBroken,
		toolchain.DVISVGM: convertOK,
	})

	out, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.NoError(t, err)
	assert.Equal(t, toolchain.DVISVGM, out.Converter)
	assert.Equal(t, []string{toolchain.PDFLaTeX, toolchain.PDF2SVG, toolchain.DVISVGM}, f.exec.toolsCalled())
	f.assertNoLeftovers(t)
}

func TestRenderSkipsUnavailableConverter(t *testing.T) {
	converters := []toolchain.Resolution{notFound(toolchain.PDF2SVG), found(toolchain.DVISVGM)}
	f := newFixture(t, compileOK, converters, map[string]convertFunc{toolchain.DVISVGM: convertOK})

	out, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.NoError(t, err)
	assert.Equal(t, toolchain.DVISVGM, out.Converter)
	assert.Equal(t, []string{toolchain.PDFLaTeX, toolchain.DVISVGM}, f.exec.toolsCalled())
}

func TestRenderNoConverterAvailable(t *testing.T) {
	converters := []toolchain.Resolution{notFound(toolchain.PDF2SVG), notFound(toolchain.DVISVGM)}
	f := newFixture(t, compileOK, converters, nil)

	_, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeToolchainMissing))
	assert.Contains(t, errors.GetHint(err), "pdf2svg")
	assert.Contains(t, errors.GetHint(err), "dvisvgm")
	f.assertNoLeftovers(t)
}

func TestRenderConverterFailure(t *testing.T) {
	converters := []toolchain.Resolution{found(toolchain.PDF2SVG), notFound(toolchain.DVISVGM)}
	f := newFixture(t, compileOK, converters, map[string]convertFunc{toolchain.PDF2SVG: convertBroken})

	_, err := f.r.Render(context.Background(), minimalSchematic, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRenderFailed))
	f.assertNoLeftovers(t)
}

func TestRenderCompilerMissing(t *testing.T) {
	f := newFixture(t, compileOK, defaultConverters(), nil)
	f.r.opts.Tools.Compiler = notFound(toolchain.PDFLaTeX)

	_, err := f.r.Render(context.Background(), minimalSchematic, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeToolchainMissing))
	assert.Contains(t, errors.GetHint(err), "TeX Live")
	assert.Empty(t, f.exec.toolsCalled())
}

func TestRenderRejectsInvalidPackages(t *testing.T) {
	f := newFixture(t, compileOK, defaultConverters(), nil)

	for _, pkg := range []string{`evil}\input{/etc/passwd`, "", "has space", "9lives"} {
		_, err := f.r.Render(context.Background(), minimalSchematic, []string{pkg})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidPackage), pkg)
	}
	assert.Empty(t, f.exec.toolsCalled())
}

func TestPackages(t *testing.T) {
	got, err := Packages(DefaultBasePackages, []string{"siunitx", "tikz", " siunitx ", "xcolor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"amsmath", "amssymb", "tikz", "circuitikz", "pgfplots", "siunitx", "xcolor"}, got)
}

func TestBuildDocument(t *testing.T) {
	doc := BuildDocument(minimalSchematic, []string{"tikz", "pgfplots"})
	assert.True(t, strings.HasPrefix(doc, `\documentclass[border=2pt]{standalone}`))
	assert.Contains(t, doc, `\usetikzlibrary{arrows.meta,positioning,shapes.geometric,calc}`)
	assert.Contains(t, doc, `\pgfplotsset{compat=newest}`)
	assert.Contains(t, doc, "\\begin{tikzpicture}\n"+minimalSchematic+"\n\\end{tikzpicture}")

	own := "\\begin{circuitikz}\n\\draw (0,0) to[C] (1,0);\n\\end{circuitikz}"
	doc = BuildDocument(own, []string{"circuitikz"})
	assert.NotContains(t, doc, "tikzpicture")
	assert.Contains(t, doc, own)
	assert.NotContains(t, doc, "pgfplotsset")
}

// minimalPDF builds a one-page PDF with a correct xref table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 10 10] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestVerifyPDF(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pdf")
	require.NoError(t, os.WriteFile(good, minimalPDF(), 0o600))
	assert.NoError(t, VerifyPDF(good))

	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF-1.4\ntruncated"), 0o600))
	assert.Error(t, VerifyPDF(bad))

	assert.Error(t, VerifyPDF(filepath.Join(dir, "missing.pdf")))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "tool-unavailable", ToolUnavailable.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestExecExecutor(t *testing.T) {
	e := ExecExecutor{WaitDelay: 100 * time.Millisecond}

	out, err := e.Run(context.Background(), Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--", "echo"},
		Env:  []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MESSAGE=hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "hello")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = e.Run(ctx, Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--", "sleep"},
		Env:  []string{"GO_WANT_HELPER_PROCESS=1"},
	})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "process is killed when the context ends")
}

// TestHelperProcess is re-executed by TestExecExecutor as a fake tool.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	switch {
	case len(args) > 1 && args[1] == "echo":
		fmt.Print(os.Getenv("HELPER_MESSAGE"))
	case len(args) > 1 && args[1] == "sleep":
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}
