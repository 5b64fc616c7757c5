package circuit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// Default stage timeouts.
const (
	DefaultCompileTimeout = 30 * time.Second
	DefaultConvertTimeout = 15 * time.Second
)

// tempExtensions are the files a render may leave behind.
var tempExtensions = []string{".tex", ".pdf", ".svg", ".log", ".aux"}

// texEnv keeps kpathsea from reading or writing outside the work directory.
// Paranoid mode refuses absolute paths, so the compiler runs inside the
// work directory and is handed relative names.
var texEnv = []string{"openin_any=p", "openout_any=p", "shell_escape=f"}

// Options configures a Renderer.
type Options struct {
	// Tools is the startup discovery report. Only Compiler and Converters
	// are used; converters are tried in report order.
	Tools          toolchain.Report
	CompileTimeout time.Duration
	ConvertTimeout time.Duration
	// WorkDir holds per-request files. Empty uses the OS temp dir.
	WorkDir      string
	BasePackages []string
	Executor     Executor
	// VerifyPDF checks compiler output. Nil uses [VerifyPDF].
	VerifyPDF func(path string) error
	Logger    *log.Logger
}

// Output is a successful circuit render.
type Output struct {
	SVG       string
	Width     int
	Height    int
	Converter string
	Warnings  []string
}

// Renderer compiles markup through the configured toolchain.
type Renderer struct {
	opts   Options
	exec   Executor
	logger *log.Logger
}

// New returns a Renderer. Zero options take the package defaults.
func New(opts Options) *Renderer {
	if opts.CompileTimeout <= 0 {
		opts.CompileTimeout = DefaultCompileTimeout
	}
	if opts.ConvertTimeout <= 0 {
		opts.ConvertTimeout = DefaultConvertTimeout
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.BasePackages == nil {
		opts.BasePackages = DefaultBasePackages
	}
	if opts.Executor == nil {
		opts.Executor = ExecExecutor{}
	}
	if opts.VerifyPDF == nil {
		opts.VerifyPDF = VerifyPDF
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{opts: opts, exec: opts.Executor, logger: logger}
}

// Render compiles source with the base packages plus packages and converts
// the result to SVG. All temp files are removed before it returns.
func (r *Renderer) Render(ctx context.Context, source string, packages []string) (out Output, err error) {
	if err := errors.ValidateSource("tikz", source); err != nil {
		return Output{}, err
	}
	pkgs, err := Packages(r.opts.BasePackages, packages)
	if err != nil {
		return Output{}, err
	}
	if !r.opts.Tools.Compiler.Found() {
		return Output{}, r.missing(r.opts.Tools.Compiler)
	}
	if err := os.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "create work dir")
	}

	base := filepath.Join(r.opts.WorkDir, "circuit-"+uuid.NewString())
	defer r.cleanup(base)

	tex := base + ".tex"
	if err := os.WriteFile(tex, []byte(BuildDocument(source, pkgs)), 0o600); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "write document")
	}

	warnings, err := r.compile(ctx, base)
	if err != nil {
		return Output{}, err
	}

	svg, conv, err := r.convert(ctx, base)
	if err != nil {
		return Output{}, err
	}

	out = Output{SVG: svg, Converter: conv, Warnings: warnings}
	if d := render.MeasureSVG(svg); d != nil {
		out.Width, out.Height = d.Width, d.Height
	}
	return out, nil
}

// compile runs pdflatex. A non-zero exit is fatal only when no usable PDF
// was produced.
func (r *Renderer) compile(ctx context.Context, base string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.CompileTimeout)
	defer cancel()

	dir := filepath.Dir(base)
	cmd := Command{
		Path: r.opts.Tools.Compiler.Path,
		Args: []string{
			"-interaction=nonstopmode",
			"-halt-on-error",
			"-no-shell-escape",
			"-output-directory=.",
			filepath.Base(base) + ".tex",
		},
		Dir: dir,
		Env: append([]string{"TEXMFOUTPUT=" + dir}, texEnv...),
	}
	start := time.Now()
	output, runErr := r.exec.Run(ctx, cmd)
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "compile exceeded %s", r.opts.CompileTimeout).
			WithHint("simplify the figure or raise circuit.compile_timeout")
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "compile cancelled")
	}

	pdf := base + ".pdf"
	if _, err := os.Stat(pdf); err != nil {
		diag := texDiagnostics(base+".log", string(output))
		return nil, errors.Wrap(errors.ErrCodeSyntax, fmt.Errorf("%s", diag), "LaTeX compilation failed")
	}
	if err := r.opts.VerifyPDF(pdf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "compiler produced an unusable PDF")
	}

	var warnings []string
	if runErr != nil {
		r.logger.Warn("compiler exited non-zero but produced a PDF", "err", runErr)
		warnings = append(warnings, "compiler reported errors but produced output")
	}
	r.logger.Debug("compiled circuit", "duration", time.Since(start))
	return warnings, nil
}

// convert tries each converter in order until one succeeds.
func (r *Renderer) convert(ctx context.Context, base string) (string, string, error) {
	dir := filepath.Dir(base)
	pdf, svg := base+".pdf", base+".svg"

	var outcomes []Outcome
	for _, res := range r.opts.Tools.Converters {
		out, o := r.convertWith(ctx, res, dir, pdf, svg)
		outcomes = append(outcomes, o)
		if o.Status == Success {
			return out, o.Converter, nil
		}
		if o.Status == Failed {
			r.logger.Warn("converter failed", "converter", o.Converter, "err", o.Err)
		}
		_ = os.Remove(svg)
		if ctx.Err() != nil {
			break
		}
	}
	return "", "", r.conversionError(ctx, outcomes)
}

func (r *Renderer) conversionError(ctx context.Context, outcomes []Outcome) error {
	var failed []Outcome
	var hints []string
	for _, o := range outcomes {
		switch o.Status {
		case Failed:
			failed = append(failed, o)
		case ToolUnavailable:
			hints = append(hints, toolchain.InstallHint(o.Converter))
		}
	}
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "pdf conversion cancelled")
	}
	if len(failed) == 0 {
		names := make([]string, len(outcomes))
		for i, o := range outcomes {
			names[i] = o.Converter
		}
		return errors.New(errors.ErrCodeToolchainMissing, "no PDF to SVG converter available (tried %s)", strings.Join(names, ", ")).
			WithHint("%s", strings.Join(hints, "; "))
	}
	last := failed[len(failed)-1]
	if last.Err == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, last.Err, "%s exceeded %s", last.Converter, r.opts.ConvertTimeout)
	}
	return errors.Wrap(errors.ErrCodeRenderFailed, last.Err, "PDF to SVG conversion failed")
}

func (r *Renderer) missing(res toolchain.Resolution) error {
	if res.Err != nil {
		return res.Err
	}
	return errors.New(errors.ErrCodeToolchainMissing, "%s not found", res.Tool).
		WithHint("%s", toolchain.InstallHint(toolchain.PDFLaTeX))
}

// cleanup removes every file sharing base, on all exit paths.
func (r *Renderer) cleanup(base string) {
	for _, ext := range tempExtensions {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("remove temp file", "path", base+ext, "err", err)
		}
	}
	rest, _ := filepath.Glob(base + ".*")
	for _, p := range rest {
		_ = os.Remove(p)
	}
}

// texDiagnostics extracts TeX error lines ("! ...") and the line that
// follows each, preferring the log file over captured output.
func texDiagnostics(logPath, output string) string {
	text := output
	if data, err := os.ReadFile(logPath); err == nil {
		text = string(data)
	}
	lines := strings.Split(text, "\n")
	var diag []string
	for i, line := range lines {
		if !strings.HasPrefix(line, "!") {
			continue
		}
		diag = append(diag, strings.TrimSpace(line))
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "l.") {
			diag = append(diag, strings.TrimSpace(lines[i+1]))
		}
		if len(diag) >= 6 {
			break
		}
	}
	if len(diag) == 0 {
		return strings.TrimSpace(tail(text, 400))
	}
	return strings.Join(diag, "\n")
}
