// Package toolchain locates the external executables the renderers depend on.
//
// Each tool is described by an ordered list of candidates. A candidate that
// contains a path separator is checked with stat; a bare name is resolved
// through PATH. The first hit wins. Discovery runs once at startup and the
// resulting [Report] is passed to the renderers and the health endpoint, so no
// request ever probes the filesystem.
//
// The probing functions live on [Finder] and can be replaced in tests.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

// Well-known tool names.
const (
	Browser  = "browser"
	PDFLaTeX = "pdflatex"
	PDF2SVG  = "pdf2svg"
	DVISVGM  = "dvisvgm"
	Inkscape = "inkscape"
)

// installHints maps a tool to operator-facing installation instructions.
var installHints = map[string]string{
	Browser:  "Install Chromium or Google Chrome (apt install chromium, brew install --cask chromium) or list its path in browser.candidates",
	PDFLaTeX: "Install TeX Live with TikZ and circuitikz (apt install texlive-latex-extra texlive-pictures, brew install --cask mactex-no-gui)",
	PDF2SVG:  "Install pdf2svg (apt install pdf2svg, brew install pdf2svg)",
	DVISVGM:  "Install dvisvgm, shipped with TeX Live (apt install texlive-binaries)",
	Inkscape: "Install Inkscape (apt install inkscape, brew install --cask inkscape)",
}

// InstallHint returns the installation hint for tool, or a generic message.
func InstallHint(tool string) string {
	if h, ok := installHints[tool]; ok {
		return h
	}
	return fmt.Sprintf("Install %s and make sure it is on PATH", tool)
}

// Finder resolves candidates against the filesystem.
type Finder struct {
	Stat     func(name string) (os.FileInfo, error)
	LookPath func(file string) (string, error)
}

// DefaultFinder probes the real filesystem and PATH.
func DefaultFinder() Finder {
	return Finder{Stat: os.Stat, LookPath: exec.LookPath}
}

// Resolve returns the first candidate that exists.
func (f Finder) Resolve(tool string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", errors.New(errors.ErrCodeToolchainMissing, "%s: no candidate paths configured", tool).
			WithHint("%s", InstallHint(tool))
	}
	for _, c := range candidates {
		c = os.ExpandEnv(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if isPath(c) {
			if info, err := f.Stat(c); err == nil && !info.IsDir() {
				return c, nil
			}
			continue
		}
		if p, err := f.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeToolchainMissing, "%s not found (tried %s)", tool, strings.Join(candidates, ", ")).
		WithHint("%s", InstallHint(tool))
}

func isPath(s string) bool {
	return strings.ContainsAny(s, `/\`)
}

// DefaultBrowserCandidates returns the probe order for a Chromium-family
// browser on the current platform. Bare names are resolved through PATH.
func DefaultBrowserCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			"chromium",
			"google-chrome",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			"chrome.exe",
		}
	default:
		return []string{
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/snap/bin/chromium",
			"chromium",
			"chromium-browser",
			"google-chrome",
			"headless-shell",
		}
	}
}
