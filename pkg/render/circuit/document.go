package circuit

import (
	"strings"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

// DefaultBasePackages are loaded into every document.
var DefaultBasePackages = []string{"amsmath", "amssymb", "tikz", "circuitikz", "pgfplots"}

// tikzLibraries are loaded whenever tikz is present.
var tikzLibraries = []string{"arrows.meta", "positioning", "shapes.geometric", "calc"}

// Packages returns base followed by the extras not already present. Every
// name is validated before it can reach the document.
func Packages(base, extra []string) ([]string, error) {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, list := range [][]string{base, extra} {
		for _, p := range list {
			p = strings.TrimSpace(p)
			if seen[p] {
				continue
			}
			if err := errors.ValidatePackageName(p); err != nil {
				return nil, err
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// BuildDocument wraps body in a standalone document. Bodies that do not open
// their own tikzpicture or circuitikz environment are wrapped in one.
func BuildDocument(body string, packages []string) string {
	var b strings.Builder
	b.WriteString("\\documentclass[border=2pt]{standalone}\n")
	hasTikz, hasPgfplots := false, false
	for _, p := range packages {
		b.WriteString("\\usepackage{" + p + "}\n")
		switch p {
		case "tikz", "circuitikz":
			hasTikz = true
		case "pgfplots":
			hasPgfplots = true
		}
	}
	if hasTikz {
		b.WriteString("\\usetikzlibrary{" + strings.Join(tikzLibraries, ",") + "}\n")
	}
	if hasPgfplots {
		b.WriteString("\\pgfplotsset{compat=newest}\n")
	}
	b.WriteString("\\begin{document}\n")

	body = strings.TrimSpace(body)
	if strings.Contains(body, "\\begin{tikzpicture}") || strings.Contains(body, "\\begin{circuitikz}") {
		b.WriteString(body)
	} else {
		b.WriteString("\\begin{tikzpicture}\n")
		b.WriteString(body)
		b.WriteString("\n\\end{tikzpicture}")
	}
	b.WriteString("\n\\end{document}\n")
	return b.String()
}
