package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

const maxPlaceholderMessage = 120

// DiagramType returns the first grammar keyword of source, skipping blank
// lines, %% comments and front matter.
func DiagramType(source string) string {
	inFrontMatter := false
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "---" {
			inFrontMatter = !inFrontMatter
			continue
		}
		if inFrontMatter || line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		kw, _, _ := strings.Cut(line, " ")
		return strings.TrimRight(kw, ";:")
	}
	return "unknown"
}

// Placeholder returns a light, clearly labeled SVG standing in for a diagram
// that failed to render.
func Placeholder(diagramType string, err error) string {
	msg := "render failed"
	if err != nil {
		msg = errors.UserMessage(err)
	}
	msg = strings.Join(strings.Fields(msg), " ")
	if utf8.RuneCountInString(msg) > maxPlaceholderMessage {
		r := []rune(msg)
		msg = string(r[:maxPlaceholderMessage-1]) + "…"
	}
	return fmt.Sprintf(`<svg xmlns="%s" width="480" height="120" viewBox="0 0 480 120" role="img" data-placeholder="true">`+
		`<title>Diagram unavailable</title>`+
		`<rect x="1" y="1" width="478" height="118" rx="8" fill="#f8f9fa" stroke="#ced4da" stroke-dasharray="6 4"/>`+
		`<text x="240" y="52" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#495057">%s diagram unavailable</text>`+
		`<text x="240" y="80" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#868e96">%s</text>`+
		`</svg>`,
		render.SVGNamespace, render.EscapeText(diagramType), render.EscapeText(msg))
}
