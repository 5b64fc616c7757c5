package diagram

import (
	"fmt"
	"strings"
)

// Themes are the Mermaid themes accepted in requests.
var Themes = []string{"default", "neutral", "dark", "forest"}

// DefaultTheme is used when a request names no theme.
const DefaultTheme = "default"

// IsTheme reports whether name is a known Mermaid theme.
func IsTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

const (
	containerID = "sanko-container"
	diagramID   = "sanko-diagram"
)

// BuildHarness returns the page that renders source with the Mermaid bundle
// in script. theme must be one of [Themes].
func BuildHarness(script, source, theme string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"></head><body>\n")
	fmt.Fprintf(&b, "<div id=%q></div>\n", containerID)
	b.WriteString("<script>")
	b.WriteString(strings.ReplaceAll(script, "</script", `<\/script`))
	b.WriteString("</script>\n<script>\n")
	b.WriteString(harnessScript(source, theme))
	b.WriteString("</script>\n</body></html>\n")
	return b.String()
}

// harnessScript is the inline driver. It records its outcome on
// window.__sankoDone for the probe to collect.
func harnessScript(source, theme string) string {
	return fmt.Sprintf(`(function () {
  var source = `+"`%s`"+`;
  window.__sankoSource = source;
  function fail(err) {
    window.__sankoDone = {ok: false, error: String((err && err.message) || err)};
  }
  try {
    mermaid.initialize({startOnLoad: false, securityLevel: 'strict', theme: '%s', flowchart: {htmlLabels: false}});
    mermaid.render('%s', source).then(function (out) {
      document.getElementById('%s').innerHTML = out.svg;
      window.__sankoDone = {ok: true};
    }, fail);
  } catch (err) {
    fail(err);
  }
})();
`, EscapeTemplateLiteral(source), theme, diagramID, containerID)
}

// probeScript reports the harness state without blocking.
var probeScript = fmt.Sprintf(`(function () {
  var d = window.__sankoDone;
  if (!d) return {done: false};
  if (!d.ok) return {done: true, error: d.error || 'unknown render error'};
  var svg = document.querySelector('#%s svg');
  if (!svg) return {done: true, error: 'renderer produced no svg element'};
  return {done: true, svg: svg.outerHTML};
})()`, containerID)

type probeResult struct {
	Done  bool   `json:"done"`
	SVG   string `json:"svg"`
	Error string `json:"error"`
}
