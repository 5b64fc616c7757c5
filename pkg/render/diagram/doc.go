// Package diagram renders Mermaid diagram source to SVG in a pooled headless
// browser.
//
// Each render acquires a fresh page from the shared [browser.Pool], loads a
// small HTML harness that embeds the Mermaid bundle and the diagram source,
// and polls the page until the engine reports either an SVG or an error. The
// source is injected as a JavaScript template literal; [EscapeTemplateLiteral]
// is the only serialization boundary between Go and the page.
//
// Failures never leave the caller empty-handed: [Renderer.Render] returns a
// labeled placeholder SVG alongside the error so slide assembly always has
// something to draw.
package diagram
