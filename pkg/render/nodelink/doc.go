// Package nodelink renders Graphviz DOT source as node-link diagrams.
//
// # Overview
//
// Rendering runs in-process through [github.com/goccy/go-graphviz], so no
// Graphviz installation is needed. The output is a standalone SVG whose
// root carries a normalized viewBox and integer width/height, matching the
// other renderers' artifacts.
//
// # Usage
//
//	out, err := nodelink.RenderSVG(ctx, "digraph { a -> b }", nodelink.LayoutDot)
//
// # Layouts
//
// The layout engine is selectable per request: dot (hierarchical, the
// default), neato and fdp (spring models), circo (circular) and twopi
// (radial). Unknown names are rejected with INVALID_INPUT.
//
// # Errors
//
// Source that Graphviz cannot parse is reported as SYNTAX_ERROR. For PDF or
// PNG output the SVG can be passed to [render.ToPDF] or [render.ToPNG].
package nodelink
