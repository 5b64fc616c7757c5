// Package render holds the result model shared by every renderer.
//
// # Overview
//
// Each renderer subpackage turns one kind of STEM source into a presentation
// artifact:
//
//   - [mathtex]: LaTeX math expressions to SVG (in-process typesetting)
//   - [code]: source code to inline-styled, sanitized HTML
//   - [citation]: bibliographic metadata to formatted reference strings
//   - [diagram]: Mermaid source to SVG via a pooled headless browser
//   - [circuit]: TikZ/circuitikz markup to SVG via pdflatex and a PDF converter
//   - [nodelink]: Graphviz DOT to SVG (in-process)
//
// Renderers return plain values and structured errors. This package converts
// them into a [Result], the shape the HTTP layer serializes.
//
// # Result Invariants
//
// A [Result] is never partially valid:
//
//   - Success=true guarantees Artifact is well-formed markup
//   - Success=false guarantees Artifact is empty or a labeled placeholder,
//     in which case Fallback is set
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). They back the CLI's
// --format flag.
//
// [mathtex]: github.com/Kevin-nav/sankosides-sub000/pkg/render/mathtex
// [code]: github.com/Kevin-nav/sankosides-sub000/pkg/render/code
// [citation]: github.com/Kevin-nav/sankosides-sub000/pkg/render/citation
// [diagram]: github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram
// [circuit]: github.com/Kevin-nav/sankosides-sub000/pkg/render/circuit
// [nodelink]: github.com/Kevin-nav/sankosides-sub000/pkg/render/nodelink
package render
