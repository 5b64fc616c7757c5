// Package pipeline dispatches render requests to the renderers and
// implements the batch operation.
//
// Both the HTTP server and the CLI go through a [Runner], so caching, hooks
// and error shaping behave the same from every entry point.
//
// # Requests
//
// Each render kind has its own request type ([MathRequest], [DiagramRequest],
// [CircuitRequest], [CitationRequest], [CodeRequest], [GraphRequest]).
// [Request] is the tagged union over them, used where the kind is only known
// at runtime.
//
// # Results
//
// Every single-artifact render returns a [render.Result]. Expected failures
// (bad math, a missing tool, a timeout) are reported inside the result, never
// as a Go error; the runner only returns errors for requests it cannot
// dispatch at all.
//
// # Batch
//
// [Runner.Batch] renders lists of math expressions and citations. Diagrams,
// circuits and code are too expensive to batch and only have single-item
// entry points.
// Items are independent: a failure fills that item's slot and leaves its
// siblings untouched, and the output lists always match the input lists in
// length and order.
//
// # Usage
//
//	runner := pipeline.NewRunner(renderers, cache, nil, logger)
//	res := runner.Math(ctx, pipeline.MathRequest{Latex: `E=mc^2`})
//	if !res.Success {
//	    log.Print(res.Error.Message)
//	}
package pipeline

import (
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
)

// Meta keys set on results.
const (
	MetaDiagramType = "diagramType"
	MetaTheme       = "theme"
	MetaLanguage    = "language"
	MetaConverter   = "converter"
	MetaLayout      = "layout"
)

// MathRequest is a LaTeX math expression.
type MathRequest struct {
	Latex   string `json:"latex"`
	Display bool   `json:"display,omitempty"`
}

// DiagramRequest is Mermaid diagram source.
type DiagramRequest struct {
	Diagram string `json:"diagram"`
	Theme   string `json:"theme,omitempty"`
}

// CircuitRequest is TikZ or circuitikz markup.
type CircuitRequest struct {
	Tikz     string   `json:"tikz"`
	Packages []string `json:"packages,omitempty"`
}

// CitationRequest is a list of records to format in one style.
type CitationRequest struct {
	Citations []citation.Record `json:"citations"`
	Style     string            `json:"style,omitempty"`
}

// CodeRequest is a snippet to highlight.
type CodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Theme    string `json:"theme,omitempty"`
}

// GraphRequest is Graphviz DOT source.
type GraphRequest struct {
	DOT    string `json:"dot"`
	Layout string `json:"layout,omitempty"`
}

// BatchRequest holds independent lists of math expressions and citations.
type BatchRequest struct {
	Latex     []string          `json:"latex"`
	Display   bool              `json:"display,omitempty"`
	Citations []citation.Record `json:"citations"`
	Style     string            `json:"style,omitempty"`
}

// Request is a tagged union over the request kinds. Exactly the field
// matching Kind is set.
type Request struct {
	Kind     render.Kind
	Math     *MathRequest
	Diagram  *DiagramRequest
	Circuit  *CircuitRequest
	Citation *CitationRequest
	Code     *CodeRequest
	Graph    *GraphRequest
}

// CitationResult is the outcome of formatting a citation list.
type CitationResult struct {
	Success   bool                 `json:"success"`
	Citations []citation.Formatted `json:"citations"`
	Style     string               `json:"style"`
}

// FallbackCount returns how many records were formatted with the fallback
// template.
func (r CitationResult) FallbackCount() int {
	n := 0
	for _, c := range r.Citations {
		if c.Fallback {
			n++
		}
	}
	return n
}

// BatchResult holds one slot per input item, in input order.
type BatchResult struct {
	Latex     []render.Result      `json:"latex"`
	Citations []citation.Formatted `json:"citations"`
	Style     string               `json:"style"`

	// Failed counts failed math items and fallback citations.
	Failed int `json:"failed"`
}

// PartialFailure reports whether any item failed. The batch itself still
// succeeds; callers inspect the individual slots.
func (b BatchResult) PartialFailure() bool {
	return b.Failed > 0
}
