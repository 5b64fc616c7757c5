package server

import (
	"net/http"
	"strings"

	"github.com/Kevin-nav/sankosides-sub000/pkg/buildinfo"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/pipeline"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/nodelink"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// RenderResponse is the body of every single-artifact render. Only the
// fields relevant to the kind are set.
type RenderResponse struct {
	Success     bool   `json:"success"`
	SVG         string `json:"svg,omitempty"`
	HTML        string `json:"html,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	DiagramType string `json:"diagramType,omitempty"`
	Language    string `json:"language,omitempty"`
	Theme       string `json:"theme,omitempty"`
	Converter   string `json:"converter,omitempty"`
	Layout      string `json:"layout,omitempty"`
	Fallback    bool   `json:"fallback,omitempty"`
	Warning     string `json:"warning,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

func newRenderResponse(res render.Result) RenderResponse {
	out := RenderResponse{
		Success:     res.Success,
		SVG:         res.Artifact,
		DiagramType: res.Meta[pipeline.MetaDiagramType],
		Theme:       res.Meta[pipeline.MetaTheme],
		Converter:   res.Meta[pipeline.MetaConverter],
		Layout:      res.Meta[pipeline.MetaLayout],
		Fallback:    res.Fallback,
		Warning:     strings.Join(res.Warnings, "; "),
	}
	if res.Dimensions != nil {
		out.Width, out.Height = res.Dimensions.Width, res.Dimensions.Height
	}
	if res.Error != nil {
		out.Error = res.Error.Message
		out.Code = string(res.Error.Code)
		out.Hint = res.Error.Hint
	}
	return out
}

// CitationResponse is the body of /render/citation.
type CitationResponse struct {
	Success   bool                 `json:"success"`
	Citations []citation.Formatted `json:"citations"`
	Style     string               `json:"style"`
}

// BatchResponse is the body of /render/batch.
type BatchResponse struct {
	Success        bool         `json:"success"`
	Results        BatchResults `json:"results"`
	Style          string       `json:"style,omitempty"`
	PartialFailure bool         `json:"partial_failure,omitempty"`
	Failed         int          `json:"failed,omitempty"`
	Code           string       `json:"code,omitempty"`
}

type BatchResults struct {
	Latex     []RenderResponse     `json:"latex"`
	Citations []citation.Formatted `json:"citations"`
}

// HealthResponse is the body of /health. Producing it never renders.
type HealthResponse struct {
	Status            string               `json:"status"`
	Version           string               `json:"version"`
	Uptime            float64              `json:"uptime"`
	RequestsProcessed int64                `json:"requests_processed"`
	DiagramReady      bool                 `json:"diagram_ready"`
	ToolchainPath     string               `json:"toolchain_path"`
	Toolchain         ToolchainStatus      `json:"toolchain"`
	Renders           map[string]KindStats `json:"renders"`
}

type ToolchainStatus struct {
	Browser    ToolStatus   `json:"browser"`
	Compiler   ToolStatus   `json:"compiler"`
	Converters []ToolStatus `json:"converters"`
}

type ToolStatus struct {
	Tool  string `json:"tool"`
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

func toolStatus(r toolchain.Resolution) ToolStatus {
	return ToolStatus{Tool: r.Tool, Found: r.Found(), Path: r.Path, Error: r.Error()}
}

// RegistryResponse is the body of /render/registry.
type RegistryResponse struct {
	Languages     []string `json:"languages"`
	Themes        []string `json:"themes"`
	Styles        []string `json:"styles"`
	DiagramThemes []string `json:"diagram_themes"`
	Layouts       []string `json:"layouts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	a := s.app
	tools := a.Tools
	resp := HealthResponse{
		Status:            "ok",
		Version:           buildinfo.Version,
		Uptime:            a.Uptime().Seconds(),
		RequestsProcessed: s.stats.Requests(),
		DiagramReady:      a.DiagramReady(),
		ToolchainPath:     a.BrowserPath(),
		Toolchain: ToolchainStatus{
			Browser:    toolStatus(tools.Browser),
			Compiler:   toolStatus(tools.Compiler),
			Converters: make([]ToolStatus, 0, len(tools.Converters)),
		},
		Renders: s.stats.Renders(),
	}
	for _, c := range tools.Converters {
		resp.Toolchain.Converters = append(resp.Toolchain.Converters, toolStatus(c))
	}
	if !resp.DiagramReady || !tools.Compiler.Found() {
		resp.Status = "degraded"
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatex(w http.ResponseWriter, r *http.Request) {
	var req pipeline.MathRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res := s.app.Runner.Math(r.Context(), req)
	WriteJSON(w, renderStatus(res), newRenderResponse(res))
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DiagramRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res := s.app.Runner.Diagram(r.Context(), req)
	WriteJSON(w, renderStatus(res), newRenderResponse(res))
}

func (s *Server) handleTikz(w http.ResponseWriter, r *http.Request) {
	var req pipeline.CircuitRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res := s.app.Runner.Circuit(r.Context(), req)
	WriteJSON(w, renderStatus(res), newRenderResponse(res))
}

func (s *Server) handleDot(w http.ResponseWriter, r *http.Request) {
	var req pipeline.GraphRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res := s.app.Runner.Graph(r.Context(), req)
	WriteJSON(w, renderStatus(res), newRenderResponse(res))
}

func (s *Server) handleCode(w http.ResponseWriter, r *http.Request) {
	var req pipeline.CodeRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res := s.app.Runner.Code(r.Context(), req)
	resp := newRenderResponse(res)
	resp.HTML, resp.SVG = resp.SVG, ""
	resp.Language = res.Meta[pipeline.MetaLanguage]
	WriteJSON(w, renderStatus(res), resp)
}

func (s *Server) handleCitation(w http.ResponseWriter, r *http.Request) {
	var req pipeline.CitationRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res, err := s.app.Runner.Citations(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, CitationResponse{Success: true, Citations: res.Citations, Style: res.Style})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req pipeline.BatchRequest
	if !decodeJSON(w, r, s.maxBody, &req) {
		return
	}
	res, err := s.app.Runner.Batch(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := BatchResponse{
		Success: true,
		Results: BatchResults{
			Latex:     make([]RenderResponse, len(res.Latex)),
			Citations: res.Citations,
		},
		Style:          res.Style,
		PartialFailure: res.PartialFailure(),
		Failed:         res.Failed,
	}
	for i, item := range res.Latex {
		resp.Results.Latex[i] = newRenderResponse(item)
	}
	if resp.PartialFailure {
		resp.Code = string(errors.ErrCodePartialBatchFailure)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, RegistryResponse{
		Languages:     s.app.Registry.Languages(),
		Themes:        s.app.Registry.Themes(),
		Styles:        s.app.Citations.Styles(),
		DiagramThemes: diagram.Themes,
		Layouts:       nodelink.Layouts(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, errors.ErrCodeInvalidInput, "no route for "+r.Method+" "+r.URL.Path)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, errors.ErrCodeInvalidInput, "method "+r.Method+" not allowed on "+r.URL.Path)
}
