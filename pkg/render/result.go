package render

import (
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

// Kind identifies a render request type.
type Kind string

// Supported render kinds. The string values match the HTTP route suffixes.
const (
	KindMath     Kind = "latex"
	KindDiagram  Kind = "mermaid"
	KindCircuit  Kind = "tikz"
	KindCitation Kind = "citation"
	KindCode     Kind = "code"
	KindGraph    Kind = "dot"
)

// Kinds lists every render kind in display order.
var Kinds = []Kind{KindMath, KindDiagram, KindCircuit, KindCitation, KindCode, KindGraph}

// Dimensions is the rendered artifact size in the producing engine's native units.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ErrorInfo is the serializable form of a render failure.
type ErrorInfo struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

// Result is the outcome of a single render.
type Result struct {
	Success    bool        `json:"success"`
	Artifact   string      `json:"artifact,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
	Error      *ErrorInfo  `json:"error,omitempty"`
	Fallback   bool        `json:"fallback,omitempty"`

	// Meta carries kind-specific details such as the diagram type or the
	// resolved highlighter theme.
	Meta map[string]string `json:"meta,omitempty"`
}

// Succeeded builds a successful result for artifact.
func Succeeded(artifact string, dims *Dimensions, warnings ...string) Result {
	return Result{
		Success:    true,
		Artifact:   artifact,
		Dimensions: dims,
		Warnings:   warnings,
	}
}

// Failed builds a failed result with no artifact.
func Failed(err error) Result {
	return Result{Error: ErrorInfoFrom(err)}
}

// FailedWithPlaceholder builds a failed result carrying a labeled placeholder.
func FailedWithPlaceholder(err error, placeholder string) Result {
	return Result{
		Artifact: placeholder,
		Error:    ErrorInfoFrom(err),
		Fallback: placeholder != "",
	}
}

// ErrorInfoFrom converts any error into an ErrorInfo.
// Errors without a code are reported as RENDER_FAILED.
func ErrorInfoFrom(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeRenderFailed
	}
	return &ErrorInfo{
		Code:    code,
		Message: errors.UserMessage(err),
		Hint:    errors.GetHint(err),
	}
}

// WithMeta sets a Meta entry and returns the result.
func (r Result) WithMeta(key, value string) Result {
	if value == "" {
		return r
	}
	meta := make(map[string]string, len(r.Meta)+1)
	for k, v := range r.Meta {
		meta[k] = v
	}
	meta[key] = value
	r.Meta = meta
	return r
}

// Message returns the error message, or empty string on success.
func (r Result) Message() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}
