package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

// ErrorResponse is the body of every request-level failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response with an error code.
func WriteError(w http.ResponseWriter, statusCode int, code errors.Code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: string(code)})
}

// writeErr maps a coded error to a status and writes it.
func writeErr(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	WriteJSON(w, statusFor(code), ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(code),
		Hint:  errors.GetHint(err),
	})
}

// statusFor returns the HTTP status for a request-level error code. Render
// failures travel in a 200 body and never reach here.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage, errors.ErrCodeInvalidStyle:
		return http.StatusBadRequest
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// renderStatus picks the status for a render result: input errors are the
// caller's fault, everything else is an expected failure reported in a 200.
func renderStatus(res render.Result) int {
	if res.Error == nil {
		return http.StatusOK
	}
	switch res.Error.Code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage:
		return http.StatusBadRequest
	}
	return http.StatusOK
}

// decodeJSON reads the body into v, limited to limit bytes. It writes a 400
// (or 413) and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput, "request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
