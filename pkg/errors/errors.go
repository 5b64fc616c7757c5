// Package errors provides structured error types for the rendering service.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Operator hints for environment problems (missing tools)
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The render taxonomy maps onto four codes:
//   - SYNTAX_ERROR: malformed math, diagram or circuit source (never retried)
//   - TOOLCHAIN_MISSING: a required binary or browser is absent
//   - TIMEOUT: a stage exceeded its bound (safe to retry later)
//   - PARTIAL_BATCH_FAILURE: some batch items failed while siblings succeeded
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSyntax, "unbalanced brace at offset %d", off)
//	if errors.Is(err, errors.ErrCodeSyntax) {
//	    // Surface to caller, do not retry
//	}
//
//	// Wrap existing errors and attach an install hint
//	err := errors.Wrap(errors.ErrCodeToolchainMissing, origErr, "pdflatex not found").
//	    WithHint("Install TeX Live: apt install texlive-latex-extra")
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Render taxonomy
	ErrCodeSyntax              Code = "SYNTAX_ERROR"
	ErrCodeToolchainMissing    Code = "TOOLCHAIN_MISSING"
	ErrCodeTimeout             Code = "TIMEOUT"
	ErrCodePartialBatchFailure Code = "PARTIAL_BATCH_FAILURE"

	// Render failures outside the taxonomy
	ErrCodeRenderFailed       Code = "RENDER_FAILED"
	ErrCodeBrowserUnavailable Code = "BROWSER_UNAVAILABLE"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidStyle   Code = "INVALID_STYLE"

	// Transport errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, optional hint and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Hint    string // Operator-facing remediation (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithHint attaches an operator hint and returns the same error.
func (e *Error) WithHint(format string, args ...any) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Context deadline errors that were never wrapped report ErrCodeTimeout.
// Returns empty string for other foreign errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ""
}

// GetHint returns the first hint found along the error chain.
func GetHint(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Hint != "" {
			return e.Hint
		}
		err = e.Cause
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Code == ErrCodeSyntax {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
