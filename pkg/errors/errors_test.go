package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := Wrap(ErrCodeRenderFailed, cause, "pdf2svg failed")
	if got, want := err.Error(), "RENDER_FAILED: pdf2svg failed: exit status 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := New(ErrCodeSyntax, "unbalanced brace at offset %d", 3)
	if got, want := plain.Error(), "SYNTAX_ERROR: unbalanced brace at offset 3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsAndGetCode(t *testing.T) {
	inner := New(ErrCodeToolchainMissing, "pdflatex not found")
	outer := fmt.Errorf("circuit: %w", inner)

	if !Is(outer, ErrCodeToolchainMissing) {
		t.Error("Is should find code through fmt wrapping")
	}
	if Is(outer, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if got := GetCode(outer); got != ErrCodeToolchainMissing {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := GetCode(fmt.Errorf("wait: %w", context.DeadlineExceeded)); got != ErrCodeTimeout {
		t.Errorf("GetCode(deadline) = %q, want TIMEOUT", got)
	}
}

func TestHint(t *testing.T) {
	err := New(ErrCodeToolchainMissing, "no converter").WithHint("Install with: %s", "apt install pdf2svg")
	wrapped := Wrap(ErrCodeRenderFailed, err, "convert")

	if got := GetHint(wrapped); got != "Install with: apt install pdf2svg" {
		t.Errorf("GetHint = %q", got)
	}
	if got := GetHint(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetHint(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeTimeout, "diagram render exceeded 20s"), "diagram render exceeded 20s"},
		{"plain", fmt.Errorf("boom"), "boom"},
		{"syntax with cause", Wrap(ErrCodeSyntax, fmt.Errorf("unknown symbol"), "invalid math"), "invalid math: unknown symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
