package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"tikz", "tikz", false},
		{"circuitikz", "circuitikz", false},
		{"pgfplots", "pgfplots", false},
		{"hyphenated", "tikz-cd", false},
		{"digits", "mhchem4", false},
		{"max length", "a" + strings.Repeat("b", 63), false},

		{"empty", "", true},
		{"too long", "a" + strings.Repeat("b", 64), true},
		{"leading digit", "9lives", true},
		{"leading dash", "-x", true},
		{"space", "a b", true},
		{"brace close", "a}b", true},
		{"command injection", "tikz}\\input{/etc/passwd", true},
		{"backslash", "\\input", true},
		{"comma list", "pkg,other", true},
		{"path traversal", "../x", true},
		{"underscore", "my_pkg", true},
		{"newline", "tikz\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("code = %q, want %q", GetCode(err), ErrCodeInvalidPackage)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"simple", "E=mc^2", false},
		{"tabs and newlines", "graph TD\n\tA-->B\r\n", false},
		{"unicode", "\\alpha = α", false},
		{"at limit", strings.Repeat("x", MaxSourceLength), false},

		{"empty", "", true},
		{"whitespace", "   \n", true},
		{"null byte", "a\x00b", true},
		{"escape", "a\x1bb", true},
		{"delete", "a\x7fb", true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
		{"over limit", strings.Repeat("x", MaxSourceLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource("latex", tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %q, want %q", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateSourceNamesField(t *testing.T) {
	err := ValidateSource("diagram", "")
	if err == nil || !strings.Contains(err.Error(), "diagram") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeSyntax,
		ErrCodeToolchainMissing,
		ErrCodeTimeout,
		ErrCodePartialBatchFailure,
		ErrCodeRenderFailed,
		ErrCodeBrowserUnavailable,
		ErrCodeInvalidInput,
		ErrCodeInvalidPackage,
		ErrCodeInvalidStyle,
		ErrCodeNetwork,
		ErrCodeRateLimited,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
