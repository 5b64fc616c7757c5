package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSourceLength bounds any single render input.
const MaxSourceLength = 256 * 1024

// texPackageRe matches TeX package names as they appear in \usepackage{...}.
var texPackageRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,63}$`)

// ValidatePackageName validates a TeX package name before it is spliced into a
// generated document. It rejects anything that could close the brace group or
// inject additional commands.
//
// Rules:
//   - No empty names
//   - Letters, digits and '-' only, starting with a letter
//   - Maximum length of 64 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if !texPackageRe.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid package name: %q", name)
	}
	return nil
}

// ValidateSource validates render input text for safety and reasonable size.
//
// Validation rules:
//   - Source cannot be empty or whitespace only
//   - Must be valid UTF-8
//   - Maximum length of MaxSourceLength bytes
//   - No null bytes or control characters other than tab, CR and LF
func ValidateSource(field, src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", field)
	}
	if len(src) > MaxSourceLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d bytes)", field, MaxSourceLength)
	}
	if !utf8.ValidString(src) {
		return New(ErrCodeInvalidInput, "%s is not valid UTF-8", field)
	}
	for _, r := range src {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", field)
		}
	}
	return nil
}
