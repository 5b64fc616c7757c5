package mathtex

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports malformed LaTeX math.
type SyntaxError struct {
	Expr   string
	Offset int // byte offset into Expr, or -1 when the engine gave none
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
	}
	return e.Msg
}

// StripDelimiters removes one pair of surrounding math delimiters and
// surrounding whitespace.
func StripDelimiters(expr string) string {
	s := strings.TrimSpace(expr)
	pairs := [][2]string{
		{"$$", "$$"},
		{`\[`, `\]`},
		{`\(`, `\)`},
		{"$", "$"},
	}
	for _, p := range pairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
		}
	}
	return s
}

// forbidden lists TeX primitives and macros that touch files, define
// macros, change modes or end the job. Expressions never need them.
var forbidden = map[string]bool{
	"input": true, "endinput": true, "openin": true, "openout": true,
	"read": true, "write": true, "immediate": true, "closein": true,
	"closeout": true, "special": true, "shipout": true, "output": true,
	"def": true, "edef": true, "gdef": true, "xdef": true, "let": true,
	"futurelet": true, "csname": true, "expandafter": true, "catcode": true,
	"uccode": true, "lccode": true, "mathcode": true, "delcode": true,
	"endTeX": true, "dump": true, "batchmode": true, "nonstopmode": true,
	"scrollmode": true, "errorstopmode": true, "errmessage": true,
	"message": true, "loop": true, "repeat": true, "afterassignment": true,
	"aftergroup": true, "everymath": true, "everyhbox": true,
}

type frame struct {
	kind   string // "{", "left", or an environment name
	offset int
}

// validate checks the structural well-formedness the engine does not report
// precisely.
func validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return &SyntaxError{Expr: expr, Offset: 0, Msg: "empty expression"}
	}

	var stack []frame
	fail := func(off int, format string, args ...any) error {
		return &SyntaxError{Expr: expr, Offset: off, Msg: fmt.Sprintf(format, args...)}
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '%':
			for i < len(expr) && expr[i] != '\n' {
				i++
			}
		case '$':
			return fail(i, "unexpected '$' inside math")
		case '{':
			stack = append(stack, frame{kind: "{", offset: i})
		case '}':
			if len(stack) == 0 || stack[len(stack)-1].kind != "{" {
				return fail(i, "unexpected '}'")
			}
			stack = stack[:len(stack)-1]
		case '^', '_':
			rest := strings.TrimLeftFunc(expr[i+1:], unicode.IsSpace)
			if rest == "" || rest[0] == '}' || rest[0] == '^' || rest[0] == '_' {
				return fail(i, "missing argument for %q", string(c))
			}
		case '\\':
			if i+1 >= len(expr) {
				return fail(i, "dangling backslash")
			}
			j := i + 1
			for j < len(expr) && isLetter(expr[j]) {
				j++
			}
			if j == i+1 {
				// control symbol such as \{ or \\
				i++
				continue
			}
			name := expr[i+1 : j]
			if forbidden[name] || strings.HasPrefix(name, "sanko") {
				return fail(i, `\%s is not allowed in math`, name)
			}
			switch name {
			case "left":
				stack = append(stack, frame{kind: "left", offset: i})
			case "right":
				if len(stack) == 0 || stack[len(stack)-1].kind != "left" {
					return fail(i, `\right without matching \left`)
				}
				stack = stack[:len(stack)-1]
			case "begin", "end":
				env, end, ok := envName(expr, j)
				if !ok {
					return fail(i, `\%s requires an environment name`, name)
				}
				if name == "begin" {
					stack = append(stack, frame{kind: "env:" + env, offset: i})
				} else {
					if len(stack) == 0 || stack[len(stack)-1].kind != "env:"+env {
						return fail(i, `\end{%s} without matching \begin`, env)
					}
					stack = stack[:len(stack)-1]
				}
				j = end
			}
			i = j - 1
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		switch {
		case top.kind == "{":
			return fail(top.offset, "unbalanced '{'")
		case top.kind == "left":
			return fail(top.offset, `\left without matching \right`)
		default:
			return fail(top.offset, `\begin{%s} without matching \end`, strings.TrimPrefix(top.kind, "env:"))
		}
	}
	return nil
}

// envName reads "{name}" starting at i, skipping leading spaces.
func envName(s string, i int) (name string, end int, ok bool) {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", i, false
	}
	rb := strings.IndexByte(s[i:], '}')
	if rb <= 1 {
		return "", i, false
	}
	return s[i+1 : i+rb], i + rb + 1, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
