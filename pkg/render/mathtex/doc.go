// Package mathtex typesets LaTeX math expressions to SVG in-process.
//
// # Overview
//
// Expressions are typeset by Knuth's TeX running in-process (star-tex.org/x/tex)
// with plain TeX plus a small layer of LaTeX math macros (\frac, \text,
// \mathrm, \sqrt[n], matrix and cases environments). The formula is boxed and
// shipped out as a single DVI page, which is then decoded against the Computer
// Modern font metrics and serialized as SVG <text> glyphs and <rect> rules.
// No subprocess is involved, and output is a pure function of the input: the
// same expression always produces byte-identical SVG.
//
// # Usage
//
//	r := mathtex.New(mathtex.Options{FontSize: 12})
//	out, err := r.Render(`$$\frac{a}{b}$$`, true)
//	if errors.Is(err, errors.ErrCodeSyntax) {
//	    // out is empty: callers must not display broken math
//	}
//
// # Delimiters
//
// Input may be wrapped in $$...$$, $...$, \[...\] or \(...\); the outer
// delimiters are stripped before typesetting.
//
// # Errors
//
// Malformed input yields a *[SyntaxError] wrapped with the SYNTAX_ERROR code.
// Structural problems (unbalanced braces, unmatched \left/\right or
// \begin/\end, dangling scripts, stray $) and primitives that touch files or
// redefine macros are caught by a validation pass with an offset; anything
// else TeX rejects is reported with its "!" diagnostic.
package mathtex
