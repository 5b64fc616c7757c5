package mathtex

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"star-tex.org/x/tex"
)

// preamble adapts plain TeX to the LaTeX math vocabulary clients send.
// \end is renamed so \begin{env}...\end{env} can be parsed as a macro.
const preamble = `\nonstopmode
\let\endTeX=\end
\let\\=\cr
\def\frac#1#2{{{#1}\over{#2}}}
\def\dfrac#1#2{{\displaystyle{{#1}\over{#2}}}}
\def\tfrac#1#2{{\textstyle{{#1}\over{#2}}}}
\def\binom#1#2{{{#1}\choose{#2}}}
\def\text#1{\hbox{\rm #1}}
\def\mathrm#1{{\rm #1}}
\def\mathbf#1{{\bf #1}}
\def\mathit#1{{\it #1}}
\def\mathtt#1{{\tt #1}}
\def\mathsf#1{{\rm #1}}
\def\mathbb#1{{\bf #1}}
\def\mathcal#1{{\cal #1}}
\def\operatorname#1{\mathop{\rm #1}\nolimits}
\def\implies{\;\Longrightarrow\;}
\def\impliedby{\;\Longleftarrow\;}
\def\lvert{\vert}\def\rvert{\vert}
\def\lVert{\Vert}\def\rVert{\Vert}
\let\:=\>
\let\plainsqrt=\sqrt
\def\sqrt{\futurelet\sankonext\sankosqrt}
\def\sankosqrt{\ifx\sankonext[\expandafter\sankoroot\else\expandafter\plainsqrt\fi}
\def\sankoroot[#1]#2{\root #1\of{#2}}
\def\begin#1#2\end#3{\expandafter\ifx\csname sankoenv#1\endcsname\relax
  \errmessage{Unknown environment #1}\else\csname sankoenv#1\endcsname{#2}\fi}
\def\sankoenvmatrix#1{\matrix{#1}}
\def\sankoenvpmatrix#1{\pmatrix{#1}}
\def\sankoenvbmatrix#1{\left[\matrix{#1}\right]}
\def\sankoenvvmatrix#1{\left|\matrix{#1}\right|}
\def\sankoenvcases#1{\cases{#1}}
\def\sankoenvaligned#1{\eqalign{#1}}
\def\sankoenvgathered#1{\matrix{#1}}
`

// source builds the complete TeX job: the expression is boxed and the box is
// shipped out as the only page, so the DVI page is exactly the formula.
func source(body string, display bool) string {
	style := `\textstyle`
	if display {
		style = `\displaystyle`
	}
	var b strings.Builder
	b.WriteString(preamble)
	// The newline ends any trailing % comment before the box closes.
	fmt.Fprintf(&b, "\\setbox0=\\hbox{$%s{}%s\n$}\n", style, body)
	b.WriteString("\\shipout\\box0\n\\endTeX\n")
	return b.String()
}

// runTeX typesets src and returns the DVI stream.
func runTeX(body string, display bool) ([]byte, error) {
	var dvi, term bytes.Buffer
	engine := tex.NewEngine(&term, bytes.NewReader(nil))
	err := engine.Process(&dvi, strings.NewReader(source(body, display)))

	if msg := texError(term.String()); msg != "" {
		return nil, &SyntaxError{Expr: body, Offset: -1, Msg: msg}
	}
	if err != nil {
		return nil, &SyntaxError{Expr: body, Offset: -1, Msg: err.Error()}
	}
	if dvi.Len() == 0 {
		return nil, &SyntaxError{Expr: body, Offset: -1, Msg: "expression produced no output"}
	}
	return dvi.Bytes(), nil
}

// texError extracts the first "! ..." diagnostic from the terminal log,
// together with the context line TeX prints after it.
func texError(log string) string {
	sc := bufio.NewScanner(strings.NewReader(log))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "! ") {
			continue
		}
		msg := strings.TrimSuffix(strings.TrimPrefix(line, "! "), ".")
		if sc.Scan() {
			if ctx := strings.TrimSpace(sc.Text()); strings.HasPrefix(ctx, "l.") {
				if _, rest, ok := strings.Cut(ctx, " "); ok && rest != "" {
					msg += ": " + rest
				}
			}
		}
		return msg
	}
	return ""
}
