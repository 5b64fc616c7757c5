// Package circuit renders TikZ and circuitikz markup to SVG through an
// external TeX toolchain.
//
// A render runs three strictly ordered stages, each under its own timeout:
//
//  1. Assemble a standalone LaTeX document around the markup.
//  2. Compile it to PDF with pdflatex. The presence of a usable PDF, not the
//     exit status, decides whether compilation succeeded.
//  3. Convert the PDF to SVG with the first converter strategy that works
//     (pdf2svg, then dvisvgm, then inkscape by default).
//
// Every file of a render shares one generated basename and is removed on
// every exit path. Subprocesses are started from argument vectors, never a
// shell, with TeX shell escape disabled.
package circuit
