// Package pkg provides the core libraries for sankorender, a service that
// renders STEM assets for slide decks and documents.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [render] - The renderers (math, diagrams, circuits, graphs, code, citations)
//  2. [pipeline] - Dispatch, caching and batch orchestration over the renderers
//  3. Infrastructure - [cache], [browser], [toolchain], [httputil]
//  4. Cross-cutting - [errors], [observability], [buildinfo]
//
// # Architecture
//
// A request flows through the packages like this:
//
//	HTTP handler or CLI command
//	         ↓
//	    [pipeline] Runner (validate, cache lookup, hooks)
//	         ↓
//	    [render] subpackage (in-process, or via [browser] / [toolchain] tools)
//	         ↓
//	    render.Result (artifact, dimensions, warnings, structured error)
//
// External tools (a Chromium-family browser, pdflatex, a PDF-to-SVG
// converter) are located once at startup by [toolchain]. A missing tool only
// disables the renderers that need it.
//
// # Quick Start
//
//	import (
//	    "github.com/Kevin-nav/sankosides-sub000/pkg/cache"
//	    "github.com/Kevin-nav/sankosides-sub000/pkg/pipeline"
//	    "github.com/Kevin-nav/sankosides-sub000/pkg/render/mathtex"
//	)
//
//	runner := pipeline.NewRunner(pipeline.Renderers{
//	    Math: mathtex.New(mathtex.Options{}),
//	}, cache.NewNullCache(), nil, nil)
//	res := runner.Math(ctx, pipeline.MathRequest{Latex: `\frac{a}{b}`})
//	fmt.Println(res.Artifact) // <svg ...>
//
// [render]: github.com/Kevin-nav/sankosides-sub000/pkg/render
// [pipeline]: github.com/Kevin-nav/sankosides-sub000/pkg/pipeline
// [cache]: github.com/Kevin-nav/sankosides-sub000/pkg/cache
// [browser]: github.com/Kevin-nav/sankosides-sub000/pkg/browser
// [toolchain]: github.com/Kevin-nav/sankosides-sub000/pkg/toolchain
// [httputil]: github.com/Kevin-nav/sankosides-sub000/pkg/httputil
// [errors]: github.com/Kevin-nav/sankosides-sub000/pkg/errors
// [observability]: github.com/Kevin-nav/sankosides-sub000/pkg/observability
// [buildinfo]: github.com/Kevin-nav/sankosides-sub000/pkg/buildinfo
package pkg
