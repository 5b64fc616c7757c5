package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
)

func TestRenderSVG(t *testing.T) {
	out, err := RenderSVG(context.Background(), `digraph G { a -> b; b -> c; a -> c }`, "")
	require.NoError(t, err)
	require.NoError(t, render.ValidateSVG(out.SVG))
	assert.True(t, strings.HasPrefix(out.SVG, "<svg"))
	assert.Contains(t, out.SVG, `viewBox="0 0 `)
	assert.Equal(t, LayoutDot, out.Layout)
	assert.Greater(t, out.Width, 0)
	assert.Greater(t, out.Height, 0)
}

func TestRenderSVGDeterministic(t *testing.T) {
	src := `digraph { rankdir=LR; "E=mc^2" -> "proof" }`
	a, err := RenderSVG(context.Background(), src, LayoutDot)
	require.NoError(t, err)
	b, err := RenderSVG(context.Background(), src, LayoutDot)
	require.NoError(t, err)
	assert.Equal(t, a.SVG, b.SVG)
}

func TestRenderSVGLayouts(t *testing.T) {
	for _, layout := range Layouts() {
		out, err := RenderSVG(context.Background(), `graph { a -- b -- c -- a }`, layout)
		require.NoError(t, err, layout)
		assert.Equal(t, layout, out.Layout)
	}

	_, err := RenderSVG(context.Background(), `graph { a -- b }`, "sfdp-gpu")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestRenderSVGErrors(t *testing.T) {
	_, err := RenderSVG(context.Background(), "", "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = RenderSVG(context.Background(), "digraph { a -> ", "")
	assert.True(t, errors.Is(err, errors.ErrCodeSyntax))
}

func TestNormalizeViewBox(t *testing.T) {
	in := `<?xml version="1.0"?>` + "\n" + `<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`
	got := string(normalizeViewBox([]byte(in)))
	assert.Contains(t, got, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116">`)
	assert.True(t, strings.HasPrefix(got, `<?xml`))

	noBox := `<svg><g/></svg>`
	assert.Equal(t, noBox, string(normalizeViewBox([]byte(noBox))))
}
