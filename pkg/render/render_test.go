package render

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

func TestValidateSVG(t *testing.T) {
	tests := []struct {
		name    string
		svg     string
		wantErr bool
	}{
		{"minimal", `<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`, false},
		{"with prolog", `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`, false},
		{"unclosed", `<svg><g></svg>`, true},
		{"not svg", `<div></div>`, true},
		{"empty", ``, true},
		{"two roots", `<svg></svg><svg></svg>`, true},
		{"html entity", `<svg><text>a&nbsp;b</text></svg>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSVG(tt.svg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStampNamespace(t *testing.T) {
	got := StampNamespace(`<svg id="d" viewBox="0 0 10 10"><use xlink:href="#a"/></svg>`)
	assert.Contains(t, got, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, got, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	require.NoError(t, ValidateSVG(got))

	already := `<svg xmlns="http://www.w3.org/2000/svg"></svg>`
	assert.Equal(t, already, StampNamespace(already))
}

func TestStripProlog(t *testing.T) {
	in := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!DOCTYPE svg PUBLIC \"-//W3C//DTD SVG 1.1//EN\" \"x\">\n<svg width=\"1\"></svg>"
	assert.Equal(t, `<svg width="1"></svg>`, StripProlog(in))
}

func TestMeasureSVG(t *testing.T) {
	d := MeasureSVG(`<svg width="12.2pt" height="8pt" viewBox="0 0 100 50">`)
	require.NotNil(t, d)
	assert.Equal(t, Dimensions{Width: 13, Height: 8}, *d)

	d = MeasureSVG(`<svg width="100%" viewBox="0 0 100.5 50">`)
	require.NotNil(t, d)
	assert.Equal(t, Dimensions{Width: 101, Height: 50}, *d)

	assert.Nil(t, MeasureSVG(`<svg>`))
}

func TestFailedMapsCodes(t *testing.T) {
	r := Failed(errors.New(errors.ErrCodeToolchainMissing, "pdflatex not found").WithHint("install TeX Live"))
	assert.False(t, r.Success)
	assert.Empty(t, r.Artifact)
	require.NotNil(t, r.Error)
	assert.Equal(t, errors.ErrCodeToolchainMissing, r.Error.Code)
	assert.Equal(t, "install TeX Live", r.Error.Hint)

	r = Failed(fmt.Errorf("wait: %w", context.DeadlineExceeded))
	assert.Equal(t, errors.ErrCodeTimeout, r.Error.Code)

	r = Failed(fmt.Errorf("boom"))
	assert.Equal(t, errors.ErrCodeRenderFailed, r.Error.Code)
	assert.Equal(t, "boom", r.Message())

	r = FailedWithPlaceholder(fmt.Errorf("bad"), "<svg/>")
	assert.True(t, r.Fallback)
	assert.Equal(t, "<svg/>", r.Artifact)
}
