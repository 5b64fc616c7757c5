package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

const rsvgTimeout = 30 * time.Second

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert runs rsvg-convert with an argument vector, feeding svg on stdin.
func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	path, err := exec.LookPath("rsvg-convert")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolchainMissing, err, "%s export requires librsvg", format).
			WithHint("Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	ctx, cancel := context.WithTimeout(ctx, rsvgTimeout)
	defer cancel()

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.WaitDelay = time.Second

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "rsvg-convert exceeded %s", rsvgTimeout)
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
