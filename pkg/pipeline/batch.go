package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
)

// Batch renders every item in the request. Math expressions run
// concurrently up to BatchConcurrency; each result lands in the slot
// matching its input index. Item failures never fail the batch. The only
// errors are an oversized batch and an unknown citation style.
func (r *Runner) Batch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	total := len(req.Latex) + len(req.Citations)
	if r.MaxBatchItems > 0 && total > r.MaxBatchItems {
		return BatchResult{}, errors.New(errors.ErrCodeInvalidInput,
			"batch has %d items, the limit is %d", total, r.MaxBatchItems)
	}

	out := BatchResult{
		Latex:     make([]render.Result, len(req.Latex)),
		Citations: []citation.Formatted{},
	}

	var g errgroup.Group
	limit := r.BatchConcurrency
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}
	g.SetLimit(limit)
	for i, expr := range req.Latex {
		g.Go(func() error {
			out.Latex[i] = r.Math(ctx, MathRequest{Latex: expr, Display: req.Display})
			return nil
		})
	}

	var citeErr error
	if len(req.Citations) > 0 {
		var res CitationResult
		res, citeErr = r.Citations(ctx, CitationRequest{Citations: req.Citations, Style: req.Style})
		out.Citations, out.Style = res.Citations, res.Style
	}
	_ = g.Wait()

	if citeErr != nil {
		return BatchResult{}, citeErr
	}

	for _, res := range out.Latex {
		if !res.Success {
			out.Failed++
		}
	}
	for _, c := range out.Citations {
		if c.Fallback {
			out.Failed++
		}
	}
	if out.Failed > 0 {
		r.Logger.Info("batch completed with failures", "failed", out.Failed,
			"latex", len(out.Latex), "citations", len(out.Citations))
	}
	return out, nil
}
