// Package worker runs independent units of work on a bounded pool.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every item with at most limit calls in flight and returns
// the results in input order. A limit below 1 runs one item at a time.
//
// The first error returned by fn cancels the context passed to the remaining
// calls and is returned from Map with a nil result slice. Items not yet
// started when ctx is cancelled are never run.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, idx int, item T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return []R{}, ctx.Err()
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	ordered := make([]R, len(items))
	for idx, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, idx, item)
			if err != nil {
				return err
			}
			ordered[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}
