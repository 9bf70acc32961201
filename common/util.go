package common

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunParallel runs fn for every item with at most limit calls in flight and
// returns the first error. The context passed to fn is cancelled as soon as
// one call fails.
func RunParallel[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, item := range items {
		g.Go(func() error {
			return fn(gctx, item)
		})
	}
	return g.Wait()
}
