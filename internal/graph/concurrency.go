package graph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runBounded fans out n independent units of work across a bounded errgroup,
// one goroutine per worklist item with the concurrency cap enforced by
// errgroup.Group.SetLimit.
func runBounded(ctx context.Context, concurrency, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(i)
		})
	}
	return g.Wait()
}
