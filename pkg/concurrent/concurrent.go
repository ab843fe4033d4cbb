package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every element with at most workers goroutines.
// workers <= 1 runs inline in order. The first error cancels ctx for the
// remaining actions and is returned after all started actions finish.
func ForEach[T any](ctx context.Context, items []T, workers int, action func(ctx context.Context, idx int, item T) error) error {
	if workers <= 1 || len(items) <= 1 {
		for idx, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := action(ctx, idx, item); err != nil {
				return err
			}
		}
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for idx, item := range items {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			return action(gctx, idx, item)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Range is ForEach over the indices [0, n).
func Range(ctx context.Context, n, workers int, action func(ctx context.Context, idx int) error) error {
	if workers <= 1 || n <= 1 {
		for idx := 0; idx < n; idx++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := action(ctx, idx); err != nil {
				return err
			}
		}
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for idx := 0; idx < n; idx++ {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			return action(gctx, idx)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
