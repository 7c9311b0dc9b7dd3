package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runner is an errgroup with a concurrency gate
type runner struct {
	ctx context.Context // derived ctx shared by all tasks
	eg  *errgroup.Group
	sem chan struct{}
}

func newRunner(parent context.Context, maxConcurrency int) *runner {
	eg, ctx := errgroup.WithContext(parent)
	return &runner{
		ctx: ctx,
		eg:  eg,
		sem: make(chan struct{}, maxConcurrency),
	}
}

// Go schedules fn once a slot is free. fn is skipped when the group has
// already been cancelled while waiting.
func (r *runner) Go(fn func(ctx context.Context) error) {
	r.eg.Go(func() error {
		select {
		case r.sem <- struct{}{}: // acquire
		case <-r.ctx.Done():
			return r.ctx.Err()
		}
		defer func() { <-r.sem }() // release
		return fn(r.ctx)
	})
}

func (r *runner) Wait() error { return r.eg.Wait() }
