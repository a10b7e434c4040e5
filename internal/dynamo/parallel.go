package dynamo

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Batch runs independent tasks, typically integrations, on a bounded pool of
// goroutines. Tasks must not share mutable state.
type Batch struct {
	workers int
}

func NewBatch(workers int) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{workers: workers}
}

func (b *Batch) Workers() int { return b.workers }

// Run calls fn for every index in [0, n) and returns the per-index errors.
// Integration and domain failures are only collected. A configuration error
// (ErrPrecondition, ErrUnrecognizedSystem) cancels the remaining tasks and is
// returned as the second value.
func (b *Batch) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) ([]error, error) {
	errs := make([]error, n)
	if n == 0 {
		return errs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := 0; i < n; i++ {
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[idx] = err
				return nil
			}
			err := fn(gctx, idx)
			errs[idx] = err
			if isConfigError(err) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errs, err
	}
	return errs, nil
}

func isConfigError(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrUnrecognizedSystem)
}
