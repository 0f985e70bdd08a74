package asl

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// concurrentItem is one unit of work submitted to runConcurrent: its
// declaration-order index (for result placement) and its failure, if any.
type concurrentItem struct {
	index  int
	result interface{}
	err    *StateError
}

// runConcurrent fans a slice of work out across at most maxConcurrency
// goroutines via errgroup.Group.SetLimit, grounded on the teacher's
// worker-pool pattern in graph/engine.go's runConcurrent/executeParallel
// (an errgroup replaces the teacher's Frontier queue, since Map/Parallel are
// a bounded one-level fan-out rather than a general graph scheduler).
// Results are returned in declaration order regardless of completion order
// (§5's "input-order preserved" requirement). If the number of failures
// exceeds the tolerated count/percentage, remaining unstarted work is
// skipped via cooperative cancellation of a derived context, and the first
// error observed (by index) is returned.
func runConcurrent(
	ctx context.Context,
	n int,
	maxConcurrency int,
	tolerated func(total, failed int) bool,
	work func(ctx context.Context, i int) (interface{}, *StateError),
) ([]interface{}, *StateError) {
	if n == 0 {
		return []interface{}{}, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = n
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	childCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	results := make([]concurrentItem, n)
	var mu sync.Mutex
	failed := 0

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if childCtx.Err() != nil {
				return nil
			}
			res, err := work(childCtx, i)
			mu.Lock()
			results[i] = concurrentItem{index: i, result: res, err: err}
			if err != nil {
				failed++
				if !tolerated(n, failed) {
					cancel()
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // work() never returns a non-nil error; failures are tracked in results

	if !tolerated(n, failed) {
		for _, r := range results {
			if r.err != nil {
				return nil, r.err
			}
		}
	}
	out := make([]interface{}, n)
	for i, r := range results {
		out[i] = r.result
	}
	return out, nil
}
