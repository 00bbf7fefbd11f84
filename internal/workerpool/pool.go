// Package workerpool runs a bounded-concurrency batch of tasks and joins
// on all of them — the one shape the universe needs when it instantiates
// a domain's tables: fan a handful of column producers out across a
// small worker budget, then wait for every one of them before continuing
// (spec §4.9 domain instantiation).
package workerpool

import (
	"context"
	"fmt"
	"sync"
)

// Task is a unit of work submitted to Run.
type Task func(ctx context.Context) error

// Result is the outcome of one task.
type Result struct {
	Error error
}

// Run executes every task in tasks, at most size running concurrently,
// and blocks until all of them have finished. Results come back in the
// same order as tasks regardless of completion order. A task that
// panics is recovered and reported through its Result.Error instead of
// taking down the batch.
func Run(ctx context.Context, size int, tasks []Task) ([]Result, error) {
	if size <= 0 {
		return nil, fmt.Errorf("workerpool: invalid pool size %d", size)
	}

	results := make([]Result, len(tasks))
	sem := make(chan struct{}, size)
	var wg sync.WaitGroup

	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Error: ctx.Err()}
				return
			}
			results[i] = runTask(ctx, task)
		}()
	}
	wg.Wait()

	return results, nil
}

func runTask(ctx context.Context, task Task) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Error: fmt.Errorf("workerpool: task panicked: %v", r)}
		}
	}()
	return Result{Error: task(ctx)}
}
