// Package settle provides an all-settled combinator for concurrent fan-out.
//
// Unlike errgroup, a settled run never cancels siblings: every task runs to
// completion (or its own timeout) and reports an individual result.
package settle

import (
	"context"
	"sync"
)

// Result holds the outcome of a single task.
type Result[T any] struct {
	Value T
	Err   error
}

// Task is a unit of work executed during a settled run.
type Task[T any] func(ctx context.Context) (T, error)

// All runs every task concurrently and waits for all of them to finish.
// Results are returned in task order. The context is passed through to each
// task as-is; per-task timeouts are the task's own responsibility.
func All[T any](ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task Task[T]) {
			defer wg.Done()
			v, err := task(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}(i, task)
	}
	wg.Wait()

	return results
}

// AllWithTimeout runs every task with an individual deadline derived from ctx.
func AllWithTimeout[T any](ctx context.Context, timeout func() (context.Context, context.CancelFunc), tasks []Task[T]) []Result[T] {
	wrapped := make([]Task[T], len(tasks))
	for i, task := range tasks {
		task := task
		wrapped[i] = func(ctx context.Context) (T, error) {
			tctx, cancel := timeout()
			defer cancel()
			return task(tctx)
		}
	}
	return All(ctx, wrapped)
}

// Values extracts the successful values from a settled run.
func Values[T any](results []Result[T]) []T {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}

// Errs extracts the non-nil errors from a settled run.
func Errs[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
