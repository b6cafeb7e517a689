// internal/pkg/async/pool.go
package async

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is a named unit of work. Execute must honour ctx cancellation.
type Task[T any] struct {
	Name    string
	Execute func(ctx context.Context) (T, error)
}

// Result is the outcome of one task
type Result[T any] struct {
	Name string
	Data T
	Err  error
}

// Pool runs independent tasks with bounded concurrency. A failing task never
// cancels its siblings; each failure is reported in its own Result.
type Pool[T any] struct {
	workerCount int
}

// NewPool creates a pool running at most workerCount tasks at once
func NewPool[T any](workerCount int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool[T]{workerCount: workerCount}
}

// Execute runs every task and waits for all of them. Results are keyed by
// task name. Tasks not yet started when ctx is cancelled report ctx.Err().
func (p *Pool[T]) Execute(ctx context.Context, tasks []Task[T]) map[string]Result[T] {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]Result[T], len(tasks))
	)
	g.SetLimit(p.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			var (
				data T
				err  error
			)
			if err = ctx.Err(); err == nil {
				data, err = task.Execute(ctx)
			}

			mu.Lock()
			results[task.Name] = Result[T]{Name: task.Name, Data: data, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}
