package schedule

import (
	"context"
	"sync"
)

// runParallel calls fn for every task with at most limit calls in flight. A
// new task starts as soon as a slot frees up. Once ctx is done no further
// task starts; skip is called for each of those instead. In-flight calls
// are left to finish.
func runParallel[T any](ctx context.Context, tasks []T, limit int, fn func(context.Context, int, T), skip func(int, T)) {
	if limit <= 0 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			if acquired {
				<-sem
			}
			for j := i; j < len(tasks); j++ {
				skip(j, tasks[j])
			}
			break
		}

		wg.Add(1)
		go func(i int, t T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, i, t)
		}(i, task)
	}

	wg.Wait()
}
