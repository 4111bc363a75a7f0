// Package workers holds the shared pond pool used for per-key aggregation and
// concurrent view builds.
package workers

import (
	"context"
	"errors"
	"runtime"

	"github.com/alitto/pond/v2"
)

// Parallelism calculates the pool size: four workers per CPU capped at 512,
// unless override is positive.
func Parallelism(override int) int {
	if override > 0 {
		if override > 512 {
			return 512
		}
		return override
	}

	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	parallelism := n * 4
	if parallelism > 512 {
		parallelism = 512
	}
	return parallelism
}

// QueueSize calculates the queue size for a pool expected to receive batchSize tasks per worker.
func QueueSize(parallelism, batchSize int) int {
	if parallelism < 1 {
		parallelism = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}

	queue := parallelism * batchSize
	if queue < 1024 {
		queue = 1024
	}
	if queue > 262144 {
		queue = 262144
	}
	return queue
}

// NewPool builds a pool sized by Parallelism(override).
func NewPool(override int) pond.Pool {
	size := Parallelism(override)
	return pond.NewPool(size, pond.WithQueueSize(QueueSize(size, 16)))
}

// Run executes every task in one group on pool and waits for all of them.
// The first failing task (in argument order) determines the returned error.
func Run(ctx context.Context, pool pond.Pool, tasks ...func(context.Context) error) error {
	if len(tasks) == 0 {
		return ctx.Err()
	}

	errs := make([]error, len(tasks))
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, task := range tasks {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = task(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Chunks splits n items into at most parts contiguous [start, end) ranges of near-equal size.
func Chunks(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	out := make([][2]int, 0, parts)
	size, extra := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// MapChunks applies fn to contiguous chunks of items concurrently and concatenates
// the results in input order, so the output is deterministic regardless of scheduling.
func MapChunks[T, R any](ctx context.Context, pool pond.Pool, items []T, parts int, fn func(context.Context, []T) ([]R, error)) ([]R, error) {
	ranges := Chunks(len(items), parts)
	results := make([][]R, len(ranges))

	tasks := make([]func(context.Context) error, len(ranges))
	for i, r := range ranges {
		tasks[i] = func(ctx context.Context) error {
			out, err := fn(ctx, items[r[0]:r[1]])
			results[i] = out
			return err
		}
	}
	if err := Run(ctx, pool, tasks...); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]R, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
