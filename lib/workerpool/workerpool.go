package workerpool

import (
	"context"
	"sync"
)

// Partition splits items into at most parts contiguous chunks of
// near-equal size. Empty chunks are never returned.
func Partition[T any](items []T, parts int) [][]T {
	if parts <= 0 {
		parts = 1
	}
	if parts > len(items) {
		parts = len(items)
	}
	if parts == 0 {
		return nil
	}

	out := make([][]T, 0, parts)
	size := (len(items) + parts - 1) / parts
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Do partitions items across up to workers goroutines, runs process
// over each partition, and returns the partial results in partition
// order. Partitions share no mutable state so process needs no
// locking; callers merge the partials afterwards. The first error
// encountered is returned, but every partition still runs to
// completion.
func Do[T any, P any](
	ctx context.Context,
	workers int,
	items []T,
	process func(ctx context.Context, part []T) (P, error),
) ([]P, error) {
	parts := Partition(items, workers)
	if len(parts) == 0 {
		return nil, nil
	}

	partials := make([]P, len(parts))
	errs := make([]error, len(parts))

	var wg sync.WaitGroup
	for i, part := range parts {
		i, part := i, part
		wg.Add(1)
		go func() {
			defer wg.Done()
			partials[i], errs[i] = process(ctx, part)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return partials, err
		}
	}
	return partials, nil
}
