// Package parallel provides range-splitting helpers for data-parallel loops
// over observations and bootstrap draws.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) across one goroutine per CPU core and calls
// fn with each half-open range (start, end).
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN splits [0, items) across at most workers goroutines. A
// workers value below 1 falls back to the number of CPU cores, and the
// worker count never exceeds items.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	// Ceiling division keeps every chunk within one item of the others.
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn once on the calling goroutine over the
// whole range when items does not exceed threshold, and parallelizes
// otherwise.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
