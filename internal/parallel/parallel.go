// Package parallel provides the loop splitter the reference backend runs
// independent output slices through. Each iteration must own its writes
// exclusively; the splitter guarantees nothing about ordering between
// iterations, only that all of them complete before For returns.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how For splits an iteration range.
type Config struct {
	// Workers is the number of goroutines a large enough range is split
	// across. Zero or one disables splitting.
	Workers int

	// MinPerWorker is the smallest range worth a goroutine; ranges below
	// Workers*MinPerWorker run on the calling goroutine.
	MinPerWorker int
}

// DefaultConfig sizes the splitter to the machine.
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		MinPerWorker: 16,
	}
}

// For executes f(i) for every i in [0, n), on the calling goroutine when
// the range is small and split across cfg.Workers goroutines otherwise.
func For(n int, cfg Config, f func(i int)) {
	if cfg.Workers <= 1 || n < cfg.Workers*cfg.MinPerWorker {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
