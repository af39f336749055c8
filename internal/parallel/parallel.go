// Package parallel provides the executors layers use to map over
// independent work items, such as the output channels of a convolution.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
//
// Work items here are whole output channels, each a full sweep over the
// input, so a single item already amortizes a goroutine.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2 || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Executor maps a function over independent indices.
//
// Map returns only after every f(i) has returned. Implementations may run
// calls concurrently; f must then only write to regions owned by index i.
type Executor interface {
	Map(n int, f func(i int))

	// Concurrent reports whether Map may run calls at the same time.
	Concurrent() bool
}

// Sequential runs every index in order on the calling goroutine.
type Sequential struct{}

// Map implements Executor.
func (Sequential) Map(n int, f func(i int)) {
	for i := 0; i < n; i++ {
		f(i)
	}
}

// Concurrent implements Executor.
func (Sequential) Concurrent() bool { return false }

// Pool fans indices out over goroutines according to its Config.
type Pool struct {
	cfg Config
}

// NewPool creates a Pool. A zero NumWorkers means runtime.NumCPU().
func NewPool(cfg Config) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	return &Pool{cfg: cfg}
}

// Map implements Executor.
func (p *Pool) Map(n int, f func(i int)) {
	For(n, f, p.cfg)
}

// Concurrent implements Executor.
func (p *Pool) Concurrent() bool {
	return p.cfg.Enabled && p.cfg.NumWorkers > 1
}

// Config returns the pool configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

var (
	defaultOnce sync.Once
	defaultExec Executor
)

// Default returns the process-wide executor, chosen once from DefaultConfig.
// Single-CPU hosts get Sequential.
func Default() Executor {
	defaultOnce.Do(func() {
		cfg := DefaultConfig()
		if cfg.Enabled {
			defaultExec = NewPool(cfg)
		} else {
			defaultExec = Sequential{}
		}
	})
	return defaultExec
}
