// Package parallel spreads array traversals over goroutines.
//
// The array core is single threaded. Its chunk boundaries are a pure function
// of shape, order and run length, so this package splits the runs of a locality
// plan into contiguous ranges and drives one processor per range. Ranges never
// overlap, which makes concurrent writes to distinct elements safe.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/processor"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum number of concurrent goroutines.
	MinRuns    int  // Minimum runs per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinRuns:    16,
	}
}

// Range is a half-open interval of runs.
type Range struct {
	First, Last int
}

// Len returns the number of runs in the range.
func (r Range) Len() int { return r.Last - r.First }

// Split partitions [0, numRuns) into at most cfg.NumWorkers ranges of at least
// cfg.MinRuns runs each (the last range may be shorter).
func Split(numRuns int, cfg Config) []Range {
	if numRuns <= 0 {
		return nil
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || numRuns < 2*max(cfg.MinRuns, 1) {
		return []Range{{0, numRuns}}
	}

	size := max((numRuns+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinRuns, 1)
	ranges := make([]Range, 0, (numRuns+size-1)/size)
	for first := 0; first < numRuns; first += size {
		ranges = append(ranges, Range{first, min(first+size, numRuns)})
	}
	return ranges
}

// ForRuns calls fn once per range of Split(numRuns, cfg), concurrently when
// there is more than one range. The first error cancels the context passed to
// the remaining calls and is returned. Ranges not yet started when ctx is
// cancelled are skipped.
func ForRuns(ctx context.Context, numRuns int, cfg Config, fn func(ctx context.Context, r Range) error) error {
	ranges := Split(numRuns, cfg)
	if len(ranges) == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, ranges[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.NumWorkers, 1))
	for _, r := range ranges {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, r)
		})
	}
	return g.Wait()
}

// Fill sets every element of m to f(coord), splitting the locality traversal
// across goroutines. f is called concurrently and must not retain coord.
func Fill[T any](ctx context.Context, m memory.Memory[T], f func(coord []int) T, cfg Config) error {
	plan := chunking.Locality(m.Shape(), m.Mapper())
	return ForRuns(ctx, plan.NumRuns, cfg, func(_ context.Context, r Range) error {
		processor.Fill(m, f, processor.WithRuns(r.First, r.Last))
		return nil
	})
}

// Iterate calls op on every run of m's locality traversal. op is called
// concurrently for disjoint runs.
func Iterate[T any](ctx context.Context, m memory.Memory[T], op processor.RunOp[T], cfg Config) error {
	plan := chunking.Locality(m.Shape(), m.Mapper())
	return ForRuns(ctx, plan.NumRuns, cfg, func(_ context.Context, r Range) error {
		processor.Iterate(m, op, processor.WithRuns(r.First, r.Last))
		return nil
	})
}
