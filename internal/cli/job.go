package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/array"
	"github.com/chncwang/arraym/internal/config"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/parallel"
	"github.com/chncwang/arraym/internal/processor"
	"github.com/chncwang/arraym/internal/verify"
)

// job is one profile array built with its element type.
type job interface {
	name() string
	inspect(p printer)
	verify() []checkResult
	bench(ctx context.Context, iterations int, cfg parallel.Config) (benchResult, error)
	release()
}

type checkResult struct {
	name string
	err  error
}

type benchResult struct {
	elements int
	declared time.Duration
	locality time.Duration
	parallel time.Duration
}

// newJob builds the array described by spec.
func newJob(spec config.ArraySpec) (job, error) {
	dt, err := spec.DataType()
	if err != nil {
		return nil, err
	}
	switch dt {
	case array.Float32:
		return buildJob[float32](spec, dt)
	case array.Float64:
		return buildJob[float64](spec, dt)
	case array.Int32:
		return buildJob[int32](spec, dt)
	case array.Int64:
		return buildJob[int64](spec, dt)
	case array.Uint8:
		return buildJob[uint8](spec, dt)
	default:
		return nil, fmt.Errorf("unsupported data type %s", dt)
	}
}

type typedJob[T array.DType] struct {
	spec  config.ArraySpec
	dtype array.DataType
	alloc alloc.Allocator[T]
	arr   *array.Array[T]
}

func buildJob[T array.DType](spec config.ArraySpec, dt array.DataType) (*typedJob[T], error) {
	layout, err := spec.ArrayLayout()
	if err != nil {
		return nil, err
	}
	a := config.NewAllocator[T](spec)
	arr, err := array.New(spec.ShapeOf(), layout, T(spec.Fill), a)
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", spec.Name, err)
	}
	return &typedJob[T]{spec: spec, dtype: dt, alloc: a, arr: arr}, nil
}

func (j *typedJob[T]) name() string { return j.spec.Name }

func (j *typedJob[T]) release() { j.arr.Release() }

func (j *typedJob[T]) inspect(p printer) {
	layout, _ := j.spec.ArrayLayout()
	mp := j.arr.Memory().Mapper()
	plan := j.arr.Plan()

	p.title("%s", j.spec.Name)
	p.keyValue("dtype", j.dtype)
	p.keyValue("layout", layout)
	p.keyValue("shape", j.arr.Shape())
	p.keyValue("elements", j.arr.NumElements())
	p.keyValue("bytes", j.arr.NumElements()*j.dtype.Size())
	p.keyValue("strides", mp.Strides())
	p.keyValue("axis kinds", mp.Kinds())
	p.keyValue("locality", plan.Order)
	p.keyValue("max run", plan.Run)
	p.keyValue("runs", plan.NumRuns)
	if pool, ok := j.alloc.(*alloc.Pool[T]); ok {
		st := pool.Stats()
		p.keyValue("pool", fmt.Sprintf("live=%d allocs=%d", st.LiveElements, st.Allocs))
	}
}

func (j *typedJob[T]) verify() []checkResult {
	m := j.arr.Memory()
	gen := func(i int) T { return T(i % 101) }

	results := []checkResult{
		{"locality coverage", coverage(m, processor.ByMemoryLocality)},
		{"declared coverage", coverage(m, processor.ByDeclaredOrder)},
		{"round trip", verify.CheckRoundTrip(m, gen)},
	}

	lo, hi, ok := interior(j.arr.Shape())
	if ok {
		sub := j.arr.Sub(lo, hi).Memory()
		results = append(results,
			checkResult{"view coverage", coverage(sub, processor.ByMemoryLocality)},
			checkResult{"view round trip", verify.CheckRoundTrip(sub, gen)},
		)
	}
	return results
}

func coverage[T any](m memory.Memory[T], ordering processor.Ordering) error {
	_, err := verify.CheckCoverage(m, ordering)
	return err
}

func (j *typedJob[T]) bench(ctx context.Context, iterations int, cfg parallel.Config) (benchResult, error) {
	m := j.arr.Memory()
	res := benchResult{elements: j.arr.NumElements()}
	if res.elements == 0 {
		return res, nil
	}
	one := T(1)

	for range iterations {
		start := time.Now()
		p := processor.New(m, processor.ByDeclaredOrder)
		for {
			ptr, more := p.AccessSingleElement()
			*ptr += one
			if !more {
				break
			}
		}
		res.declared += time.Since(start)

		start = time.Now()
		processor.Iterate(m, func(run []T) {
			for i := range run {
				run[i] += one
			}
		})
		res.locality += time.Since(start)

		start = time.Now()
		err := parallel.Iterate(ctx, m, func(run []T) {
			for i := range run {
				run[i] += one
			}
		}, cfg)
		if err != nil {
			return res, err
		}
		res.parallel += time.Since(start)
	}
	return res, nil
}

// interior returns the bounds of the block that drops the first and last
// index of every axis, if every extent is at least 3.
func interior(s []int) (lo, hi []int, ok bool) {
	lo = make([]int, len(s))
	hi = make([]int, len(s))
	for i, n := range s {
		if n < 3 {
			return nil, nil, false
		}
		lo[i], hi[i] = 1, n-2
	}
	return lo, hi, true
}
