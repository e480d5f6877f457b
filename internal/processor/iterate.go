package processor

import (
	"fmt"
	"slices"

	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
)

// RunOp processes one run of elements.
type RunOp[T any] func(run []T)

// JointOp processes matching runs of two memories; len(dst) == len(src).
// Runs longer than one element are only formed when the fastest axis of both
// memories is linear with stride 1, so both runs are always unit stride and
// the operation takes no stride arguments.
type JointOp[T, U any] func(dst []T, src []U)

// SameOrdering reports whether two mappers have the same locality order, i.e.
// the same relative order of physical strides.
func SameOrdering(a, b mapper.Mapper) bool {
	return slices.Equal(
		chunking.LocalityOrder(a.Strides(), a.Kinds()),
		chunking.LocalityOrder(b.Strides(), b.Kinds()),
	)
}

// IterateJoint visits the elements of dst and src pairwise, coordinate by
// coordinate. Both memories must have the same shape.
//
// When both share a locality order, op receives runs as long as both layouts
// allow. Otherwise dst follows src's locality order and op receives single
// elements.
func IterateJoint[T, U any](dst memory.Memory[T], src memory.Memory[U], op JointOp[T, U]) {
	if !dst.Shape().Equal(src.Shape()) {
		panic(fmt.Sprintf("processor: joint iteration of shapes %v and %v", dst.Shape(), src.Shape()))
	}
	if dst.Shape().IsEmpty() {
		return
	}

	var pd *Processor[T]
	var ps *Processor[U]
	if SameOrdering(dst.Mapper(), src.Mapper()) {
		d := chunking.Locality(dst.Shape(), dst.Mapper())
		s := chunking.Locality(src.Shape(), src.Mapper())
		run := min(d.Run, s.Run)
		pd = newProcessor(dst, d.Order, run, true, nil)
		ps = newProcessor(src, d.Order, run, true, nil)
	} else {
		order := chunking.LocalityOrder(src.Mapper().Strides(), src.Mapper().Kinds())
		pd = newProcessor(dst, order, 1, true, nil)
		ps = newProcessor(src, order, 1, true, nil)
	}

	for {
		a, more := pd.AccessMaxElements()
		b, _ := ps.AccessMaxElements()
		op(a, b)
		if !more {
			return
		}
	}
}

// Iterate visits m run by run in locality order.
func Iterate[T any](m memory.Memory[T], op RunOp[T], opts ...Option) {
	p := New(m, ByMemoryLocality, opts...)
	for {
		run, more := p.AccessMaxElements()
		if run == nil {
			return
		}
		op(run)
		if !more {
			return
		}
	}
}

// Fill sets every element to f(coord). Elements are visited in locality order;
// coord is reused between calls and must not be retained.
func Fill[T any](m memory.Memory[T], f func(coord []int) T, opts ...Option) {
	p := New(m, ByMemoryLocality, opts...)
	axis := p.VaryingAxis()
	coord := make([]int, len(m.Shape()))
	for p.Remaining() > 0 {
		copy(coord, p.ArrayIndex())
		start := coord[axis]
		run, _ := p.AccessMaxElements()
		for k := range run {
			coord[axis] = start + k
			run[k] = f(coord)
		}
	}
}
