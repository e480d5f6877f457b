// Package chunking plans array traversals.
//
// A plan is an axis ordering (order[0] varies fastest) plus a run length: the
// number of elements that can be reached in one step along the fastest axis.
// Ordering by memory locality sorts axes by ascending physical stride, except
// that slice-boundary axes always go last because stepping them jumps to an
// unrelated allocation.
//
// Chunk boundaries depend only on (shape, order, run), so they can be re-derived
// by anyone: run k starts at RunStart(k) and there are NumRuns runs in total.
package chunking

import (
	"fmt"
	"slices"

	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/shape"
)

// Plan is the result of traversal planning.
type Plan struct {
	Order   []int // axis order, Order[0] varies fastest
	Run     int   // elements per step
	NumRuns int   // steps needed to visit every element
}

// LocalityOrder sorts axes by ascending physical stride. Slice-boundary axes are
// always ordered last. Ties keep the original axis order.
func LocalityOrder(strides []int, kinds []mapper.AxisKind) []int {
	if len(strides) != len(kinds) {
		panic(fmt.Sprintf("chunking: %d strides but %d axis kinds", len(strides), len(kinds)))
	}
	order := DeclaredOrder(len(strides))
	slices.SortStableFunc(order, func(a, b int) int {
		aSlice := kinds[a] == mapper.SliceBoundary
		bSlice := kinds[b] == mapper.SliceBoundary
		switch {
		case aSlice && !bSlice:
			return 1
		case !aSlice && bSlice:
			return -1
		}
		return strides[a] - strides[b]
	})
	return order
}

// DeclaredOrder returns 0, 1, ..., rank-1: axis 0 varies fastest.
func DeclaredOrder(rank int) []int {
	order := make([]int, rank)
	for i := range order {
		order[i] = i
	}
	return order
}

// MaxRun returns the longest contiguous run for the given order: the extent of
// the fastest axis when it is linear with stride 1, otherwise 1.
func MaxRun(s shape.Shape, strides []int, kinds []mapper.AxisKind, order []int) int {
	fastest := order[0]
	if kinds[fastest] == mapper.Linear && strides[fastest] == 1 && s[fastest] > 0 {
		return s[fastest]
	}
	return 1
}

// Locality plans a traversal maximizing memory locality for a mapper.
func Locality(s shape.Shape, m mapper.Mapper) Plan {
	strides, kinds := m.Strides(), m.Kinds()
	order := LocalityOrder(strides, kinds)
	run := MaxRun(s, strides, kinds, order)
	return Plan{Order: order, Run: run, NumRuns: NumRuns(s, run)}
}

// Declared plans a traversal in declared axis order, one element per step.
func Declared(s shape.Shape) Plan {
	return Plan{Order: DeclaredOrder(len(s)), Run: 1, NumRuns: s.NumElements()}
}

// NumRuns returns how many steps of run elements cover the shape.
func NumRuns(s shape.Shape, run int) int {
	return s.NumElements() / run
}

// RunStart returns the coordinate, in original axis numbering, where run k starts.
func RunStart(s shape.Shape, order []int, run, k int) []int {
	coord := make([]int, len(s))
	linear := k * run
	for _, axis := range order {
		if s[axis] == 0 {
			return coord
		}
		coord[axis] = linear % s[axis]
		linear /= s[axis]
	}
	return coord
}

// Chunking is a cursor walking a shape run by run in a given axis order.
type Chunking struct {
	shape shape.Shape
	order []int
	run   int
	index []int // reordered numbering: index[i] is the coordinate along order[i]
	array []int // original numbering
}

// New creates a cursor positioned at the first element.
func New(s shape.Shape, order []int, run int) *Chunking {
	return NewRange(s, order, run, 0)
}

// NewRange creates a cursor positioned at the start of run firstRun.
func NewRange(s shape.Shape, order []int, run, firstRun int) *Chunking {
	validateOrder(order, len(s))
	if run < 1 {
		panic(fmt.Sprintf("chunking: run length %d must be positive", run))
	}
	if run > 1 && s[order[0]]%run != 0 {
		panic(fmt.Sprintf("chunking: run length %d does not divide extent %d of axis %d",
			run, s[order[0]], order[0]))
	}

	c := &Chunking{
		shape: s.Clone(),
		order: append([]int(nil), order...),
		run:   run,
		index: make([]int, len(s)),
		array: RunStart(s, order, run, firstRun),
	}
	for i, axis := range c.order {
		c.index[i] = c.array[axis]
	}
	return c
}

// Advance moves the cursor n elements along the fastest axis, carrying into
// slower axes. It reports whether the fastest axis wrapped, meaning the next
// element is not reachable by stepping from the previous one.
func (c *Chunking) Advance(n int) bool {
	fastest := c.order[0]
	c.index[0] += n
	c.array[fastest] = c.index[0]
	if c.index[0] < c.shape[fastest] {
		return false
	}

	c.index[0] = 0
	c.array[fastest] = 0
	for i := 1; i < len(c.order); i++ {
		axis := c.order[i]
		c.index[i]++
		if c.index[i] < c.shape[axis] {
			c.array[axis] = c.index[i]
			return true
		}
		c.index[i] = 0
		c.array[axis] = 0
	}
	return true
}

// ArrayIndex returns the current coordinate in original axis numbering.
// The slice is owned by the cursor and changes on Advance.
func (c *Chunking) ArrayIndex() []int {
	return c.array
}

// IteratorIndex returns the current coordinate in reordered axis numbering.
// The slice is owned by the cursor and changes on Advance.
func (c *Chunking) IteratorIndex() []int {
	return c.index
}

// Order returns the axis order, fastest first.
func (c *Chunking) Order() []int {
	return c.order
}

// VaryingAxis returns the fastest varying axis.
func (c *Chunking) VaryingAxis() int {
	return c.order[0]
}

// Run returns the number of elements per run.
func (c *Chunking) Run() int {
	return c.run
}

// Shape returns the traversed shape.
func (c *Chunking) Shape() shape.Shape {
	return c.shape
}

func validateOrder(order []int, rank int) {
	if len(order) != rank {
		panic(fmt.Sprintf("chunking: order %v does not match rank %d", order, rank))
	}
	seen := make([]bool, rank)
	for _, axis := range order {
		if axis < 0 || axis >= rank || seen[axis] {
			panic(fmt.Sprintf("chunking: order %v is not a permutation of %d axes", order, rank))
		}
		seen[axis] = true
	}
}
