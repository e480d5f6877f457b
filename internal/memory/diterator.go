package memory

import (
	"fmt"

	"github.com/chncwang/arraym/internal/mapper"
)

// DimIterator is a random-access cursor along one axis.
//
// The stepping mode is fixed at construction from the axis kind: linear axes
// advance an offset by the physical stride inside the current buffer, while
// slice-boundary axes keep a fixed in-slice offset and move to the next buffer
// of the slice table.
type DimIterator[T any] struct {
	kind   mapper.AxisKind
	stride int
	index  int   // position along the axis
	table  [][]T // buffers; a contiguous memory has exactly one
	slice  int   // current buffer
	offset int   // offset inside the current buffer
}

func newLinearIterator[T any](table [][]T, slice, offset, stride, index int) DimIterator[T] {
	return DimIterator[T]{
		kind:   mapper.Linear,
		stride: stride,
		index:  index,
		table:  table,
		slice:  slice,
		offset: offset,
	}
}

func newBoundaryIterator[T any](table [][]T, slice, offset int) DimIterator[T] {
	return DimIterator[T]{
		kind:   mapper.SliceBoundary,
		index:  slice,
		table:  table,
		slice:  slice,
		offset: offset,
	}
}

// Next advances the cursor by one position.
func (it *DimIterator[T]) Next() {
	it.Add(1)
}

// Add advances the cursor by n positions.
func (it *DimIterator[T]) Add(n int) {
	it.index += n
	if it.kind == mapper.SliceBoundary {
		it.slice += n
		return
	}
	it.offset += it.stride * n
}

// Pointer returns the address of the current element.
// It must not be called on an end cursor.
func (it *DimIterator[T]) Pointer() *T {
	return &it.table[it.slice][it.offset]
}

// Run returns the current buffer starting at the current element. Successive
// elements along a linear axis are Stride() apart in the returned slice.
func (it *DimIterator[T]) Run() []T {
	return it.table[it.slice][it.offset:]
}

// Index returns the position along the axis.
func (it *DimIterator[T]) Index() int {
	return it.index
}

// Kind returns the stepping mode.
func (it *DimIterator[T]) Kind() mapper.AxisKind {
	return it.kind
}

// Stride returns the physical stride; slice-boundary cursors report 0.
func (it *DimIterator[T]) Stride() int {
	return it.stride
}

// Equal reports whether both cursors are at the same position.
// It panics if the cursors were built with different stepping rules.
func (it *DimIterator[T]) Equal(other DimIterator[T]) bool {
	it.mustMatch(other)
	return it.index == other.index && it.slice == other.slice && it.offset == other.offset
}

// Sub returns the number of positions between other and it.
// It panics if the cursors were built with different stepping rules.
func (it *DimIterator[T]) Sub(other DimIterator[T]) int {
	it.mustMatch(other)
	return it.index - other.index
}

func (it *DimIterator[T]) mustMatch(other DimIterator[T]) {
	if it.kind != other.kind || it.stride != other.stride {
		panic(fmt.Sprintf("memory: non matching dimension iterators (%s stride %d vs %s stride %d)",
			it.kind, it.stride, other.kind, other.stride))
	}
	if it.kind == mapper.SliceBoundary && it.offset != other.offset {
		panic(fmt.Sprintf("memory: non matching slice iterators (offset %d vs %d)", it.offset, other.offset))
	}
}
