// Package memory implements the storage layer of arrays.
//
// Two layouts share one addressing contract:
//   - Contiguous: a single buffer; any axis may be the fastest varying one.
//   - Multislice: one buffer per position along a slice axis; every other axis
//     is laid out linearly inside each slice buffer.
//
// A memory either owns its buffers (created with NewContiguous / NewMultislice,
// or produced by Clone) or references another memory's buffers (View, Slice).
// Views keep a non-owning reference to the memory they were taken from. The
// parent must not be released while its views are in use: released buffers go
// back to the allocator and may be handed out again.
//
// Coordinates are never bounds-checked here beyond what Go slice indexing does.
// A memory is not safe for concurrent mutation.
package memory

import (
	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/shape"
)

// Memory is the layout-independent view of array storage.
type Memory[T any] interface {
	// Shape returns the logical extents. The returned slice must not be modified.
	Shape() shape.Shape
	// Mapper returns the index mapper translating coordinates to offsets.
	Mapper() mapper.Mapper
	// At returns the address of the element at coord.
	At(coord []int) *T
	// BeginDim returns a cursor walking axis, starting at coord.
	BeginDim(axis int, coord []int) DimIterator[T]
	// EndDim returns the one-past-end cursor of the line through coord along axis.
	EndDim(axis int, coord []int) DimIterator[T]
	// View references the sub-block starting at origin with the given shape,
	// stepping strides elements along each axis. No data is copied.
	View(origin []int, s shape.Shape, strides []int) Memory[T]
	// Slice removes axis by fixing it at point. No data is copied.
	Slice(axis, point int) Memory[T]
	// Clone deep-copies the logical extent into freshly owned storage.
	Clone() (Memory[T], error)
	// Release returns owned buffers to the allocator and empties the memory.
	Release()
	// IsOwner reports whether Release deallocates the buffers.
	IsOwner() bool
	// Parent returns the memory this one references, or nil.
	Parent() Memory[T]
	// Allocator returns the allocator used for owned storage.
	Allocator() alloc.Allocator[T]
}

// IsEmpty reports whether m addresses no element.
func IsEmpty[T any](m Memory[T]) bool {
	return m.Shape().IsEmpty()
}

// copyLogical copies every element of src into dst. Both must have the same shape.
// Lines are walked along src's fastest axis so the source is read sequentially.
func copyLogical[T any](dst, src Memory[T]) {
	s := src.Shape()
	if s.IsEmpty() {
		return
	}

	plan := chunking.Locality(s, src.Mapper())
	axis := plan.Order[0]
	line := s[axis]
	lines := s.NumElements() / line
	c := chunking.New(s, plan.Order, line)

	for n := 0; n < lines; n++ {
		coord := c.ArrayIndex()
		from := src.BeginDim(axis, coord)
		to := dst.BeginDim(axis, coord)
		for k := 0; k < line; k++ {
			*to.Pointer() = *from.Pointer()
			from.Next()
			to.Next()
		}
		c.Advance(line)
	}
}

func rootOf[T any](m Memory[T]) Memory[T] {
	if p := m.Parent(); p != nil {
		return p
	}
	return m
}

func endCoord(s shape.Shape, axis int, coord []int) []int {
	end := append([]int(nil), coord...)
	end[axis] = s[axis]
	return end
}

func fill[T any](buf []T, value T) {
	for i := range buf {
		buf[i] = value
	}
}
