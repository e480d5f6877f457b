// Package array provides Array, the value type built on top of array memories.
//
// An Array owns exactly one memory. Arrays built by the factories below own
// their storage; arrays returned by ViewOf, Sub and Slice reference the storage
// of another array and must not outlive it. Clone and Assign always copy the
// logical extent only, so copying a view never copies the parent's buffers.
package array

import (
	"fmt"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/processor"
	"github.com/chncwang/arraym/internal/shape"
)

// Array is an N-dimensional array whose rank is fixed at construction.
type Array[T any] struct {
	mem memory.Memory[T]
}

// New creates an array of shape s with every element set to value. Storage
// comes from a; a nil allocator means the Go heap.
func New[T any](s shape.Shape, layout Layout, value T, a alloc.Allocator[T]) (*Array[T], error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	if !layout.IsMultislice() {
		m, err := memory.NewContiguous(s, layout.Order(), value, a)
		if err != nil {
			return nil, err
		}
		return &Array[T]{mem: m}, nil
	}

	if layout.SliceAxis() >= len(s) {
		return nil, fmt.Errorf("invalid shape: slice axis %d for rank %d: %w",
			layout.SliceAxis(), len(s), shape.ErrInvalidShape)
	}
	m, err := memory.NewMultislice(s, layout.SliceAxis(), layout.Order(), value, a)
	if err != nil {
		return nil, err
	}
	return &Array[T]{mem: m}, nil
}

// FromShape creates a zero-valued array.
func FromShape[T any](s shape.Shape, layout Layout) (*Array[T], error) {
	var zero T
	return New(s, layout, zero, nil)
}

// WithFill creates an array with every element set to value.
func WithFill[T any](s shape.Shape, layout Layout, value T) (*Array[T], error) {
	return New(s, layout, value, nil)
}

// FromSlice creates an array from values listed in declared axis order, axis 0
// varying fastest. The values are copied.
func FromSlice[T any](s shape.Shape, layout Layout, values []T) (*Array[T], error) {
	if s.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", s, s.NumElements(), len(values))
	}
	a, err := FromShape[T](s, layout)
	if err != nil {
		return nil, err
	}

	p := processor.New(a.mem, processor.ByDeclaredOrder)
	for _, v := range values {
		ptr, _ := p.AccessSingleElement()
		*ptr = v
	}
	return a, nil
}

// FromMemory wraps an existing memory. The array takes over the memory as is:
// if the memory owns its storage, Release frees it.
func FromMemory[T any](m memory.Memory[T]) *Array[T] {
	return &Array[T]{mem: m}
}

// ViewOf references the sub-block of a starting at origin, with shape s, taking
// every strides[i]-th element along axis i. No data is copied.
func ViewOf[T any](a *Array[T], origin []int, s shape.Shape, strides []int) *Array[T] {
	return &Array[T]{mem: a.mem.View(origin, s, strides)}
}

// Memory returns the underlying memory.
func (a *Array[T]) Memory() memory.Memory[T] { return a.mem }

// Shape returns the extents. The returned slice must not be modified.
func (a *Array[T]) Shape() shape.Shape { return a.mem.Shape() }

// Rank returns the number of axes.
func (a *Array[T]) Rank() int { return len(a.mem.Shape()) }

// NumElements returns the number of elements of the logical extent.
func (a *Array[T]) NumElements() int { return a.mem.Shape().NumElements() }

// IsView reports whether a references another array's storage.
func (a *Array[T]) IsView() bool { return a.mem.Parent() != nil }

// SliceAxis returns the slice axis of multislice storage, or mapper.NoSliceAxis.
func (a *Array[T]) SliceAxis() int {
	return a.mem.Mapper().SliceAxis()
}

// At returns the address of the element at coord.
func (a *Array[T]) At(coord ...int) *T {
	return a.mem.At(coord)
}

// Get returns the element at coord.
func (a *Array[T]) Get(coord ...int) T {
	return *a.mem.At(coord)
}

// Set stores v at coord.
func (a *Array[T]) Set(v T, coord ...int) {
	*a.mem.At(coord) = v
}

// Rows returns the extent of axis 0 of a matrix.
func (a *Array[T]) Rows() int {
	a.mustBeMatrix()
	return a.mem.Shape()[0]
}

// Columns returns the extent of axis 1 of a matrix.
func (a *Array[T]) Columns() int {
	a.mustBeMatrix()
	return a.mem.Shape()[1]
}

func (a *Array[T]) mustBeMatrix() {
	if r := a.Rank(); r != 2 {
		panic(fmt.Sprintf("array: rows and columns need a rank 2 array, got rank %d", r))
	}
}

// Sub references the block between corners lo and hi, both inclusive.
func (a *Array[T]) Sub(lo, hi []int) *Array[T] {
	if len(lo) != a.Rank() || len(hi) != a.Rank() {
		panic(fmt.Sprintf("array: sub-block corners %v and %v for rank %d", lo, hi, a.Rank()))
	}
	s := make(shape.Shape, len(lo))
	strides := make([]int, len(lo))
	for i := range lo {
		if hi[i] < lo[i] {
			panic(fmt.Sprintf("array: sub-block corner %v below %v", hi, lo))
		}
		s[i] = hi[i] - lo[i] + 1
		strides[i] = 1
	}
	return ViewOf(a, lo, s, strides)
}

// Slice references the array of rank N-1 obtained by fixing axis at point.
func (a *Array[T]) Slice(axis, point int) *Array[T] {
	return &Array[T]{mem: a.mem.Slice(axis, point)}
}

// Clone returns a deep copy of the logical extent that owns its storage.
func (a *Array[T]) Clone() (*Array[T], error) {
	m, err := a.mem.Clone()
	if err != nil {
		return nil, err
	}
	return &Array[T]{mem: m}, nil
}

// Assign replaces a with a deep copy of src. a's previous storage is released,
// so views of a become invalid. On error a is unchanged.
func (a *Array[T]) Assign(src *Array[T]) error {
	if a == src {
		return nil
	}
	m, err := src.mem.Clone()
	if err != nil {
		return err
	}
	a.mem.Release()
	a.mem = m
	return nil
}

// Move transfers src's storage to a and leaves src empty.
func (a *Array[T]) Move(src *Array[T]) {
	if a == src {
		return
	}
	a.mem.Release()
	a.mem = src.mem
	src.mem = &memory.Contiguous[T]{}
}

// CopyFrom writes the elements of src into a's existing storage. Shapes must
// match. Writing into a view modifies the viewed array.
func (a *Array[T]) CopyFrom(src *Array[T]) {
	processor.IterateJoint(a.mem, src.mem, func(dst, from []T) {
		copy(dst, from)
	})
}

// Fill sets every element to f(coord). coord must not be retained.
func (a *Array[T]) Fill(f func(coord []int) T) {
	processor.Fill(a.mem, f)
}

// Values returns the elements in declared axis order, axis 0 varying fastest.
func (a *Array[T]) Values() []T {
	s := a.Shape()
	out := make([]T, 0, s.NumElements())
	if s.IsEmpty() {
		return out
	}
	p := processor.New(a.mem, processor.ByDeclaredOrder)
	for {
		ptr, more := p.AccessSingleElement()
		out = append(out, *ptr)
		if !more {
			return out
		}
	}
}

// Release frees owned storage. The array is empty afterwards.
func (a *Array[T]) Release() {
	a.mem.Release()
}

// Strides returns the physical strides of the underlying mapper.
func (a *Array[T]) Strides() []int {
	return a.mem.Mapper().Strides()
}

// Plan returns the locality traversal plan of the array.
func (a *Array[T]) Plan() chunking.Plan {
	return chunking.Locality(a.Shape(), a.mem.Mapper())
}

// Describe returns a one-line summary of shape and storage.
func (a *Array[T]) Describe() string {
	mp := a.mem.Mapper()
	kind := "contiguous"
	if mp.SliceAxis() != mapper.NoSliceAxis {
		kind = fmt.Sprintf("multislice(axis=%d)", mp.SliceAxis())
	}
	return fmt.Sprintf("%s %v strides=%v", kind, a.Shape(), mp.Strides())
}

// Equal reports whether a and b have the same shape and elements.
func Equal[T comparable](a, b *Array[T]) bool {
	if !a.Shape().Equal(b.Shape()) {
		return false
	}
	equal := true
	processor.IterateJoint(a.mem, b.mem, func(x, y []T) {
		for i := range x {
			if x[i] != y[i] {
				equal = false
			}
		}
	})
	return equal
}
