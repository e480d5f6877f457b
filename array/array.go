// Copyright 2025 The arraym Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/array"
	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/processor"
	"github.com/chncwang/arraym/internal/shape"
)

// Shape represents the per-axis extents of an array.
type Shape = shape.Shape

// ErrInvalidShape is returned by factories for shapes that cannot describe an array.
var ErrInvalidShape = shape.ErrInvalidShape

// DType is the constraint of the numeric element types with a DataType.
type DType = array.DType

// DataType names an element type.
type DataType = array.DataType

// Data types.
const (
	Float32 DataType = array.Float32
	Float64 DataType = array.Float64
	Int32   DataType = array.Int32
	Int64   DataType = array.Int64
	Uint8   DataType = array.Uint8
)

// Layout selects how an array stores its elements.
type Layout = array.Layout

// Contiguous layouts.
var (
	RowMajor    = array.RowMajor
	ColumnMajor = array.ColumnMajor
)

// Order is the axis order of a single buffer.
type Order = mapper.Order

// Buffer orders.
const (
	RowMajorOrder    Order = mapper.RowMajor
	ColumnMajorOrder Order = mapper.ColumnMajor
)

// Multislice returns a layout with one buffer per index of axis, each buffer
// laid out in order.
func Multislice(axis int, order Order) Layout {
	return array.Multislice(axis, order)
}

// MultisliceAlong returns a multislice layout along axis with column-major buffers.
func MultisliceAlong(axis int) Layout {
	return array.MultisliceAlong(axis)
}

// Array is an N-dimensional array.
//
// Array provides:
//   - Element access via At, Get and Set
//   - Views via Sub, Slice and ViewOf
//   - Deep copies via Clone and Assign
//   - Element-wise writes via CopyFrom and Fill
type Array[T any] = array.Array[T]

// Memory is the storage interface behind an Array.
type Memory[T any] = memory.Memory[T]

// Plan describes a locality traversal: axis order, run length and run count.
type Plan = chunking.Plan

// New creates an array of shape s with every element set to value, with storage
// from a. A nil allocator means the Go heap.
func New[T any](s Shape, layout Layout, value T, a Allocator[T]) (*Array[T], error) {
	return array.New(s, layout, value, a)
}

// FromShape creates a zero-valued array.
func FromShape[T any](s Shape, layout Layout) (*Array[T], error) {
	return array.FromShape[T](s, layout)
}

// WithFill creates an array with every element set to value.
func WithFill[T any](s Shape, layout Layout, value T) (*Array[T], error) {
	return array.WithFill(s, layout, value)
}

// FromSlice creates an array from values listed in declared axis order, axis 0
// varying fastest.
func FromSlice[T any](s Shape, layout Layout, values []T) (*Array[T], error) {
	return array.FromSlice(s, layout, values)
}

// FromMemory wraps an existing memory.
func FromMemory[T any](m Memory[T]) *Array[T] {
	return array.FromMemory(m)
}

// ViewOf returns a strided view of a starting at origin.
func ViewOf[T any](a *Array[T], origin []int, s Shape, strides []int) *Array[T] {
	return array.ViewOf(a, origin, s, strides)
}

// Equal reports whether a and b have the same shape and elements.
func Equal[T comparable](a, b *Array[T]) bool {
	return array.Equal(a, b)
}

// DataTypeOf returns the DataType of T.
func DataTypeOf[T DType]() DataType {
	return array.DataTypeOf[T]()
}

// ParseDataType parses a data type name such as "float32".
func ParseDataType(name string) (DataType, error) {
	return array.ParseDataType(name)
}

// Allocator provides storage for arrays.
type Allocator[T any] = alloc.Allocator[T]

// Pool recycles buffers and optionally enforces an element budget.
type Pool[T any] = alloc.Pool[T]

// Heap allocates from the Go heap.
type Heap[T any] = alloc.Heap[T]

// Aligned allocates cache-line aligned buffers.
type Aligned[T any] = alloc.Aligned[T]

// Allocation errors.
var (
	ErrNegativeSize   = alloc.ErrNegativeSize
	ErrBudgetExceeded = alloc.ErrBudgetExceeded
)

// NewPool creates a pool. A budget of 0 means unlimited.
func NewPool[T any](budget int) *Pool[T] {
	return alloc.NewPool[T](budget)
}

// Processor walks the elements of a memory one at a time or in runs.
type Processor[T any] = processor.Processor[T]

// Ordering selects the traversal order of a Processor.
type Ordering = processor.Ordering

// Traversal orderings.
const (
	ByMemoryLocality = processor.ByMemoryLocality
	ByDeclaredOrder  = processor.ByDeclaredOrder
)

// Option configures a Processor.
type Option = processor.Option

// WithRuns restricts a locality traversal to runs [first, last).
func WithRuns(first, last int) Option {
	return processor.WithRuns(first, last)
}

// NewProcessor creates a processor over m.
func NewProcessor[T any](m Memory[T], ordering Ordering, opts ...Option) *Processor[T] {
	return processor.New(m, ordering, opts...)
}

// RunOp is applied to one contiguous run of elements.
type RunOp[T any] = processor.RunOp[T]

// JointOp is applied to runs of matching coordinates of two arrays.
type JointOp[T, U any] = processor.JointOp[T, U]

// IterateJoint applies op to runs of dst and src that cover the same coordinates.
// Shapes must match.
func IterateJoint[T, U any](dst *Array[T], src *Array[U], op JointOp[T, U]) {
	processor.IterateJoint(dst.Memory(), src.Memory(), op)
}

// Iterate applies op to every run of a's locality traversal.
func Iterate[T any](a *Array[T], op RunOp[T]) {
	processor.Iterate(a.Memory(), op)
}
