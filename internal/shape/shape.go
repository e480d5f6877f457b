// Package shape provides the fixed-rank extent vectors shared by every array layer.
package shape

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is returned when a shape cannot describe an array.
var ErrInvalidShape = errors.New("invalid shape")

// Shape represents the per-axis extents of an array. Its length is the rank.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the total number of elements.
// A shape with any zero extent has no elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// IsEmpty reports whether the shape addresses no element at all.
func (s Shape) IsEmpty() bool {
	return s.NumElements() == 0
}

// Validate checks that the shape has at least one axis and no negative extent.
// Zero extents are legal.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: rank must be at least 1", ErrInvalidShape)
	}
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be >= 0)", ErrInvalidShape, i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Without returns a copy of the shape with the given axis removed.
func (s Shape) Without(axis int) Shape {
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:axis]...)
	return append(out, s[axis+1:]...)
}

// RowMajorStrides calculates strides where the last axis varies fastest:
// stride[i] = product of all dimensions after i.
func (s Shape) RowMajorStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// ColumnMajorStrides calculates strides where the first axis varies fastest:
// stride[i] = product of all dimensions before i.
func (s Shape) ColumnMajorStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := range s {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// OrderedStrides assigns compact strides following order, where order[0] is the
// fastest varying axis. Axes listed in skip receive stride 0 and do not contribute
// to the stride product.
func (s Shape) OrderedStrides(order []int, skip ...int) []int {
	strides := make([]int, len(s))
	stride := 1
	for _, axis := range order {
		if contains(skip, axis) {
			continue
		}
		strides[axis] = stride
		stride *= s[axis]
	}
	return strides
}

// Dot returns the dot product of a coordinate with a stride vector.
func Dot(coord, strides []int) int {
	sum := 0
	for i, c := range coord {
		sum += c * strides[i]
	}
	return sum
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
