// Package mapper maps array coordinates to linear storage offsets.
//
// A Mapper holds an origin and a physical stride per axis. Physical strides are
// expressed against the backing storage, so a sub-block view is just another
// Mapper over the same buffer: Submap composes strides and origin without
// touching data.
//
// Multislice storage keeps one buffer per position along a slice axis. That axis
// is tagged SliceBoundary and its stride is always 0, so Offset yields only the
// offset inside a slice; choosing the slice buffer is the memory layer's job.
package mapper

import (
	"fmt"

	"github.com/chncwang/arraym/internal/shape"
)

// Order selects which axis varies fastest in compact storage.
type Order int

// Supported storage orders.
const (
	RowMajor    Order = iota // last axis has stride 1
	ColumnMajor              // first axis has stride 1
)

// String returns a human-readable order name.
func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return "unknown"
	}
}

// AxisKind tells how stepping along an axis moves through storage.
type AxisKind uint8

// Axis kinds.
const (
	// Linear axes step by a fixed stride inside one buffer. A Linear stride of 0
	// is a broadcast axis.
	Linear AxisKind = iota
	// SliceBoundary axes step to a different allocation.
	SliceBoundary
)

// String returns a human-readable axis kind.
func (k AxisKind) String() string {
	switch k {
	case Linear:
		return "linear"
	case SliceBoundary:
		return "slice-boundary"
	default:
		return "unknown"
	}
}

// NoSliceAxis is returned by SliceAxis for mappers without a slice axis.
const NoSliceAxis = -1

// Mapper converts coordinates to offsets: Offset(c) = dot(c, strides) + origin.
// Mapper is a small value type; methods never mutate the receiver.
type Mapper struct {
	origin    int
	strides   []int
	sliceAxis int
}

// NewContiguous creates a mapper for a single compact buffer of the given shape.
func NewContiguous(origin int, s shape.Shape, order Order) Mapper {
	var strides []int
	switch order {
	case RowMajor:
		strides = s.RowMajorStrides()
	case ColumnMajor:
		strides = s.ColumnMajorStrides()
	default:
		panic(fmt.Sprintf("mapper: unknown order %d", order))
	}
	return Mapper{origin: origin, strides: strides, sliceAxis: NoSliceAxis}
}

// NewMultislice creates a mapper for multislice storage. Strides are compact over
// the non-slice axes in the given order; the slice axis gets stride 0.
func NewMultislice(origin int, s shape.Shape, sliceAxis int, order Order) Mapper {
	if sliceAxis < 0 || sliceAxis >= len(s) {
		panic(fmt.Sprintf("mapper: slice axis %d out of range for rank %d", sliceAxis, len(s)))
	}
	axes := make([]int, len(s))
	for i := range axes {
		axes[i] = i
	}
	switch order {
	case RowMajor:
		for i, j := 0, len(axes)-1; i < j; i, j = i+1, j-1 {
			axes[i], axes[j] = axes[j], axes[i]
		}
	case ColumnMajor:
	default:
		panic(fmt.Sprintf("mapper: unknown order %d", order))
	}
	return Mapper{
		origin:    origin,
		strides:   s.OrderedStrides(axes, sliceAxis),
		sliceAxis: sliceAxis,
	}
}

// FromStrides creates a mapper with explicit physical strides. Pass NoSliceAxis
// for single-buffer storage. The stride of the slice axis is forced to 0.
func FromStrides(origin int, strides []int, sliceAxis int) Mapper {
	if sliceAxis != NoSliceAxis && (sliceAxis < 0 || sliceAxis >= len(strides)) {
		panic(fmt.Sprintf("mapper: slice axis %d out of range for rank %d", sliceAxis, len(strides)))
	}
	m := Mapper{
		origin:    origin,
		strides:   append([]int(nil), strides...),
		sliceAxis: sliceAxis,
	}
	if sliceAxis != NoSliceAxis {
		m.strides[sliceAxis] = 0
	}
	return m
}

// Rank returns the number of axes.
func (m Mapper) Rank() int {
	return len(m.strides)
}

// Origin returns the offset of coordinate (0, ..., 0).
func (m Mapper) Origin() int {
	return m.origin
}

// Offset returns dot(coord, strides) + origin. For multislice mappers this is the
// offset inside the slice buffer selected by coord[SliceAxis()].
func (m Mapper) Offset(coord []int) int {
	return shape.Dot(coord, m.strides) + m.origin
}

// Submap derives the mapper of a sub-region starting at origin and stepping by
// strides (in units of this mapper's coordinates). Data is never touched.
func (m Mapper) Submap(origin []int, s shape.Shape, strides []int) Mapper {
	if len(origin) != len(m.strides) || len(s) != len(m.strides) || len(strides) != len(m.strides) {
		panic(fmt.Sprintf("mapper: submap rank mismatch (mapper %d, origin %d, shape %d, strides %d)",
			len(m.strides), len(origin), len(s), len(strides)))
	}
	physical := make([]int, len(m.strides))
	for i := range physical {
		physical[i] = m.strides[i] * strides[i]
	}
	if m.sliceAxis != NoSliceAxis {
		physical[m.sliceAxis] = 0
	}
	return Mapper{origin: m.Offset(origin), strides: physical, sliceAxis: m.sliceAxis}
}

// Drop removes an axis and rebases the mapper on a new origin. The slice axis
// index shifts down when the dropped axis precedes it; dropping the slice axis
// itself leaves a single-buffer mapper.
func (m Mapper) Drop(axis, origin int) Mapper {
	if len(m.strides) < 2 {
		panic("mapper: cannot drop an axis from a rank 1 mapper")
	}
	strides := make([]int, 0, len(m.strides)-1)
	strides = append(strides, m.strides[:axis]...)
	strides = append(strides, m.strides[axis+1:]...)

	sliceAxis := m.sliceAxis
	switch {
	case sliceAxis == axis:
		sliceAxis = NoSliceAxis
	case sliceAxis > axis:
		sliceAxis--
	}
	return Mapper{origin: origin, strides: strides, sliceAxis: sliceAxis}
}

// Strides returns a copy of the physical strides. The slice axis reports 0.
func (m Mapper) Strides() []int {
	return append([]int(nil), m.strides...)
}

// Stride returns the physical stride of one axis.
func (m Mapper) Stride(axis int) int {
	return m.strides[axis]
}

// Kind returns how the given axis steps through storage.
func (m Mapper) Kind(axis int) AxisKind {
	if axis == m.sliceAxis {
		return SliceBoundary
	}
	return Linear
}

// Kinds returns the kind of every axis.
func (m Mapper) Kinds() []AxisKind {
	kinds := make([]AxisKind, len(m.strides))
	for i := range kinds {
		kinds[i] = m.Kind(i)
	}
	return kinds
}

// SliceAxis returns the slice axis, or NoSliceAxis.
func (m Mapper) SliceAxis() int {
	return m.sliceAxis
}

// String returns a compact description used in diagnostics.
func (m Mapper) String() string {
	if m.sliceAxis == NoSliceAxis {
		return fmt.Sprintf("mapper(origin=%d strides=%v)", m.origin, m.strides)
	}
	return fmt.Sprintf("mapper(origin=%d strides=%v slice=%d)", m.origin, m.strides, m.sliceAxis)
}
