package array

import (
	"fmt"

	"github.com/chncwang/arraym/internal/mapper"
)

// Layout describes how a new array stores its elements.
type Layout struct {
	multislice bool
	order      mapper.Order
	sliceAxis  int
}

// Contiguous layouts.
var (
	RowMajor    = Layout{order: mapper.RowMajor, sliceAxis: mapper.NoSliceAxis}
	ColumnMajor = Layout{order: mapper.ColumnMajor, sliceAxis: mapper.NoSliceAxis}
)

// Multislice stores one buffer per position along axis, the other axes laid
// out in order inside each buffer.
func Multislice(axis int, order mapper.Order) Layout {
	if axis < 0 {
		panic(fmt.Sprintf("array: negative slice axis %d", axis))
	}
	return Layout{multislice: true, order: order, sliceAxis: axis}
}

// MultisliceAlong is Multislice with column-major slices.
func MultisliceAlong(axis int) Layout {
	return Multislice(axis, mapper.ColumnMajor)
}

// IsMultislice reports whether the layout splits storage along a slice axis.
func (l Layout) IsMultislice() bool { return l.multislice }

// SliceAxis returns the slice axis, or mapper.NoSliceAxis.
func (l Layout) SliceAxis() int { return l.sliceAxis }

// Order returns the storage order (in-slice order for multislice layouts).
func (l Layout) Order() mapper.Order { return l.order }

// String returns a human-readable layout description.
func (l Layout) String() string {
	if l.multislice {
		return fmt.Sprintf("multislice(axis=%d, %s)", l.sliceAxis, l.order)
	}
	return l.order.String()
}
