package memory

import (
	"fmt"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/shape"
)

// Multislice stores one buffer per position along its slice axis. Inside a slice
// buffer the remaining axes are compact.
type Multislice[T any] struct {
	shape  shape.Shape
	mapper mapper.Mapper
	slices [][]T
	alloc  alloc.Allocator[T]
	owner  bool
	parent Memory[T]
}

// NewMultislice allocates s[sliceAxis] slice buffers, each compact over the
// remaining axes in the given order, with every element set to value. A nil
// allocator means the Go heap. Buffers allocated before a failure are returned
// to the allocator.
func NewMultislice[T any](s shape.Shape, sliceAxis int, order mapper.Order, value T, a alloc.Allocator[T]) (*Multislice[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		a = alloc.Heap[T]{}
	}
	m := mapper.NewMultislice(0, s, sliceAxis, order)
	slices, err := allocateSlices(a, s[sliceAxis], sliceSize(s, sliceAxis))
	if err != nil {
		return nil, err
	}
	for _, buf := range slices {
		fill(buf, value)
	}

	return &Multislice[T]{
		shape:  s.Clone(),
		mapper: m,
		slices: slices,
		alloc:  a,
		owner:  true,
	}, nil
}

// WrapMultislice builds a memory over existing slice buffers. The mapper must
// name a slice axis and slices must hold one buffer per position along it.
func WrapMultislice[T any](s shape.Shape, slices [][]T, m mapper.Mapper, a alloc.Allocator[T], owner bool) *Multislice[T] {
	if m.Rank() != len(s) {
		panic(fmt.Sprintf("memory: mapper rank %d does not match shape %v", m.Rank(), s))
	}
	z := m.SliceAxis()
	if z == mapper.NoSliceAxis {
		panic("memory: multislice storage needs a slice axis")
	}
	if len(slices) != s[z] {
		panic(fmt.Sprintf("memory: %d slice buffers for extent %d", len(slices), s[z]))
	}
	if a == nil {
		a = alloc.Heap[T]{}
	}
	return &Multislice[T]{
		shape:  s.Clone(),
		mapper: m,
		slices: slices,
		alloc:  a,
		owner:  owner,
	}
}

// Shape implements Memory.
func (ms *Multislice[T]) Shape() shape.Shape { return ms.shape }

// Mapper implements Memory.
func (ms *Multislice[T]) Mapper() mapper.Mapper { return ms.mapper }

// SliceAxis returns the axis whose positions select a buffer.
func (ms *Multislice[T]) SliceAxis() int { return ms.mapper.SliceAxis() }

// Slices returns the slice table. Views hold their own table referencing the
// parent's buffers.
func (ms *Multislice[T]) Slices() [][]T { return ms.slices }

// At implements Memory.
func (ms *Multislice[T]) At(coord []int) *T {
	return &ms.slices[coord[ms.mapper.SliceAxis()]][ms.mapper.Offset(coord)]
}

// BeginDim implements Memory.
func (ms *Multislice[T]) BeginDim(axis int, coord []int) DimIterator[T] {
	slice := coord[ms.mapper.SliceAxis()]
	offset := ms.mapper.Offset(coord)
	if ms.mapper.Kind(axis) == mapper.SliceBoundary {
		return newBoundaryIterator(ms.slices, slice, offset)
	}
	return newLinearIterator(ms.slices, slice, offset, ms.mapper.Stride(axis), coord[axis])
}

// EndDim implements Memory.
func (ms *Multislice[T]) EndDim(axis int, coord []int) DimIterator[T] {
	return ms.BeginDim(axis, endCoord(ms.shape, axis, coord))
}

// View implements Memory.
func (ms *Multislice[T]) View(origin []int, s shape.Shape, strides []int) Memory[T] {
	return ms.SubView(origin, s, strides)
}

// SubView is View with a concrete result type. The slice table of the view picks
// every strides[z]-th buffer starting at origin[z].
func (ms *Multislice[T]) SubView(origin []int, s shape.Shape, strides []int) *Multislice[T] {
	checkView(ms.shape, origin, s, strides)
	z := ms.mapper.SliceAxis()
	table := make([][]T, s[z])
	for k := range table {
		table[k] = ms.slices[origin[z]+k*strides[z]]
	}
	return &Multislice[T]{
		shape:  s.Clone(),
		mapper: ms.mapper.Submap(origin, s, strides),
		slices: table,
		alloc:  ms.alloc,
		parent: rootOf[T](ms),
	}
}

// Slice implements Memory.
//
// Fixing the slice axis selects one buffer and yields a contiguous memory.
// Fixing any other axis keeps the multislice layout: every buffer is rebased on
// the in-slice offset of point.
func (ms *Multislice[T]) Slice(axis, point int) Memory[T] {
	checkSlice(ms.shape, axis, point)
	z := ms.mapper.SliceAxis()
	if axis == z {
		return &Contiguous[T]{
			shape:  ms.shape.Without(axis),
			mapper: ms.mapper.Drop(axis, ms.mapper.Origin()),
			table:  [][]T{ms.slices[point]},
			alloc:  ms.alloc,
			parent: rootOf[T](ms),
		}
	}

	coord := make([]int, len(ms.shape))
	coord[axis] = point
	base := ms.mapper.Offset(coord)
	table := make([][]T, len(ms.slices))
	for k, buf := range ms.slices {
		table[k] = buf[min(base, len(buf)):]
	}
	return &Multislice[T]{
		shape:  ms.shape.Without(axis),
		mapper: ms.mapper.Drop(axis, 0),
		slices: table,
		alloc:  ms.alloc,
		parent: rootOf[T](ms),
	}
}

// Clone implements Memory.
func (ms *Multislice[T]) Clone() (Memory[T], error) {
	return ms.CloneMultislice()
}

// CloneMultislice deep-copies the logical extent into freshly allocated slices.
// In-slice strides are compact and keep this memory's relative stride order.
func (ms *Multislice[T]) CloneMultislice() (*Multislice[T], error) {
	z := ms.mapper.SliceAxis()
	order := chunking.LocalityOrder(ms.mapper.Strides(), ms.mapper.Kinds())
	slices, err := allocateSlices(ms.alloc, ms.shape[z], sliceSize(ms.shape, z))
	if err != nil {
		return nil, err
	}
	dst := &Multislice[T]{
		shape:  ms.shape.Clone(),
		mapper: mapper.FromStrides(0, ms.shape.OrderedStrides(order, z), z),
		slices: slices,
		alloc:  ms.alloc,
		owner:  true,
	}
	copyLogical[T](dst, ms)
	return dst, nil
}

// CopyFrom replaces the contents of ms with a deep copy of src. On allocation
// failure ms is left untouched.
func (ms *Multislice[T]) CopyFrom(src *Multislice[T]) error {
	if src == ms {
		return nil
	}
	dup, err := src.CloneMultislice()
	if err != nil {
		return err
	}
	ms.Release()
	*ms = *dup
	return nil
}

// MoveFrom transfers src's storage and ownership to ms and leaves src empty.
func (ms *Multislice[T]) MoveFrom(src *Multislice[T]) {
	if src == ms {
		return
	}
	ms.Release()
	*ms = *src
	*src = Multislice[T]{}
}

// Release implements Memory.
func (ms *Multislice[T]) Release() {
	if ms.owner {
		for _, buf := range ms.slices {
			clear(buf)
			ms.alloc.Deallocate(buf)
		}
	}
	*ms = Multislice[T]{alloc: ms.alloc}
}

// IsOwner implements Memory.
func (ms *Multislice[T]) IsOwner() bool { return ms.owner }

// Parent implements Memory.
func (ms *Multislice[T]) Parent() Memory[T] { return ms.parent }

// Allocator implements Memory.
func (ms *Multislice[T]) Allocator() alloc.Allocator[T] { return ms.alloc }

// sliceSize is the number of elements in one slice buffer.
func sliceSize(s shape.Shape, sliceAxis int) int {
	n := 1
	for i, d := range s {
		if i != sliceAxis {
			n *= d
		}
	}
	return n
}

func allocateSlices[T any](a alloc.Allocator[T], count, size int) ([][]T, error) {
	slices := make([][]T, 0, count)
	for k := 0; k < count; k++ {
		buf, err := a.Allocate(size)
		if err != nil {
			for _, done := range slices {
				a.Deallocate(done)
			}
			return nil, err
		}
		slices = append(slices, buf)
	}
	return slices, nil
}
