package memory

import (
	"fmt"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/shape"
)

// Contiguous stores every element in one buffer.
type Contiguous[T any] struct {
	shape  shape.Shape
	mapper mapper.Mapper
	table  [][]T // always a single buffer
	alloc  alloc.Allocator[T]
	owner  bool
	parent Memory[T]
}

// NewContiguous allocates compact storage for s in the given order, with every
// element set to value. A nil allocator means the Go heap.
func NewContiguous[T any](s shape.Shape, order mapper.Order, value T, a alloc.Allocator[T]) (*Contiguous[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		a = alloc.Heap[T]{}
	}

	buf, err := a.Allocate(s.NumElements())
	if err != nil {
		return nil, err
	}
	fill(buf, value)

	return &Contiguous[T]{
		shape:  s.Clone(),
		mapper: mapper.NewContiguous(0, s, order),
		table:  [][]T{buf},
		alloc:  a,
		owner:  true,
	}, nil
}

// WrapContiguous builds a memory over an existing buffer. When owner is true,
// Release hands data back to a.
func WrapContiguous[T any](s shape.Shape, data []T, m mapper.Mapper, a alloc.Allocator[T], owner bool) *Contiguous[T] {
	if m.Rank() != len(s) {
		panic(fmt.Sprintf("memory: mapper rank %d does not match shape %v", m.Rank(), s))
	}
	if m.SliceAxis() != mapper.NoSliceAxis {
		panic("memory: contiguous storage cannot use a multislice mapper")
	}
	if a == nil {
		a = alloc.Heap[T]{}
	}
	return &Contiguous[T]{
		shape:  s.Clone(),
		mapper: m,
		table:  [][]T{data},
		alloc:  a,
		owner:  owner,
	}
}

// Shape implements Memory.
func (c *Contiguous[T]) Shape() shape.Shape { return c.shape }

// Mapper implements Memory.
func (c *Contiguous[T]) Mapper() mapper.Mapper { return c.mapper }

// Data returns the backing buffer. Views share it with their parent.
func (c *Contiguous[T]) Data() []T {
	if len(c.table) == 0 {
		return nil
	}
	return c.table[0]
}

// At implements Memory.
func (c *Contiguous[T]) At(coord []int) *T {
	return &c.table[0][c.mapper.Offset(coord)]
}

// BeginDim implements Memory.
func (c *Contiguous[T]) BeginDim(axis int, coord []int) DimIterator[T] {
	return newLinearIterator(c.table, 0, c.mapper.Offset(coord), c.mapper.Stride(axis), coord[axis])
}

// EndDim implements Memory.
func (c *Contiguous[T]) EndDim(axis int, coord []int) DimIterator[T] {
	return c.BeginDim(axis, endCoord(c.shape, axis, coord))
}

// View implements Memory.
func (c *Contiguous[T]) View(origin []int, s shape.Shape, strides []int) Memory[T] {
	return c.SubView(origin, s, strides)
}

// SubView is View with a concrete result type.
func (c *Contiguous[T]) SubView(origin []int, s shape.Shape, strides []int) *Contiguous[T] {
	checkView(c.shape, origin, s, strides)
	return &Contiguous[T]{
		shape:  s.Clone(),
		mapper: c.mapper.Submap(origin, s, strides),
		table:  c.table,
		alloc:  c.alloc,
		parent: rootOf[T](c),
	}
}

// Slice implements Memory.
func (c *Contiguous[T]) Slice(axis, point int) Memory[T] {
	checkSlice(c.shape, axis, point)
	coord := make([]int, len(c.shape))
	coord[axis] = point
	return &Contiguous[T]{
		shape:  c.shape.Without(axis),
		mapper: c.mapper.Drop(axis, c.mapper.Offset(coord)),
		table:  c.table,
		alloc:  c.alloc,
		parent: rootOf[T](c),
	}
}

// Clone implements Memory.
func (c *Contiguous[T]) Clone() (Memory[T], error) {
	return c.CloneContiguous()
}

// CloneContiguous deep-copies the logical extent into a compact buffer whose
// axis order follows this memory's relative stride order.
func (c *Contiguous[T]) CloneContiguous() (*Contiguous[T], error) {
	order := chunking.LocalityOrder(c.mapper.Strides(), c.mapper.Kinds())
	buf, err := c.alloc.Allocate(c.shape.NumElements())
	if err != nil {
		return nil, err
	}
	dst := &Contiguous[T]{
		shape:  c.shape.Clone(),
		mapper: mapper.FromStrides(0, c.shape.OrderedStrides(order), mapper.NoSliceAxis),
		table:  [][]T{buf},
		alloc:  c.alloc,
		owner:  true,
	}
	copyLogical[T](dst, c)
	return dst, nil
}

// CopyFrom replaces the contents of c with a deep copy of src. On allocation
// failure c is left untouched.
func (c *Contiguous[T]) CopyFrom(src *Contiguous[T]) error {
	if src == c {
		return nil
	}
	dup, err := src.CloneContiguous()
	if err != nil {
		return err
	}
	c.Release()
	*c = *dup
	return nil
}

// MoveFrom transfers src's storage and ownership to c and leaves src empty.
func (c *Contiguous[T]) MoveFrom(src *Contiguous[T]) {
	if src == c {
		return
	}
	c.Release()
	*c = *src
	*src = Contiguous[T]{}
}

// Release implements Memory.
func (c *Contiguous[T]) Release() {
	if c.owner && len(c.table) > 0 {
		clear(c.table[0])
		c.alloc.Deallocate(c.table[0])
	}
	*c = Contiguous[T]{alloc: c.alloc}
}

// IsOwner implements Memory.
func (c *Contiguous[T]) IsOwner() bool { return c.owner }

// Parent implements Memory.
func (c *Contiguous[T]) Parent() Memory[T] { return c.parent }

// Allocator implements Memory.
func (c *Contiguous[T]) Allocator() alloc.Allocator[T] { return c.alloc }

func checkView(parent shape.Shape, origin []int, s shape.Shape, strides []int) {
	if len(origin) != len(parent) || len(s) != len(parent) || len(strides) != len(parent) {
		panic(fmt.Sprintf("memory: view rank mismatch (memory %d, origin %d, shape %d, strides %d)",
			len(parent), len(origin), len(s), len(strides)))
	}
	for i := range parent {
		if strides[i] < 0 {
			panic(fmt.Sprintf("memory: negative view stride %d on axis %d", strides[i], i))
		}
		if s[i] > 0 && (origin[i] < 0 || origin[i]+(s[i]-1)*strides[i] >= parent[i]) {
			panic(fmt.Sprintf("memory: view %v from %v by %v exceeds shape %v", s, origin, strides, parent))
		}
	}
}

func checkSlice(s shape.Shape, axis, point int) {
	if axis < 0 || axis >= len(s) {
		panic(fmt.Sprintf("memory: slice axis %d out of range for rank %d", axis, len(s)))
	}
	if point < 0 || point >= s[axis] {
		panic(fmt.Sprintf("memory: slice point %d out of range for extent %d", point, s[axis]))
	}
}
