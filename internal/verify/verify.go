// Package verify checks traversal invariants of array memories at runtime.
//
// The checks are meant for diagnostics (the verify command) and tests: they
// walk a memory with a processor and record which declared-order linear indices
// were produced, using a roaring bitmap so large shapes stay cheap to track.
package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/processor"
	"github.com/chncwang/arraym/internal/shape"
)

// ErrCoverage is returned when a traversal misses or repeats elements.
var ErrCoverage = errors.New("traversal coverage mismatch")

// ErrMismatch is returned when a value read back differs from the one written.
var ErrMismatch = errors.New("value mismatch")

// ErrTooLarge is returned for shapes whose element count exceeds the bitmap range.
var ErrTooLarge = errors.New("shape too large to verify")

// Coverage summarizes one traversal.
type Coverage struct {
	Ordering   processor.Ordering
	Elements   int    // elements in the shape
	Visited    uint64 // distinct elements produced
	Duplicates int    // elements produced more than once
	Runs       int    // accesses made
	RunSum     int    // sum of access lengths
	MaxRun     int
}

// OK reports whether every element was produced exactly once.
func (c Coverage) OK() bool {
	return c.Duplicates == 0 && c.Visited == uint64(c.Elements) && c.RunSum == c.Elements
}

// DeclaredIndex returns the linear index of coord in declared order, axis 0
// varying fastest.
func DeclaredIndex(s shape.Shape, coord []int) int {
	return shape.Dot(coord, s.ColumnMajorStrides())
}

// CheckCoverage walks m once with the given ordering and verifies that every
// element is produced exactly once. Locality traversals use run access.
func CheckCoverage[T any](m memory.Memory[T], ordering processor.Ordering) (Coverage, error) {
	s := m.Shape()
	n := s.NumElements()
	cov := Coverage{Ordering: ordering, Elements: n}
	if uint64(n) > math.MaxUint32 {
		return cov, fmt.Errorf("%w: %d elements", ErrTooLarge, n)
	}

	seen := roaring.New()
	p := processor.New(m, ordering)
	cov.MaxRun = p.MaxElements()
	axis := p.VaryingAxis()
	coord := make([]int, len(s))

	for p.Remaining() > 0 {
		copy(coord, p.ArrayIndex())
		length := 1
		if ordering == processor.ByMemoryLocality {
			run, _ := p.AccessMaxElements()
			length = len(run)
		} else {
			p.AccessSingleElement()
		}

		start := coord[axis]
		for k := 0; k < length; k++ {
			coord[axis] = start + k
			if !seen.CheckedAdd(uint32(DeclaredIndex(s, coord))) {
				cov.Duplicates++
			}
		}
		cov.Runs++
		cov.RunSum += length
	}

	cov.Visited = seen.GetCardinality()
	if !cov.OK() {
		missing := roaring.Flip(seen, 0, uint64(n))
		if !missing.IsEmpty() {
			return cov, fmt.Errorf("%w: %s traversal of %v missed %d elements, first %d",
				ErrCoverage, ordering, s, missing.GetCardinality(), missing.Minimum())
		}
		return cov, fmt.Errorf("%w: %s traversal of %v produced %d duplicates",
			ErrCoverage, ordering, s, cov.Duplicates)
	}
	return cov, nil
}

// CheckRoundTrip writes gen(i) at the element of declared index i through a
// locality processor and reads every element back with At and with a declared
// order processor.
func CheckRoundTrip[T comparable](m memory.Memory[T], gen func(i int) T) error {
	s := m.Shape()
	processor.Fill(m, func(coord []int) T {
		return gen(DeclaredIndex(s, coord))
	})
	if s.IsEmpty() {
		return nil
	}

	c := chunking.New(s, chunking.DeclaredOrder(len(s)), 1)
	for i := 0; i < s.NumElements(); i++ {
		if got, want := *m.At(c.ArrayIndex()), gen(i); got != want {
			return fmt.Errorf("%w: at %v read %v, wrote %v", ErrMismatch, c.ArrayIndex(), got, want)
		}
		c.Advance(1)
	}

	p := processor.New(m, processor.ByDeclaredOrder)
	for i := 0; ; i++ {
		ptr, more := p.AccessSingleElement()
		if want := gen(i); *ptr != want {
			return fmt.Errorf("%w: declared element %d read %v, wrote %v", ErrMismatch, i, *ptr, want)
		}
		if !more {
			return nil
		}
	}
}

// CheckJoint pairs row-major, column-major and multislice memories of shape s
// and verifies that joint iteration lands every element on its own coordinate.
func CheckJoint(s shape.Shape) error {
	row, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	if err != nil {
		return err
	}
	col, err := memory.NewContiguous(s, mapper.ColumnMajor, 0, nil)
	if err != nil {
		return err
	}
	ms, err := memory.NewMultislice(s, len(s)-1, mapper.ColumnMajor, 0, nil)
	if err != nil {
		return err
	}

	label := func(coord []int) int { return DeclaredIndex(s, coord) }
	pairs := []struct {
		name     string
		dst, src memory.Memory[int]
	}{
		{"row-major <- column-major", row, col},
		{"column-major <- row-major", col, row},
		{"multislice <- row-major", ms, row},
		{"multislice <- column-major", ms, col},
	}
	for _, pair := range pairs {
		processor.Fill(pair.src, label)
		processor.Fill(pair.dst, func([]int) int { return -1 })
		processor.IterateJoint(pair.dst, pair.src, func(dst, src []int) {
			copy(dst, src)
		})
		if err := CheckValues(pair.dst, label); err != nil {
			return fmt.Errorf("%s: %w", pair.name, err)
		}
	}
	return nil
}

// CheckValues verifies that every element of m equals want(coord).
func CheckValues[T comparable](m memory.Memory[T], want func(coord []int) T) error {
	s := m.Shape()
	if s.IsEmpty() {
		return nil
	}
	c := chunking.New(s, chunking.DeclaredOrder(len(s)), 1)
	for i := 0; i < s.NumElements(); i++ {
		coord := c.ArrayIndex()
		if got, w := *m.At(coord), want(coord); got != w {
			return fmt.Errorf("%w: at %v got %v, want %v", ErrMismatch, coord, got, w)
		}
		c.Advance(1)
	}
	return nil
}
