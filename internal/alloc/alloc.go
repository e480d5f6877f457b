// Package alloc provides the storage allocators used by array memories.
//
// An Allocator hands out typed buffers and takes them back. Memories call
// Allocate when they create owned storage and Deallocate when an owning memory
// is released; views never deallocate. Construction and destruction of the
// elements themselves (filling with a default value, clearing before reuse) is
// done by the memory, so allocators only deal with raw buffers.
package alloc

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	// ErrNegativeSize is returned when a negative element count is requested.
	ErrNegativeSize = errors.New("alloc: negative size")
	// ErrBudgetExceeded is returned when a Pool would exceed its element budget.
	ErrBudgetExceeded = errors.New("alloc: element budget exceeded")
)

// Alignment is the byte alignment targeted by Aligned (AVX-512 friendly).
const Alignment = 64

// Allocator allocates and releases typed buffers.
type Allocator[T any] interface {
	// Allocate returns a buffer of exactly n elements.
	Allocate(n int) ([]T, error)
	// Deallocate returns a buffer obtained from Allocate.
	Deallocate(buf []T)
}

// Heap allocates on the Go heap. Deallocate is a no-op; the GC reclaims buffers.
type Heap[T any] struct{}

// Allocate returns make([]T, n).
func (Heap[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}
	return make([]T, n), nil
}

// Deallocate does nothing.
func (Heap[T]) Deallocate([]T) {}

// Aligned allocates buffers whose first element sits on a 64-byte boundary when
// the element size allows it. Buffers stay GC-managed: the aligned window is a
// sub-slice of a slightly larger typed allocation.
type Aligned[T any] struct{}

// Allocate returns an n element buffer, aligned when possible.
func (Aligned[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}
	if n == 0 {
		return nil, nil
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return make([]T, n), nil
	}

	// Enough spare elements to move the start up to Alignment-1 bytes.
	extra := (Alignment + size - 1) / size
	buf := make([]T, n+extra)
	for k := 0; k <= extra; k++ {
		addr := uintptr(unsafe.Pointer(&buf[k])) //nolint:gosec // address inspection only
		if addr&(Alignment-1) == 0 {
			return buf[k : k+n : k+n], nil
		}
	}
	// Element size does not divide the alignment; fall back to natural alignment.
	return buf[:n:n], nil
}

// Deallocate does nothing.
func (Aligned[T]) Deallocate([]T) {}

// IsAligned reports whether the first element of buf sits on an Alignment boundary.
func IsAligned[T any](buf []T) bool {
	if len(buf) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&buf[0]))&(Alignment-1) == 0 //nolint:gosec // address inspection only
}

// Stats tracks Pool usage.
type Stats struct {
	Allocs        uint64 // Allocate calls that succeeded
	Frees         uint64 // Deallocate calls
	Reused        uint64 // allocations served from a free list
	Rejected      uint64 // allocations refused by the budget
	LiveElements  int    // elements currently handed out
	PooledBuffers int    // buffers waiting in free lists
}

// maxPooledPerClass bounds how many buffers of one length are kept for reuse.
const maxPooledPerClass = 64

// Pool recycles buffers by exact length and optionally enforces a budget on the
// number of live elements. It is safe for concurrent use.
type Pool[T any] struct {
	mu     sync.Mutex
	free   map[int][][]T
	budget int
	stats  Stats
}

// NewPool creates a pool. A budget of 0 means unlimited.
func NewPool[T any](budget int) *Pool[T] {
	return &Pool[T]{
		free:   make(map[int][][]T),
		budget: budget,
	}
}

// Allocate returns a buffer of n elements, reusing a released one if available.
// Reused buffers are not cleared; the memory layer initializes every element.
func (p *Pool[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.budget > 0 && p.stats.LiveElements+n > p.budget {
		p.stats.Rejected++
		return nil, fmt.Errorf("%w: requested %d, live %d, budget %d",
			ErrBudgetExceeded, n, p.stats.LiveElements, p.budget)
	}

	var buf []T
	if list := p.free[n]; len(list) > 0 {
		buf = list[len(list)-1]
		p.free[n] = list[:len(list)-1]
		p.stats.PooledBuffers--
		p.stats.Reused++
	} else {
		buf = make([]T, n)
	}

	p.stats.LiveElements += n
	p.stats.Allocs++
	return buf, nil
}

// Deallocate puts buf back on its free list.
func (p *Pool[T]) Deallocate(buf []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(buf)
	p.stats.LiveElements -= n
	p.stats.Frees++
	if len(p.free[n]) < maxPooledPerClass {
		p.free[n] = append(p.free[n], buf[:n:n])
		p.stats.PooledBuffers++
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
