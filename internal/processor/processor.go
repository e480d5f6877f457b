// Package processor walks array memories in cache-friendly order.
//
// A Processor visits every element of a memory exactly once. In locality mode it
// follows the memory's physical layout and can hand out whole contiguous runs;
// in declared mode it walks axis 0 fastest, one element at a time.
//
//	p := processor.New(m, processor.ByMemoryLocality)
//	for {
//		run, more := p.AccessMaxElements()
//		if run == nil {
//			break
//		}
//		for i := range run {
//			run[i] *= 2
//		}
//		if !more {
//			break
//		}
//	}
//
// Before an access, ArrayIndex is the coordinate of the element that access
// returns. The element returned together with more == false is valid; the call
// after it returns nil.
package processor

import (
	"fmt"

	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/memory"
)

// Ordering selects the traversal order of a Processor.
type Ordering int

// Orderings.
const (
	// ByMemoryLocality follows ascending physical strides, slice axes last.
	ByMemoryLocality Ordering = iota
	// ByDeclaredOrder walks axis 0 fastest.
	ByDeclaredOrder
)

// String returns a human-readable ordering name.
func (o Ordering) String() string {
	switch o {
	case ByMemoryLocality:
		return "locality"
	case ByDeclaredOrder:
		return "declared"
	default:
		return "unknown"
	}
}

// Option configures a Processor.
type Option func(*options)

type options struct {
	first, last int // run range, last < 0 means all runs
}

// WithRuns restricts the traversal to runs [first, last). Run boundaries are
// those of the processor's plan, see chunking.RunStart.
func WithRuns(first, last int) Option {
	return func(o *options) {
		o.first = first
		o.last = last
	}
}

// Processor is a single-pass cursor over a memory.
type Processor[T any] struct {
	mem     memory.Memory[T]
	cursor  *chunking.Chunking
	run     int
	runs    int // runs in range
	maxOK   bool
	step    int // 0 until the first access
	left    int // elements not yet returned
	invalid bool
	it      memory.DimIterator[T]
}

// New creates a processor for m.
func New[T any](m memory.Memory[T], ordering Ordering, opts ...Option) *Processor[T] {
	switch ordering {
	case ByMemoryLocality:
		plan := chunking.Locality(m.Shape(), m.Mapper())
		return newProcessor(m, plan.Order, plan.Run, true, opts)
	case ByDeclaredOrder:
		plan := chunking.Declared(m.Shape())
		return newProcessor(m, plan.Order, plan.Run, false, opts)
	default:
		panic(fmt.Sprintf("processor: unknown ordering %d", ordering))
	}
}

// NewWithOrder creates a processor walking axes in an explicit order, order[0]
// fastest. Runs are as long as that order allows.
func NewWithOrder[T any](m memory.Memory[T], order []int, opts ...Option) *Processor[T] {
	mp := m.Mapper()
	run := chunking.MaxRun(m.Shape(), mp.Strides(), mp.Kinds(), order)
	return newProcessor(m, order, run, true, opts)
}

func newProcessor[T any](m memory.Memory[T], order []int, run int, maxOK bool, opts []Option) *Processor[T] {
	s := m.Shape()
	total := chunking.NumRuns(s, run)
	o := options{first: 0, last: -1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.last < 0 {
		o.last = total
	}
	if o.first < 0 || o.first > o.last || o.last > total {
		panic(fmt.Sprintf("processor: run range [%d, %d) outside [0, %d)", o.first, o.last, total))
	}

	return &Processor[T]{
		mem:     m,
		cursor:  chunking.NewRange(s, order, run, o.first),
		run:     run,
		runs:    o.last - o.first,
		maxOK:   maxOK,
		left:    (o.last - o.first) * run,
		invalid: true,
	}
}

// AccessSingleElement returns the next element and whether more remain after it.
// It returns nil once the traversal is exhausted.
func (p *Processor[T]) AccessSingleElement() (*T, bool) {
	if !p.access(1) {
		return nil, false
	}
	ptr := p.it.Pointer()
	return ptr, p.consume(1)
}

// AccessMaxElements returns the next run of MaxElements() elements and whether
// more runs remain after it. The run's capacity ends with the run, so appending
// to it never writes into storage. It returns nil once the traversal is
// exhausted. It panics for declared-order processors.
func (p *Processor[T]) AccessMaxElements() ([]T, bool) {
	if !p.maxOK {
		panic("processor: run access requires a locality ordered processor")
	}
	if !p.access(p.run) {
		return nil, false
	}
	run := p.it.Run()[:p.run:p.run]
	return run, p.consume(p.run)
}

func (p *Processor[T]) access(n int) bool {
	switch {
	case p.step == 0:
		p.step = n
	case p.step != n:
		panic(fmt.Sprintf("processor: mixing access sizes %d and %d", p.step, n))
	}
	if p.left == 0 {
		return false
	}
	if p.invalid {
		p.it = p.mem.BeginDim(p.cursor.VaryingAxis(), p.cursor.ArrayIndex())
		p.invalid = false
	} else {
		p.it.Add(n)
	}
	return true
}

// consume accounts for n returned elements and moves the cursor to the next
// element to return.
func (p *Processor[T]) consume(n int) bool {
	p.left -= n
	if p.left == 0 {
		return false
	}
	if p.cursor.Advance(n) {
		p.invalid = true
	}
	return true
}

// MaxElements returns the number of elements returned by AccessMaxElements.
func (p *Processor[T]) MaxElements() int {
	return p.run
}

// NumRuns returns the number of runs this processor visits.
func (p *Processor[T]) NumRuns() int {
	return p.runs
}

// Remaining returns the number of elements not yet returned.
func (p *Processor[T]) Remaining() int {
	return p.left
}

// Stride returns the physical stride of the fastest varying axis.
func (p *Processor[T]) Stride() int {
	return p.mem.Mapper().Stride(p.cursor.VaryingAxis())
}

// ArrayIndex returns the coordinate of the element the next access returns. The
// slice is owned by the processor.
func (p *Processor[T]) ArrayIndex() []int {
	return p.cursor.ArrayIndex()
}

// IteratorIndex is ArrayIndex in traversal axis numbering.
func (p *Processor[T]) IteratorIndex() []int {
	return p.cursor.IteratorIndex()
}

// VaryingAxis returns the fastest varying axis.
func (p *Processor[T]) VaryingAxis() int {
	return p.cursor.VaryingAxis()
}

// Order returns the traversal axis order, fastest first.
func (p *Processor[T]) Order() []int {
	return p.cursor.Order()
}
