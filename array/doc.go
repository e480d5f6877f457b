// Copyright 2025 The arraym Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides N-dimensional arrays with selectable memory layouts.
//
// # Overview
//
// An Array has a rank fixed at construction and stores its elements in one of
// three layouts:
//   - RowMajor: one buffer, last axis varies fastest
//   - ColumnMajor: one buffer, first axis varies fastest
//   - Multislice: one buffer per index of a chosen slice axis
//
// Views (Sub, Slice, ViewOf) alias the storage of the array they come from and
// must not outlive it. Clone copies the logical extent only.
//
// # Basic Usage
//
//	import "github.com/chncwang/arraym/array"
//
//	func main() {
//	    a, _ := array.FromSlice(array.Shape{2, 3}, array.RowMajor, []float32{1, 2, 3, 4, 5, 6})
//	    b, _ := array.FromShape[float32](array.Shape{2, 3}, array.MultisliceAlong(1))
//
//	    b.CopyFrom(a)          // elements land on the same coordinates
//	    v := b.Get(1, 2)       // 6
//	}
//
// # Traversal
//
// A Processor walks an array either in declared axis order (axis 0 fastest) or
// in memory-locality order, where it can hand out contiguous runs:
//
//	p := array.NewProcessor(a.Memory(), array.ByMemoryLocality)
//	for {
//	    run, more := p.AccessMaxElements()
//	    for i := range run {
//	        run[i] *= 2
//	    }
//	    if !more {
//	        break
//	    }
//	}
//
// IterateJoint walks two arrays of the same shape together, passing runs of
// matching coordinates to an operation, whatever their layouts.
//
// # Memory Management
//
// Storage comes from an Allocator. The default is the Go heap; Aligned returns
// cache-line aligned buffers and Pool recycles buffers under an optional element
// budget. Release returns owned storage to its allocator.
package array
