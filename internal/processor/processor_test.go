package processor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chncwang/arraym/internal/chunking"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/shape"
)

type layoutCase struct {
	name string
	mem  memory.Memory[int]
}

// layouts returns one memory of shape s per supported layout, plus strided views.
func layouts(t *testing.T, s shape.Shape) []layoutCase {
	t.Helper()
	var cases []layoutCase

	for _, order := range []mapper.Order{mapper.RowMajor, mapper.ColumnMajor} {
		c, err := memory.NewContiguous(s, order, 0, nil)
		require.NoError(t, err)
		cases = append(cases, layoutCase{order.String(), c})

		for z := range s {
			ms, err := memory.NewMultislice(s, z, order, 0, nil)
			require.NoError(t, err)
			cases = append(cases, layoutCase{fmt.Sprintf("multislice-%d-%s", z, order), ms})
		}
	}

	// strided view over a larger parent
	big := make(shape.Shape, len(s))
	strides := make([]int, len(s))
	origin := make([]int, len(s))
	for i, d := range s {
		big[i] = 2*d + 1
		strides[i] = 2
		origin[i] = 1
	}
	parent, err := memory.NewContiguous(big, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	cases = append(cases, layoutCase{"strided-view", parent.View(origin, s, strides)})

	msParent, err := memory.NewMultislice(big, len(s)-1, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	cases = append(cases, layoutCase{"multislice-view", msParent.View(origin, s, strides)})
	return cases
}

// label writes a unique id into every element: the declared-order linear index.
func label(m memory.Memory[int]) {
	s := m.Shape()
	c := chunking.New(s, chunking.DeclaredOrder(len(s)), 1)
	for id := 0; id < s.NumElements(); id++ {
		*m.At(c.ArrayIndex()) = id
		c.Advance(1)
	}
}

func TestDeclaredFillScenario(t *testing.T) {
	want := map[[2]int]int{{0, 0}: 1, {1, 0}: 2, {0, 1}: 3, {1, 1}: 4, {0, 2}: 5, {1, 2}: 6}

	for _, tc := range layouts(t, shape.Shape{2, 3}) {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.mem, ByDeclaredOrder)
			var coords [][]int
			value := 1
			for {
				coords = append(coords, append([]int(nil), p.ArrayIndex()...))
				ptr, more := p.AccessSingleElement()
				require.NotNil(t, ptr)
				*ptr = value
				value++
				if !more {
					break
				}
			}

			assert.Equal(t, 7, value)
			assert.Equal(t, [][]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}}, coords)
			for coord, v := range want {
				assert.Equal(t, v, *tc.mem.At(coord[:]), "at %v", coord)
			}
		})
	}
}

func TestLocalityVisitsEveryElementOnce(t *testing.T) {
	s := shape.Shape{3, 4, 5}

	for _, tc := range layouts(t, s) {
		t.Run(tc.name, func(t *testing.T) {
			label(tc.mem)
			p := New(tc.mem, ByMemoryLocality)
			axis := p.VaryingAxis()

			seen := make([]bool, s.NumElements())
			total := 0
			for {
				coord := append([]int(nil), p.ArrayIndex()...)
				run, more := p.AccessMaxElements()
				require.NotNil(t, run)
				require.Len(t, run, p.MaxElements())

				for k, id := range run {
					require.False(t, seen[id], "element %d visited twice", id)
					seen[id] = true
					at := append([]int(nil), coord...)
					at[axis] += k
					require.Equal(t, *tc.mem.At(at), id, "run element %d of %v", k, coord)
				}
				total += len(run)
				if !more {
					break
				}
			}
			assert.Equal(t, s.NumElements(), total)

			run, more := p.AccessMaxElements()
			assert.Nil(t, run)
			assert.False(t, more)
		})
	}
}

func TestLocalityRunLengths(t *testing.T) {
	s := shape.Shape{3, 4}

	col, err := memory.NewContiguous(s, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	p := New[int](col, ByMemoryLocality)
	assert.Equal(t, 3, p.MaxElements())
	assert.Equal(t, 4, p.NumRuns())
	assert.Equal(t, 0, p.VaryingAxis())
	assert.Equal(t, 1, p.Stride())

	row, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	p = New[int](row, ByMemoryLocality)
	assert.Equal(t, 4, p.MaxElements())
	assert.Equal(t, []int{1, 0}, p.Order())

	ms, err := memory.NewMultislice(s, 0, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	p = New[int](ms, ByMemoryLocality)
	assert.Equal(t, 4, p.MaxElements())
	assert.Equal(t, []int{1, 0}, p.Order(), "slice axis goes last")

	declared := New[int](row, ByDeclaredOrder)
	assert.Equal(t, 1, declared.MaxElements())
	assert.Equal(t, 12, declared.NumRuns())
}

func TestSingleElementsFollowLocality(t *testing.T) {
	row, err := memory.NewContiguous(shape.Shape{2, 3}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	label(row)

	p := New[int](row, ByMemoryLocality)
	var got []int
	for {
		ptr, more := p.AccessSingleElement()
		got = append(got, *ptr)
		if !more {
			break
		}
	}
	// declared ids are i + 2*j; row-major storage walks j fastest
	assert.Equal(t, []int{0, 2, 4, 1, 3, 5}, got)
}

func TestExhaustion(t *testing.T) {
	c, err := memory.NewContiguous(shape.Shape{1, 1}, mapper.RowMajor, 5, nil)
	require.NoError(t, err)

	p := New[int](c, ByDeclaredOrder)
	ptr, more := p.AccessSingleElement()
	require.NotNil(t, ptr)
	assert.Equal(t, 5, *ptr, "last element is valid")
	assert.False(t, more)

	ptr, more = p.AccessSingleElement()
	assert.Nil(t, ptr)
	assert.False(t, more)

	empty, err := memory.NewContiguous(shape.Shape{0, 4}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	for _, ordering := range []Ordering{ByMemoryLocality, ByDeclaredOrder} {
		p := New[int](empty, ordering)
		ptr, more := p.AccessSingleElement()
		assert.Nil(t, ptr, ordering.String())
		assert.False(t, more)
	}
}

func TestMisusePanics(t *testing.T) {
	c, err := memory.NewContiguous(shape.Shape{2, 3}, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)

	p := New[int](c, ByMemoryLocality)
	p.AccessSingleElement()
	assert.Panics(t, func() { p.AccessMaxElements() })

	declared := New[int](c, ByDeclaredOrder)
	assert.Panics(t, func() { declared.AccessMaxElements() })

	assert.Panics(t, func() { New[int](c, ByMemoryLocality, WithRuns(2, 1)) })
	assert.Panics(t, func() { New[int](c, ByMemoryLocality, WithRuns(0, 4)) })
	assert.Panics(t, func() { New[int](c, Ordering(9)) })
}

func TestWithRunsPartitions(t *testing.T) {
	s := shape.Shape{4, 3, 2}
	for _, tc := range layouts(t, s) {
		t.Run(tc.name, func(t *testing.T) {
			total := New(tc.mem, ByMemoryLocality).NumRuns()
			mid := total / 2

			counts := make(map[*int]int)
			for _, r := range [][2]int{{0, mid}, {mid, total}} {
				p := New(tc.mem, ByMemoryLocality, WithRuns(r[0], r[1]))
				assert.Equal(t, r[1]-r[0], p.NumRuns())
				for {
					run, more := p.AccessMaxElements()
					if run == nil {
						break
					}
					for k := range run {
						counts[&run[k]]++
					}
					if !more {
						break
					}
				}
			}

			assert.Len(t, counts, s.NumElements())
			for _, n := range counts {
				assert.Equal(t, 1, n)
			}
		})
	}
}

func TestNewWithOrder(t *testing.T) {
	c, err := memory.NewContiguous(shape.Shape{2, 3}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	label(c)

	p := NewWithOrder[int](c, []int{1, 0})
	assert.Equal(t, 3, p.MaxElements())

	p = NewWithOrder[int](c, []int{0, 1})
	assert.Equal(t, 1, p.MaxElements())
	var got []int
	for {
		run, more := p.AccessMaxElements()
		got = append(got, run...)
		if !more {
			break
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

var sink float64

func BenchmarkTraversal(b *testing.B) {
	s := shape.Shape{64, 64, 16}
	c, err := memory.NewContiguous(s, mapper.RowMajor, 1.0, nil)
	require.NoError(b, err)
	ms, err := memory.NewMultislice(s, 2, mapper.ColumnMajor, 1.0, nil)
	require.NoError(b, err)

	for _, bc := range []struct {
		name string
		mem  memory.Memory[float64]
	}{{"contiguous", c}, {"multislice", ms}} {
		b.Run(bc.name+"/declared", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				p := New(bc.mem, ByDeclaredOrder)
				var sum float64
				for {
					ptr, more := p.AccessSingleElement()
					sum += *ptr
					if !more {
						break
					}
				}
				sink = sum
			}
		})

		b.Run(bc.name+"/locality", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				var sum float64
				Iterate(bc.mem, func(run []float64) {
					for _, v := range run {
						sum += v
					}
				})
				sink = sum
			}
		})
	}
}

func TestRunCapacityEndsWithRun(t *testing.T) {
	s := shape.Shape{3, 2, 1}
	m, err := memory.NewContiguous(s, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	Fill[int](m, func(c []int) int { return c[0] + 10*c[1] })

	p := New[int](m, ByMemoryLocality)
	run, more := p.AccessMaxElements()
	require.True(t, more)
	assert.Len(t, run, 3)
	assert.Equal(t, 3, cap(run))

	grown := append(run, -7)
	grown[0] = -1
	assert.Equal(t, 10, *m.At([]int{0, 1, 0}))
	assert.Equal(t, 0, *m.At([]int{0, 0, 0}))

	view := m.View([]int{0, 0, 0}, shape.Shape{2, 2, 1}, []int{1, 1, 1})
	vrun, _ := New[int](view, ByMemoryLocality).AccessMaxElements()
	assert.Equal(t, 2, cap(vrun))
	_ = append(vrun, -7)
	assert.Equal(t, 2, *m.At([]int{2, 0, 0}))
}
