package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/shape"
)

func TestSameOrdering(t *testing.T) {
	s := shape.Shape{2, 3}
	row := mapper.NewContiguous(0, s, mapper.RowMajor)
	col := mapper.NewContiguous(0, s, mapper.ColumnMajor)
	scaled := mapper.FromStrides(0, []int{30, 10}, mapper.NoSliceAxis)

	assert.True(t, SameOrdering(row, scaled))
	assert.False(t, SameOrdering(row, col))
	assert.True(t, SameOrdering(col, col))
}

func TestIterateJointDifferentOrdering(t *testing.T) {
	s := shape.Shape{2, 3}
	row, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	col, err := memory.NewContiguous(s, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	label(col)

	calls := 0
	IterateJoint[int, int](row, col, func(dst, src []int) {
		require.Len(t, dst, 1)
		require.Len(t, src, 1)
		dst[0] = src[0] * 10
		calls++
	})

	assert.Equal(t, 6, calls)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, (i+2*j)*10, *row.At([]int{i, j}))
		}
	}
}

func TestIterateJointSameOrdering(t *testing.T) {
	s := shape.Shape{2, 3}
	dst, err := memory.NewContiguous(s, mapper.RowMajor, 0.0, nil)
	require.NoError(t, err)
	src, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	label(src)

	var lengths []int
	IterateJoint[float64, int](dst, src, func(d []float64, s []int) {
		lengths = append(lengths, len(d))
		for k := range d {
			d[k] = float64(s[k]) / 2
		}
	})

	assert.Equal(t, []int{3, 3}, lengths)
	assert.Equal(t, []float64{0, 1, 2, 0.5, 1.5, 2.5}, dst.Data())
}

func TestIterateJointSharedRunIsShortest(t *testing.T) {
	s := shape.Shape{2, 3}
	parent, err := memory.NewContiguous(shape.Shape{4, 6}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	view := parent.View([]int{0, 0}, s, []int{2, 2})

	src, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	label(src)

	require.True(t, SameOrdering(view.Mapper(), src.Mapper()))

	calls := 0
	IterateJoint(view, memory.Memory[int](src), func(d, s []int) {
		require.Len(t, d, 1)
		d[0] = s[0] + 100
		calls++
	})

	assert.Equal(t, 6, calls)
	assert.Equal(t, 100, *parent.At([]int{0, 0}))
	assert.Equal(t, 104, *parent.At([]int{0, 4}))
	assert.Equal(t, 105, *parent.At([]int{2, 4}))
	assert.Equal(t, 0, *parent.At([]int{1, 1}), "outside the view")
}

func TestIterateJointMultislice(t *testing.T) {
	s := shape.Shape{3, 2, 4}
	dst, err := memory.NewMultislice(s, 1, mapper.ColumnMajor, 0, nil)
	require.NoError(t, err)
	src, err := memory.NewContiguous(s, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	label(src)

	IterateJoint[int, int](dst, src, func(d, s []int) {
		copy(d, s)
	})

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 4; k++ {
				coord := []int{i, j, k}
				assert.Equal(t, *src.At(coord), *dst.At(coord), "at %v", coord)
			}
		}
	}
}

func TestIterateJointPreconditions(t *testing.T) {
	a, err := memory.NewContiguous(shape.Shape{2, 3}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	b, err := memory.NewContiguous(shape.Shape{3, 2}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)

	assert.Panics(t, func() {
		IterateJoint[int, int](a, b, func(_, _ []int) {})
	})

	empty, err := memory.NewContiguous(shape.Shape{0, 2}, mapper.RowMajor, 0, nil)
	require.NoError(t, err)
	called := false
	IterateJoint[int, int](empty, empty, func(_, _ []int) { called = true })
	assert.False(t, called)
}

func TestIterate(t *testing.T) {
	for _, tc := range layouts(t, shape.Shape{3, 2, 2}) {
		t.Run(tc.name, func(t *testing.T) {
			label(tc.mem)
			sum, count := 0, 0
			Iterate(tc.mem, func(run []int) {
				for _, v := range run {
					sum += v
					count++
				}
			})
			assert.Equal(t, 12, count)
			assert.Equal(t, 66, sum)
		})
	}
}

func TestFill(t *testing.T) {
	for _, tc := range layouts(t, shape.Shape{2, 3, 4}) {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			Fill(tc.mem, func(coord []int) int {
				calls++
				return coord[0]*100 + coord[1]*10 + coord[2]
			})
			assert.Equal(t, 24, calls)

			for i := 0; i < 2; i++ {
				for j := 0; j < 3; j++ {
					for k := 0; k < 4; k++ {
						assert.Equal(t, i*100+j*10+k, *tc.mem.At([]int{i, j, k}))
					}
				}
			}
		})
	}
}
