package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContiguousPushTruncateSwap(t *testing.T) {
	c := NewContiguous[string]()
	c.Push("a")
	c.Push("b")
	c.Push("c")
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "a", c.At(0))

	c.Swap(0, 2)
	assert.Equal(t, "c", c.At(0))
	assert.Equal(t, "a", c.At(2))

	old := c.SwapOut(1, "z")
	assert.Equal(t, "b", old)
	assert.Equal(t, "z", c.At(1))

	c.Truncate(1)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "c", c.At(0))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestSegmentedSpansMultipleBlocks(t *testing.T) {
	s := NewSegmentedSized[int](8 * 8) // tiny blocks to force multiple segments
	const n = 500
	for i := 0; i < n; i++ {
		s.Push(i)
	}
	require.Equal(t, n, s.Len())
	for i := 0; i < n; i++ {
		assert.Equal(t, i, s.At(i))
	}

	s.Swap(3, 400)
	assert.Equal(t, 400, s.At(3))
	assert.Equal(t, 3, s.At(400))

	s.Truncate(10)
	assert.Equal(t, 10, s.Len())
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, s.At(i))
	}
}

func TestBitPackedRoundTrip(t *testing.T) {
	b := NewBitPacked()
	vals := []bool{true, false, true, true, false}
	for _, v := range vals {
		b.Push(v)
	}
	require.Equal(t, len(vals), b.Len())
	for i, v := range vals {
		assert.Equal(t, v, b.At(i), "index %d", i)
	}
	assert.Equal(t, 3, b.PopCount())

	b.Swap(1, 2)
	assert.True(t, b.At(1))
	assert.False(t, b.At(2))

	old := b.SwapOut(0, false)
	assert.True(t, old)
	assert.False(t, b.At(0))

	b.Truncate(2)
	assert.Equal(t, 2, b.Len())
}

func TestIndexedFindOrdersByRow(t *testing.T) {
	idx := NewIndexed[string](NewContiguous[string]())
	idx.Push("Orange")
	idx.Push("Apple")
	idx.Push("Apple")

	assert.Equal(t, []int{1, 2}, idx.Find("Apple"))
	assert.Equal(t, []int{0}, idx.Find("Orange"))
	assert.Empty(t, idx.Find("Melon"))
}

func TestIndexedSwapAndDeleteMaintainIndex(t *testing.T) {
	idx := NewIndexed[int](NewContiguous[int]())
	for _, v := range []int{10, 20, 30} {
		idx.Push(v)
	}

	idx.Swap(0, 2)
	assert.Equal(t, []int{0}, idx.Find(30))
	assert.Equal(t, []int{2}, idx.Find(10))

	idx.Deleted(1)
	assert.Empty(t, idx.Find(20))
	// backing column slot is untouched until the table physically removes it
	assert.Equal(t, 20, idx.At(1))
}

func TestIndexedSetPanics(t *testing.T) {
	idx := NewIndexed[int](NewContiguous[int]())
	idx.Push(1)
	assert.Panics(t, func() { idx.Set(0, 2) })
}

func TestIndexedFindRange(t *testing.T) {
	idx := NewIndexed[int](NewContiguous[int]())
	for _, v := range []int{5, 1, 9, 3, 7} {
		idx.Push(v)
	}
	rows := idx.FindRange(3, 8)
	var vals []int
	for _, r := range rows {
		vals = append(vals, idx.At(r))
	}
	assert.Equal(t, []int{3, 5, 7}, vals)
}
