package column

import (
	"cmp"

	"github.com/tidwall/btree"

	"github.com/kasuganosora/tablestore/errs"
)

// pair is one entry of an Indexed column's ordered (value, row) map,
// ordered first by Value then by Row so that iterating a single value
// yields rows in ascending order (spec §4.2).
type pair[K cmp.Ordered] struct {
	Value K
	Row   uint32
}

func lessPair[K cmp.Ordered](a, b pair[K]) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Row < b.Row
}

// Indexed wraps a Column[K] with an ordered (value, row) → () map,
// maintained on every push/swap/delete so Find stays logarithmic. Direct
// mutable indexing is refused (Set panics); insert and delete are the
// only supported ways to change an indexed column's contents, matching
// spec §4.2.
type Indexed[K cmp.Ordered] struct {
	col  Column[K]
	tree *btree.BTreeG[pair[K]]
}

// NewIndexed wraps col (assumed freshly built, or already populated) with
// an ordered index built from its current contents.
func NewIndexed[K cmp.Ordered](col Column[K]) *Indexed[K] {
	idx := &Indexed[K]{col: col, tree: btree.NewBTreeG[pair[K]](lessPair[K])}
	for i := 0; i < col.Len(); i++ {
		idx.tree.Set(pair[K]{Value: col.At(i), Row: uint32(i)})
	}
	return idx
}

func (x *Indexed[K]) Len() int { return x.col.Len() }

func (x *Indexed[K]) Push(v K) {
	x.col.Push(v)
	x.tree.Set(pair[K]{Value: v, Row: uint32(x.col.Len() - 1)})
}

func (x *Indexed[K]) Truncate(n int) {
	for i := n; i < x.col.Len(); i++ {
		x.tree.Delete(pair[K]{Value: x.col.At(i), Row: uint32(i)})
	}
	x.col.Truncate(n)
}

func (x *Indexed[K]) Reserve(n int) { x.col.Reserve(n) }

func (x *Indexed[K]) Clear() {
	x.tree = btree.NewBTreeG[pair[K]](lessPair[K])
	x.col.Clear()
}

func (x *Indexed[K]) At(i int) K { return x.col.At(i) }

// Set always panics: mutating an indexed column's elements in place
// would desynchronize the ordered map from the backing column. Use
// Push/Truncate/Swap/SwapOut/Deleted, which all keep the index coherent.
func (x *Indexed[K]) Set(int, K) {
	panic(errs.ErrIndexedColumnMutation())
}

func (x *Indexed[K]) Swap(i, j int) {
	if i == j {
		return
	}
	vi, vj := x.col.At(i), x.col.At(j)
	x.tree.Delete(pair[K]{Value: vi, Row: uint32(i)})
	x.tree.Delete(pair[K]{Value: vj, Row: uint32(j)})
	x.col.Swap(i, j)
	x.tree.Set(pair[K]{Value: vj, Row: uint32(i)})
	x.tree.Set(pair[K]{Value: vi, Row: uint32(j)})
}

func (x *Indexed[K]) SwapOut(i int, v K) K {
	old := x.col.At(i)
	x.tree.Delete(pair[K]{Value: old, Row: uint32(i)})
	x.col.Set(i, v)
	x.tree.Set(pair[K]{Value: v, Row: uint32(i)})
	return old
}

// Deleted drops the row at i from the ordered map. It does not touch the
// backing column; the caller (table delete/visit machinery) is
// responsible for eventually removing the slot itself.
func (x *Indexed[K]) Deleted(i int) {
	x.tree.Delete(pair[K]{Value: x.col.At(i), Row: uint32(i)})
	x.col.Deleted(i)
}

// Find returns the row positions holding value, in ascending order.
func (x *Indexed[K]) Find(value K) []int {
	var rows []int
	x.tree.Ascend(pair[K]{Value: value, Row: 0}, func(item pair[K]) bool {
		if item.Value != value {
			return false
		}
		rows = append(rows, int(item.Row))
		return true
	})
	return rows
}

// FindRange returns the row positions whose value falls in the
// half-open range [lo, hi), in ascending (value, row) order.
func (x *Indexed[K]) FindRange(lo, hi K) []int {
	var rows []int
	x.tree.Ascend(pair[K]{Value: lo, Row: 0}, func(item pair[K]) bool {
		if item.Value >= hi {
			return false
		}
		rows = append(rows, int(item.Row))
		return true
	})
	return rows
}

var _ Column[int] = (*Indexed[int])(nil)
