package table

import (
	"fmt"
	"sort"

	"github.com/kasuganosora/tablestore/column"
	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/internal/rug"
	"github.com/kasuganosora/tablestore/rowid"
)

// sortedInsertIndex binary-searches t's sort key for where row belongs:
// after every existing row whose key is not greater than row's, so rows
// with equal keys keep their insertion order.
func sortedInsertIndex[R any](t *Table[R], row R) int {
	lo, hi := 0, t.rows.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		if t.sortKey(row, t.rows.At(mid)) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// insertAt inserts row at idx by appending then walking it back into
// place with adjacent swaps, the only primitive every column.Column
// backing is guaranteed to support in the right order.
func insertAt[R any](col column.Column[R], idx int, row R) {
	col.Push(row)
	for i := col.Len() - 1; i > idx; i-- {
		col.Swap(i, i-1)
	}
}

func selfMutationErr[R any](t *Table[R]) error {
	return errs.ErrSelfMutation(t.domain, t.name)
}

// Push appends row, returning its new row-id. On a consistent table this
// reuses the lowest free-listed slot instead of growing storage, and
// stages the row-id onto the pending-add list for the next flush (spec
// §4.4, §4.7).
func (g *WriteGuard[R]) Push(row R) rowid.ID[R] {
	g.checkLive()
	t := g.t
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	if t.kind == KindSorted {
		idx := sortedInsertIndex(t, row)
		insertAt[R](t.rows, idx, row)
		return rowid.FromIndex[R](uint32(idx))
	}
	if t.kind == KindConsistent && len(t.freeList) > 0 {
		idx := t.freeList[0]
		t.freeList = t.freeList[1:]
		t.rows.Set(int(idx), row)
		t.pendingAdd = append(t.pendingAdd, idx)
		t.dirty = true
		return rowid.FromIndex[R](idx)
	}
	t.rows.Push(row)
	idx := uint32(t.rows.Len() - 1)
	if t.kind == KindConsistent {
		t.pendingAdd = append(t.pendingAdd, idx)
		t.dirty = true
	}
	return rowid.FromIndex[R](idx)
}

// NextPushed previews the row-id the next Push would assign, without
// mutating the table. Useful when a row needs to reference its own id.
func (g *WriteGuard[R]) NextPushed() rowid.ID[R] {
	g.checkLive()
	t := g.t
	if t.kind == KindConsistent && len(t.freeList) > 0 {
		return rowid.FromIndex[R](t.freeList[0])
	}
	return rowid.FromIndex[R](uint32(t.rows.Len()))
}

// PushArray appends rows as one contiguous block and returns the range
// of row-ids it now occupies (spec §4.4). Consistent tables stage every
// row-id in the block onto the pending-add list.
func (g *WriteGuard[R]) PushArray(rows []R) rowid.Range[R] {
	g.checkLive()
	t := g.t
	if t.kind == KindSorted {
		panic("tablestore: use Merge to bulk-insert into a sorted table")
	}
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	start := uint32(t.rows.Len())
	t.rows.Reserve(t.rows.Len() + len(rows))
	for _, row := range rows {
		t.rows.Push(row)
	}
	end := uint32(t.rows.Len())
	r := rowid.NewRange(rowid.FromIndex[R](start), rowid.FromIndex[R](end))
	if t.kind == KindConsistent {
		r.Each(func(id rowid.ID[R]) bool {
			t.pendingAdd = append(t.pendingAdd, id.Index())
			return true
		})
		t.dirty = true
	}
	return r
}

// Clear empties the table immediately, bumping its epoch so any
// outstanding Checked row-ids are invalidated, and marks it dirty so a
// flush will notify trackers of the clear (spec §4.7).
func (g *WriteGuard[R]) Clear() {
	g.checkLive()
	t := g.t
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	n := t.rows.Len()
	for i := 0; i < n; i++ {
		t.rows.Deleted(i)
	}
	t.rows.Truncate(0)
	t.freeList = nil
	t.pendingAdd = nil
	t.pendingDelete = nil
	t.cleared = true
	t.dirty = true
	t.epoch++
}

// Delete logically removes the row at id from a consistent table,
// adding its slot to the free-list and staging it onto the pending-
// delete list. It returns ErrDeleteUnsupported for any other table kind,
// since only consistent tables carry a free-list to begin with.
func (g *WriteGuard[R]) Delete(id rowid.ID[R]) error {
	g.checkLive()
	t := g.t
	if t.kind != KindConsistent {
		return errs.ErrDeleteUnsupported(t.kind.String())
	}
	if t.flushing.Load() {
		return selfMutationErr(t)
	}
	idx := id.Index()
	if idx >= uint32(t.rows.Len()) {
		return errs.ErrRowNotFound(t.domain, t.name, idx)
	}
	for _, f := range t.freeList {
		if f == idx {
			return errs.ErrRowNotFound(t.domain, t.name, idx)
		}
	}
	t.rows.Deleted(int(idx))
	t.freeList = append(t.freeList, idx)
	sort.Slice(t.freeList, func(i, j int) bool { return t.freeList[i] < t.freeList[j] })
	t.pendingDelete = append(t.pendingDelete, idx)
	t.dirty = true
	return nil
}

// VisitResult tells Visit what to do with the row it just inspected.
type VisitResult int

const (
	Keep VisitResult = iota
	Drop
	// Break keeps the current row and ends the pass: every remaining
	// physical row is carried to the tail verbatim, with no further
	// calls to f (spec §4.4, §9 "Break").
	Break
)

// VisitHandle lets a Visit callback stage extra rows for insertion
// alongside the row it is currently looking at, folded into the same
// compaction pass rather than appended afterward.
type VisitHandle[R any] struct {
	rug *rug.Rug[R]
}

// Insert stages row for insertion during the current Visit pass.
func (h *VisitHandle[R]) Insert(row R) { h.rug.PushValue(row) }

// Visit walks every physical row front-to-back exactly once, in a
// single compaction pass that can both drop and insert rows without the
// O(n) extra allocation a naive filter-then-append would need: dropped
// rows free up slots that a FIFO of kept/inserted rows (the "rug") fills
// in immediately behind the read cursor (spec §4.4 "rug-push").
//
// f receives the row's current id and value plus a handle for staging
// insertions, and returns the (possibly modified) row together with
// whether to keep, drop, or break (spec §4.4, §9 "Break"). Once f
// returns Break, Visit stops calling it: the row that triggered Break is
// kept, and every row still unvisited is carried to the tail verbatim.
func (g *WriteGuard[R]) Visit(f func(id rowid.ID[R], row R, out *VisitHandle[R]) (R, VisitResult)) {
	g.checkLive()
	t := g.t
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	n := t.rows.Len()
	r := rug.New[R]()
	h := &VisitHandle[R]{rug: r}
	write := 0
	broke := false
	for read := 0; read < n; read++ {
		row := t.rows.At(read)
		if broke {
			r.PushValue(row)
		} else {
			updated, result := f(rowid.FromIndex[R](uint32(read)), row, h)
			switch result {
			case Drop:
				t.rows.Deleted(read)
			case Break:
				r.PushValue(updated)
				broke = true
			default: // Keep
				r.PushValue(updated)
			}
		}
		for write <= read {
			v, ok := r.Front()
			if !ok {
				break
			}
			r.Pull()
			t.rows.Set(write, v)
			write++
		}
	}
	r.DrainTo(func(v R) {
		if write < t.rows.Len() {
			t.rows.Set(write, v)
		} else {
			t.rows.Push(v)
		}
		write++
	})
	t.rows.Truncate(write)
	t.freeList = nil
	t.epoch++
	if t.kind == KindConsistent {
		t.pendingAdd = nil
		t.pendingDelete = nil
		t.cleared = true
		t.dirty = true
	}
}

// Retain is Visit specialised to drop-only filtering: keep reports
// whether a row should survive, with no modification and no insertion.
func (g *WriteGuard[R]) Retain(keep func(id rowid.ID[R], row R) bool) {
	g.Visit(func(id rowid.ID[R], row R, _ *VisitHandle[R]) (R, VisitResult) {
		if keep(id, row) {
			return row, Keep
		}
		return row, Drop
	})
}

func (t *Table[R]) String() string {
	return fmt.Sprintf("%s.%s(%s)", t.domain, t.name, t.kind)
}
